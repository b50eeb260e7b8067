package service

import (
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Markers are the content-flag toggles a template can carry. Their tokens
// are stripped from the rendered text; presence anywhere in the template
// sets the flag, duplicates are idempotent.
type Markers struct {
	ShowUserImage  bool
	ShowServerInfo bool
	ChannelLink    bool
	ShowDate       bool
}

const (
	markerShowUserImage  = "{showUserImage}"
	markerShowServerInfo = "{showServerInfo}"
	markerChannelLink    = "{channelLink}"
	markerShowDate       = "{showDate}"
)

// ParseMarkers extracts the marker flags from a raw template and returns the
// template with all marker tokens removed.
func ParseMarkers(template string) (Markers, string) {
	m := Markers{
		ShowUserImage:  strings.Contains(template, markerShowUserImage),
		ShowServerInfo: strings.Contains(template, markerShowServerInfo),
		ChannelLink:    strings.Contains(template, markerChannelLink),
		ShowDate:       strings.Contains(template, markerShowDate),
	}
	cleaned := strings.NewReplacer(
		markerShowUserImage, "",
		markerShowServerInfo, "",
		markerChannelLink, "",
		markerShowDate, "",
	).Replace(template)
	return m, cleaned
}

// RenderContext carries the transition facts substituted into templates.
// Title and body share one context.
type RenderContext struct {
	WatcherName string // {me}
	ActorName   string // {user}
	ChannelName string // {channel}
	ServerName  string // {server}
	Date        string // {date}
}

// Substitute expands the placeholders in an already marker-stripped template
// and normalizes literal \n sequences into line breaks.
func Substitute(template string, ctx RenderContext) string {
	normalized := strings.ReplaceAll(template, `\n`, "\n")
	return strings.NewReplacer(
		"{me}", ctx.WatcherName,
		"{user}", ctx.ActorName,
		"{channel}", ctx.ChannelName,
		"{server}", ctx.ServerName,
		"{date}", ctx.Date,
	).Replace(normalized)
}

// Rendered is the output of template rendering for one notification. Only
// the body template's markers drive the flags for the outgoing message;
// marker tokens in the title are stripped but ignored.
type Rendered struct {
	Title   string
	Body    string
	Markers Markers
}

// RenderNotification renders the body and title templates against a shared
// context.
func RenderNotification(bodyTemplate, titleTemplate string, ctx RenderContext) Rendered {
	markers, cleanedBody := ParseMarkers(bodyTemplate)
	_, cleanedTitle := ParseMarkers(titleTemplate)
	return Rendered{
		Title:   Substitute(cleanedTitle, ctx),
		Body:    Substitute(cleanedBody, ctx),
		Markers: markers,
	}
}

// dateLayouts maps base locales to their conventional date-time layout.
// Unknown locales use the "en" layout.
var dateLayouts = map[string]string{
	"en": "1/2/2006, 3:04:05 PM",
	"es": "2/1/2006, 15:04:05",
}

// FormatDate formats the instant in the given locale and timezone. An
// unrecognized timezone falls back to UTC with a warning; the returned bool
// reports that fallback.
func FormatDate(now time.Time, locale, timezone string) (string, bool) {
	loc, err := time.LoadLocation(timezone)
	fellBack := false
	if err != nil {
		log.Warnf("Invalid timezone %q, falling back to UTC", timezone)
		loc = time.UTC
		fellBack = true
	}

	base := strings.ToLower(locale)
	if i := strings.IndexAny(base, "-_"); i > 0 {
		base = base[:i]
	}
	layout, ok := dateLayouts[base]
	if !ok {
		layout = dateLayouts["en"]
	}
	return now.In(loc).Format(layout), fellBack
}
