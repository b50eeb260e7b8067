package events

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypePresenceTransition EventType = "presence_transition"
	EventTypeGuildJoined        EventType = "guild_joined"
	EventTypeWatcherSynced      EventType = "watcher_synced"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// PresenceTransitionEvent is a raw voice-presence transition as delivered by
// the gateway: the actor joined a channel or moved between channels. Channel
// IDs are nil when the actor was not in a channel on that side.
type PresenceTransitionEvent struct {
	GuildID          int64
	GuildName        string
	GuildIconURL     string
	ActorID          int64
	ActorDisplayName string
	ActorAvatarURL   string
	ActorIsBot       bool
	ActorRoleIDs     []int64
	WasChannelID     *int64
	IsChannelID      *int64
	ChannelName      string
}

func (e PresenceTransitionEvent) Type() EventType {
	return EventTypePresenceTransition
}

// Moved reports a channel-to-channel move.
func (e PresenceTransitionEvent) Moved() bool {
	return e.WasChannelID != nil && e.IsChannelID != nil && *e.WasChannelID != *e.IsChannelID
}

// Joined reports a fresh join from outside voice.
func (e PresenceTransitionEvent) Joined() bool {
	return e.WasChannelID == nil && e.IsChannelID != nil
}

// GuildJoinedEvent fires when the bot is added to a guild
type GuildJoinedEvent struct {
	GuildID   int64
	GuildName string
}

func (e GuildJoinedEvent) Type() EventType {
	return EventTypeGuildJoined
}

// WatcherSyncedEvent fires after a watcher's policy fields were mirrored to
// the user's records on other guilds
type WatcherSyncedEvent struct {
	UserID        int64
	SourceGuildID int64
	TargetCount   int64
}

func (e WatcherSyncedEvent) Type() EventType {
	return EventTypeWatcherSynced
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking the gateway loop
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus stashes events published during a unit of work and flushes
// them to the underlying bus only after a successful commit.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits all pending events. Called after a successful DB commit; events
// are emitted on a background context so they outlive the request.
func (b *TransactionalBus) Flush(ctx context.Context) error {
	eventCtx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard drops pending events. Called after a rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
