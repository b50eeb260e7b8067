package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"whojoined/bot"
	"whojoined/config"
	"whojoined/database"
	"whojoined/events"
	"whojoined/i18n"
	"whojoined/repository"
	"whojoined/service"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting whojoined bot...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize event bus
	eventBus := events.NewBus()

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Load translations
	translator, err := i18n.New(cfg.DefaultLocale)
	if err != nil {
		return fmt.Errorf("failed to load translations: %w", err)
	}

	// Initialize services
	log.Println("Initializing services...")
	defaults := service.SystemDefaults{
		Locale:   cfg.DefaultLocale,
		Timezone: cfg.DefaultTimezone,
	}
	resolver := service.NewResolver(defaults, translator)
	watcherService := service.NewWatcherService(uowFactory, defaults)
	guildConfigService := service.NewGuildConfigService(uowFactory, defaults)
	log.Println("Services initialized successfully")

	// Initialize Discord bot
	log.Println("Initializing Discord bot...")
	discordBot, err := bot.New(cfg, watcherService, guildConfigService, eventBus, translator)
	if err != nil {
		return fmt.Errorf("failed to initialize Discord bot: %w", err)
	}
	log.Println("Discord bot initialized successfully")

	// The notification pipeline needs the live session for presence lookups
	// and DM delivery, so it is wired after the bot connects
	notificationService := service.NewNotificationService(uowFactory, resolver, discordBot.PresenceProvider(), discordBot.Notifier(), translator)
	eventBus.Subscribe(events.EventTypePresenceTransition, func(ctx context.Context, event events.Event) {
		transition, ok := event.(events.PresenceTransitionEvent)
		if !ok {
			return
		}
		if err := notificationService.Dispatch(ctx, &transition); err != nil {
			log.Printf("Failed to dispatch notification: %v", err)
		}
	})

	// Wait for context cancellation
	log.Printf("Bot is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	// Cleanup resources
	log.Println("Shutting down bot...")

	// Close Discord bot connection
	if err := discordBot.Close(); err != nil {
		log.Printf("Error closing Discord bot: %v", err)
	}

	// Give cleanup operations time to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Close database connection
	log.Println("Closing database connection...")
	db.Close()

	select {
	case <-shutdownCtx.Done():
		log.Println("Shutdown timeout exceeded")
	case <-time.After(1 * time.Second):
		log.Println("Shutdown completed")
	}

	return nil
}
