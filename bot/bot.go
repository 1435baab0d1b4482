// Package bot wires the Telegram session, storage, reconciler and handlers
// together and owns the process lifecycle.
package bot

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"github.com/aziz-turgunoff/kitob-tg-bot/channel"
	"github.com/aziz-turgunoff/kitob-tg-bot/command"
	"github.com/aziz-turgunoff/kitob-tg-bot/config"
	"github.com/aziz-turgunoff/kitob-tg-bot/database"
	"github.com/aziz-turgunoff/kitob-tg-bot/handlers"
	"github.com/aziz-turgunoff/kitob-tg-bot/repost"
	"github.com/aziz-turgunoff/kitob-tg-bot/retry"
	"github.com/aziz-turgunoff/kitob-tg-bot/utils"
)

// Bot encapsulates the bot's state.
type Bot struct {
	API        *tgbotapi.BotAPI
	db         *sql.DB
	store      *database.PostStore
	reconciler *repost.Reconciler
	runner     *repost.Runner
	handler    *handlers.Handler
	cron       *cron.Cron

	intervalDays int
}

// NewBot loads configuration and builds every component.
func NewBot() (*Bot, error) {
	config.Load()

	token := viper.GetString("BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("no bot token provided, set BOT_TOKEN")
	}
	channelRef := viper.GetString("CHANNEL_ID")
	if channelRef == "" {
		return nil, fmt.Errorf("no channel configured, set CHANNEL_ID")
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("error creating Telegram session: %w", err)
	}

	db, driver, err := database.InitDB(viper.GetString("DATABASE_URL"))
	if err != nil {
		return nil, err
	}

	gateway, err := channel.NewGateway(api, channelRef)
	if err != nil {
		db.Close()
		return nil, err
	}

	policy := retry.Policy{
		BaseDelay:   time.Duration(viper.GetInt("retry.baseDelaySeconds")) * time.Second,
		MaxDelay:    time.Duration(viper.GetInt("retry.maxDelaySeconds")) * time.Second,
		MaxAttempts: viper.GetInt("retry.maxAttempts"),
	}

	store := database.NewPostStore(db, driver)
	admins := database.NewAdminStore(db, driver)
	contact := viper.GetString("bot.contact")
	reconciler := repost.New(store, gateway, policy, contact)
	runner := &repost.Runner{}
	intervalDays := viper.GetInt("repost.intervalDays")

	handler := handlers.New(handlers.Config{
		Bot:          api,
		Store:        store,
		Admins:       admins,
		Auth:         utils.NewAuth(admins),
		Gateway:      gateway,
		Reconciler:   reconciler,
		Runner:       runner,
		Policy:       policy,
		Timezone:     loadTimezone(),
		IntervalDays: intervalDays,
		Contact:      contact,
	})

	utils.InitLogger(api)

	return &Bot{
		API:          api,
		db:           db,
		store:        store,
		reconciler:   reconciler,
		runner:       runner,
		handler:      handler,
		intervalDays: intervalDays,
	}, nil
}

// loadTimezone resolves the admin-facing calendar timezone. The original
// deployment lives in UTC+5, hence the fixed-zone fallback when tzdata is
// unavailable.
func loadTimezone() *time.Location {
	name := viper.GetString("repost.timezone")
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("Unknown timezone %q, falling back to UTC+5: %v", name, err)
		return time.FixedZone("UZT", 5*60*60)
	}
	return loc
}

// Start registers commands, starts the scheduler and begins consuming
// updates.
func (b *Bot) Start(ctx context.Context) error {
	if err := command.Register(b.API); err != nil {
		log.Printf("Cannot register bot commands: %v", err)
	}

	b.startScheduler(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.API.GetUpdatesChan(u)
	go func() {
		for update := range updates {
			b.handler.HandleUpdate(ctx, update)
		}
	}()

	fmt.Println("Bot is now running. Press CTRL-C to exit.")
	return nil
}

// Stop shuts the bot down: no new scheduled work, no new updates, then wait
// for the in-flight reconciliation pass to reach its terminal states before
// closing the store.
func (b *Bot) Stop() {
	b.stopScheduler()
	b.API.StopReceivingUpdates()
	b.runner.Wait()
	if b.db != nil {
		b.db.Close()
	}
	fmt.Println("Bot stopped gracefully.")
}

// Run is the main entry point for the bot application.
func Run() {
	bot, err := NewBot()
	if err != nil {
		log.Fatalf("Error initializing bot: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := bot.Start(ctx); err != nil {
		log.Fatalf("Error starting bot: %v", err)
	}

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	// Stop before cancel: the in-flight pass finishes under a live context.
	bot.Stop()
}
