package bot

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"originality-bot/config"
	"originality-bot/database"
	"originality-bot/models"
	"originality-bot/platform"
	"originality-bot/scheduler"
	"originality-bot/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Bot encapsulates the bot's state.
type Bot struct {
	Session   *discordgo.Session
	Config    models.BotConfig
	Store     *database.Store
	Platform  *platform.Discord
	Fetcher   *platform.Fetcher
	Scheduler *scheduler.Scheduler

	cron      *cron.Cron
	sweeps    sync.WaitGroup // sweeps started outside cron
	stopHooks []func()
}

// NewBot creates and initializes a new Bot instance.
func NewBot(cfg models.BotConfig) (*Bot, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("no bot token provided")
	}

	dg, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent | discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

	store, err := database.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	imageCfg := config.Image()
	p := platform.NewDiscord(dg, cfg.RequestTimeout)

	return &Bot{
		Session:   dg,
		Config:    cfg,
		Store:     store,
		Platform:  p,
		Fetcher:   platform.NewFetcher(imageCfg.DownloadTimeout, imageCfg.MaxBytes, imageCfg.DownloadsPerSecond),
		Scheduler: scheduler.New(store, p),
	}, nil
}

// OnStop registers fn to run, in reverse order, before the session closes.
func (b *Bot) OnStop(fn func()) {
	b.stopHooks = append(b.stopHooks, fn)
}

// Start opens the bot's session and registers handlers.
func (b *Bot) Start(registerHandlers func(*Bot)) error {
	registerHandlers(b)

	err := b.Session.Open()
	if err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}
	utils.AttachSession(b.Session, b.Config.AdminChannelID)

	if err := b.startScheduler(); err != nil {
		return err
	}

	utils.Info("bot", "start", zap.String("details", "Bot is now running. Press CTRL-C to exit."))
	return nil
}

// Stop gracefully closes the bot's session.
func (b *Bot) Stop() {
	b.stopScheduler()
	for i := len(b.stopHooks) - 1; i >= 0; i-- {
		b.stopHooks[i]()
	}
	if b.Session != nil {
		b.Session.Close()
	}
	if err := b.Store.Close(); err != nil {
		utils.Error("bot", "close database", err)
	}
	utils.Info("bot", "stop", zap.String("details", "Bot stopped gracefully."))
}

// Run is the main entry point for the bot application.
func Run(registerHandlers func(*Bot)) error {
	bot, err := NewBot(config.Bot())
	if err != nil {
		return fmt.Errorf("error initializing bot: %w", err)
	}

	if err := bot.Start(registerHandlers); err != nil {
		bot.Stop()
		return fmt.Errorf("error starting bot: %w", err)
	}

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	bot.Stop()
	return nil
}
