package handlers

import (
	"originality-bot/bot"
	"originality-bot/config"
	"originality-bot/handlers/chain"
	"originality-bot/handlers/originality"
	"originality-bot/models"
	"originality-bot/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Register all handlers to the bot.
func Register(b *bot.Bot) {
	originalityCfg := config.Originality()
	imageCfg := config.Image()

	text := originality.NewTextDetector(b.Store, b.Platform, b.Scheduler, originalityCfg)
	image := originality.NewImageDetector(b.Store, b.Platform, b.Fetcher, imageCfg)

	// Text policing runs first; a deleted message is not worth fingerprinting.
	create := chain.New(
		[]chain.Behaviour[models.MessageEvent]{text},
		[]chain.Behaviour[models.MessageEvent]{image},
	)
	del := chain.New(
		[]chain.Behaviour[models.DeletedMessage]{chain.Func("forget_text", text.Forget)},
	)

	d := NewDispatcher(create, del, b.Config.Workers)
	b.Session.AddHandler(d.MessageCreateHandler)
	b.Session.AddHandler(d.MessageDeleteHandler)
	b.Session.AddHandler(d.MessageDeleteBulkHandler)
	b.OnStop(d.Stop)

	// Add a ready handler to log when the bot is connected.
	b.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		utils.Info("handlers", "ready",
			zap.String("user", r.User.Username),
			zap.Int("guilds", len(r.Guilds)),
		)
	})

	utils.Info("handlers", "register",
		zap.Strings("originality_channels", originalityCfg.ChannelIDs),
		zap.Bool("originality_debug", originalityCfg.Debug),
		zap.Int("structural_threshold", imageCfg.StructuralThreshold),
		zap.Int("color_threshold", imageCfg.ColorThreshold),
	)
}
