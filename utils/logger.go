package utils

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/TheZeroSlave/zapsentry"
	"github.com/bwmarrin/discordgo"
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	ColorWarn  = 0xffff00 // Yellow
	ColorError = 0xff0000 // Red
)

var (
	log = zap.Must(zap.NewProduction())

	sentryClient *sentry.Client

	mirrorMu  sync.RWMutex
	session   *discordgo.Session
	channelID string
)

// LoggerConfig holds logger configuration.
type LoggerConfig struct {
	Debug     bool
	SentryDSN string
	Tags      map[string]string
}

// InitLogger builds the global zap logger, attaching a sentry core when a DSN is set.
func InitLogger(cfg LoggerConfig) error {
	zapConfig := zap.NewProductionConfig()
	if cfg.Debug {
		zapConfig = zap.NewDevelopmentConfig()
	}

	base, err := zapConfig.Build()
	if err != nil {
		return err
	}

	if cfg.SentryDSN == "" {
		log = base
		return nil
	}

	sentryClient, err = sentry.NewClient(sentry.ClientOptions{
		Dsn:   cfg.SentryDSN,
		Debug: cfg.Debug,
	})
	if err != nil {
		return err
	}

	core, err := zapsentry.NewCore(zapsentry.Configuration{
		Level:             zapcore.ErrorLevel,
		EnableBreadcrumbs: true,
		BreadcrumbLevel:   zapcore.InfoLevel,
		Tags:              cfg.Tags,
	}, zapsentry.NewSentryClientFromClient(sentryClient))
	if err != nil {
		return err
	}
	log = zapsentry.AttachCoreToLogger(core, base)
	return nil
}

// AttachSession mirrors warnings and errors to an admin channel as embeds.
func AttachSession(s *discordgo.Session, adminChannelID string) {
	mirrorMu.Lock()
	defer mirrorMu.Unlock()
	session = s
	channelID = adminChannelID
	if channelID == "" {
		log.Warn("bot.adminChannelId is not set, logging to channel is disabled")
	}
}

// Sync flushes buffered log entries and sentry events.
func Sync() {
	_ = log.Sync()
	if sentryClient != nil {
		sentryClient.Flush(2 * time.Second)
	}
}

// Default returns the global logger.
func Default() *zap.Logger {
	return log
}

// Debug logs a debug message.
func Debug(module, operation string, fields ...zap.Field) {
	log.Debug(operation, withModule(module, fields)...)
}

// Info logs an informational message.
func Info(module, operation string, fields ...zap.Field) {
	log.Info(operation, withModule(module, fields)...)
}

// Warn logs a warning and mirrors it to the admin channel.
func Warn(module, operation string, fields ...zap.Field) {
	log.Warn(operation, withModule(module, fields)...)
	mirror("WARN", module, operation, fields)
}

// Error logs an error and mirrors it to the admin channel.
func Error(module, operation string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	log.Error(operation, withModule(module, fields)...)
	mirror("ERROR", module, operation, fields)
}

func withModule(module string, fields []zap.Field) []zap.Field {
	return append([]zap.Field{zap.String("module", module)}, fields...)
}

func mirror(level, module, operation string, fields []zap.Field) {
	mirrorMu.RLock()
	s, ch := session, channelID
	mirrorMu.RUnlock()
	if s == nil || ch == "" {
		return
	}

	color := ColorWarn
	if level == "ERROR" {
		color = ColorError
	}

	embed := &discordgo.MessageEmbed{
		Title:     fmt.Sprintf("Log Level: %s", level),
		Color:     color,
		Timestamp: time.Now().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Module", Value: module, Inline: true},
			{Name: "Operation", Value: operation, Inline: true},
			{Name: "Details", Value: renderFields(fields)},
		},
	}

	go func() {
		if _, err := s.ChannelMessageSendEmbed(ch, embed); err != nil {
			log.Warn("failed to mirror log entry to admin channel", zap.Error(err))
		}
	}()
}

// renderFields flattens zap fields into "key=value" lines for an embed.
func renderFields(fields []zap.Field) string {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}
	if len(enc.Fields) == 0 {
		return "-"
	}

	keys := make([]string, 0, len(enc.Fields))
	for k := range enc.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s=%v", k, enc.Fields[k]))
	}
	out := strings.Join(lines, "\n")
	if len(out) > 1024 {
		out = out[:1021] + "..."
	}
	return out
}
