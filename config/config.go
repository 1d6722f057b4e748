package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"originality-bot/models"
	"originality-bot/utils"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// LoadConfig 从多个源加载配置：.env 文件、config.yaml 以及环境变量。
// 配置加载顺序:
// 1. .env 文件 (用于环境变量)
// 2. config.yaml (基础配置)
// 环境变量会覆盖配置文件中的同名设置。
func LoadConfig() error {
	// 1. 从 .env 文件加载环境变量，如果文件不存在则忽略。
	if err := godotenv.Load(); err != nil {
		utils.Debug("config", "load", zap.String("details", "no .env file found, skipping"))
	}

	setDefaults()

	// 2. 设置并读取基础配置文件 (config.yaml)。
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := bindEnv(); err != nil {
		return err
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to parse config.yaml: %w", err)
		}
		utils.Debug("config", "load", zap.String("details", "config.yaml not found, using environment and defaults"))
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("bot.debug", false)
	viper.SetDefault("bot.workers", 32)
	viper.SetDefault("database.path", "data/originality.sqlite")
	viper.SetDefault("platform.request_timeout", "10s")
	viper.SetDefault("scheduler.sweep", "@every 1s")

	viper.SetDefault("originality.debug", false)
	viper.SetDefault("originality.reply_ttl", 15)

	// Roughly 30% of the 256 bit structural and 224 bit color hashes.
	viper.SetDefault("image.structural_threshold", 76)
	viper.SetDefault("image.color_threshold", 67)
	viper.SetDefault("image.download_timeout", "15s")
	viper.SetDefault("image.max_bytes", 25<<20)
	viper.SetDefault("image.max_pixels", 50_000_000)
	viper.SetDefault("image.downloads_per_second", 5.0)
}

// bindEnv maps keys onto the environment names operators already use.
func bindEnv() error {
	bindings := map[string][]string{
		"originality.channel_ids":    {"ORIGINALITY_CHANNEL_IDS", "ORIGINALITY_CHANNEL_ID"},
		"originality.debug":          {"ORIGINALITY_DEBUG", "DEBUG"},
		"image.structural_threshold": {"IMAGE_STRUCTURAL_THRESHOLD", "PHASH_TH"},
		"image.color_threshold":      {"IMAGE_COLOR_THRESHOLD", "CHASH_TH"},
		"database.path":              {"DATABASE_PATH", "KITTY_DB"},
		"sentry.dsn":                 {"SENTRY_DSN"},
	}
	for key, envs := range bindings {
		if err := viper.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}
	return nil
}

// Bot returns the process wide settings.
func Bot() models.BotConfig {
	return models.BotConfig{
		Token:          viper.GetString("BOT_TOKEN"),
		Debug:          viper.GetBool("bot.debug"),
		AdminChannelID: viper.GetString("bot.adminChannelId"),
		Workers:        viper.GetInt("bot.workers"),
		DatabasePath:   viper.GetString("database.path"),
		RequestTimeout: viper.GetDuration("platform.request_timeout"),
		SweepSpec:      viper.GetString("scheduler.sweep"),
		SentryDSN:      viper.GetString("sentry.dsn"),
	}
}

// Originality returns the text detector settings.
func Originality() models.OriginalityConfig {
	return models.OriginalityConfig{
		ChannelIDs: idList("originality.channel_ids"),
		Debug:      viper.GetBool("originality.debug"),
		ReplyTTL:   time.Duration(viper.GetInt("originality.reply_ttl")) * time.Second,
	}
}

// Image returns the image detector settings.
func Image() models.ImageConfig {
	return models.ImageConfig{
		StructuralThreshold: viper.GetInt("image.structural_threshold"),
		ColorThreshold:      viper.GetInt("image.color_threshold"),
		DownloadTimeout:     viper.GetDuration("image.download_timeout"),
		MaxBytes:            viper.GetInt64("image.max_bytes"),
		MaxPixels:           viper.GetInt64("image.max_pixels"),
		DownloadsPerSecond:  viper.GetFloat64("image.downloads_per_second"),
	}
}

// idList reads either a YAML list or a comma separated environment value.
func idList(key string) []string {
	raw, ok := viper.Get(key).(string)
	if !ok {
		return viper.GetStringSlice(key)
	}
	var ids []string
	for _, id := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' }) {
		if id != "0" {
			ids = append(ids, id)
		}
	}
	return ids
}
