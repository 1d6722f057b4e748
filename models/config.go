package models

import "time"

// OriginalityConfig scopes the text duplicate detector.
type OriginalityConfig struct {
	ChannelIDs []string
	Debug      bool
	ReplyTTL   time.Duration // how long explanatory replies stay up
}

// ImageConfig tunes the image near-duplicate detector.
type ImageConfig struct {
	StructuralThreshold int
	ColorThreshold      int
	DownloadTimeout     time.Duration
	MaxBytes            int64
	MaxPixels           int64 // decoded width*height limit
	DownloadsPerSecond  float64
}

// BotConfig holds process wide settings.
type BotConfig struct {
	Token          string
	Debug          bool
	AdminChannelID string
	Workers        int
	DatabasePath   string
	RequestTimeout time.Duration
	SweepSpec      string
	SentryDSN      string
}
