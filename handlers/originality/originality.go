// Package originality deletes messages whose text, or whose images, were
// posted before.
package originality

import (
	"context"
	"time"

	"originality-bot/models"
)

// TextStore persists text digests.
type TextStore interface {
	InsertTextHash(ctx context.Context, rec models.TextHashRecord) error
	TextHashByDigest(ctx context.Context, digest string) (*models.TextHashRecord, error)
	DeleteTextHashByMessage(ctx context.Context, messageID string) (int64, error)
}

// ImageStore persists image fingerprints.
type ImageStore interface {
	FindSimilarImages(ctx context.Context, structural, color string, structuralMax, colorMax int) ([]models.ImageHashRecord, error)
	InsertImageHash(ctx context.Context, rec models.ImageHashRecord) (int64, error)
	DeleteImageHash(ctx context.Context, id int64) error
}

// DeleteScheduler removes a message later, surviving restarts.
type DeleteScheduler interface {
	ScheduleDelete(ctx context.Context, channelID, messageID string, after time.Duration) error
}

// Fetcher downloads attachment bytes.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}
