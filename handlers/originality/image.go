package originality

import (
	"context"
	"errors"
	"fmt"

	"originality-bot/fingerprint"
	"originality-bot/handlers/chain"
	"originality-bot/models"
	"originality-bot/platform"
	"originality-bot/utils"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// ImageDetector replies to images that look like ones already posted. Every
// processed image is recorded, match or not.
type ImageDetector struct {
	store    ImageStore
	platform platform.Platform
	fetcher  Fetcher
	cfg      models.ImageConfig
}

// NewImageDetector creates an ImageDetector.
func NewImageDetector(store ImageStore, p platform.Platform, fetcher Fetcher, cfg models.ImageConfig) *ImageDetector {
	return &ImageDetector{store: store, platform: p, fetcher: fetcher, cfg: cfg}
}

func (d *ImageDetector) Name() string { return "image_originality" }

// Handle checks attachments in order and halts on the first one that matches a
// live earlier post.
func (d *ImageDetector) Handle(ctx context.Context, ev models.MessageEvent) (chain.Result, error) {
	if ev.IsBot {
		return chain.Continue, nil
	}

	for _, a := range ev.Attachments {
		if !fingerprint.IsImageFilename(a.Filename) {
			continue
		}
		match := d.check(ctx, ev, a)
		if match == nil {
			continue
		}

		utils.Info("originality", "image repost",
			zap.String("message_id", ev.MessageID),
			zap.String("original_message_id", match.MessageID),
			zap.String("attachment", a.Filename),
		)
		notice := fmt.Sprintf(
			"Hey %s! Your image has seemingly already been posted before. Time to strive for more originality?\n\nIt was first posted here: %s",
			utils.Mention(ev.AuthorID),
			utils.MessageLink(match.GuildID, match.ChannelID, match.MessageID),
		)
		if _, err := d.platform.Reply(ctx, ev.ChannelID, ev.MessageID, notice, ev.AuthorID); err != nil {
			utils.Warn("originality", "reply to repost", zap.String("message_id", ev.MessageID), zap.Error(err))
		}
		return chain.Halt, nil
	}
	return chain.Continue, nil
}

// check fingerprints one attachment, records it and returns the oldest live
// match, if any. Download and decode failures skip the attachment.
func (d *ImageDetector) check(ctx context.Context, ev models.MessageEvent, a models.Attachment) *models.ImageHashRecord {
	logFields := []zap.Field{zap.String("message_id", ev.MessageID), zap.String("attachment", a.Filename)}

	data, err := d.fetcher.Fetch(ctx, a.URL)
	if err != nil {
		utils.Warn("originality", "download attachment", append(logFields, zap.Error(err))...)
		return nil
	}
	img, err := fingerprint.DecodeImage(data, d.cfg.MaxPixels)
	if err != nil {
		utils.Warn("originality", "decode attachment", append(logFields, zap.Error(err))...)
		return nil
	}
	fp, err := fingerprint.FingerprintImage(img)
	if err != nil {
		utils.Warn("originality", "fingerprint attachment", append(logFields, zap.Error(err))...)
		return nil
	}
	utils.Debug("originality", "fingerprint", append(logFields,
		zap.String("size", humanize.Bytes(uint64(len(data)))),
		zap.Stringer("structural", fp.Structural),
		zap.Stringer("color", fp.Color),
	)...)

	candidates, err := d.store.FindSimilarImages(ctx, fp.Structural.String(), fp.Color.String(), d.cfg.StructuralThreshold, d.cfg.ColorThreshold)
	if err != nil {
		utils.Error("originality", "find similar images", err, logFields...)
	}
	match := d.firstLive(ctx, ev, candidates)

	// Recorded before any reply so a failed send never loses the sighting, and
	// detached from cancellation so shutdown cannot leave it half done.
	_, err = d.store.InsertImageHash(context.WithoutCancel(ctx), models.ImageHashRecord{
		StructuralHash: fp.Structural.String(),
		ColorHash:      fp.Color.String(),
		MessageID:      ev.MessageID,
		ChannelID:      ev.ChannelID,
		GuildID:        ev.GuildID,
	})
	if err != nil {
		utils.Error("originality", "record image", err, logFields...)
	}
	return match
}

// firstLive returns the first candidate whose message still exists, pruning
// rows of deleted messages on the way.
func (d *ImageDetector) firstLive(ctx context.Context, ev models.MessageEvent, candidates []models.ImageHashRecord) *models.ImageHashRecord {
	for i := range candidates {
		c := &candidates[i]
		if c.MessageID == ev.MessageID {
			continue
		}

		_, err := d.platform.FetchMessage(ctx, c.ChannelID, c.MessageID)
		switch {
		case err == nil:
			return c
		case errors.Is(err, platform.ErrMessageNotFound):
			if err := d.store.DeleteImageHash(ctx, c.ID); err != nil {
				utils.Error("originality", "prune stale image", err, zap.Int64("row_id", c.ID))
			} else {
				utils.Debug("originality", "pruned stale image", zap.Int64("row_id", c.ID), zap.String("message_id", c.MessageID))
			}
		default:
			utils.Warn("originality", "verify candidate", zap.String("message_id", c.MessageID), zap.Error(err))
		}
	}
	return nil
}
