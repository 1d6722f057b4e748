package originality

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"originality-bot/database"
	"originality-bot/fingerprint"
	"originality-bot/handlers/chain"
	"originality-bot/models"
	"originality-bot/platform"
	"originality-bot/utils"

	"go.uber.org/zap"
)

var (
	linkPattern    = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*://`)
	mentionPattern = regexp.MustCompile(`^<@!?\d+>$`)
	emojiPattern   = regexp.MustCompile(`^<a?:\w+:\d+>$`)
)

// quotedContentLimit keeps the notice under the platform's message length cap.
const quotedContentLimit = 1500

// TextDetector deletes messages whose normalized text was already said in scope.
type TextDetector struct {
	store     TextStore
	platform  platform.Platform
	scheduler DeleteScheduler
	cfg       models.OriginalityConfig
	channels  map[string]bool
	now       func() time.Time
}

// NewTextDetector creates a TextDetector.
func NewTextDetector(store TextStore, p platform.Platform, scheduler DeleteScheduler, cfg models.OriginalityConfig) *TextDetector {
	channels := make(map[string]bool, len(cfg.ChannelIDs))
	for _, id := range cfg.ChannelIDs {
		channels[id] = true
	}
	return &TextDetector{
		store:     store,
		platform:  p,
		scheduler: scheduler,
		cfg:       cfg,
		channels:  channels,
		now:       time.Now,
	}
}

func (d *TextDetector) Name() string { return "text_originality" }

// Handle records the message digest, or deletes the message and explains why
// when the digest is already taken.
func (d *TextDetector) Handle(ctx context.Context, ev models.MessageEvent) (chain.Result, error) {
	if !d.inScope(ev.ChannelID) || isExemptText(ev) {
		return chain.Continue, nil
	}

	digest := fingerprint.TextDigest(ev.Content)
	original, err := d.claim(ctx, ev, digest)
	if err != nil {
		return chain.Continue, err
	}
	if original == nil || original.MessageID == ev.MessageID {
		return chain.Continue, nil
	}

	if err := d.platform.DeleteMessage(ctx, ev.ChannelID, ev.MessageID); err != nil && !errors.Is(err, platform.ErrMessageNotFound) {
		return chain.Continue, fmt.Errorf("failed to delete duplicate message %s: %w", ev.MessageID, err)
	}
	utils.Info("originality", "text duplicate",
		zap.String("message_id", ev.MessageID),
		zap.String("original_message_id", original.MessageID),
		zap.String("author", ev.AuthorID),
	)

	d.explain(ctx, ev, original)
	return chain.Halt, nil
}

// claim inserts the digest. It returns the record already holding the digest,
// or nil when this message now owns it.
func (d *TextDetector) claim(ctx context.Context, ev models.MessageEvent, digest string) (*models.TextHashRecord, error) {
	rec := models.TextHashRecord{
		AuthorID:  ev.AuthorID,
		MessageID: ev.MessageID,
		Digest:    digest,
		SentAt:    ev.SentAt,
	}

	// The holder can be deleted between the failed insert and the lookup; in
	// that case the digest is free again and one more insert settles it.
	for attempt := 0; attempt < 2; attempt++ {
		err := d.store.InsertTextHash(ctx, rec)
		if err == nil {
			return nil, nil
		}
		if !errors.Is(err, database.ErrDuplicateDigest) {
			return nil, err
		}

		original, err := d.store.TextHashByDigest(ctx, digest)
		if err != nil {
			return nil, err
		}
		if original != nil {
			return original, nil
		}
	}
	utils.Debug("originality", "digest contended", zap.String("message_id", ev.MessageID))
	return nil, nil
}

// explain posts a short lived notice. Failures are logged; the deletion stands.
func (d *TextDetector) explain(ctx context.Context, ev models.MessageEvent, original *models.TextHashRecord) {
	name, err := d.platform.DisplayName(ctx, ev.GuildID, original.AuthorID)
	if err != nil {
		utils.Debug("originality", "display name", zap.Error(err))
		name = "someone"
	}

	notice := fmt.Sprintf(
		"Hey %s! Unfortunately, your message: %s (first sent %s by %s) was deleted as it is ***NOT*** unique. Add some creativity to your message :robot:",
		utils.Mention(ev.AuthorID),
		utils.InlineCode(utils.Truncate(ev.Content, quotedContentLimit)),
		utils.RelativeTime(original.SentAt, d.now()),
		name,
	)

	noticeID, err := d.platform.Send(ctx, ev.ChannelID, notice, ev.AuthorID)
	if err != nil {
		utils.Warn("originality", "send notice", zap.String("message_id", ev.MessageID), zap.Error(err))
		return
	}
	if err := d.scheduler.ScheduleDelete(ctx, ev.ChannelID, noticeID, d.cfg.ReplyTTL); err != nil {
		utils.Warn("originality", "schedule notice deletion", zap.String("notice_id", noticeID), zap.Error(err))
	}
}

// Forget frees the digest of a deleted message so its text may be said again.
func (d *TextDetector) Forget(ctx context.Context, msg models.DeletedMessage) (chain.Result, error) {
	n, err := d.store.DeleteTextHashByMessage(ctx, msg.MessageID)
	if err != nil {
		return chain.Continue, err
	}
	if n > 0 {
		utils.Debug("originality", "forget text", zap.String("message_id", msg.MessageID))
	}
	return chain.Continue, nil
}

func (d *TextDetector) inScope(channelID string) bool {
	return d.cfg.Debug || d.channels[channelID]
}

// isExemptText reports messages the text detector never touches.
func isExemptText(ev models.MessageEvent) bool {
	content := strings.TrimSpace(ev.Content)
	switch {
	case ev.Content == "", ev.IsBot, ev.IsWebhook:
		return true
	case utf8.RuneCountInString(ev.Content) <= 2:
		return true
	case linkPattern.MatchString(content):
		return true
	case mentionPattern.MatchString(content), emojiPattern.MatchString(content):
		return true
	}
	return false
}
