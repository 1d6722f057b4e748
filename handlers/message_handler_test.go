package handlers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"originality-bot/handlers/chain"
	"originality-bot/models"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageEvent(t *testing.T) {
	sent := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	ev := messageEvent(&discordgo.Message{
		ID:        "m1",
		ChannelID: "c1",
		GuildID:   "g1",
		Content:   "hello",
		Timestamp: sent,
		WebhookID: "w1",
		Author:    &discordgo.User{ID: "u1", Bot: true},
		Attachments: []*discordgo.MessageAttachment{
			{Filename: "cat.png", URL: "https://cdn/cat.png"},
			nil,
		},
	})

	assert.Equal(t, models.MessageEvent{
		AuthorID:    "u1",
		MessageID:   "m1",
		ChannelID:   "c1",
		GuildID:     "g1",
		Content:     "hello",
		Attachments: []models.Attachment{{Filename: "cat.png", URL: "https://cdn/cat.png"}},
		SentAt:      sent,
		IsBot:       true,
		IsWebhook:   true,
	}, ev)
}

func TestRecentEvents(t *testing.T) {
	now := time.Unix(1000, 0)
	r := newRecentEvents(30 * time.Second)
	r.now = func() time.Time { return now }

	assert.True(t, r.firstSeen("create:1"))
	assert.False(t, r.firstSeen("create:1"))
	assert.True(t, r.firstSeen("delete:1"))

	now = now.Add(31 * time.Second)
	assert.True(t, r.firstSeen("create:1"))

	// Entries older than the TTL are swept on a later call.
	now = now.Add(2 * time.Minute)
	assert.True(t, r.firstSeen("create:2"))
	assert.Equal(t, 1, r.len())
}

func TestDispatcherRunsEachEventOnce(t *testing.T) {
	var created, deleted atomic.Int32
	create := chain.New([]chain.Behaviour[models.MessageEvent]{
		chain.Func("count", func(ctx context.Context, ev models.MessageEvent) (chain.Result, error) {
			created.Add(1)
			return chain.Continue, nil
		}),
	})
	del := chain.New([]chain.Behaviour[models.DeletedMessage]{
		chain.Func("count", func(ctx context.Context, msg models.DeletedMessage) (chain.Result, error) {
			deleted.Add(1)
			return chain.Continue, nil
		}),
	})
	d := NewDispatcher(create, del, 4)

	msg := &discordgo.Message{ID: "m1", ChannelID: "c1", GuildID: "g1", Content: "hi there", Author: &discordgo.User{ID: "u1"}}
	d.MessageCreateHandler(nil, &discordgo.MessageCreate{Message: msg})
	d.MessageCreateHandler(nil, &discordgo.MessageCreate{Message: msg})
	d.MessageCreateHandler(nil, &discordgo.MessageCreate{Message: &discordgo.Message{ID: "dm", Content: "no guild"}})

	d.MessageDeleteBulkHandler(nil, &discordgo.MessageDeleteBulk{Messages: []string{"m1", "m2"}, ChannelID: "c1", GuildID: "g1"})
	d.MessageDeleteHandler(nil, &discordgo.MessageDelete{Message: &discordgo.Message{ID: "m2", ChannelID: "c1", GuildID: "g1"}})

	d.Stop()
	require.Equal(t, int32(1), created.Load())
	assert.Equal(t, int32(2), deleted.Load())

	// Events after Stop are dropped.
	d.MessageCreateHandler(nil, &discordgo.MessageCreate{Message: &discordgo.Message{ID: "late", GuildID: "g1"}})
	assert.Equal(t, int32(1), created.Load())
}
