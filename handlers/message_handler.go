package handlers

import (
	"context"
	"fmt"
	"time"

	"originality-bot/handlers/chain"
	"originality-bot/models"
	"originality-bot/utils"

	"github.com/alitto/pond/v2"
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// redeliveryWindow is how long an event id is remembered.
const redeliveryWindow = 30 * time.Second

// Dispatcher turns gateway events into chain runs on a bounded worker pool.
type Dispatcher struct {
	create *chain.Chain[models.MessageEvent]
	delete *chain.Chain[models.DeletedMessage]
	pool   pond.Pool
	recent *recentEvents
	ctx    context.Context
	cancel context.CancelFunc
}

// NewDispatcher creates a Dispatcher running at most workers chains at once.
func NewDispatcher(create *chain.Chain[models.MessageEvent], del *chain.Chain[models.DeletedMessage], workers int) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		create: create,
		delete: del,
		pool:   pond.NewPool(max(1, workers)),
		recent: newRecentEvents(redeliveryWindow),
		ctx:    ctx,
		cancel: cancel,
	}
}

// MessageCreateHandler handles Discord message create events
func (d *Dispatcher) MessageCreateHandler(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Message == nil || m.GuildID == "" {
		return
	}
	if !d.recent.firstSeen("create:" + m.ID) {
		utils.Debug("handlers", "skip redelivered create", zap.String("message_id", m.ID))
		return
	}

	ev := messageEvent(m.Message)
	d.submit("message create", func(ctx context.Context) {
		d.create.Run(ctx, ev)
	})
}

// MessageDeleteHandler handles Discord message delete events
func (d *Dispatcher) MessageDeleteHandler(s *discordgo.Session, m *discordgo.MessageDelete) {
	if m.Message == nil || m.GuildID == "" {
		return
	}
	if !d.recent.firstSeen("delete:" + m.ID) {
		return
	}

	deleted := models.DeletedMessage{MessageID: m.ID, ChannelID: m.ChannelID, GuildID: m.GuildID}
	d.submit("message delete", func(ctx context.Context) {
		d.delete.Run(ctx, deleted)
	})
}

// MessageDeleteBulkHandler fans a bulk delete out as single deletions.
func (d *Dispatcher) MessageDeleteBulkHandler(s *discordgo.Session, m *discordgo.MessageDeleteBulk) {
	for _, id := range m.Messages {
		d.MessageDeleteHandler(s, &discordgo.MessageDelete{Message: &discordgo.Message{
			ID:        id,
			ChannelID: m.ChannelID,
			GuildID:   m.GuildID,
		}})
	}
}

func (d *Dispatcher) submit(operation string, fn func(ctx context.Context)) {
	if d.pool.Stopped() {
		return
	}
	d.pool.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				utils.Error("handlers", operation, fmt.Errorf("panic: %v", r))
			}
		}()
		fn(d.ctx)
	})
}

// Stop rejects new events and waits for queued ones to finish. Every network
// call in a chain has its own timeout, so draining is bounded.
func (d *Dispatcher) Stop() {
	d.pool.StopAndWait()
	d.cancel()
}

func messageEvent(m *discordgo.Message) models.MessageEvent {
	ev := models.MessageEvent{
		MessageID: m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		Content:   m.Content,
		SentAt:    m.Timestamp,
		IsWebhook: m.WebhookID != "",
	}
	if m.Author != nil {
		ev.AuthorID = m.Author.ID
		ev.IsBot = m.Author.Bot
	}
	if ev.SentAt.IsZero() {
		ev.SentAt = time.Now()
	}
	for _, a := range m.Attachments {
		if a == nil {
			continue
		}
		ev.Attachments = append(ev.Attachments, models.Attachment{Filename: a.Filename, URL: a.URL})
	}
	return ev
}
