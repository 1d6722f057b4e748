package models

import "time"

// MessageEvent is a newly created guild message as seen by the behaviour chain.
type MessageEvent struct {
	AuthorID    string
	MessageID   string
	ChannelID   string
	GuildID     string
	Content     string
	Attachments []Attachment
	SentAt      time.Time
	IsBot       bool
	IsWebhook   bool
}

// Attachment is a file attached to a message.
type Attachment struct {
	Filename string
	URL      string
}

// DeletedMessage identifies a message the platform reported as deleted.
type DeletedMessage struct {
	MessageID string
	ChannelID string
	GuildID   string
}

// TextHashRecord is one row of text_hashes. Digest is unique across live rows.
type TextHashRecord struct {
	AuthorID  string
	MessageID string
	Digest    string
	SentAt    time.Time
}

// ImageHashRecord is one row of image_hashes. Hashes are hex encoded bit strings.
type ImageHashRecord struct {
	ID             int64
	StructuralHash string
	ColorHash      string
	MessageID      string
	ChannelID      string
	GuildID        string
}

// ScheduledAction is a persisted delayed action, e.g. deleting a bot reply.
type ScheduledAction struct {
	ID        int64
	DueAt     time.Time
	Action    string
	Arguments string // JSON encoded action arguments
}

// DeleteMessageArgs are the arguments of a delete_message action.
type DeleteMessageArgs struct {
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
}
