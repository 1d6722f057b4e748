package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
)

// ErrMessageNotFound is returned by FetchMessage when the message no longer exists.
var ErrMessageNotFound = errors.New("message not found")

// Platform is the message platform REST capability the detectors consume.
type Platform interface {
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	FetchMessage(ctx context.Context, channelID, messageID string) (*discordgo.Message, error)
	// Send posts to a channel, pinging only the listed users. It returns the new message id.
	Send(ctx context.Context, channelID, content string, mentions ...string) (string, error)
	// Reply answers messageID, pinging only the listed users. It returns the new message id.
	Reply(ctx context.Context, channelID, messageID, content string, mentions ...string) (string, error)
	DisplayName(ctx context.Context, guildID, userID string) (string, error)
}

// Discord implements Platform on a discordgo session. Every call is bounded by timeout.
type Discord struct {
	session *discordgo.Session
	timeout time.Duration
}

// NewDiscord wraps session. A zero timeout defaults to ten seconds.
func NewDiscord(session *discordgo.Session, timeout time.Duration) *Discord {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Discord{session: session, timeout: timeout}
}

func (d *Discord) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx)); err != nil {
		if isNotFound(err) {
			return ErrMessageNotFound
		}
		return fmt.Errorf("failed to delete message %s: %w", messageID, err)
	}
	return nil
}

func (d *Discord) FetchMessage(ctx context.Context, channelID, messageID string) (*discordgo.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	msg, err := d.session.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to fetch message %s: %w", messageID, err)
	}
	return msg, nil
}

func (d *Discord) Send(ctx context.Context, channelID, content string, mentions ...string) (string, error) {
	return d.send(ctx, channelID, &discordgo.MessageSend{
		Content:         content,
		AllowedMentions: allowUsers(mentions),
	})
}

func (d *Discord) Reply(ctx context.Context, channelID, messageID, content string, mentions ...string) (string, error) {
	return d.send(ctx, channelID, &discordgo.MessageSend{
		Content:         content,
		AllowedMentions: allowUsers(mentions),
		Reference: &discordgo.MessageReference{
			MessageID: messageID,
			ChannelID: channelID,
		},
	})
}

func (d *Discord) send(ctx context.Context, channelID string, data *discordgo.MessageSend) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	msg, err := d.session.ChannelMessageSendComplex(channelID, data, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to send message to channel %s: %w", channelID, err)
	}
	return msg.ID, nil
}

// DisplayName resolves a member's server nickname, falling back to the global
// name and then the username. The session state cache is consulted first.
func (d *Discord) DisplayName(ctx context.Context, guildID, userID string) (string, error) {
	member, err := d.session.State.Member(guildID, userID)
	if err != nil {
		ctx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()

		member, err = d.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
		if err != nil {
			return "", fmt.Errorf("failed to fetch member %s: %w", userID, err)
		}
	}
	return displayName(member), nil
}

func displayName(m *discordgo.Member) string {
	switch {
	case m.Nick != "":
		return m.Nick
	case m.User == nil:
		return "someone"
	case m.User.GlobalName != "":
		return m.User.GlobalName
	default:
		return m.User.Username
	}
}

func allowUsers(ids []string) *discordgo.MessageAllowedMentions {
	return &discordgo.MessageAllowedMentions{Users: ids}
}

func isNotFound(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeUnknownMessage {
		return true
	}
	return restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}
