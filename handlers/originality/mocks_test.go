package originality

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"originality-bot/database"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPlatform struct {
	mock.Mock
}

func (m *mockPlatform) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return m.Called(channelID, messageID).Error(0)
}

func (m *mockPlatform) FetchMessage(ctx context.Context, channelID, messageID string) (*discordgo.Message, error) {
	args := m.Called(channelID, messageID)
	msg, _ := args.Get(0).(*discordgo.Message)
	return msg, args.Error(1)
}

func (m *mockPlatform) Send(ctx context.Context, channelID, content string, mentions ...string) (string, error) {
	args := m.Called(channelID, content, mentions)
	return args.String(0), args.Error(1)
}

func (m *mockPlatform) Reply(ctx context.Context, channelID, messageID, content string, mentions ...string) (string, error) {
	args := m.Called(channelID, messageID, content, mentions)
	return args.String(0), args.Error(1)
}

func (m *mockPlatform) DisplayName(ctx context.Context, guildID, userID string) (string, error) {
	args := m.Called(guildID, userID)
	return args.String(0), args.Error(1)
}

type mockScheduler struct {
	mock.Mock
}

func (m *mockScheduler) ScheduleDelete(ctx context.Context, channelID, messageID string, after time.Duration) error {
	return m.Called(channelID, messageID, after).Error(0)
}

// fakeFetcher serves attachment bytes by URL; unknown URLs fail like a dead link.
type fakeFetcher map[string][]byte

func (f fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	data, ok := f[url]
	if !ok {
		return nil, fmt.Errorf("unexpected status code: 404")
	}
	return data, nil
}

func openStore(t *testing.T) *database.Store {
	t.Helper()
	store, err := database.Open(filepath.Join(t.TempDir(), "originality.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}
