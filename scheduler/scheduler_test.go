package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"originality-bot/database"
	"originality-bot/platform"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockDeleter struct {
	mock.Mock
}

func (m *mockDeleter) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return m.Called(channelID, messageID).Error(0)
}

func newTestScheduler(t *testing.T) (*Scheduler, *database.Store, *mockDeleter, *time.Time) {
	t.Helper()
	store, err := database.Open(filepath.Join(t.TempDir(), "scheduler.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	deleter := &mockDeleter{}
	now := time.UnixMilli(1700000000000)
	s := New(store, deleter)
	s.now = func() time.Time { return now }
	return s, store, deleter, &now
}

func TestSweepRunsDueDeletesOnce(t *testing.T) {
	ctx := context.Background()
	s, _, deleter, now := newTestScheduler(t)

	require.NoError(t, s.ScheduleDelete(ctx, "c1", "m1", 15*time.Second))
	require.NoError(t, s.ScheduleDelete(ctx, "c1", "m2", time.Hour))

	assert.Zero(t, s.Sweep(ctx))
	deleter.AssertNotCalled(t, "DeleteMessage", mock.Anything, mock.Anything)

	*now = now.Add(16 * time.Second)
	deleter.On("DeleteMessage", "c1", "m1").Return(nil).Once()

	assert.Equal(t, 1, s.Sweep(ctx))
	assert.Zero(t, s.Sweep(ctx))
	deleter.AssertExpectations(t)
}

func TestSweepRunsOverdueActionsFromEarlierProcess(t *testing.T) {
	ctx := context.Background()
	s, store, deleter, now := newTestScheduler(t)
	require.NoError(t, s.ScheduleDelete(ctx, "c1", "m1", time.Second))

	// A new scheduler over the same store stands in for a restart.
	restarted := New(store, deleter)
	restarted.now = func() time.Time { return now.Add(time.Hour) }
	deleter.On("DeleteMessage", "c1", "m1").Return(nil).Once()

	assert.Equal(t, 1, restarted.Sweep(ctx))
	deleter.AssertExpectations(t)
}

func TestSweepDropsFailedActions(t *testing.T) {
	ctx := context.Background()
	s, _, deleter, now := newTestScheduler(t)

	require.NoError(t, s.ScheduleDelete(ctx, "c1", "gone", 0))
	require.NoError(t, s.ScheduleDelete(ctx, "c1", "flaky", 0))
	*now = now.Add(time.Millisecond)

	deleter.On("DeleteMessage", "c1", "gone").Return(platform.ErrMessageNotFound).Once()
	deleter.On("DeleteMessage", "c1", "flaky").Return(errors.New("gateway timeout")).Once()

	assert.Equal(t, 1, s.Sweep(ctx))
	assert.Zero(t, s.Sweep(ctx))
	deleter.AssertExpectations(t)
}
