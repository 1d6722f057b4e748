// Package scheduler persists delayed actions so they survive restarts.
package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"originality-bot/models"
	"originality-bot/platform"
	"originality-bot/utils"

	"go.uber.org/zap"
)

// ActionDeleteMessage deletes a message, typically one of the bot's own notices.
const ActionDeleteMessage = "delete_message"

// Store is the persistence the scheduler needs.
type Store interface {
	InsertScheduledAction(ctx context.Context, a models.ScheduledAction) (int64, error)
	DueScheduledActions(ctx context.Context, now time.Time) ([]models.ScheduledAction, error)
	DeleteScheduledAction(ctx context.Context, id int64) (bool, error)
}

// Deleter removes messages on the platform.
type Deleter interface {
	DeleteMessage(ctx context.Context, channelID, messageID string) error
}

// Scheduler records actions and runs them once due. Sweep is driven externally.
type Scheduler struct {
	store   Store
	deleter Deleter
	now     func() time.Time
}

// New creates a Scheduler.
func New(store Store, deleter Deleter) *Scheduler {
	return &Scheduler{store: store, deleter: deleter, now: time.Now}
}

// ScheduleDelete persists a deletion of messageID to run after the given delay.
func (s *Scheduler) ScheduleDelete(ctx context.Context, channelID, messageID string, after time.Duration) error {
	args, err := json.Marshal(models.DeleteMessageArgs{ChannelID: channelID, MessageID: messageID})
	if err != nil {
		return fmt.Errorf("failed to encode delete arguments: %w", err)
	}

	id, err := s.store.InsertScheduledAction(ctx, models.ScheduledAction{
		DueAt:     s.now().Add(after),
		Action:    ActionDeleteMessage,
		Arguments: string(args),
	})
	if err != nil {
		return err
	}
	utils.Debug("scheduler", "schedule delete",
		zap.Int64("action_id", id),
		zap.String("message_id", messageID),
		zap.Duration("after", after),
	)
	return nil
}

// Sweep runs every due action and returns how many ran. Each row is removed
// before its action runs so an action is attempted at most once.
func (s *Scheduler) Sweep(ctx context.Context) int {
	due, err := s.store.DueScheduledActions(ctx, s.now())
	if err != nil {
		utils.Error("scheduler", "sweep", err)
		return 0
	}

	ran := 0
	for _, a := range due {
		claimed, err := s.store.DeleteScheduledAction(ctx, a.ID)
		if err != nil {
			utils.Error("scheduler", "claim action", err, zap.Int64("action_id", a.ID))
			continue
		}
		if !claimed {
			continue
		}
		if late := s.now().Sub(a.DueAt); late > time.Minute {
			utils.Info("scheduler", "overdue action",
				zap.Int64("action_id", a.ID),
				zap.String("scheduled", utils.RelativeTime(a.DueAt, s.now())),
			)
		}
		if err := s.run(ctx, a); err != nil {
			utils.Warn("scheduler", "run action", zap.Int64("action_id", a.ID), zap.String("action", a.Action), zap.Error(err))
			continue
		}
		ran++
	}
	return ran
}

func (s *Scheduler) run(ctx context.Context, a models.ScheduledAction) error {
	switch a.Action {
	case ActionDeleteMessage:
		var args models.DeleteMessageArgs
		if err := json.Unmarshal([]byte(a.Arguments), &args); err != nil {
			return fmt.Errorf("failed to decode delete arguments: %w", err)
		}
		err := s.deleter.DeleteMessage(ctx, args.ChannelID, args.MessageID)
		if errors.Is(err, platform.ErrMessageNotFound) {
			return nil
		}
		return err
	default:
		return fmt.Errorf("unknown action type %q", a.Action)
	}
}
