package bot

import (
	"context"
	"fmt"

	"originality-bot/utils"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// startScheduler starts the sweep of persisted delayed actions. Actions that
// came due while the bot was offline run on the first sweep.
func (b *Bot) startScheduler() error {
	utils.Info("scheduler", "init", zap.String("spec", b.Config.SweepSpec))

	logger := cronLogger{}
	b.cron = cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))
	_, err := b.cron.AddFunc(b.Config.SweepSpec, func() {
		if n := b.Scheduler.Sweep(context.Background()); n > 0 {
			utils.Debug("scheduler", "sweep", zap.Int("actions", n))
		}
	})
	if err != nil {
		return fmt.Errorf("could not set up sweep job: %w", err)
	}
	b.cron.Start()

	b.sweeps.Add(1)
	go func() {
		defer b.sweeps.Done()
		if n := b.Scheduler.Sweep(context.Background()); n > 0 {
			utils.Info("scheduler", "startup sweep", zap.Int("actions", n))
		}
	}()
	return nil
}

// stopScheduler stops the cron jobs and waits for every running sweep, so the
// store stays open until they finish.
func (b *Bot) stopScheduler() {
	if b.cron != nil {
		<-b.cron.Stop().Done()
	}
	b.sweeps.Wait()
	utils.Info("scheduler", "stop")
}

// cronLogger routes cron's own messages into the zap logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	utils.Default().Sugar().Debugw(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	utils.Default().Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
