package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Sasidhar-2001/HMS/internal/config"
)

var Module = fx.Module("scheduler",
	fx.Provide(NewSweeper),
	fx.Invoke(registerCron),
)

func registerCron(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, sweeper *Sweeper) error {
	runner := cron.New()
	_, err := runner.AddFunc(cfg.OverdueSweepSchedule, func() {
		if _, err := sweeper.MarkOverdue(context.Background()); err != nil {
			log.Named("scheduler.overdue").Error("overdue sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runner.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			stopped := runner.Stop()
			select {
			case <-stopped.Done():
			case <-ctx.Done():
			}
			return nil
		},
	})
	return nil
}
