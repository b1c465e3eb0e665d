package scheduler

import (
	"context"
	"log/slog"
	"time"

	"go.uber.org/fx"

	enginesync "github.com/insight-tracker/server-go/domain/sync"
	"github.com/insight-tracker/server-go/internal/config"
	"github.com/insight-tracker/server-go/pkg/logger"
)

// startupSweepTimeout bounds the background sweep launched right after boot.
const startupSweepTimeout = 30 * time.Minute

// Module provides scheduled task functionality
var Module = fx.Module("scheduler",
	fx.Provide(
		NewScheduler,
		provideReconciler,
		NewReconcileTask,
	),
	fx.Invoke(
		RegisterTasks,
		RegisterSchedulerLifecycle,
		RunStartupSweep,
	),
)

func provideReconciler(svc *enginesync.Service) Reconciler {
	return svc
}

// RegisterTasks registers the reconciliation sweep. A bad schedule fails
// startup: a process whose safety net silently never runs is worse than one
// that refuses to boot.
func RegisterTasks(s *Scheduler, task *ReconcileTask, cfg *config.Config, log *slog.Logger) error {
	if !cfg.Sync.ReconcileEnabled {
		log.Info("periodic reconciliation disabled, skipping task registration")
		return nil
	}

	if err := addScheduledTask(s, log, "full_reconciliation",
		cfg.Sync.ReconcileSchedule, cfg.Sync.ReconcileInterval, task.Run); err != nil {
		return err
	}

	log.Info("registered scheduled tasks", slog.Any("tasks", s.ListTasks()))
	return nil
}

// addScheduledTask registers task under name, preferring the cron schedule
// over the plain interval when one is set.
func addScheduledTask(s *Scheduler, log *slog.Logger, name, schedule string, interval time.Duration, task TaskFunc) error {
	if schedule != "" {
		return s.AddCronTask(name, schedule, task)
	}
	return s.AddIntervalTask(name, interval, task)
}

// RegisterSchedulerLifecycle registers the scheduler with fx lifecycle
func RegisterSchedulerLifecycle(lc fx.Lifecycle, scheduler *Scheduler, cfg *config.Config) {
	if !cfg.Sync.ReconcileEnabled {
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return scheduler.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return scheduler.Stop(ctx)
		},
	})
}

// RunStartupSweep launches one background sweep right after boot, so a
// restart repairs the divergence accumulated while the process was down
// instead of waiting a full interval for the first scheduled run.
func RunStartupSweep(lc fx.Lifecycle, task *ReconcileTask, cfg *config.Config, log *slog.Logger) {
	if !cfg.Sync.CheckOnStart {
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// Store connections are up by now; the sweep must not block
			// startup, so it runs detached from the fx start context.
			go func() {
				sweepCtx, cancel := context.WithTimeout(context.Background(), startupSweepTimeout)
				defer cancel()
				if err := task.Run(sweepCtx); err != nil {
					log.Error("startup consistency sweep failed", logger.Error(err))
				}
			}()
			return nil
		},
	})
}
