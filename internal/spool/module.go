package spool

import (
	"context"

	"github.com/tech-arch1tect/berth-archiver/config"
	"github.com/tech-arch1tect/berth-archiver/internal/logging"
	"github.com/tech-arch1tect/berth-archiver/internal/operations"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(func(cfg *config.Config, service *operations.Service, logger *logging.Logger) *Watcher {
		return NewWatcher(cfg.SpoolDir, service, logger)
	}),
	fx.Invoke(StartWatcher),
)

func StartWatcher(lc fx.Lifecycle, watcher *Watcher) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return watcher.Start()
		},
		OnStop: func(ctx context.Context) error {
			watcher.Stop()
			return nil
		},
	})
}
