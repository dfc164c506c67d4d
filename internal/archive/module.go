package archive

import (
	"github.com/tech-arch1tect/berth-archiver/config"
	"github.com/tech-arch1tect/berth-archiver/internal/logging"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Options(
	fx.Provide(NewRunnerFromConfig),
	fx.Provide(NewExecutorFromRunner),
	fx.Provide(NewService),
)

func NewRunnerFromConfig(cfg *config.Config, logger *logging.Logger) CommandRunner {
	logger.Debug("archive command runner configured",
		zap.Duration("command_timeout", cfg.CommandTimeout),
	)
	return NewExecRunner(cfg.CommandTimeout)
}

func NewExecutorFromRunner(runner CommandRunner, logger *logging.Logger) *Executor {
	return NewExecutor(runner, OSFileSystem(), logger.With(zap.String("component", "executor")))
}
