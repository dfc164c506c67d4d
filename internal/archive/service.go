package archive

import (
	"context"
	"time"

	"github.com/tech-arch1tect/berth-archiver/internal/logging"

	"go.uber.org/zap"
)

type Service struct {
	executor *Executor
	logger   *logging.Logger
}

func NewService(executor *Executor, logger *logging.Logger) *Service {
	return &Service{
		executor: executor,
		logger:   logger.With(zap.String("service", "archive")),
	}
}

// Run performs one archive or unarchive operation.
//
// On success the result is non-nil and err is nil. When the operation
// succeeded but the requested source deletion did not, both the result and a
// *SourceCleanupError are returned. Any other error means nothing was
// reported as done and the result is nil.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	resolution := Resolve(req.Format, req.ReferencePath())
	s.logger.Debug("archive format resolved",
		zap.String("state", string(req.Direction)),
		zap.String("reference_path", resolution.ReferencePath),
		zap.String("format", string(resolution.Format)),
		zap.String("resolution", resolution.Kind.String()),
	)

	cmd, err := Build(req, resolution)
	if err != nil {
		s.logger.Error("failed to build archive command",
			zap.String("source", req.Source),
			zap.String("dest", req.Dest),
			zap.Error(err),
		)
		return nil, err
	}

	if ignored := IgnoredFilters(req, resolution.Format); len(ignored) > 0 {
		s.logger.Warn("filters ignored for this operation",
			zap.String("format", string(resolution.Format)),
			zap.String("state", string(req.Direction)),
			zap.Strings("ignored", ignored),
		)
	}

	if req.CheckMode {
		s.logger.Info("check mode, command not executed", zap.Strings("command", cmd.Argv()))
		result := Report(req, resolution, cmd, Execution{})
		return &result, nil
	}

	execution, err := s.executor.Execute(ctx, cmd, req)
	if err != nil && execution.CleanupError == nil {
		return nil, err
	}

	result := Report(req, resolution, cmd, execution)
	s.logger.Info("archive operation completed",
		zap.String("state", string(req.Direction)),
		zap.String("source", req.Source),
		zap.String("dest", req.Dest),
		zap.String("format", string(resolution.Format)),
		zap.Bool("source_deleted", execution.SourceDeleted),
		zap.Duration("duration", time.Since(start)),
	)

	return &result, err
}
