package archive

import (
	"context"
	"os"

	"github.com/tech-arch1tect/berth-archiver/internal/logging"

	"go.uber.org/zap"
)

type FileSystem interface {
	Stat(path string) (os.FileInfo, error)
	MkdirAll(path string, perm os.FileMode) error
	Remove(path string) error
	RemoveAll(path string) error
}

type osFileSystem struct{}

func (osFileSystem) Stat(path string) (os.FileInfo, error)        { return os.Stat(path) }
func (osFileSystem) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }
func (osFileSystem) Remove(path string) error                     { return os.Remove(path) }
func (osFileSystem) RemoveAll(path string) error                  { return os.RemoveAll(path) }

func OSFileSystem() FileSystem {
	return osFileSystem{}
}

type Executor struct {
	runner CommandRunner
	fs     FileSystem
	logger *logging.Logger
}

func NewExecutor(runner CommandRunner, fs FileSystem, logger *logging.Logger) *Executor {
	if fs == nil {
		fs = OSFileSystem()
	}
	return &Executor{
		runner: runner,
		fs:     fs,
		logger: logger,
	}
}

// Execute runs cmd for req. A *SourceCleanupError is returned alongside a
// successful Execution; every other error means the primary action failed.
func (e *Executor) Execute(ctx context.Context, cmd Command, req Request) (Execution, error) {
	if req.Direction == Unpack {
		if err := e.prepareDestination(req.Dest); err != nil {
			return Execution{}, err
		}
	}

	e.logger.Info("executing archive command",
		zap.String("state", string(req.Direction)),
		zap.Strings("command", cmd.Argv()),
	)

	outcome := e.runner.Run(ctx, cmd)
	if !outcome.Succeeded {
		e.logger.Error("archive command failed",
			zap.Strings("command", cmd.Argv()),
			zap.Int("exit_code", outcome.ExitCode),
			zap.String("output", outcome.Output),
			zap.Error(outcome.Err),
		)
		return Execution{Outcome: outcome}, &ToolExecutionError{
			Direction: req.Direction,
			Source:    req.Source,
			Command:   cmd.Argv(),
			Output:    outcome.Output,
			ExitCode:  outcome.ExitCode,
			Err:       outcome.Err,
		}
	}

	e.logger.Debug("archive command completed",
		zap.Strings("command", cmd.Argv()),
		zap.String("output", outcome.Output),
	)

	execution := Execution{Outcome: outcome}
	if !req.DeleteSource {
		return execution, nil
	}

	if err := e.removeSource(req.Source); err != nil {
		e.logger.Warn("source cleanup failed",
			zap.String("source", req.Source),
			zap.Error(err),
		)
		execution.CleanupError = err
		return execution, err
	}

	e.logger.Info("source deleted", zap.String("source", req.Source))
	execution.SourceDeleted = true
	return execution, nil
}

func (e *Executor) prepareDestination(dest string) error {
	info, err := e.fs.Stat(dest)
	if err == nil && info.IsDir() {
		return nil
	}

	e.logger.Debug("creating destination directory", zap.String("dest", dest))
	if err := e.fs.MkdirAll(dest, 0755); err != nil {
		e.logger.Error("failed to create destination directory",
			zap.String("dest", dest),
			zap.Error(err),
		)
		return &DestinationPreparationError{Path: dest, Err: err}
	}
	return nil
}

func (e *Executor) removeSource(source string) error {
	info, err := e.fs.Stat(source)
	if err != nil {
		return &SourceCleanupError{Path: source, Err: err}
	}

	if info.IsDir() {
		err = e.fs.RemoveAll(source)
	} else {
		err = e.fs.Remove(source)
	}
	if err != nil {
		return &SourceCleanupError{Path: source, Err: err}
	}
	return nil
}
