package spool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tech-arch1tect/berth-archiver/internal/archive"
	"github.com/tech-arch1tect/berth-archiver/internal/logging"
	"github.com/tech-arch1tect/berth-archiver/internal/operations"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const (
	resultSuffix     = ".result.json"
	processingSuffix = ".processing"
	doneSuffix       = ".done"
)

var jobExtensions = []string{".yaml", ".yml", ".json"}

type OperationExecutor interface {
	Execute(ctx context.Context, params archive.Params, origin operations.Origin, clientIP string) (*operations.Operation, error)
}

// Watcher runs every job document that appears in a spool directory.
//
// Producers should write jobs elsewhere and rename them into the directory.
// A job is claimed by renaming it to <job>.processing; once it has run the
// outcome is written to <job>.result.json and the job is renamed to <job>.done.
type Watcher struct {
	dir      string
	executor OperationExecutor
	logger   *logging.Logger
	watcher  *fsnotify.Watcher
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewWatcher(dir string, executor OperationExecutor, logger *logging.Logger) *Watcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		dir:      dir,
		executor: executor,
		logger:   logger.With(zap.String("component", "spool"), zap.String("spool_dir", dir)),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (w *Watcher) Start() error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("failed to create spool directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(w.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch spool directory: %w", err)
	}
	w.watcher = watcher

	w.wg.Add(1)
	go w.watchLoop()

	w.logger.Info("spool watcher started")
	return nil
}

func (w *Watcher) Stop() {
	w.cancel()
	if w.watcher != nil {
		w.watcher.Close()
	}
	w.wg.Wait()
}

func (w *Watcher) processExisting() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("failed to read spool directory: %w", err)
	}

	for _, entry := range entries {
		if w.ctx.Err() != nil {
			return nil
		}
		if entry.IsDir() || !IsJobFile(entry.Name()) {
			continue
		}
		w.ProcessJob(filepath.Join(w.dir, entry.Name()))
	}
	return nil
}

// Jobs already waiting in the directory run first. Events queued meanwhile
// are handled afterwards; a job already claimed is skipped then.
func (w *Watcher) watchLoop() {
	defer w.wg.Done()

	if err := w.processExisting(); err != nil {
		w.logger.Warn("failed to process existing spool jobs", zap.Error(err))
	}

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !IsJobFile(filepath.Base(event.Name)) {
				continue
			}
			w.ProcessJob(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("spool watcher error", zap.Error(err))
		}
	}
}

func IsJobFile(name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, resultSuffix) {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, jobExt := range jobExtensions {
		if ext == jobExt {
			return true
		}
	}
	return false
}

// ProcessJob runs the job at path. It reports whether the job was claimed.
func (w *Watcher) ProcessJob(path string) bool {
	content, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			w.logger.Warn("failed to read spool job", zap.String("job", path), zap.Error(err))
		}
		return false
	}
	if len(bytes.TrimSpace(content)) == 0 {
		return false
	}

	claimed := path + processingSuffix
	if err := os.Rename(path, claimed); err != nil {
		// Another event for the same job got here first.
		return false
	}

	w.logger.Info("processing spool job", zap.String("job", path))

	var response any
	params, err := archive.DecodeParams(bytes.NewReader(content))
	if err != nil {
		response = operations.FailureResponse{FailureResult: archive.NewFailureResult(err)}
	} else {
		response = w.execute(params)
	}

	if err := writeResult(strings.TrimSuffix(path, filepath.Ext(path))+resultSuffix, response); err != nil {
		w.logger.Error("failed to write spool job result", zap.String("job", path), zap.Error(err))
	}

	if err := os.Rename(claimed, path+doneSuffix); err != nil {
		w.logger.Warn("failed to mark spool job done", zap.String("job", path), zap.Error(err))
	}
	return true
}

func (w *Watcher) execute(params archive.Params) any {
	operation, err := w.executor.Execute(w.ctx, params, operations.OriginSpool, "")
	if err != nil && !errors.Is(err, archive.ErrSourceCleanup) {
		return operations.FailureResponse{
			OperationID:   operation.ID,
			FailureResult: archive.NewFailureResult(err),
		}
	}
	return operations.OperationResponse{
		OperationID: operation.ID,
		Result:      operation.Result,
	}
}

func writeResult(path string, response any) error {
	data, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return os.Rename(tmp, path)
}
