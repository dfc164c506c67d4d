package archive

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/tech-arch1tect/berth-archiver/internal/logging"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeRunner struct {
	mu       sync.Mutex
	outcome  ExecutionOutcome
	commands []Command
}

func succeedingRunner() *fakeRunner {
	return &fakeRunner{outcome: ExecutionOutcome{Succeeded: true}}
}

func failingRunner(output string, exitCode int) *fakeRunner {
	return &fakeRunner{outcome: ExecutionOutcome{
		Output:   output,
		ExitCode: exitCode,
		Err:      errors.New("exit status 2"),
	}}
}

func (r *fakeRunner) Run(ctx context.Context, cmd Command) ExecutionOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, cmd)
	return r.outcome
}

func (r *fakeRunner) calls() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Command(nil), r.commands...)
}

type fakeFileInfo struct {
	name string
	dir  bool
}

func (i fakeFileInfo) Name() string { return i.name }
func (i fakeFileInfo) Size() int64  { return 0 }
func (i fakeFileInfo) Mode() fs.FileMode {
	if i.dir {
		return fs.ModeDir | 0755
	}
	return 0644
}
func (i fakeFileInfo) ModTime() time.Time { return time.Time{} }
func (i fakeFileInfo) IsDir() bool        { return i.dir }
func (i fakeFileInfo) Sys() any           { return nil }

// fakeFileSystem tracks paths as directories (true) or files (false).
type fakeFileSystem struct {
	mu         sync.Mutex
	paths      map[string]bool
	removed    []string
	removedAll []string
	created    []string
	removeErr  error
	mkdirErr   error
}

func newFakeFileSystem() *fakeFileSystem {
	return &fakeFileSystem{paths: make(map[string]bool)}
}

func (f *fakeFileSystem) withDir(path string) *fakeFileSystem {
	f.paths[path] = true
	return f
}

func (f *fakeFileSystem) withFile(path string) *fakeFileSystem {
	f.paths[path] = false
	return f
}

func (f *fakeFileSystem) Stat(path string) (os.FileInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	dir, ok := f.paths[path]
	if !ok {
		return nil, &fs.PathError{Op: "stat", Path: path, Err: fs.ErrNotExist}
	}
	return fakeFileInfo{name: path, dir: dir}, nil
}

func (f *fakeFileSystem) MkdirAll(path string, perm os.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.mkdirErr != nil {
		return f.mkdirErr
	}
	f.created = append(f.created, path)
	f.paths[path] = true
	return nil
}

func (f *fakeFileSystem) Remove(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, path)
	delete(f.paths, path)
	return nil
}

func (f *fakeFileSystem) RemoveAll(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.removeErr != nil {
		return f.removeErr
	}
	f.removedAll = append(f.removedAll, path)
	delete(f.paths, path)
	return nil
}

func newObservedLogger(t *testing.T) (*logging.Logger, *observer.ObservedLogs) {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	return logging.NewFromZap(zap.New(core)), logs
}
