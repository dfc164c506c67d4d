package archive

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/tech-arch1tect/berth-archiver/internal/logging"
)

func packRequest(source string, deleteSource bool) Request {
	return Request{
		Source:       source,
		Dest:         "/backups/out.tar.gz",
		Compression:  CompressionNone,
		Direction:    Pack,
		DeleteSource: deleteSource,
	}
}

func TestExecuteDeletesSource(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		fs            *fakeFileSystem
		wantRemoveAll []string
		wantRemove    []string
	}{
		{
			name:          "directory source is removed recursively",
			fs:            newFakeFileSystem().withDir("/srv/site"),
			wantRemoveAll: []string{"/srv/site"},
		},
		{
			name:       "file source is removed alone",
			fs:         newFakeFileSystem().withFile("/srv/site"),
			wantRemove: []string{"/srv/site"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			runner := succeedingRunner()
			executor := NewExecutor(runner, tt.fs, logging.NewNop())
			req := packRequest("/srv/site", true)

			execution, err := executor.Execute(context.Background(), mustBuild(t, req), req)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if !execution.SourceDeleted {
				t.Error("SourceDeleted = false, want true")
			}
			if !slices.Equal(tt.fs.removedAll, tt.wantRemoveAll) {
				t.Errorf("RemoveAll calls = %q, want %q", tt.fs.removedAll, tt.wantRemoveAll)
			}
			if !slices.Equal(tt.fs.removed, tt.wantRemove) {
				t.Errorf("Remove calls = %q, want %q", tt.fs.removed, tt.wantRemove)
			}
		})
	}
}

func TestExecuteKeepsSourceByDefault(t *testing.T) {
	t.Parallel()

	fs := newFakeFileSystem().withDir("/srv/site")
	executor := NewExecutor(succeedingRunner(), fs, logging.NewNop())
	req := packRequest("/srv/site", false)

	execution, err := executor.Execute(context.Background(), mustBuild(t, req), req)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if execution.SourceDeleted {
		t.Error("SourceDeleted = true without delete_source")
	}
	if len(fs.removed)+len(fs.removedAll) != 0 {
		t.Errorf("unexpected removals: %q %q", fs.removed, fs.removedAll)
	}
}

func TestExecuteToolFailure(t *testing.T) {
	t.Parallel()

	fs := newFakeFileSystem().withDir("/srv/site")
	runner := failingRunner("tar: /srv/site: Cannot open: Permission denied\n", 2)
	executor := NewExecutor(runner, fs, logging.NewNop())
	req := packRequest("/srv/site", true)

	execution, err := executor.Execute(context.Background(), mustBuild(t, req), req)
	if !errors.Is(err, ErrToolExecution) {
		t.Fatalf("Execute() error = %v, want ErrToolExecution", err)
	}

	var toolErr *ToolExecutionError
	if !errors.As(err, &toolErr) {
		t.Fatalf("error type = %T", err)
	}
	if toolErr.ExitCode != 2 {
		t.Errorf("ExitCode = %d, want 2", toolErr.ExitCode)
	}
	if !strings.Contains(err.Error(), "Permission denied") {
		t.Errorf("error %q does not carry tool output", err)
	}
	if !strings.HasPrefix(err.Error(), "Failed to archive /srv/site: ") {
		t.Errorf("error = %q", err)
	}

	if execution.SourceDeleted {
		t.Error("SourceDeleted = true after tool failure")
	}
	if len(fs.removed)+len(fs.removedAll) != 0 {
		t.Errorf("source removed after tool failure: %q %q", fs.removed, fs.removedAll)
	}
}

func TestExecuteCleanupFailure(t *testing.T) {
	t.Parallel()

	fs := newFakeFileSystem().withDir("/srv/site")
	fs.removeErr = errors.New("device or resource busy")
	executor := NewExecutor(succeedingRunner(), fs, logging.NewNop())
	req := packRequest("/srv/site", true)

	execution, err := executor.Execute(context.Background(), mustBuild(t, req), req)
	if !errors.Is(err, ErrSourceCleanup) {
		t.Fatalf("Execute() error = %v, want ErrSourceCleanup", err)
	}
	if errors.Is(err, ErrToolExecution) {
		t.Error("cleanup failure reported as tool failure")
	}
	if !execution.Outcome.Succeeded {
		t.Error("primary outcome not reported as succeeded")
	}
	if execution.CleanupError == nil || execution.SourceDeleted {
		t.Errorf("execution = %+v", execution)
	}
}

func TestExecuteCleanupMissingSource(t *testing.T) {
	t.Parallel()

	executor := NewExecutor(succeedingRunner(), newFakeFileSystem(), logging.NewNop())
	req := packRequest("/srv/gone", true)

	_, err := executor.Execute(context.Background(), mustBuild(t, req), req)

	var cleanupErr *SourceCleanupError
	if !errors.As(err, &cleanupErr) {
		t.Fatalf("Execute() error = %v, want *SourceCleanupError", err)
	}
	if cleanupErr.Path != "/srv/gone" {
		t.Errorf("Path = %q", cleanupErr.Path)
	}
}

func TestExecutePreparesUnpackDestination(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		fs          *fakeFileSystem
		wantCreated []string
	}{
		{"missing destination is created", newFakeFileSystem(), []string{"/restore"}},
		{"existing destination is reused", newFakeFileSystem().withDir("/restore"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			runner := succeedingRunner()
			executor := NewExecutor(runner, tt.fs, logging.NewNop())
			req := Request{Source: "/backups/site.zip", Dest: "/restore", Compression: CompressionNone, Direction: Unpack}

			if _, err := executor.Execute(context.Background(), mustBuild(t, req), req); err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if !slices.Equal(tt.fs.created, tt.wantCreated) {
				t.Errorf("created = %q, want %q", tt.fs.created, tt.wantCreated)
			}
			if len(runner.calls()) != 1 {
				t.Errorf("runner called %d times", len(runner.calls()))
			}
		})
	}
}

func TestExecuteDestinationPreparationFailure(t *testing.T) {
	t.Parallel()

	fs := newFakeFileSystem()
	fs.mkdirErr = errors.New("read-only file system")
	runner := succeedingRunner()
	executor := NewExecutor(runner, fs, logging.NewNop())
	req := Request{Source: "/backups/site.tar.gz", Dest: "/restore", Compression: CompressionNone, Direction: Unpack}

	_, err := executor.Execute(context.Background(), mustBuild(t, req), req)
	if !errors.Is(err, ErrDestinationPreparation) {
		t.Fatalf("Execute() error = %v, want ErrDestinationPreparation", err)
	}
	if len(runner.calls()) != 0 {
		t.Error("tool ran although the destination could not be prepared")
	}
}

func TestExecutePackDoesNotTouchDestination(t *testing.T) {
	t.Parallel()

	fs := newFakeFileSystem()
	executor := NewExecutor(succeedingRunner(), fs, logging.NewNop())
	req := packRequest("/srv/site", false)

	if _, err := executor.Execute(context.Background(), mustBuild(t, req), req); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(fs.created) != 0 {
		t.Errorf("pack created directories: %q", fs.created)
	}
}

func TestExecuteLogsCommand(t *testing.T) {
	t.Parallel()

	logger, logs := newObservedLogger(t)
	executor := NewExecutor(succeedingRunner(), newFakeFileSystem(), logger)
	req := packRequest("/srv/site", false)

	if _, err := executor.Execute(context.Background(), mustBuild(t, req), req); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	entries := logs.FilterMessage("executing archive command").All()
	if len(entries) != 1 {
		t.Fatalf("got %d command log entries, want 1", len(entries))
	}
	if state := entries[0].ContextMap()["state"]; state != string(Pack) {
		t.Errorf("logged state = %v", state)
	}
}
