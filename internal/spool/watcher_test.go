package spool

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tech-arch1tect/berth-archiver/internal/archive"
	"github.com/tech-arch1tect/berth-archiver/internal/logging"
	"github.com/tech-arch1tect/berth-archiver/internal/operations"

	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

type fakeExecutor struct {
	mu     sync.Mutex
	params []archive.Params
	result *archive.Result
	err    error
	delay  time.Duration
}

func (e *fakeExecutor) Execute(ctx context.Context, params archive.Params, origin operations.Origin, clientIP string) (*operations.Operation, error) {
	if e.delay > 0 {
		time.Sleep(e.delay)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.params = append(e.params, params)

	operation := &operations.Operation{
		ID:     "5d1c1f7e-8f0a-4c62-9a55-0f3f2a6f9b11",
		Origin: origin,
		Params: params,
		Result: e.result,
	}
	return operation, e.err
}

func (e *fakeExecutor) calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.params)
}

func writeJob(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readResult(t *testing.T, path string) map[string]any {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("result not written: %v", err)
	}
	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid result JSON: %v", err)
	}
	return result
}

func TestIsJobFile(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"backup.yaml":            true,
		"backup.yml":             true,
		"backup.json":            true,
		"BACKUP.YAML":            true,
		"backup.result.json":     false,
		"backup.yaml.processing": false,
		"backup.yaml.done":       false,
		".backup.yaml":           false,
		"backup.json.tmp":        false,
		"notes.txt":              false,
	}

	for name, want := range tests {
		if got := IsJobFile(name); got != want {
			t.Errorf("IsJobFile(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestProcessJobSuccess(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	executor := &fakeExecutor{result: &archive.Result{Changed: true, Message: "done"}}
	watcher := NewWatcher(dir, executor, logging.NewNop())

	job := writeJob(t, dir, "nightly.yaml", "source: /srv/site\ndest: /backups/site.tar.gz\nstate: archived\n")
	if !watcher.ProcessJob(job) {
		t.Fatal("ProcessJob() = false")
	}

	if executor.calls() != 1 || executor.params[0].Source != "/srv/site" {
		t.Fatalf("executor params = %+v", executor.params)
	}

	result := readResult(t, filepath.Join(dir, "nightly.result.json"))
	if result["changed"] != true || result["operation_id"] == "" {
		t.Errorf("result = %v", result)
	}

	if _, err := os.Stat(job); !os.IsNotExist(err) {
		t.Error("job file still pending")
	}
	if _, err := os.Stat(job + doneSuffix); err != nil {
		t.Errorf("job not marked done: %v", err)
	}

	if watcher.ProcessJob(job) {
		t.Error("processed job claimed twice")
	}
}

func TestProcessJobFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		content   string
		err       error
		calls     int
		errorKind string
	}{
		{
			name:      "malformed document",
			content:   "source: [\n",
			calls:     0,
			errorKind: archive.ErrorKindInvalidParams,
		},
		{
			name:      "tool failure",
			content:   `{"source": "/srv/site", "dest": "/backups/site.zip", "state": "archived"}`,
			err:       &archive.ToolExecutionError{Direction: archive.Pack, Source: "/srv/site", Output: "zip error"},
			calls:     1,
			errorKind: archive.ErrorKindToolExecution,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			executor := &fakeExecutor{err: tt.err}
			watcher := NewWatcher(dir, executor, logging.NewNop())

			job := writeJob(t, dir, "job.json", tt.content)
			if !watcher.ProcessJob(job) {
				t.Fatal("ProcessJob() = false")
			}
			if executor.calls() != tt.calls {
				t.Errorf("executor called %d times, want %d", executor.calls(), tt.calls)
			}

			result := readResult(t, filepath.Join(dir, "job.result.json"))
			if result["failed"] != true || result["error_kind"] != tt.errorKind {
				t.Errorf("result = %v", result)
			}
		})
	}
}

func TestProcessJobCleanupFailureWritesResult(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	executor := &fakeExecutor{
		result: &archive.Result{Changed: true, CleanupError: "failed to delete source /srv/site: busy"},
		err:    &archive.SourceCleanupError{Path: "/srv/site", Err: errors.New("busy")},
	}
	watcher := NewWatcher(dir, executor, logging.NewNop())

	job := writeJob(t, dir, "job.yml", "source: /srv/site\ndest: /b.zip\nstate: archived\ndelete_source: true\n")
	watcher.ProcessJob(job)

	result := readResult(t, filepath.Join(dir, "job.result.json"))
	if result["changed"] != true || result["cleanup_error"] == nil {
		t.Errorf("result = %v", result)
	}
}

func TestProcessJobSkipsEmptyFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	executor := &fakeExecutor{}
	watcher := NewWatcher(dir, executor, logging.NewNop())

	job := writeJob(t, dir, "partial.yaml", "")
	if watcher.ProcessJob(job) {
		t.Error("empty job claimed")
	}
	if _, err := os.Stat(job); err != nil {
		t.Errorf("empty job moved: %v", err)
	}
}

func TestWatcherPicksUpJobs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	executor := &fakeExecutor{result: &archive.Result{Changed: true}}

	writeJob(t, dir, "existing.yaml", "source: /a\ndest: /a.zip\nstate: archived\n")

	watcher := NewWatcher(dir, executor, logging.NewNop())
	if err := watcher.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(watcher.Stop)

	staging := filepath.Join(t.TempDir(), "dropped.yaml")
	if err := os.WriteFile(staging, []byte("source: /b\ndest: /b.zip\nstate: archived\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(staging, filepath.Join(dir, "dropped.yaml")); err != nil {
		t.Skipf("cannot move job into spool directory: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		_, errExisting := os.Stat(filepath.Join(dir, "existing.result.json"))
		_, errDropped := os.Stat(filepath.Join(dir, "dropped.result.json"))
		if errExisting == nil && errDropped == nil {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("jobs not processed, executor called %d times", executor.calls())
}

func waitForFile(t *testing.T, path string) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("%s not written", path)
}

func TestStartDoesNotWaitForExistingJobs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	executor := &fakeExecutor{result: &archive.Result{Changed: true}, delay: 300 * time.Millisecond}
	writeJob(t, dir, "slow.yaml", "source: /a\ndest: /a.zip\nstate: archived\n")

	app := fxtest.New(t,
		fx.NopLogger,
		fx.StartTimeout(100*time.Millisecond),
		fx.Supply(NewWatcher(dir, executor, logging.NewNop())),
		fx.Invoke(StartWatcher),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := app.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(app.RequireStop)

	waitForFile(t, filepath.Join(dir, "slow.result.json"))
	if executor.calls() != 1 {
		t.Errorf("executor called %d times, want 1", executor.calls())
	}
}
