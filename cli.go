package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tech-arch1tect/berth-archiver/config"
	"github.com/tech-arch1tect/berth-archiver/internal/archive"
	"github.com/tech-arch1tect/berth-archiver/internal/logging"
	"github.com/tech-arch1tect/berth-archiver/internal/validation"

	"github.com/spf13/cobra"
)

// ExitError carries a process exit code out of a RunE handler.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "berth-archiver",
		Short:         "Create and extract tar.gz, tar.bz2 and zip archives",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCommand())
	root.AddCommand(newWatchCommand())
	root.AddCommand(newRunCommand())
	return root
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP archive agent",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			runAgent()
		},
	}
}

func newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run archive jobs dropped into SPOOL_DIR",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			runWatcher()
		},
	}
}

func newRunCommand() *cobra.Command {
	var checkMode bool

	cmd := &cobra.Command{
		Use:   "run [params-file]",
		Short: "Run one archive operation and print its result as JSON",
		Long: `Reads a YAML or JSON parameters document from the named file, or from
stdin when no file (or "-") is given, and writes the result to stdout.

Exits 0 when the archive operation succeeded, including when the requested
source deletion failed; that is flagged by cleanup_error in the result.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.NewConfig()
			logger, err := logging.NewLoggerWithOutput(cfg.LogLevel, "stderr")
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return &ExitError{Code: 1, Err: fmt.Errorf("failed to open parameters: %w", err)}
				}
				defer f.Close()
				in = f
			}

			return runOnce(cmd.Context(), cfg, logger, in, cmd.OutOrStdout(), checkMode)
		},
	}

	cmd.Flags().BoolVar(&checkMode, "check", false, "report the command that would run without running it")
	return cmd
}

func runOnce(ctx context.Context, cfg *config.Config, logger *logging.Logger, in io.Reader, out io.Writer, checkMode bool) error {
	result, err := runArchive(ctx, cfg, logger, in, checkMode)
	if err != nil && result == nil {
		if encodeErr := writeJSON(out, archive.NewFailureResult(err)); encodeErr != nil {
			return encodeErr
		}
		return &ExitError{Code: 1, Err: err}
	}

	return writeJSON(out, result)
}

func runArchive(ctx context.Context, cfg *config.Config, logger *logging.Logger, in io.Reader, checkMode bool) (*archive.Result, error) {
	params, err := archive.DecodeParams(in)
	if err != nil {
		return nil, err
	}
	if checkMode {
		params.CheckMode = true
	}

	if err := validation.ValidateParamsPaths(cfg.ArchiveRoot, params.Source, params.Dest, params.Include); err != nil {
		return nil, fmt.Errorf("%w: %v", archive.ErrInvalidParams, err)
	}

	req, err := params.Request()
	if err != nil {
		return nil, err
	}

	executor := archive.NewExecutor(archive.NewExecRunner(cfg.CommandTimeout), archive.OSFileSystem(), logger)
	result, err := archive.NewService(executor, logger).Run(ctx, req)
	if err != nil && !errors.Is(err, archive.ErrSourceCleanup) {
		return nil, err
	}
	return result, nil
}

func writeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
