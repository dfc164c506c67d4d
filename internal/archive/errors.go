package archive

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidParams          = errors.New("invalid parameters")
	ErrFormatResolution       = errors.New("archive format could not be resolved")
	ErrUnsupportedFormat      = errors.New("unsupported archive format")
	ErrToolExecution          = errors.New("archive tool failed")
	ErrSourceCleanup          = errors.New("source cleanup failed")
	ErrDestinationPreparation = errors.New("destination preparation failed")
)

type FormatResolutionError struct {
	Direction     Direction
	ReferencePath string
}

func (e *FormatResolutionError) Error() string {
	return fmt.Sprintf("unsupported archive format: no format given and none detected from %q", e.ReferencePath)
}

func (e *FormatResolutionError) Unwrap() error { return ErrFormatResolution }

type UnsupportedFormatError struct {
	Value Format
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported archive format: %s", e.Value)
}

func (e *UnsupportedFormatError) Unwrap() error { return ErrUnsupportedFormat }

// ToolExecutionError carries the tool's combined output untouched.
type ToolExecutionError struct {
	Direction Direction
	Source    string
	Command   []string
	Output    string
	ExitCode  int
	Err       error
}

func (e *ToolExecutionError) Error() string {
	verb := "archive"
	if e.Direction == Unpack {
		verb = "unarchive"
	}

	output := e.Output
	if strings.TrimSpace(output) == "" && e.Err != nil {
		output = e.Err.Error()
	}
	return fmt.Sprintf("Failed to %s %s: %s", verb, e.Source, output)
}

func (e *ToolExecutionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrToolExecution}
	}
	return []error{ErrToolExecution, e.Err}
}

type SourceCleanupError struct {
	Path string
	Err  error
}

func (e *SourceCleanupError) Error() string {
	return fmt.Sprintf("failed to delete source %s: %v", e.Path, e.Err)
}

func (e *SourceCleanupError) Unwrap() []error { return []error{ErrSourceCleanup, e.Err} }

type DestinationPreparationError struct {
	Path string
	Err  error
}

func (e *DestinationPreparationError) Error() string {
	return fmt.Sprintf("failed to create destination directory %s: %v", e.Path, e.Err)
}

func (e *DestinationPreparationError) Unwrap() []error {
	return []error{ErrDestinationPreparation, e.Err}
}

const (
	ErrorKindInvalidParams          = "invalid_params"
	ErrorKindFormatResolution       = "format_resolution"
	ErrorKindUnsupportedFormat      = "unsupported_format"
	ErrorKindToolExecution          = "tool_execution"
	ErrorKindSourceCleanup          = "source_cleanup"
	ErrorKindDestinationPreparation = "destination_preparation"
	ErrorKindUnknown                = "unknown"
)

func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidParams):
		return ErrorKindInvalidParams
	case errors.Is(err, ErrFormatResolution):
		return ErrorKindFormatResolution
	case errors.Is(err, ErrUnsupportedFormat):
		return ErrorKindUnsupportedFormat
	case errors.Is(err, ErrToolExecution):
		return ErrorKindToolExecution
	case errors.Is(err, ErrSourceCleanup):
		return ErrorKindSourceCleanup
	case errors.Is(err, ErrDestinationPreparation):
		return ErrorKindDestinationPreparation
	default:
		return ErrorKindUnknown
	}
}

// IsCallerError reports whether err was caused by the request itself rather
// than by the environment the tools ran in.
func IsCallerError(err error) bool {
	return errors.Is(err, ErrInvalidParams) ||
		errors.Is(err, ErrFormatResolution) ||
		errors.Is(err, ErrUnsupportedFormat)
}
