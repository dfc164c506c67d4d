package archive

import (
	"context"
	"slices"
)

type Compression string

const (
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionPigz Compression = "pigz"
)

var validCompressionTypes = []Compression{CompressionNone, CompressionGzip, CompressionPigz}

type Direction string

const (
	Pack   Direction = "archived"
	Unpack Direction = "unarchived"
)

// Request is built once from caller input and never mutated afterwards.
type Request struct {
	Source       string
	Dest         string
	Format       Format
	Compression  Compression
	Direction    Direction
	DeleteSource bool
	Include      []string
	Exclude      []string
	CheckMode    bool
}

// ReferencePath is the path whose suffix decides the format when none is given:
// the archive being written for Pack, the archive being read for Unpack.
func (r Request) ReferencePath() string {
	if r.Direction == Pack {
		return r.Dest
	}
	return r.Source
}

func (r Request) clone() Request {
	r.Include = slices.Clone(r.Include)
	r.Exclude = slices.Clone(r.Exclude)
	return r
}

type Command struct {
	argv     []string
	operands []string
}

func (c Command) Tool() string {
	if len(c.argv) == 0 {
		return ""
	}
	return c.argv[0]
}

func (c Command) Args() []string {
	if len(c.argv) == 0 {
		return nil
	}
	return slices.Clone(c.argv[1:])
}

func (c Command) Argv() []string {
	return slices.Clone(c.argv)
}

// Operands are the positional arguments naming what the tool works on.
func (c Command) Operands() []string {
	return slices.Clone(c.operands)
}

func (c Command) IsZero() bool {
	return len(c.argv) == 0
}

type ExecutionOutcome struct {
	Succeeded bool
	Output    string
	ExitCode  int
	Err       error
}

type CommandRunner interface {
	Run(ctx context.Context, cmd Command) ExecutionOutcome
}

type Execution struct {
	Outcome       ExecutionOutcome
	SourceDeleted bool
	CleanupError  error
}

type Result struct {
	Changed         bool     `json:"changed"`
	Message         string   `json:"msg"`
	OriginalSource  string   `json:"original_source"`
	Destination     string   `json:"destination"`
	CompressionUsed string   `json:"compression_used,omitempty"`
	FormatDetected  string   `json:"format_detected,omitempty"`
	Command         []string `json:"cmd,omitempty"`
	SourceDeleted   bool     `json:"source_deleted,omitempty"`
	CleanupError    string   `json:"cleanup_error,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
	CheckMode       bool     `json:"check_mode,omitempty"`
}

type FailureResult struct {
	Failed    bool   `json:"failed"`
	Message   string `json:"msg"`
	ErrorKind string `json:"error_kind"`
}

func NewFailureResult(err error) FailureResult {
	return FailureResult{
		Failed:    true,
		Message:   err.Error(),
		ErrorKind: ErrorKind(err),
	}
}
