package archive

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Params is the loosely typed input accepted from callers, in YAML or JSON.
type Params struct {
	Source       string   `json:"source" yaml:"source"`
	Dest         string   `json:"dest" yaml:"dest"`
	Format       string   `json:"format,omitempty" yaml:"format,omitempty"`
	Compression  string   `json:"compression,omitempty" yaml:"compression,omitempty"`
	State        string   `json:"state" yaml:"state"`
	DeleteSource bool     `json:"delete_source,omitempty" yaml:"delete_source,omitempty"`
	Include      []string `json:"include,omitempty" yaml:"include,omitempty"`
	Exclude      []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	CheckMode    bool     `json:"check_mode,omitempty" yaml:"check_mode,omitempty"`
}

var validStates = []Direction{Pack, Unpack}

// DecodeParams reads a single params document. JSON is valid YAML, so both
// encodings are accepted. Unknown keys are rejected.
func DecodeParams(r io.Reader) (Params, error) {
	var params Params

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&params); err != nil {
		if errors.Is(err, io.EOF) {
			return Params{}, fmt.Errorf("%w: empty parameters document", ErrInvalidParams)
		}
		return Params{}, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}

	return params, nil
}

// Request validates the params and returns the typed request the core works on.
func (p Params) Request() (Request, error) {
	if strings.TrimSpace(p.Source) == "" {
		return Request{}, fmt.Errorf("%w: source is required", ErrInvalidParams)
	}
	if strings.TrimSpace(p.Dest) == "" {
		return Request{}, fmt.Errorf("%w: dest is required", ErrInvalidParams)
	}

	direction := Direction(p.State)
	if p.State == "" {
		return Request{}, fmt.Errorf("%w: state is required", ErrInvalidParams)
	}
	if !slices.Contains(validStates, direction) {
		return Request{}, fmt.Errorf("%w: invalid value %s for state, expected one of archived, unarchived", ErrInvalidParams, p.State)
	}

	format := Format(p.Format)
	if format != FormatUnset && !format.IsKnown() {
		return Request{}, fmt.Errorf("%w: invalid value %s for format, expected one of tar.gz, tar.bz2, zip", ErrInvalidParams, p.Format)
	}

	compression := Compression(p.Compression)
	if compression == "" {
		compression = CompressionNone
	}
	if !slices.Contains(validCompressionTypes, compression) {
		return Request{}, fmt.Errorf("%w: invalid value %s for compression, expected one of none, gzip, pigz", ErrInvalidParams, p.Compression)
	}

	if err := validatePatterns("include", p.Include); err != nil {
		return Request{}, err
	}
	if err := validatePatterns("exclude", p.Exclude); err != nil {
		return Request{}, err
	}

	req := Request{
		Source:       p.Source,
		Dest:         p.Dest,
		Format:       format,
		Compression:  compression,
		Direction:    direction,
		DeleteSource: p.DeleteSource,
		Include:      p.Include,
		Exclude:      p.Exclude,
		CheckMode:    p.CheckMode,
	}
	return req.clone(), nil
}

// Anything but an empty pattern is handed to tar verbatim.
func validatePatterns(name string, patterns []string) error {
	for i, pattern := range patterns {
		if pattern == "" {
			return fmt.Errorf("%w: %s[%d] is empty", ErrInvalidParams, name, i)
		}
	}
	return nil
}
