package archive

import (
	"strings"
)

type Format string

const (
	FormatUnset  Format = ""
	FormatTarGz  Format = "tar.gz"
	FormatTarBz2 Format = "tar.bz2"
	FormatZip    Format = "zip"
)

var validFormats = []Format{FormatTarGz, FormatTarBz2, FormatZip}

func (f Format) IsKnown() bool {
	for _, known := range validFormats {
		if f == known {
			return true
		}
	}
	return false
}

func (f Format) String() string {
	return string(f)
}

// suffixes are checked in order; the first match wins.
var formatSuffixes = []struct {
	suffix string
	format Format
}{
	{".tar.gz", FormatTarGz},
	{".tgz", FormatTarGz},
	{".tar.bz2", FormatTarBz2},
	{".tbz", FormatTarBz2},
	{".tbz2", FormatTarBz2},
	{".zip", FormatZip},
}

type ResolutionKind int

const (
	Unresolved ResolutionKind = iota
	Explicit
	Inferred
)

func (k ResolutionKind) String() string {
	switch k {
	case Explicit:
		return "explicit"
	case Inferred:
		return "inferred"
	default:
		return "unresolved"
	}
}

type Resolution struct {
	Format        Format
	Kind          ResolutionKind
	ReferencePath string
}

func (r Resolution) Resolved() bool {
	return r.Kind != Unresolved
}

// Resolve returns the explicit format untouched when one is given, otherwise
// the format implied by the suffix of referencePath.
func Resolve(explicit Format, referencePath string) Resolution {
	if explicit != FormatUnset {
		return Resolution{Format: explicit, Kind: Explicit, ReferencePath: referencePath}
	}

	if format, ok := DetectFormat(referencePath); ok {
		return Resolution{Format: format, Kind: Inferred, ReferencePath: referencePath}
	}

	return Resolution{Kind: Unresolved, ReferencePath: referencePath}
}

func DetectFormat(path string) (Format, bool) {
	lower := strings.ToLower(path)
	for _, candidate := range formatSuffixes {
		if strings.HasSuffix(lower, candidate.suffix) {
			return candidate.format, true
		}
	}
	return FormatUnset, false
}
