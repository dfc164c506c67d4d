package archive

import (
	"fmt"
	"strings"
)

func Report(req Request, res Resolution, cmd Command, execution Execution) Result {
	result := Result{
		Changed:        true,
		Message:        message(req),
		OriginalSource: req.Source,
		Destination:    req.Dest,
		Command:        cmd.Argv(),
		SourceDeleted:  execution.SourceDeleted,
		CheckMode:      req.CheckMode,
		Warnings:       warnings(req, res.Format),
	}

	if compression := EffectiveCompression(res.Format, req.Compression); compression != "" {
		result.CompressionUsed = string(compression)
	}

	if res.Kind == Inferred {
		result.FormatDetected = string(res.Format)
	}

	if execution.CleanupError != nil {
		result.CleanupError = execution.CleanupError.Error()
	}

	return result
}

func message(req Request) string {
	var msg string
	if req.Direction == Unpack {
		msg = fmt.Sprintf("%s successfully unarchived to %s.", req.Source, req.Dest)
	} else {
		msg = fmt.Sprintf("%s archived to %s successfully.", req.Source, req.Dest)
	}

	if req.CheckMode {
		return "check mode: " + msg
	}
	return msg
}

func warnings(req Request, format Format) []string {
	var out []string

	if ignored := IgnoredFilters(req, format); len(ignored) > 0 {
		var reason string
		if req.Direction == Unpack {
			reason = "filters only apply when archiving"
		} else {
			reason = "zip archives are created without filtering"
		}
		out = append(out, fmt.Sprintf("%s ignored: %s", strings.Join(ignored, " and "), reason))
	}

	if globs := globIncludes(req, format); len(globs) > 0 {
		out = append(out, fmt.Sprintf("include %s passed to tar as literal member names, wildcards are not expanded", strings.Join(globs, ", ")))
	}

	return out
}

// Include operands are never shell expanded, so a wildcard only matches a
// member literally named that way.
func globIncludes(req Request, format Format) []string {
	if req.Direction != Pack || format == FormatZip {
		return nil
	}

	var globs []string
	for _, pattern := range req.Include {
		if strings.ContainsAny(pattern, "*?[") {
			globs = append(globs, pattern)
		}
	}
	return globs
}
