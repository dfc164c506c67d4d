package archive

import "fmt"

const (
	toolTar   = "tar"
	toolZip   = "zip"
	toolUnzip = "unzip"
	toolPigz  = "pigz"
)

type commandBuilder struct {
	argv     []string
	operands []string
}

func newCommandBuilder(tool string) *commandBuilder {
	return &commandBuilder{argv: []string{tool}}
}

func (b *commandBuilder) flag(args ...string) *commandBuilder {
	b.argv = append(b.argv, args...)
	return b
}

func (b *commandBuilder) operand(values ...string) *commandBuilder {
	b.argv = append(b.argv, values...)
	b.operands = append(b.operands, values...)
	return b
}

func (b *commandBuilder) build() Command {
	return Command{argv: b.argv, operands: b.operands}
}

// Build turns a request and its resolved format into exactly one tool
// invocation. Every path and pattern becomes a single argv element and no
// shell ever sees the result.
func Build(req Request, res Resolution) (Command, error) {
	if !res.Resolved() {
		return Command{}, &FormatResolutionError{Direction: req.Direction, ReferencePath: res.ReferencePath}
	}
	if !res.Format.IsKnown() {
		return Command{}, &UnsupportedFormatError{Value: res.Format}
	}

	switch req.Direction {
	case Pack:
		return buildPack(req, res.Format), nil
	case Unpack:
		return buildUnpack(req, res.Format), nil
	default:
		return Command{}, fmt.Errorf("%w: unknown state %q", ErrInvalidParams, req.Direction)
	}
}

func buildPack(req Request, format Format) Command {
	if format == FormatZip {
		return newCommandBuilder(toolZip).
			flag("-r").
			operand(req.Dest, req.Source).
			build()
	}

	b := newCommandBuilder(toolTar).
		flag(tarCompressionFlags(format, req.Compression)...).
		flag("-cf", req.Dest)

	for _, pattern := range req.Exclude {
		b.flag("--exclude=" + pattern)
	}

	if len(req.Include) > 0 {
		b.flag("-C", req.Source).operand(req.Include...)
	} else {
		b.operand(req.Source)
	}

	return b.build()
}

func buildUnpack(req Request, format Format) Command {
	if format == FormatZip {
		return newCommandBuilder(toolUnzip).
			flag("-o").
			operand(req.Source).
			flag("-d", req.Dest).
			build()
	}

	return newCommandBuilder(toolTar).
		flag(tarCompressionFlags(format, req.Compression)...).
		flag("-xf", req.Source).
		flag("-C", req.Dest).
		build()
}

// pigz only parallelises the gzip family, so bzip2 always uses -j.
func tarCompressionFlags(format Format, compression Compression) []string {
	if format == FormatTarBz2 {
		return []string{"-j"}
	}
	if compression == CompressionPigz {
		return []string{"-I", toolPigz}
	}
	return []string{"-z"}
}

// EffectiveCompression names the compressor the built command applies, or
// the empty string when the compression choice has no meaning for format.
func EffectiveCompression(format Format, compression Compression) Compression {
	if format != FormatTarGz {
		return ""
	}
	if compression == CompressionPigz {
		return CompressionPigz
	}
	return CompressionGzip
}

// IgnoredFilters lists the filter kinds a request carries that the built
// command will not apply.
func IgnoredFilters(req Request, format Format) []string {
	applies := req.Direction == Pack && format != FormatZip
	if applies {
		return nil
	}

	var ignored []string
	if len(req.Include) > 0 {
		ignored = append(ignored, "include")
	}
	if len(req.Exclude) > 0 {
		ignored = append(ignored, "exclude")
	}
	return ignored
}
