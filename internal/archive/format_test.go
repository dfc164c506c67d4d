package archive

import "testing"

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		explicit Format
		path     string
		want     Format
		kind     ResolutionKind
	}{
		{"tar.gz suffix", FormatUnset, "a.tar.gz", FormatTarGz, Inferred},
		{"tgz suffix", FormatUnset, "a.tgz", FormatTarGz, Inferred},
		{"tar.bz2 suffix", FormatUnset, "a.tar.bz2", FormatTarBz2, Inferred},
		{"tbz suffix", FormatUnset, "a.tbz", FormatTarBz2, Inferred},
		{"tbz2 suffix", FormatUnset, "a.tbz2", FormatTarBz2, Inferred},
		{"zip suffix", FormatUnset, "a.zip", FormatZip, Inferred},
		{"upper case suffix", FormatUnset, "/backups/A.TAR.GZ", FormatTarGz, Inferred},
		{"unknown suffix", FormatUnset, "a.xyz", FormatUnset, Unresolved},
		{"bare tar", FormatUnset, "a.tar", FormatUnset, Unresolved},
		{"no suffix", FormatUnset, "/srv/data", FormatUnset, Unresolved},
		{"empty path", FormatUnset, "", FormatUnset, Unresolved},
		{"explicit overrides suffix", FormatZip, "a.tar.gz", FormatZip, Explicit},
		{"explicit without suffix", FormatTarBz2, "/srv/out", FormatTarBz2, Explicit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Resolve(tt.explicit, tt.path)
			if got.Format != tt.want {
				t.Errorf("Resolve(%q, %q).Format = %q, want %q", tt.explicit, tt.path, got.Format, tt.want)
			}
			if got.Kind != tt.kind {
				t.Errorf("Resolve(%q, %q).Kind = %s, want %s", tt.explicit, tt.path, got.Kind, tt.kind)
			}
			if got.ReferencePath != tt.path {
				t.Errorf("ReferencePath = %q, want %q", got.ReferencePath, tt.path)
			}
			if got.Resolved() != (tt.kind != Unresolved) {
				t.Errorf("Resolved() = %v for kind %s", got.Resolved(), tt.kind)
			}
		})
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	t.Parallel()

	first := Resolve(FormatUnset, "/data/site.tgz")
	for range 10 {
		if got := Resolve(FormatUnset, "/data/site.tgz"); got != first {
			t.Fatalf("Resolve() = %+v, previously %+v", got, first)
		}
	}
}

func TestFormatIsKnown(t *testing.T) {
	t.Parallel()

	for _, format := range []Format{FormatTarGz, FormatTarBz2, FormatZip} {
		if !format.IsKnown() {
			t.Errorf("%q.IsKnown() = false", format)
		}
	}
	for _, format := range []Format{FormatUnset, "tar", "rar", "TAR.GZ"} {
		if format.IsKnown() {
			t.Errorf("%q.IsKnown() = true", format)
		}
	}
}
