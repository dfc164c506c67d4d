package validation

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	ErrPathTraversal     = errors.New("path traversal detected")
	ErrOutsideRoot       = errors.New("path outside archive root")
	ErrRelativePath      = errors.New("path must be absolute when an archive root is configured")
	ErrInvalidCharacters = errors.New("invalid characters in path")
	ErrAbsoluteInclude   = errors.New("include must be relative to the source when an archive root is configured")
)

// EnsureWithinRoot checks that path stays inside root. An empty root means
// callers may name any path.
func EnsureWithinRoot(root, path string) error {
	if strings.ContainsRune(path, 0) {
		return ErrInvalidCharacters
	}

	if root == "" {
		return nil
	}

	if !filepath.IsAbs(path) {
		return ErrRelativePath
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("invalid archive root: %w", err)
	}

	relPath, err := filepath.Rel(absRoot, filepath.Clean(path))
	if err != nil {
		return ErrPathTraversal
	}

	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return ErrOutsideRoot
	}

	return nil
}

func ValidateArchivePaths(root string, paths ...string) error {
	for _, path := range paths {
		if err := EnsureWithinRoot(root, path); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

// ValidateIncludes checks include operands, which tar resolves relative to
// source, against the same root as the paths themselves.
func ValidateIncludes(root, source string, includes []string) error {
	if root == "" {
		return nil
	}

	for _, include := range includes {
		if filepath.IsAbs(include) {
			return fmt.Errorf("include %s: %w", include, ErrAbsoluteInclude)
		}
		if err := EnsureWithinRoot(root, filepath.Join(source, include)); err != nil {
			return fmt.Errorf("include %s: %w", include, err)
		}
	}
	return nil
}

// ValidateParamsPaths applies the archive root to every path an operation
// can touch: source, dest and the include operands.
func ValidateParamsPaths(root, source, dest string, includes []string) error {
	if err := ValidateArchivePaths(root, source, dest); err != nil {
		return err
	}
	return ValidateIncludes(root, source, includes)
}
