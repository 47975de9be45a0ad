package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/edvin/mirrord/internal/model"
)

var validate = validator.New()

// Characters the copy tool rejects in path components (drive separators and
// UNC prefixes are handled separately).
const invalidPathChars = `<>"|?*`

// Validate checks option bounds and pair path rules. Pairs are validated at
// configuration time only; the pipeline re-checks source existence at run
// time for directories that disappear later.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	var errs []error
	seenIDs := make(map[string]int)
	seenRoutes := make(map[string]int)

	for i, pair := range c.Pairs {
		label := pair.DisplayName()

		if prev, ok := seenIDs[pair.ID]; ok {
			errs = append(errs, fmt.Errorf("pair %q: duplicate ID with pair #%d", label, prev+1))
		}
		seenIDs[pair.ID] = i

		if err := ValidatePair(pair); err != nil {
			errs = append(errs, fmt.Errorf("pair %q: %w", label, err))
			continue
		}

		route := routeKey(pair.Source, pair.Destination)
		if prev, ok := seenRoutes[route]; ok {
			errs = append(errs, fmt.Errorf("pair %q: duplicates pair #%d", label, prev+1))
		}
		seenRoutes[route] = i
	}

	return errors.Join(errs...)
}

// ValidatePair checks a single pair's paths: both set, well-formed, not
// equal, not nested inside each other, and the source directory present when
// the pair is enabled.
func ValidatePair(pair model.BackupPair) error {
	if strings.TrimSpace(pair.Source) == "" {
		return errors.New("source path is empty")
	}
	if strings.TrimSpace(pair.Destination) == "" {
		return errors.New("destination path is empty")
	}
	if err := checkPathChars(pair.Source); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if err := checkPathChars(pair.Destination); err != nil {
		return fmt.Errorf("destination: %w", err)
	}

	src := normalizePath(pair.Source)
	dst := normalizePath(pair.Destination)

	if src == dst {
		return errors.New("source and destination are the same directory")
	}
	if isNested(src, dst) {
		return errors.New("destination is inside the source directory")
	}
	if isNested(dst, src) {
		return errors.New("source is inside the destination directory")
	}

	if pair.Enabled && !isNetworkPath(pair.Source) {
		info, err := os.Stat(pair.Source)
		if err != nil {
			return fmt.Errorf("source directory does not exist: %s", pair.Source)
		}
		if !info.IsDir() {
			return fmt.Errorf("source is not a directory: %s", pair.Source)
		}
	}

	return nil
}

func checkPathChars(path string) error {
	// Strip a UNC prefix or drive letter before checking the rest.
	rest := path
	if strings.HasPrefix(rest, `\\`) {
		rest = rest[2:]
	} else if len(rest) >= 2 && rest[1] == ':' {
		rest = rest[2:]
	}
	if strings.ContainsAny(rest, invalidPathChars) {
		return fmt.Errorf("path contains invalid characters: %s", path)
	}
	return nil
}

// isNetworkPath reports whether the path is a UNC share. Network shares are
// accepted without an existence check; reachability is a run-time concern.
func isNetworkPath(path string) bool {
	return strings.HasPrefix(path, `\\`) || strings.HasPrefix(path, "//")
}

func normalizePath(path string) string {
	return strings.ToLower(filepath.Clean(path))
}

// isNested reports whether child lives under parent. Both arguments must be
// normalized.
func isNested(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != "."
}

func routeKey(source, destination string) string {
	return normalizePath(source) + "\x00" + normalizePath(destination)
}
