package corpus

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	ignore "github.com/sabhiram/go-gitignore"
	"github.com/yargevad/filepathx"
)

// ResolveSplit expands pattern (relative to root, "**" allowed) into a
// sorted list of regular files, dropping any matched by the gitignore-style
// ignoreFile. A missing ignore file is not an error.
func ResolveSplit(root, pattern, ignoreFile string) ([]string, error) {
	if pattern == "" {
		return nil, fmt.Errorf("%w: empty pattern", ErrEmptySplit)
	}
	full := pattern
	if !filepath.IsAbs(pattern) {
		full = filepath.Join(root, pattern)
	}

	matches, err := filepathx.Glob(full)
	if err != nil {
		return nil, fmt.Errorf("expand %s: %w", full, err)
	}

	ignored, err := loadIgnore(ignoreFile)
	if err != nil {
		return nil, err
	}

	split := make([]string, 0, len(matches))
	for _, m := range matches {
		fi, err := os.Stat(m)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", m, err)
		}
		if fi.IsDir() {
			continue
		}
		if ignored != nil {
			rel, err := filepath.Rel(root, m)
			if err != nil {
				rel = m
			}
			if ignored.MatchesPath(filepath.ToSlash(rel)) {
				continue
			}
		}
		split = append(split, m)
	}
	sort.Strings(split)

	if len(split) == 0 {
		return nil, fmt.Errorf("%w: %s matched nothing", ErrEmptySplit, full)
	}
	return split, nil
}

func loadIgnore(ignoreFile string) (*ignore.GitIgnore, error) {
	if ignoreFile == "" {
		return nil, nil
	}
	if _, err := os.Stat(ignoreFile); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("error checking ignore file %s: %w", ignoreFile, err)
	}
	ignored, err := ignore.CompileIgnoreFile(ignoreFile)
	if err != nil {
		return nil, fmt.Errorf("error reading ignore file %s: %w", ignoreFile, err)
	}
	return ignored, nil
}
