// Package locator finds report files that were downloaded to a local directory.
package locator

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// DefaultScanPattern matches scan reports exported by the scanner dashboard.
const DefaultScanPattern = "Scan-2621196-*.csv"

// DefaultDownloadDir is the user's Downloads folder, or "Downloads" when the
// home directory cannot be determined.
func DefaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "Downloads"
	}
	return filepath.Join(home, "Downloads")
}

// Latest returns the lexicographically last file in dir whose base name matches
// pattern. found is false when nothing matches.
func Latest(dir, pattern string) (string, bool, error) {
	dir, err := ExpandHome(strings.TrimSpace(dir))
	if err != nil {
		return "", false, err
	}
	if dir == "" {
		return "", false, errors.New("download directory is required")
	}

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", false, err
	}

	files := matches[:0]
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && info.Mode().IsRegular() {
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return "", false, nil
	}

	return slices.Max(files), true, nil
}

// ExpandHome replaces a leading "~" with the current user's home directory.
func ExpandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}
