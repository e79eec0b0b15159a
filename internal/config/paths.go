package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// filePermission keeps the config file readable by its owner only
	filePermission = 0600
	dirPermission  = 0700
)

// cleanPath resolves a user supplied config path to an absolute path and
// rejects parent-directory segments.
func cleanPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("invalid path: empty")
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return "", fmt.Errorf("invalid path: contains directory traversal")
		}
	}

	cleaned := filepath.Clean(path)
	if !filepath.IsAbs(cleaned) {
		abs, err := filepath.Abs(cleaned)
		if err != nil {
			return "", fmt.Errorf("failed to resolve absolute path: %w", err)
		}
		cleaned = abs
	}
	return cleaned, nil
}
