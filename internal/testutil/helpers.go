package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// ConfigEnv is the variable the CLI reads the config file location from
const ConfigEnv = "LABELME_CONFIG"

// WriteFile writes content to dir/filename, creating parent directories
func WriteFile(t *testing.T, dir, filename, content string) string {
	t.Helper()
	path := filepath.Join(dir, filename)

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		t.Fatalf("Failed to create directories: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
	return path
}

// WriteConfig writes content to a temporary config.yaml and points
// LABELME_CONFIG at it for the duration of the test.
func WriteConfig(t *testing.T, content string) string {
	t.Helper()
	path := WriteFile(t, t.TempDir(), "config.yaml", content)
	t.Setenv(ConfigEnv, path)
	return path
}
