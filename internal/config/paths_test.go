package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanPath(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "config.yaml")

	got, err := cleanPath(abs)
	require.NoError(t, err)
	assert.Equal(t, abs, got)

	got, err = cleanPath("config.yaml")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
	assert.Equal(t, "config.yaml", filepath.Base(got))

	for _, bad := range []string{"", "  ", "../etc/passwd", "conf/../../x.yaml"} {
		_, err := cleanPath(bad)
		assert.Error(t, err, bad)
	}
}
