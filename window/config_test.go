package window

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLimits(t *testing.T) {
	limits := DefaultLimits()
	assert.Equal(t, int64(5000), limits.MaxRows)
	assert.Equal(t, int64(10000), limits.MaxTime)
}

func TestLimitsFromEnv(t *testing.T) {
	t.Setenv(EnvMaxRows, "250")
	t.Setenv(EnvMaxTime, "60000")
	limits := LimitsFromEnv()
	assert.Equal(t, int64(250), limits.MaxRows)
	assert.Equal(t, int64(60000), limits.MaxTime)
}

func TestLimitsFromEnvIgnoresBadValues(t *testing.T) {
	t.Setenv(EnvMaxRows, "not-a-number")
	t.Setenv(EnvMaxTime, "-5")
	limits := LimitsFromEnv()
	assert.Equal(t, DefaultLimits(), limits)
}

func TestLoadLimits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "limits.yaml")
	require.NoError(t, os.WriteFile(path, []byte("maxRows: 100\nmaxTime: 2000\n"), 0o644))

	limits, err := LoadLimits(path)
	require.NoError(t, err)
	assert.Equal(t, int64(100), limits.MaxRows)
	assert.Equal(t, int64(2000), limits.MaxTime)
}

func TestLoadLimitsPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "limits.yaml")
	require.NoError(t, os.WriteFile(path, []byte("maxRows: 100\n"), 0o644))

	limits, err := LoadLimits(path)
	require.NoError(t, err)
	assert.Equal(t, int64(100), limits.MaxRows)
	assert.Equal(t, DefaultMaxTime, limits.MaxTime)
}

func TestLoadLimitsErrors(t *testing.T) {
	_, err := LoadLimits(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("maxRows: [oops\n"), 0o644))
	_, err = LoadLimits(path)
	assert.Error(t, err)
}
