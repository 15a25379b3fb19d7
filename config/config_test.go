package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1001, cfg.Flatten.Window)
	assert.Equal(t, 2, cfg.Flatten.PolyOrder)
	assert.InDelta(t, 6.0, cfg.Outliers.Sigma, 0)
	assert.InDelta(t, 10.0, cfg.Aperture.Threshold, 0)
	assert.Zero(t, cfg.Fold.Period)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "pipeline.yaml", `
flatten:
  window: 401
  edge: interp
quality:
  bitmask: hard
  exclude:
    - {start: 1346, end: 1350}
fold:
  period: 3.85
  epoch: 1325.73
  duration: 0.11
log_level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	want := Default()
	want.Flatten.Window = 401
	want.Flatten.Edge = "interp"
	want.Quality.Bitmask = BitmaskHard
	want.Quality.Exclude = []TimeRange{{Start: 1346, End: 1350}}
	want.Fold = FoldConfig{Period: 3.85, Epoch: 1325.73, Duration: 0.11}
	want.LogLevel = "debug"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "pipeline.toml", `
log_level = "warn"

[outliers]
sigma = 4.5
direction = "upper"

[bin]
width = 0.01
workers = 4

[[quality.exclude]]
start = 10
end = 12
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.InDelta(t, 4.5, cfg.Outliers.Sigma, 0)
	assert.Equal(t, "upper", cfg.Outliers.Direction)
	assert.True(t, cfg.Outliers.Enabled, "defaults survive partial sections")
	assert.InDelta(t, 0.01, cfg.Bin.Width, 0)
	assert.Equal(t, 4, cfg.Bin.Workers)
	assert.Equal(t, []TimeRange{{Start: 10, End: 12}}, cfg.Quality.Exclude)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"even window":       "flatten:\n  window: 100\n",
		"bad edge":          "flatten:\n  edge: shrink\n",
		"negative order":    "flatten:\n  polyorder: -1\n",
		"zero sigma":        "outliers:\n  sigma: 0\n",
		"bad direction":     "outliers:\n  direction: sideways\n",
		"bad bitmask":       "quality:\n  bitmask: strict\n",
		"reversed range":    "quality:\n  exclude:\n    - {start: 5, end: 1}\n",
		"negative period":   "fold:\n  period: -2\n",
		"duration > period": "fold:\n  period: 1\n  duration: 2\n",
		"wide bins":         "bin:\n  width: 2\n",
		"bad log level":     "log_level: loud\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, "c.yml", content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validation failed")
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(writeFile(t, "c.json", "{}"))
	require.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeFile(t, "c.yaml", "flatten: [1, 2"))
	require.Error(t, err)
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Fold = FoldConfig{Period: 2.5, Epoch: 1.25, Duration: 0.1}
	cfg.Quality.Exclude = []TimeRange{{Start: 1, End: 2}}

	for _, format := range []Format{FormatYAML, FormatTOML} {
		data, err := Encode(cfg, format)
		require.NoError(t, err)
		got, err := Decode(data, format)
		require.NoError(t, err)
		if diff := cmp.Diff(cfg, got); diff != "" {
			t.Fatalf("format %d round trip (-want +got):\n%s", format, diff)
		}
	}
}
