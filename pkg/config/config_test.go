package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/PROACTIVA-US/VISLZR/pkg/layout"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inTempDir isolates the test from any vislzr.toml in the package directory
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func flags() *pflag.FlagSet {
	f := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.String("config", "", "")
	f.String("graph", "", "")
	f.Int("port", 8080, "")
	f.CountP("verbosity", "v", "")
	f.Bool("json_logs", false, "")
	return f
}

func TestLoad_Defaults(t *testing.T) {
	inTempDir(t)

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 1000, cfg.History)
	assert.Equal(t, layout.DefaultConfig(), cfg.Layout)
}

func TestLoad_Layering(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFile), []byte(`
graph = "from-file.yaml"
port = 9000
watch = true

[layout]
arc_offset = 120.0
max_attempts = 4
`), 0o644))
	t.Setenv("VISLZR_PORT", "9100")
	t.Setenv("VISLZR_LAYOUT__PUSH_STEP", "5")

	f := flags()
	require.NoError(t, f.Parse([]string{"--graph", "from-flag.json", "-vv"}))

	cfg, err := Load(f)
	require.NoError(t, err)
	assert.Equal(t, "from-flag.json", cfg.Graph)
	assert.Equal(t, 9100, cfg.Port)
	assert.True(t, cfg.Watch)
	assert.Equal(t, 2, cfg.Verbosity)
	assert.Equal(t, 120.0, cfg.Layout.ArcOffset)
	assert.Equal(t, 4, cfg.Layout.MaxAttempts)
	assert.Equal(t, 5.0, cfg.Layout.PushStep)
	assert.Equal(t, 35.0, cfg.Layout.StackSpacing)
}

func TestLoad_ExplicitConfigMissing(t *testing.T) {
	inTempDir(t)
	f := flags()
	require.NoError(t, f.Parse([]string{"--config", "nope.toml"}))

	_, err := Load(f)
	assert.Error(t, err)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFile), []byte("port = = 1"), 0o644))

	_, err := Load(nil)
	assert.Error(t, err)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "json_logs", envKey("VISLZR_JSON_LOGS"))
	assert.Equal(t, "layout.stack_offset_x", envKey("VISLZR_LAYOUT__STACK_OFFSET_X"))
}
