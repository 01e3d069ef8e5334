package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crview/crview/internal/output"
)

// testEnv sets up isolated config dir, viper, and output for testing.
func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	// Override configDirFunc for tests
	origFunc := configDirFunc
	configDirFunc = func() (string, error) { return dir, nil }
	t.Cleanup(func() { configDirFunc = origFunc })

	// Reset viper
	viper.Reset()
	viper.SetDefault("state_dir", dir)
	viper.SetDefault("db_path", filepath.Join(dir, "crview.db"))
	viper.SetDefault("api.base_url", "http://localhost:8000")
	viper.SetDefault("api.timeout", 120*time.Second)
	viper.SetDefault("serve.host", "127.0.0.1")
	viper.SetDefault("serve.port", 8080)

	// Initialize output
	ui = output.New()

	return dir
}

func TestConfigInit_CreatesFile(t *testing.T) {
	dir := testEnv(t)

	err := configInitRun()
	require.NoError(t, err)

	cfgPath := filepath.Join(dir, "config.yaml")
	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "base_url")
	assert.Contains(t, string(data), "http://localhost:8000")
}

func TestConfigInit_RefusesOverwrite(t *testing.T) {
	testEnv(t)

	require.NoError(t, configInitRun())
	err := configInitRun()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	configForce = true
	t.Cleanup(func() { configForce = false })
	assert.NoError(t, configInitRun())
}

func TestConfigShow_Sources(t *testing.T) {
	testEnv(t)
	out := &bytes.Buffer{}
	ui.Out = out

	require.NoError(t, configShowRun())
	s := out.String()
	assert.Contains(t, s, "api.base_url")
	assert.Contains(t, s, "(default)")
}

func TestConfigShow_FileSource(t *testing.T) {
	dir := testEnv(t)
	cfg := "api:\n  base_url: \"http://example.test\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(cfg), 0644))

	fileValues := readConfigFileValues(filepath.Join(dir, "config.yaml"))
	assert.True(t, fileValues["api.base_url"])
	assert.False(t, fileValues["db_path"])

	assert.Equal(t, "(file)", detectSource("api.base_url", "CRVIEW_API_BASE_URL", fileValues))
	assert.Equal(t, "(default)", detectSource("db_path", "CRVIEW_DB_PATH", fileValues))
}

func TestDetectSource_Env(t *testing.T) {
	testEnv(t)
	t.Setenv("CRVIEW_SERVE_PORT", "9999")
	assert.Equal(t, "(env: CRVIEW_SERVE_PORT)", detectSource("serve.port", "CRVIEW_SERVE_PORT", map[string]bool{}))
}
