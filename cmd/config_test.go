package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/worked/internal/config"
	"github.com/joescharf/worked/internal/output"
)

// testEnv sets up isolated config dir, viper, and output for testing.
// It returns the config dir and the buffer standing in for stdout.
func testEnv(t *testing.T) (string, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()

	origFunc := configDirFunc
	configDirFunc = func() (string, error) { return dir, nil }
	t.Cleanup(func() { configDirFunc = origFunc })

	for _, k := range config.Keys {
		unsetEnv(t, k.EnvVar)
	}
	unsetEnv(t, "ANTHROPIC_API_KEY")

	viper.Reset()
	config.SetDefaults(viper.GetViper())

	out := &bytes.Buffer{}
	ui = &output.UI{Out: out, ErrOut: &bytes.Buffer{}}
	dryRun = false
	configForce = false
	configErr = nil

	return dir, out
}

// unsetEnv removes key for the duration of the test.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "") // restores the original value on cleanup
	require.NoError(t, os.Unsetenv(key))
}

func TestConfigInit_CreatesFile(t *testing.T) {
	dir, _ := testEnv(t)
	viper.Set("base_url", "https://example.atlassian.net")

	err := configInitRun()
	require.NoError(t, err)

	cfgPath := filepath.Join(dir, "config.yaml")
	info, err := os.Stat(cfgPath)
	require.NoError(t, err, "config file should exist")
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "worked configuration")
	assert.Contains(t, string(data), `base_url: "https://example.atlassian.net"`)
	assert.Contains(t, string(data), "page_size: 100")
	assert.Contains(t, string(data), `timeout: "30s"`)
}

func TestConfigInit_RoundTrips(t *testing.T) {
	dir, _ := testEnv(t)
	viper.Set("email", "me@example.com")
	require.NoError(t, configInitRun())

	viper.Reset()
	config.SetDefaults(viper.GetViper())
	viper.SetConfigFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, viper.ReadInConfig())

	assert.Equal(t, "me@example.com", viper.GetString("email"))
	assert.Equal(t, 100, viper.GetInt("page_size"))
	assert.Equal(t, "legacy", viper.GetString("search_api"))
}

func TestConfigInit_RefusesOverwrite(t *testing.T) {
	dir, _ := testEnv(t)

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("existing"), 0644))

	err := configInitRun()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestConfigInit_ForceOverwrite(t *testing.T) {
	dir, _ := testEnv(t)

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("existing"), 0644))

	configForce = true
	err := configInitRun()
	require.NoError(t, err)

	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "worked configuration")
}

func TestConfigShow_NoFile(t *testing.T) {
	_, out := testEnv(t)

	err := configShowRun()
	assert.NoError(t, err)
	assert.Contains(t, out.String(), "Config file: (none)")
	assert.Contains(t, out.String(), "base_url")
	assert.Contains(t, out.String(), "(default)")
}

func TestConfigShow_WithFile(t *testing.T) {
	_, out := testEnv(t)

	require.NoError(t, configInitRun())
	out.Reset()

	err := configShowRun()
	assert.NoError(t, err)
	assert.Contains(t, out.String(), "config.yaml")
	assert.Contains(t, out.String(), "(file)")
}

func TestConfigShow_MasksSecrets(t *testing.T) {
	_, out := testEnv(t)
	t.Setenv("JIRA_API_TOKEN", "supersecrettoken1234")

	require.NoError(t, configShowRun())
	assert.NotContains(t, out.String(), "supersecrettoken1234")
	assert.Contains(t, out.String(), "****************1234")
	assert.Contains(t, out.String(), "(env: JIRA_API_TOKEN)")
}

func TestConfigEdit_NoEditor(t *testing.T) {
	testEnv(t)
	unsetEnv(t, "EDITOR")
	unsetEnv(t, "VISUAL")

	err := configEditRun()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "$EDITOR is not set")
}

func TestConfigEdit_NoConfigFile(t *testing.T) {
	testEnv(t)
	t.Setenv("EDITOR", "echo") // harmless command

	err := configEditRun()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestDetectSource(t *testing.T) {
	fileValues := map[string]bool{"key_a": true}

	t.Setenv("JIRA_TEST_KEY", "val")
	assert.Contains(t, detectSource("test_key", "JIRA_TEST_KEY", fileValues), "env")

	assert.Contains(t, detectSource("key_a", "JIRA_KEY_A_NONEXISTENT", fileValues), "file")

	assert.Contains(t, detectSource("key_b", "JIRA_KEY_B_NONEXISTENT", fileValues), "default")
}

func TestFlattenKeys(t *testing.T) {
	input := map[string]any{
		"top": "val",
		"nested": map[string]any{
			"a": "1",
			"b": "2",
		},
	}

	result := make(map[string]bool)
	flattenKeys("", input, result)

	assert.True(t, result["top"])
	assert.True(t, result["nested.a"])
	assert.True(t, result["nested.b"])
	assert.False(t, result["nested"])
}

func TestConfigInit_DryRun(t *testing.T) {
	dir, _ := testEnv(t)
	dryRun = true
	ui.DryRun = true
	defer func() { dryRun = false }()

	err := configInitRun()
	require.NoError(t, err)

	cfgPath := filepath.Join(dir, "config.yaml")
	_, err = os.Stat(cfgPath)
	assert.True(t, os.IsNotExist(err), "config file should not exist in dry-run mode")
}
