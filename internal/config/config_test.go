package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/onlook-dev/templates/internal/model"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// clearEnv makes sure CSB_PUBLISH_* variables from the developer's shell
// do not leak into the tests.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range envBindings {
		t.Setenv(env, "")
		require.NoError(t, os.Unsetenv(env))
	}
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(LoadOptions{Root: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, Defaults(), *cfg)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	writeConfig(t, root, `
packageRunner: npx --yes
vmTier: Micro
exclude:
  - scripts
  - node_modules
  - drafts
`)

	cfg, err := Load(LoadOptions{Root: root})
	require.NoError(t, err)
	assert.Equal(t, "npx --yes", cfg.PackageRunner)
	assert.Equal(t, "Micro", cfg.VMTier)
	assert.Equal(t, []string{"scripts", "node_modules", "drafts"}, cfg.Exclude)
	// Unset keys keep their defaults.
	assert.Equal(t, "@codesandbox/sdk", cfg.SDKPackage)
	assert.Equal(t, RuntimeExec, cfg.Runtime)
}

// TestLoad_Precedence checks default < file < env < flag.
func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	writeConfig(t, root, "vmTier: Micro\nruntime: docker\n")
	t.Setenv("CSB_PUBLISH_VM_TIER", "Small")

	cfg, err := Load(LoadOptions{Root: root})
	require.NoError(t, err)
	assert.Equal(t, "Small", cfg.VMTier, "env beats file")
	assert.Equal(t, RuntimeDocker, cfg.Runtime, "file beats default")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("vm-tier", "", "")
	flags.String("runtime", "", "")
	require.NoError(t, flags.Parse([]string{"--vm-tier", "Large"}))

	cfg, err = Load(LoadOptions{Root: root, Flags: flags})
	require.NoError(t, err)
	assert.Equal(t, "Large", cfg.VMTier, "flag beats env")
	assert.Equal(t, RuntimeDocker, cfg.Runtime, "unset flag does not override")
}

func TestLoad_EnvExcludeList(t *testing.T) {
	clearEnv(t)
	t.Setenv("CSB_PUBLISH_EXCLUDE", "scripts,node_modules,tmp")

	cfg, err := Load(LoadOptions{Root: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, []string{"scripts", "node_modules", "tmp"}, cfg.Exclude)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name    string
		content string
		path    string
	}{
		{name: "explicit path missing", path: "does-not-exist.yaml"},
		{name: "invalid yaml", content: "vmTier: [unclosed"},
		{name: "unknown tier", content: "vmTier: Gigantic"},
		{name: "unknown runtime", content: "runtime: podman"},
		{name: "empty runner", content: "packageRunner: ''"},
		{name: "unbalanced quotes in runner", content: `packageRunner: "npx 'oops"`},
		{name: "bad env name", content: "credentialEnv: 1KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			opts := LoadOptions{Root: root}
			if tt.path != "" {
				opts.Path = filepath.Join(root, tt.path)
			} else {
				writeConfig(t, root, tt.content)
			}

			_, err := Load(opts)
			require.Error(t, err)
			var cliErr *model.CLIError
			require.True(t, errors.As(err, &cliErr))
			assert.Equal(t, model.KindConfig, cliErr.Kind)
		})
	}
}

func TestConfig_BuildArgs(t *testing.T) {
	cfg := Defaults()

	args, err := cfg.BuildArgs("./next15")
	require.NoError(t, err)
	assert.Equal(t, []string{"bunx", "@codesandbox/sdk", "build", "./next15", "--vm-tier", "Nano"}, args)

	cfg.PackageRunner = `npx --yes --package "@codesandbox/sdk"`
	args, err = cfg.BuildArgs("./a")
	require.NoError(t, err)
	assert.Equal(t, []string{"npx", "--yes", "--package", "@codesandbox/sdk", "@codesandbox/sdk", "build", "./a", "--vm-tier", "Nano"}, args)
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)

	require.NoError(t, WriteDefault(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# csb-publish configuration")

	var written Config
	require.NoError(t, yaml.Unmarshal(data, &written))
	assert.Equal(t, Defaults(), written)

	err = WriteDefault(path)
	require.Error(t, err, "existing file must not be overwritten")
}
