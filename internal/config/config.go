package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/onlook-dev/templates/internal/model"
)

// FileName is the config file looked up in the template root.
const FileName = ".csb-publish.yaml"

// Runtime values select the runner backend.
const (
	RuntimeExec   = "exec"
	RuntimeDocker = "docker"
)

// VMTiers lists the tiers accepted by the CodeSandbox build command.
var VMTiers = []string{"Pico", "Nano", "Micro", "Small", "Medium", "Large", "XLarge"}

// Config holds every publish setting.
type Config struct {
	// PackageRunner is the command that executes the SDK package, split
	// with shell quoting rules (e.g. "bunx" or "npx --yes").
	PackageRunner string `yaml:"packageRunner" mapstructure:"packageRunner"`

	// SDKPackage is the package providing the build command.
	SDKPackage string `yaml:"sdkPackage" mapstructure:"sdkPackage"`

	// VMTier is passed to the build command as --vm-tier.
	VMTier string `yaml:"vmTier" mapstructure:"vmTier"`

	// CredentialEnv names the environment variable holding the API key.
	CredentialEnv string `yaml:"credentialEnv" mapstructure:"credentialEnv"`

	// Exclude lists directory names that are never templates.
	Exclude []string `yaml:"exclude" mapstructure:"exclude"`

	// Runtime is "exec" (local process) or "docker" (build container).
	Runtime string `yaml:"runtime" mapstructure:"runtime"`

	// DockerImage is the image used when Runtime is "docker".
	DockerImage string `yaml:"dockerImage" mapstructure:"dockerImage"`
}

// Defaults returns the built-in settings, matching what the publishing
// scripts have always used.
func Defaults() Config {
	return Config{
		PackageRunner: "bunx",
		SDKPackage:    "@codesandbox/sdk",
		VMTier:        "Nano",
		CredentialEnv: "CSB_API_KEY",
		Exclude:       []string{"scripts", "node_modules"},
		Runtime:       RuntimeExec,
		DockerImage:   "oven/bun:1",
	}
}

// envBindings maps config keys to their environment variables.
var envBindings = map[string]string{
	"packageRunner": "CSB_PUBLISH_PACKAGE_RUNNER",
	"sdkPackage":    "CSB_PUBLISH_SDK_PACKAGE",
	"vmTier":        "CSB_PUBLISH_VM_TIER",
	"credentialEnv": "CSB_PUBLISH_CREDENTIAL_ENV",
	"exclude":       "CSB_PUBLISH_EXCLUDE",
	"runtime":       "CSB_PUBLISH_RUNTIME",
	"dockerImage":   "CSB_PUBLISH_DOCKER_IMAGE",
}

// flagBindings maps config keys to command-line flag names.
var flagBindings = map[string]string{
	"packageRunner": "runner",
	"vmTier":        "vm-tier",
	"runtime":       "runtime",
	"dockerImage":   "image",
}

// LoadOptions controls Load.
type LoadOptions struct {
	// Root is the template root; the default config file lives here.
	Root string

	// Path is an explicit config file. When set, the file must exist.
	Path string

	// Flags, if set, supplies flag overrides. Only flags the user actually
	// set take effect.
	Flags *pflag.FlagSet
}

// Load builds the effective Config and validates it.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()

	defaults := Defaults()
	v.SetDefault("packageRunner", defaults.PackageRunner)
	v.SetDefault("sdkPackage", defaults.SDKPackage)
	v.SetDefault("vmTier", defaults.VMTier)
	v.SetDefault("credentialEnv", defaults.CredentialEnv)
	v.SetDefault("exclude", defaults.Exclude)
	v.SetDefault("runtime", defaults.Runtime)
	v.SetDefault("dockerImage", defaults.DockerImage)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if opts.Flags != nil {
		for key, name := range flagBindings {
			flag := opts.Flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind --%s: %w", name, err)
			}
		}
	}

	path, explicit := opts.Path, opts.Path != ""
	if !explicit {
		path = filepath.Join(opts.Root, FileName)
	}
	if err := readFile(v, path, explicit); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, model.WrapCLIError(model.KindConfig, "invalid configuration", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, model.WrapCLIError(model.KindConfig, "invalid configuration", err)
	}
	return &cfg, nil
}

// readFile merges the YAML file at path into v. A missing default file is
// fine; a missing explicit file is an error.
func readFile(v *viper.Viper, path string, explicit bool) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return nil
		}
		return model.WrapCLIError(model.KindConfig, fmt.Sprintf("cannot read config file %s", path), err)
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return model.WrapCLIError(model.KindConfig, fmt.Sprintf("cannot parse config file %s", path), err)
	}
	return nil
}

var envNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks that the settings can produce a build command.
func (c *Config) Validate() error {
	var problems []string

	if args, err := c.RunnerArgs(); err != nil {
		problems = append(problems, fmt.Sprintf("packageRunner: %v", err))
	} else if len(args) == 0 {
		problems = append(problems, "packageRunner must not be empty")
	}
	if strings.TrimSpace(c.SDKPackage) == "" {
		problems = append(problems, "sdkPackage must not be empty")
	}
	if !isVMTier(c.VMTier) {
		problems = append(problems, fmt.Sprintf("vmTier %q is not one of %s", c.VMTier, strings.Join(VMTiers, ", ")))
	}
	if !envNameRegex.MatchString(c.CredentialEnv) {
		problems = append(problems, fmt.Sprintf("credentialEnv %q is not a valid environment variable name", c.CredentialEnv))
	}
	switch c.Runtime {
	case RuntimeExec:
	case RuntimeDocker:
		if strings.TrimSpace(c.DockerImage) == "" {
			problems = append(problems, "dockerImage must be set when runtime is docker")
		}
	default:
		problems = append(problems, fmt.Sprintf("runtime %q must be %q or %q", c.Runtime, RuntimeExec, RuntimeDocker))
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func isVMTier(tier string) bool {
	for _, t := range VMTiers {
		if t == tier {
			return true
		}
	}
	return false
}

// RunnerArgs splits PackageRunner into an argument vector.
func (c *Config) RunnerArgs() ([]string, error) {
	return shellquote.Split(c.PackageRunner)
}

// BuildArgs returns the full build command for a template path:
//
//	<runner...> <sdkPackage> build <templatePath> --vm-tier <tier>
func (c *Config) BuildArgs(templatePath string) ([]string, error) {
	runnerArgs, err := c.RunnerArgs()
	if err != nil {
		return nil, err
	}
	args := make([]string, 0, len(runnerArgs)+5)
	args = append(args, runnerArgs...)
	return append(args, c.SDKPackage, "build", templatePath, "--vm-tier", c.VMTier), nil
}

const fileHeader = "# csb-publish configuration. Environment variables (CSB_PUBLISH_*) and\n# command-line flags override these values.\n"

// WriteDefault writes the default configuration to path. It refuses to
// overwrite an existing file.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(Defaults())
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return model.WrapCLIError(model.KindConfig, fmt.Sprintf("%s already exists", path), err)
		}
		return err
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(fileHeader); err != nil {
		return err
	}
	_, err = f.Write(data)
	return err
}
