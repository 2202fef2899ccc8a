package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/flowkit/errors"
)

// FileSystem abstracts file probing and reading so loading logic can be
// tested without touching the real filesystem.
type FileSystem interface {
	Exists(path string) bool
	ReadFile(path string) ([]byte, error)
	LoadEnv(path string) error
}

// OSFileSystem is the FileSystem used outside of tests.
type OSFileSystem struct{}

// Exists reports whether path is an existing regular file.
func (OSFileSystem) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ReadFile reads the named file.
func (OSFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// LoadEnv loads a dotenv file into the process environment. Variables
// already set keep their values.
func (OSFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// loadOptions collects option values for Load.
type loadOptions struct {
	fs        FileSystem
	file      string
	envFile   string
	paths     []string
	envPrefix string
	defaults  map[string]any
}

// Option adjusts how Load resolves and reads configuration.
type Option func(*loadOptions)

// WithFileSystem replaces the filesystem used for probing and reading.
func WithFileSystem(fs FileSystem) Option {
	return func(o *loadOptions) { o.fs = fs }
}

// WithFile pins the config file instead of searching for one. Load
// fails if the file does not exist.
func WithFile(path string) Option {
	return func(o *loadOptions) { o.file = path }
}

// WithEnvFile pins the dotenv file instead of searching for one.
func WithEnvFile(path string) Option {
	return func(o *loadOptions) { o.envFile = path }
}

// WithPath adds a directory to the front of the search list.
func WithPath(dir string) Option {
	return func(o *loadOptions) { o.paths = append(o.paths, dir) }
}

// WithEnvPrefix overrides the environment variable prefix derived from
// the service name.
func WithEnvPrefix(prefix string) Option {
	return func(o *loadOptions) { o.envPrefix = prefix }
}

// WithDefaults seeds values by dotted key, e.g. "flow.max_concurrency".
// File and environment values override them.
func WithDefaults(defaults map[string]any) Option {
	return func(o *loadOptions) { o.defaults = defaults }
}

// Load populates out from YAML configuration, a dotenv file, and
// prefixed environment variables, in ascending precedence: defaults,
// file, environment.
//
// The config file is searched as {service}.yaml|yml then config.yaml|yml
// under each search directory (the WithPath directories, then "." and
// "./config") unless WithFile pins it; a missing file is not an error.
// ${VAR} references in the file body are expanded from the environment
// before parsing. A dotenv file (.env.{service} or .env on the same
// search path) is loaded into the process environment first.
// Environment variables must carry the service prefix: service
// "flow-svc" reads FLOW_SVC_* variables, and the remainder maps to
// nested keys, so FLOW_SVC_LOGGING_LEVEL overrides logging.level.
func Load(serviceName string, out any, opts ...Option) error {
	o := &loadOptions{fs: OSFileSystem{}}
	for _, opt := range opts {
		opt(o)
	}
	if o.envPrefix == "" {
		o.envPrefix = EnvPrefix(serviceName)
	}

	if err := loadEnvFile(serviceName, o); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	for key, val := range o.defaults {
		v.SetDefault(key, val)
	}

	path, err := resolveConfigFile(serviceName, o)
	if err != nil {
		return err
	}
	if path != "" {
		data, err := o.fs.ReadFile(path)
		if err != nil {
			return errors.InvalidConfig("file", fmt.Sprintf("cannot read %s", path)).WithCause(err)
		}
		if err := v.ReadConfig(bytes.NewReader(expandEnvRefs(data))); err != nil {
			return errors.InvalidConfig("file", fmt.Sprintf("%s is not valid YAML", path)).WithCause(err)
		}
	}

	bindEnvironment(v, o.envPrefix)

	if err := v.Unmarshal(out); err != nil {
		return errors.InvalidConfig("config", "cannot decode into target").WithCause(err)
	}
	return nil
}

// EnvPrefix derives the environment variable prefix for a service name:
// upper-cased with anything outside [A-Z0-9] folded to underscores, so
// "flow-svc" reads FLOW_SVC_* variables.
func EnvPrefix(serviceName string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, strings.ToUpper(serviceName))
}

// searchPaths returns the directories to probe, explicit paths first.
func searchPaths(o *loadOptions) []string {
	return append(append([]string{}, o.paths...), ".", "./config")
}

// resolveConfigFile returns the config file to read, or "" when none is
// found and the service runs on environment and defaults alone.
func resolveConfigFile(serviceName string, o *loadOptions) (string, error) {
	if o.file != "" {
		if !o.fs.Exists(o.file) {
			return "", errors.InvalidConfig("file", fmt.Sprintf("%s does not exist", o.file))
		}
		return o.file, nil
	}

	names := []string{
		serviceName + ".yaml",
		serviceName + ".yml",
		"config.yaml",
		"config.yml",
	}
	for _, dir := range searchPaths(o) {
		for _, name := range names {
			path := filepath.Join(dir, name)
			if o.fs.Exists(path) {
				return path, nil
			}
		}
	}
	return "", nil
}

// loadEnvFile loads the first dotenv file found, or the pinned one.
func loadEnvFile(serviceName string, o *loadOptions) error {
	if o.envFile != "" {
		if err := o.fs.LoadEnv(o.envFile); err != nil {
			return errors.InvalidConfig("env_file", fmt.Sprintf("cannot load %s", o.envFile)).WithCause(err)
		}
		return nil
	}

	names := []string{".env." + serviceName, ".env"}
	for _, dir := range searchPaths(o) {
		for _, name := range names {
			path := filepath.Join(dir, name)
			if !o.fs.Exists(path) {
				continue
			}
			if err := o.fs.LoadEnv(path); err != nil {
				return errors.InvalidConfig("env_file", fmt.Sprintf("cannot load %s", path)).WithCause(err)
			}
			return nil
		}
	}
	return nil
}

// bindEnvironment copies prefixed environment variables into the viper
// instance. AutomaticEnv only consults the environment for keys viper
// already knows about, which misses values that exist nowhere else, so
// each variable is set explicitly. An underscore in the variable name
// may stand for either a key separator or an underscore inside a key,
// so every split is set; Unmarshal picks whichever matches the target.
func bindEnvironment(v *viper.Viper, prefix string) {
	p := prefix + "_"
	for _, kv := range os.Environ() {
		if !strings.HasPrefix(kv, p) {
			continue
		}
		eq := strings.IndexByte(kv, '=')
		if eq <= len(p) {
			continue
		}
		name, value := kv[len(p):eq], kv[eq+1:]
		for _, key := range keyVariants(name) {
			v.Set(key, value)
		}
	}
}

// keyVariants expands LOGGING_LEVEL into logging.level and
// logging_level, and so on for every split of a longer name.
func keyVariants(name string) []string {
	parts := strings.Split(strings.ToLower(name), "_")
	if len(parts) == 1 {
		return parts
	}

	n := len(parts) - 1
	variants := make([]string, 0, 1<<n)
	for mask := 0; mask < 1<<n; mask++ {
		var b strings.Builder
		b.WriteString(parts[0])
		for i, part := range parts[1:] {
			if mask&(1<<i) != 0 {
				b.WriteByte('.')
			} else {
				b.WriteByte('_')
			}
			b.WriteString(part)
		}
		variants = append(variants, b.String())
	}
	return variants
}

// envRef matches ${VAR} references in config file bodies.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvRefs substitutes ${VAR} with the variable's value, or an
// empty string when unset. Bare $VAR is left alone so YAML scalars
// containing dollar signs survive.
func expandEnvRefs(data []byte) []byte {
	return envRef.ReplaceAllFunc(data, func(match []byte) []byte {
		return []byte(os.Getenv(string(match[2 : len(match)-1])))
	})
}
