package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/arthur-debert/pkglink/pkg/errors"
	"github.com/arthur-debert/pkglink/pkg/logging"
)

const (
	// FileName is the project configuration file looked up in the working directory
	FileName = ".pkglink.toml"
	// EnvPrefix prefixes every configuration environment variable
	EnvPrefix = "PKGLINK_"
)

// Config is the effective pkglink configuration
type Config struct {
	Paths  PathsConfig  `koanf:"paths" toml:"paths"`
	Layout LayoutConfig `koanf:"layout" toml:"layout"`
	Scan   ScanConfig   `koanf:"scan" toml:"scan"`
	Watch  WatchConfig  `koanf:"watch" toml:"watch"`
}

// PathsConfig holds the project locations. Empty values are resolved by the
// paths package.
type PathsConfig struct {
	Manifest string `koanf:"manifest" toml:"manifest"`
	Source   string `koanf:"source" toml:"source"`
	Build    string `koanf:"build" toml:"build"`
}

// LayoutConfig describes package layout on disk
type LayoutConfig struct {
	DescriptorFile string `koanf:"descriptor_file" toml:"descriptor_file"`
	NestedDir      string `koanf:"nested_dir" toml:"nested_dir"`
}

// ScanConfig controls source tree discovery
type ScanConfig struct {
	Ignore []string `koanf:"ignore" toml:"ignore"`
	Strict bool     `koanf:"strict" toml:"strict"`
}

// WatchConfig controls the watch layer
type WatchConfig struct {
	Debounce time.Duration `koanf:"debounce" toml:"debounce"`
}

// LoadOptions selects the configuration sources
type LoadOptions struct {
	// File is an explicit configuration file. It must exist.
	File string
	// Dir is searched for FileName when File is empty. Defaults to ".".
	Dir string
	// Overrides are applied last, keyed by dotted path ("paths.source").
	Overrides map[string]interface{}
}

// Load builds the effective configuration.
func Load(opts LoadOptions) (*Config, error) {
	logger := logging.GetLogger("config")
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to load defaults")
	}

	// 2. Project file
	path, err := configFilePath(opts)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to load config from %s", path).
				WithDetail("path", path)
		}
		logger.Debug().Str("path", path).Msg("Loaded project config")
	}

	// 3. Environment
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load env vars")
	}

	// 4. Explicit overrides
	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to apply overrides")
		}
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal configuration")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps PKGLINK_LAYOUT_NESTED_DIR to layout.nested_dir: the first
// segment is the section, the rest is the key.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(key, "_", ".", 1)
}

func configFilePath(opts LoadOptions) (string, error) {
	if opts.File != "" {
		if _, err := os.Stat(opts.File); err != nil {
			return "", errors.Wrap(err, errors.ErrConfigLoad, "config file not found").
				WithDetail("path", opts.File)
		}
		return opts.File, nil
	}

	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	return "", nil
}

// Validate checks values that would make the build tree ambiguous.
func (c *Config) Validate() error {
	if c.Layout.DescriptorFile == "" {
		return errors.New(errors.ErrInvalidInput, "layout.descriptor_file must not be empty")
	}
	if c.Layout.NestedDir == "" || strings.ContainsRune(c.Layout.NestedDir, filepath.Separator) {
		return errors.New(errors.ErrInvalidInput, "layout.nested_dir must be a single directory name").
			WithDetail("value", c.Layout.NestedDir)
	}
	if c.Watch.Debounce < 0 {
		return errors.New(errors.ErrInvalidInput, "watch.debounce must not be negative")
	}
	return nil
}
