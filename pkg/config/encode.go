package config

import (
	"github.com/pelletier/go-toml/v2"

	"github.com/arthur-debert/pkglink/pkg/errors"
)

type encodedConfig struct {
	Paths  PathsConfig  `toml:"paths"`
	Layout LayoutConfig `toml:"layout"`
	Scan   ScanConfig   `toml:"scan"`
	Watch  struct {
		Debounce string `toml:"debounce"`
	} `toml:"watch"`
}

// Encode renders cfg as TOML in the same shape the loader reads.
func Encode(cfg *Config) ([]byte, error) {
	out := encodedConfig{
		Paths:  cfg.Paths,
		Layout: cfg.Layout,
		Scan:   cfg.Scan,
	}
	out.Watch.Debounce = cfg.Watch.Debounce.String()

	data, err := toml.Marshal(out)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to encode configuration")
	}
	return data, nil
}
