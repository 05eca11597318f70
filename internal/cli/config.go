package cli

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/planestack/pkg/errors"
	"github.com/matzehuels/planestack/pkg/pipeline"
)

// Config holds user defaults read from config.toml. Flags override it.
type Config struct {
	Rows     int      `toml:"rows"`
	Cols     int      `toml:"cols"`
	Formats  []string `toml:"formats"`
	Identity string   `toml:"identity"`
	Addr     string   `toml:"addr"`
}

// DefaultConfig returns the built-in defaults. Zero rows and cols keep the
// scenario's terminal.
func DefaultConfig() Config {
	return Config{
		Formats:  []string{pipeline.FormatText},
		Identity: pipeline.IdentityUUID,
		Addr:     defaultAddr,
	}
}

// LoadConfig reads the user config file, if there is one, into c.Config.
func (c *CLI) LoadConfig() error {
	path, err := configPath()
	if err != nil {
		return nil
	}
	cfg, err := readConfig(path)
	if err != nil {
		return err
	}
	c.Config = cfg
	c.Logger.Debug("loaded config", "path", path)
	return nil
}

// readConfig decodes the config at path over the defaults. A missing file
// yields the defaults.
func readConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidPath, err, "read config %s", path)
	}

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode config %s", path)
	}
	if und := md.Undecoded(); len(und) > 0 {
		keys := make([]string, len(und))
		for i, k := range und {
			keys[i] = k.String()
		}
		return cfg, errors.New(errors.ErrCodeInvalidInput, "config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.validate(); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "config %s", path)
	}
	return cfg, nil
}

func (cfg Config) validate() error {
	if cfg.Rows < 0 || cfg.Cols < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "rows and cols must not be negative")
	}
	if err := pipeline.ValidateFormats(cfg.Formats); err != nil {
		return err
	}
	return pipeline.ValidateIdentity(cfg.Identity)
}
