package util

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type Configuration struct {
	Version   string `toml:"-"`
	BuildDate string `toml:"-"`
	Commit    string `toml:"-"`

	ScopeRule   string `toml:"scope_rule"`
	LogLevel    string `toml:"log_level"`
	LogFile     string `toml:"log_file"`
	LogFormat   string `toml:"log_format"`
	TraceDSN    string `toml:"trace_dsn"`
	DebugAST    bool   `toml:"debug_ast"`
	Interactive bool   `toml:"interactive"`
}

func DefaultConfiguration() Configuration {
	return Configuration{
		ScopeRule: "static",
		LogLevel:  "none",
		LogFormat: "json",
	}
}

// LoadConfigFile overlays the settings found in a TOML file onto c.
// Keys the configuration does not know are rejected.
func LoadConfigFile(path string, c *Configuration) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("failed to read config '%s': %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys in config '%s': %s", path, strings.Join(keys, ", "))
	}
	return nil
}
