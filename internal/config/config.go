package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// defaultSearchPaths are the filenames LoadConfig looks for in the
// working directory when no explicit path is given.
var defaultSearchPaths = []string{"anticipate.yaml", "anticipate.yml"}

// LoadConfig loads interpreter defaults from a YAML file. If path is
// empty, it searches defaultSearchPaths in order; if none exist, it
// returns built-in defaults rather than an error; an anticipate.yaml file
// is optional.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		for _, defaultPath := range defaultSearchPaths {
			if _, err := os.Stat(defaultPath); err == nil {
				path = defaultPath
				break
			}
		}
		if path == "" {
			cfg := applyDefaults(Config{})
			return &cfg, nil
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, err
	}

	cfg = applyDefaults(cfg)
	return &cfg, nil
}
