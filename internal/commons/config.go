package commons

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.yaml.in/yaml/v3"

	"foodstand/internal/config"
)

// LoadConfig layers the YAML file at path over the built-in defaults, then
// applies environment overrides. A missing file is not an error.
func LoadConfig(path string) (*config.Config, error) {
	cfg := config.Load()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return cfg, nil
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.ApplyEnv(cfg)

	return cfg, nil
}
