package commons

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.yaml.in/yaml/v3"

	"pasmino/internal/config"
)

// LoadConfig reads an optional YAML file of flat keys (for example
// `STOCK_RESERVATION_TTL: 10m`) and layers the environment on top of it.
// A missing file is not an error.
func LoadConfig(path string) (*config.Config, error) {
	overrides := map[string]any{}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &overrides); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	return cfg, nil
}
