package setup

import (
	"errors"
	"fmt"
	"os"
	"strings"

	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var defaultPresets []byte

// Preset is a predefined job profile the candidate can pick instead of typing.
type Preset struct {
	ID          string `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
}

// DefaultPresets returns the built-in job profiles.
func DefaultPresets() []Preset {
	presets, err := parsePresets(defaultPresets)
	if err != nil {
		// embedded file is part of the binary
		panic(err)
	}
	return presets
}

// LoadPresets reads job profiles from a YAML file. An empty path yields the defaults.
func LoadPresets(path string) ([]Preset, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultPresets(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading presets file %q: %w", path, err)
	}

	presets, err := parsePresets(data)
	if err != nil {
		return nil, fmt.Errorf("presets file %q: %w", path, err)
	}

	return presets, nil
}

func parsePresets(data []byte) ([]Preset, error) {
	var presets []Preset
	if err := yaml.Unmarshal(data, &presets); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}

	if len(presets) == 0 {
		return nil, errors.New("no presets defined")
	}

	seen := make(map[string]struct{}, len(presets))
	for i, p := range presets {
		if strings.TrimSpace(p.ID) == "" || strings.TrimSpace(p.Title) == "" || strings.TrimSpace(p.Description) == "" {
			return nil, fmt.Errorf("preset #%d: id, title and description are required", i+1)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("duplicate preset id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
	}

	return presets, nil
}
