package core

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseConfig parses YAML content into a Config, starting from DefaultConfig.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("core: parse config: %w", err)
	}
	cfg.applyDefaults()
	if _, err := cfg.Sizes(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig reads photobox.yaml and returns a Config object.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("core: read config: %w", err)
	}
	return ParseConfig(data)
}

// NormalizeRoot makes sure root ends with a separator. An empty root stays empty.
func NormalizeRoot(root string) string {
	if root == "" || strings.HasSuffix(root, "/") {
		return root
	}
	return root + "/"
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	c.RootPath = NormalizeRoot(c.RootPath)
	if c.HighlightColor == "" {
		c.HighlightColor = def.HighlightColor
	}
	if c.Commands.Render == "" {
		c.Commands.Render = def.Commands.Render
	}
	if c.Commands.Compare == "" {
		c.Commands.Compare = def.Commands.Compare
	}
	if c.Commands.Composite == "" {
		c.Commands.Composite = def.Commands.Composite
	}
	if c.Render.Delay < 0 {
		c.Render.Delay = 0
	}
}
