package main

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr     string `yaml:"addr"`
	DataDir  string `yaml:"data_dir"`
	Project  string `yaml:"project"`
	Alias    string `yaml:"alias"`
	CDNBase  string `yaml:"cdn_base"`
	LogLevel string `yaml:"log_level"`
}

func defaultConfig() Config {
	return Config{
		Addr:     ":8787",
		DataDir:  ".atelier",
		Project:  "default",
		LogLevel: "info",
	}
}

// loadConfig reads an optional YAML file over the defaults. A missing file
// is not an error; a malformed one is.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
