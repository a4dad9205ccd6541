// Package config holds the engine runtime configuration: worker count, log
// destination, server address, and the optional video probe toggle. It is
// loaded from YAML and is separate from the user settings document.
package config

import (
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Jobs       int    `yaml:"jobs" json:"jobs"`
	LogFile    string `yaml:"log_file" json:"log_file"`
	LogJSON    bool   `yaml:"log_json" json:"log_json"`
	ListenAddr string `yaml:"listen_addr" json:"listen_addr"`
	UseProbe   bool   `yaml:"use_probe" json:"use_probe"`
}

func DefaultConfig() *Config {
	jobs := runtime.NumCPU()
	if jobs < 1 {
		jobs = 4
	}

	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".creators-file-manager")

	return &Config{
		Jobs:       jobs,
		LogFile:    filepath.Join(dataDir, "engine.log"),
		LogJSON:    false,
		ListenAddr: "127.0.0.1:8732",
		UseProbe:   false,
	}
}

func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Jobs < 1 {
		c.Jobs = defaults.Jobs
	}
	if c.LogFile == "" {
		c.LogFile = defaults.LogFile
	}
	if c.ListenAddr == "" {
		c.ListenAddr = defaults.ListenAddr
	}
}
