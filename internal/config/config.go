package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

func Load(configPath string) (*Config, error) {
	config := &Config{}

	// Set defaults
	config.Query.TimeoutMS = 2000
	config.Query.Retries = 2
	config.RateLimit.Global = 50
	config.Crawl.DeadlineSec = 120
	config.Crawl.MaxInflight = 20
	config.Crawl.Workers = 4
	config.Output.Format = "json"

	if configPath == "" {
		return config, nil
	}

	// Check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

func CreateDefault() error {
	configDir := filepath.Join(os.Getenv("HOME"), ".config", "dnsgraph")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(configDir, "config.yaml")

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		return nil // Config already exists
	}

	defaultConfig := `version: "1.0"
target:
  domain: ""

# Resolvers to query. Leave empty to use /etc/resolv.conf.
resolvers: []
#  - "8.8.8.8"
#  - "1.1.1.1"

query:
  timeout_ms: 2000
  retries: 2

rate_limit:
  global: 50

crawl:
  deadline_sec: 120
  max_inflight: 20
  workers: 4

output:
  format: "json"
  file: ""
  gzip: false
  relations: ""
`

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0644); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}

	fmt.Printf("Default configuration created at: %s\n", configPath)
	return nil
}
