package taskverify

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the binaries.
type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port string `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	OpenAI struct {
		APIKey         string `yaml:"api_key"`
		Model          string `yaml:"model"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"openai"`
	Sessions struct {
		Secret string `yaml:"secret"`
	} `yaml:"sessions"`
}

// DefaultConfig returns the settings used when no config file is given.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Server.Port = "8180"
	cfg.Database.Path = "./taskverify.db"
	cfg.OpenAI.TimeoutSeconds = int(DefaultGenerationTimeout / time.Second)
	cfg.applyEnv()
	return cfg
}

// LoadConfig reads settings from a YAML file, filling gaps from defaults and
// the environment.
func LoadConfig(filename string) (*Config, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := DefaultConfig()
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", filename, err)
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if c.OpenAI.APIKey == "" {
		c.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Sessions.Secret == "" {
		c.Sessions.Secret = os.Getenv("SESSION_SECRET")
	}
}

// GenerationTimeout returns the configured model call deadline.
func (c *Config) GenerationTimeout() time.Duration {
	if c.OpenAI.TimeoutSeconds <= 0 {
		return DefaultGenerationTimeout
	}
	return time.Duration(c.OpenAI.TimeoutSeconds) * time.Second
}

// Addr returns the listen address for the web server.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}
