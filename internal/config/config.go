package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type Config struct {
	Contest []string `yaml:"contest"`
	Logger  Logger   `yaml:"logger"`
	Storage Storage  `yaml:"storage"`
	Auth    Auth     `yaml:"auth"`
	Judge   Judge    `yaml:"judge"`
	Listen  string   `yaml:"listen"`
	Admin   Admin    `yaml:"admin"`
	CORS    CORS     `yaml:"cors"`
}

type Logger struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type Storage struct {
	Database string `yaml:"database"`
}

// Judge configures the external code-execution service.
type Judge struct {
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	// DelayMS is the pause between per-test-case calls, a courtesy
	// rate limit toward the execution service.
	DelayMS int `yaml:"delay_ms"`
}

type Auth struct {
	JWT    JWT    `yaml:"jwt"`
	GitLab GitLab `yaml:"gitlab"`
	Local  Local  `yaml:"local"`
}

// Local defines configuration for username/password authentication.
type Local struct {
	Enabled bool `yaml:"enabled"`
}

type JWT struct {
	Secret      string `yaml:"secret"`
	ExpireHours int    `yaml:"expire_hours"`
}

type GitLab struct {
	URL                 string `yaml:"url"`
	ClientID            string `yaml:"client_id"`
	ClientSecret        string `yaml:"client_secret"`
	RedirectURI         string `yaml:"redirect_uri"`
	FrontendCallbackURL string `yaml:"frontend_callback_url"`
}

type Admin struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Judge.TimeoutSeconds <= 0 {
		cfg.Judge.TimeoutSeconds = 30
	}
	if cfg.Judge.DelayMS <= 0 {
		cfg.Judge.DelayMS = 200
	}

	return &cfg, nil
}
