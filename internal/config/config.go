// Package config handles the YAML application configuration, with
// environment-variable overlays for secrets.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SMTPConfig holds the outgoing mail settings for event reminders.
// The account password is never written to the config file; it is read from
// the SMTP_PASSWORD environment variable (see ApplyEnv).
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Sender   string `yaml:"sender"`
	Password string `yaml:"-"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`

	// DataDir is the directory holding the flat-file stores and uploaded
	// images.
	DataDir string `yaml:"data_dir"`

	// Timezone is the IANA zone all event times are entered and displayed
	// in (e.g. "America/Chicago").
	Timezone string `yaml:"timezone"`

	// RefreshCron is the cron schedule for the retirement and reminder
	// pass. The original ran it every 12 hours.
	RefreshCron string `yaml:"refresh"`

	// SessionSecret signs the session cookies. Overridable via
	// SESSION_SECRET.
	SessionSecret string `yaml:"session_secret"`

	SMTP SMTPConfig `yaml:"smtp"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      "127.0.0.1:8080",
		DataDir:     "data",
		Timezone:    "America/Chicago",
		RefreshCron: "0 */12 * * *",
		SMTP: SMTPConfig{
			Port: 465,
		},
	}
}

// Normalize fills in missing values so partially-filled configs still work.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.Timezone == "" {
		c.Timezone = "America/Chicago"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "0 */12 * * *"
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 465
	}
}

// ApplyEnv overlays secrets and deploy-time overrides from the environment.
// Call after loading .env so local development picks them up too.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		c.SessionSecret = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		c.SMTP.Password = v
	}
	if v := os.Getenv("SENDER_EMAIL"); v != "" {
		c.SMTP.Sender = v
	}
}

// Load reads the config from path. A missing file is first-run: a default
// config is written there and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600 perms.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
