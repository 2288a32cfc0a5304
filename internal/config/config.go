package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultServerURL = "http://127.0.0.1:5000"
	defaultLogLevel  = "info"
	envPrefix        = "PLAGDROP"
)

type Config struct {
	ServerURL      string `json:"server_url" mapstructure:"server_url"`
	InboxDir       string `json:"inbox_dir" mapstructure:"inbox_dir"`
	LogLevel       string `json:"log_level" mapstructure:"log_level"`
	HTTPTimeout    string `json:"http_timeout,omitempty" mapstructure:"http_timeout"`
	HistoryEnabled bool   `json:"history_enabled" mapstructure:"history_enabled"`

	path string
}

func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "plagdrop"), nil
}

func configPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func HistoryPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

func LogPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "plagdrop.log"), nil
}

func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads a JSON config file. A missing file yields the defaults.
// PLAGDROP_* environment variables override both.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := defaultConfig()
	v.SetDefault("server_url", def.ServerURL)
	v.SetDefault("inbox_dir", def.InboxDir)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("http_timeout", def.HTTPTimeout)
	v.SetDefault("history_enabled", def.HistoryEnabled)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.ApplyDefaults()
	cfg.path = path

	if _, err := cfg.Timeout(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.ServerURL) == "" {
		c.ServerURL = defaultServerURL
	}
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = defaultLogLevel
	}
}

// Timeout is the per-request HTTP timeout. Zero means none.
func (c *Config) Timeout() (time.Duration, error) {
	if strings.TrimSpace(c.HTTPTimeout) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.HTTPTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid http_timeout %q: %w", c.HTTPTimeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid http_timeout %q: negative", c.HTTPTimeout)
	}
	return d, nil
}

func (c *Config) Save() error {
	path := c.path
	if path == "" {
		p, err := configPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	data = append(data, '\n')
	return os.WriteFile(path, data, 0600)
}

func defaultConfig() *Config {
	return &Config{
		ServerURL:      defaultServerURL,
		LogLevel:       defaultLogLevel,
		HistoryEnabled: true,
	}
}
