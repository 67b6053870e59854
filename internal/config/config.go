// The application's root configuration.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration structure for the entire application.
type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger"`
	Campfire   CampfireConfig   `mapstructure:"campfire"`
	Backpack   BackpackConfig   `mapstructure:"backpack"`
	Global     GlobalConfig     `mapstructure:"global"`
	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`
	Network    NetworkConfig    `mapstructure:"network"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" json:"level" yaml:"level"`
	Format      string `mapstructure:"format" json:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" json:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" json:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" json:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" json:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" json:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" json:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" json:"compress" yaml:"compress"`
}

// CampfireConfig holds the chat account settings.
type CampfireConfig struct {
	Subdomain string      `mapstructure:"subdomain"`
	SSL       bool        `mapstructure:"ssl"`
	Login     string      `mapstructure:"login"`
	Password  string      `mapstructure:"password"`
	Room      string      `mapstructure:"room"`
	TestMode  bool        `mapstructure:"test_mode"`
	Proxy     ProxyConfig `mapstructure:"proxy"`
}

// ProxyConfig holds an optional HTTP proxy for the chat connection.
// An empty Host disables the proxy.
type ProxyConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// BackpackConfig holds the journal service credentials.
type BackpackConfig struct {
	Subdomain string `mapstructure:"subdomain"`
	Token     string `mapstructure:"token"`
	SSL       bool   `mapstructure:"ssl"`
}

// GlobalConfig holds settings for the polling loop.
type GlobalConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// CheckpointConfig holds settings for the last-updated-at file.
type CheckpointConfig struct {
	Path string `mapstructure:"path"`
}

// NetworkConfig holds settings for HTTP requests.
type NetworkConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// Enabled reports whether a proxy host has been configured.
func (p ProxyConfig) Enabled() bool {
	return p.Host != ""
}

// SetDefaults registers default values so the app can run with a minimal config.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "backfire")
	v.SetDefault("global.interval", 20*time.Second)
	v.SetDefault("checkpoint.path", "last_updated_at")
	v.SetDefault("network.timeout", 30*time.Second)
}

// Validate checks that the configuration is complete enough to start the bot.
func (c *Config) Validate() error {
	if c.Campfire.Subdomain == "" {
		return fmt.Errorf("campfire.subdomain is required")
	}
	if c.Campfire.Login == "" || c.Campfire.Password == "" {
		return fmt.Errorf("campfire.login and campfire.password are required")
	}
	if c.Campfire.Room == "" {
		return fmt.Errorf("campfire.room is required")
	}
	if c.Backpack.Subdomain == "" {
		return fmt.Errorf("backpack.subdomain is required")
	}
	if c.Backpack.Token == "" {
		return fmt.Errorf("backpack.token is required")
	}
	if c.Global.Interval <= 0 {
		return fmt.Errorf("global.interval must be positive")
	}
	return nil
}

// Load unmarshals the configuration from Viper.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}
