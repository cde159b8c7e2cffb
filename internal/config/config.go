// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Browser   BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	Network   NetworkConfig   `mapstructure:"network" yaml:"network"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts" yaml:"artifacts"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// BrowserConfig holds settings for the headless browser instances.
type BrowserConfig struct {
	Headless bool `mapstructure:"headless" yaml:"headless"`
	// BinaryPath overrides the Chrome binary location; empty means whatever
	// chromedp discovers on PATH.
	BinaryPath string `mapstructure:"binary_path" yaml:"binary_path"`
	// ProfileDir is the persistent user-data directory reused by
	// profile-backed sessions. Empty selects the per-OS Chrome default.
	ProfileDir  string `mapstructure:"profile_dir" yaml:"profile_dir"`
	ProfileName string `mapstructure:"profile_name" yaml:"profile_name"`
	// ScrollPasses is the number of scroll-to-bottom passes performed before
	// collecting question containers on infinite-scroll providers.
	ScrollPasses    int      `mapstructure:"scroll_passes" yaml:"scroll_passes"`
	IgnoreTLSErrors bool     `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	Debug           bool     `mapstructure:"debug" yaml:"debug"`
	Args            []string `mapstructure:"args" yaml:"args"`
}

// NetworkConfig tunes the bounded waits of the extraction and fill passes.
// Every wait has an explicit timeout so a hung page cannot block a call.
type NetworkConfig struct {
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	// ContainerWait bounds the wait for a provider's question container
	// selector to appear after navigation.
	ContainerWait time.Duration `mapstructure:"container_wait" yaml:"container_wait"`
	PostLoadWait  time.Duration `mapstructure:"post_load_wait" yaml:"post_load_wait"`
	// SettleActionsPerSec paces DOM mutations during autofill. 2/sec matches
	// a 500ms settle delay between writes.
	SettleActionsPerSec float64 `mapstructure:"settle_actions_per_sec" yaml:"settle_actions_per_sec"`
}

// ArtifactsConfig locates the audit trail output directories.
type ArtifactsConfig struct {
	ScreenshotDir string `mapstructure:"screenshot_dir" yaml:"screenshot_dir"`
	LogDir        string `mapstructure:"log_dir" yaml:"log_dir"`
	DebugDir      string `mapstructure:"debug_dir" yaml:"debug_dir"`
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "formpilot-cli")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.profile_name", "Default")
	v.SetDefault("browser.scroll_passes", 3)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.debug", false)

	// -- Network --
	v.SetDefault("network.navigation_timeout", "30s")
	v.SetDefault("network.container_wait", "30s")
	v.SetDefault("network.post_load_wait", "2s")
	v.SetDefault("network.settle_actions_per_sec", 2.0)

	// -- Artifacts --
	v.SetDefault("artifacts.screenshot_dir", "screenshots")
	v.SetDefault("artifacts.log_dir", "autofill_logs")
	v.SetDefault("artifacts.debug_dir", "debug_pages")
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Network.NavigationTimeout <= 0 {
		return fmt.Errorf("network.navigation_timeout must be a positive duration")
	}
	if c.Network.ContainerWait <= 0 {
		return fmt.Errorf("network.container_wait must be a positive duration")
	}
	if c.Network.SettleActionsPerSec <= 0 {
		return fmt.Errorf("network.settle_actions_per_sec must be positive")
	}
	if c.Browser.ScrollPasses < 0 {
		return fmt.Errorf("browser.scroll_passes must not be negative")
	}
	if c.Artifacts.ScreenshotDir == "" || c.Artifacts.LogDir == "" {
		return fmt.Errorf("artifacts.screenshot_dir and artifacts.log_dir are required")
	}
	return nil
}
