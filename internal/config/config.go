// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Interface defines read access to the application configuration.
type Interface interface {
	Logger() LoggerConfig
	Browser() BrowserConfig
	Network() NetworkConfig
	Recording() RecordingConfig
	Script() ScriptConfig
	Database() DatabaseConfig
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	BrowserCfg   BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	NetworkCfg   NetworkConfig   `mapstructure:"network" yaml:"network"`
	RecordingCfg RecordingConfig `mapstructure:"recording" yaml:"recording"`
	ScriptCfg    ScriptConfig    `mapstructure:"script" yaml:"script"`
	DatabaseCfg  DatabaseConfig  `mapstructure:"database" yaml:"database"`
}

var _ Interface = (*Config)(nil)

func (c *Config) Logger() LoggerConfig       { return c.LoggerCfg }
func (c *Config) Browser() BrowserConfig     { return c.BrowserCfg }
func (c *Config) Network() NetworkConfig     { return c.NetworkCfg }
func (c *Config) Recording() RecordingConfig { return c.RecordingCfg }
func (c *Config) Script() ScriptConfig       { return c.ScriptCfg }
func (c *Config) Database() DatabaseConfig   { return c.DatabaseCfg }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	Console     string      `mapstructure:"console" yaml:"console"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// Console log destinations.
const (
	ConsoleStderr = "stderr"
	ConsoleStdout = "stdout"
	ConsoleNone   = "none"
)

// ColorConfig defines the color names used for each log level on the console.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the Chrome instance used for recording.
type BrowserConfig struct {
	Headless           bool           `mapstructure:"headless" yaml:"headless"`
	ExecPath           string         `mapstructure:"exec_path" yaml:"exec_path"`
	UserAgent          string         `mapstructure:"user_agent" yaml:"user_agent"`
	DisableWebSecurity bool           `mapstructure:"disable_web_security" yaml:"disable_web_security"`
	IgnoreTLSErrors    bool           `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	Debug              bool           `mapstructure:"debug" yaml:"debug"`
	Args               []string       `mapstructure:"args" yaml:"args"`
	Viewport           map[string]int `mapstructure:"viewport" yaml:"viewport"`
}

// Network observation modes.
const (
	NetworkModeCDP   = "cdp"
	NetworkModeProxy = "proxy"
	NetworkModeOff   = "off"
)

// ProxyConfig configures the local observation proxy used in proxy mode.
type ProxyConfig struct {
	Address string `mapstructure:"address" yaml:"address"`
	Verbose bool   `mapstructure:"verbose" yaml:"verbose"`
}

// NetworkConfig tunes navigation and network observation.
type NetworkConfig struct {
	Mode              string            `mapstructure:"mode" yaml:"mode"`
	NavigationTimeout time.Duration     `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	Headers           map[string]string `mapstructure:"headers" yaml:"headers"`
	Proxy             ProxyConfig       `mapstructure:"proxy" yaml:"proxy"`
}

// RecordingConfig tunes the recording session and its input filter.
type RecordingConfig struct {
	QueueSize        int    `mapstructure:"queue_size" yaml:"queue_size"`
	GrowthThreshold  int    `mapstructure:"growth_threshold" yaml:"growth_threshold"`
	SignificantChars string `mapstructure:"significant_chars" yaml:"significant_chars"`
	MaxTextLength    int    `mapstructure:"max_text_length" yaml:"max_text_length"`
	Binding          string `mapstructure:"binding" yaml:"binding"`
}

// Script module styles.
const (
	ModuleStyleCommonJS = "commonjs"
	ModuleStyleESM      = "esm"
)

// ScriptConfig controls the generated test script and where it goes.
type ScriptConfig struct {
	TestName      string `mapstructure:"test_name" yaml:"test_name"`
	ModuleStyle   string `mapstructure:"module_style" yaml:"module_style"`
	Output        string `mapstructure:"output" yaml:"output"`
	ActionsOutput string `mapstructure:"actions_output" yaml:"actions_output"`
}

// DatabaseConfig holds the optional session store connection details.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for every configuration parameter.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.console", ConsoleStderr)
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "scribe")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("browser.disable_web_security", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.debug", false)
	v.SetDefault("browser.viewport", map[string]int{"width": 1280, "height": 720})

	// -- Network --
	v.SetDefault("network.mode", NetworkModeCDP)
	v.SetDefault("network.navigation_timeout", "6m")
	v.SetDefault("network.proxy.address", "127.0.0.1:0")
	v.SetDefault("network.proxy.verbose", false)

	// -- Recording --
	v.SetDefault("recording.queue_size", 256)
	v.SetDefault("recording.growth_threshold", 2)
	v.SetDefault("recording.significant_chars", "@.")
	v.SetDefault("recording.max_text_length", 500)
	v.SetDefault("recording.binding", "__scribeRecord")

	// -- Script --
	v.SetDefault("script.test_name", "Generated Test Script")
	v.SetDefault("script.module_style", ModuleStyleCommonJS)
	v.SetDefault("script.output", "")
	v.SetDefault("script.actions_output", "")
}

// NewConfigFromViper creates a validated configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	v.BindEnv("database.url", "SCRIBE_DATABASE_URL", "DATABASE_URL")

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
	switch strings.ToLower(c.LoggerCfg.Console) {
	case ConsoleStderr, ConsoleNone:
	case ConsoleStdout:
		if scriptToStdout(c.ScriptCfg.Output) {
			return fmt.Errorf("logger.console cannot be stdout while the script is written to stdout; set script.output")
		}
	default:
		return fmt.Errorf("logger.console must be one of stderr, stdout, none (got %q)", c.LoggerCfg.Console)
	}
	switch strings.ToLower(c.NetworkCfg.Mode) {
	case NetworkModeCDP, NetworkModeProxy, NetworkModeOff:
	default:
		return fmt.Errorf("network.mode must be one of cdp, proxy, off (got %q)", c.NetworkCfg.Mode)
	}
	if c.NetworkCfg.NavigationTimeout <= 0 {
		return fmt.Errorf("network.navigation_timeout must be a positive duration")
	}
	if c.RecordingCfg.QueueSize <= 0 {
		return fmt.Errorf("recording.queue_size must be a positive integer")
	}
	if c.RecordingCfg.GrowthThreshold < 0 {
		return fmt.Errorf("recording.growth_threshold must not be negative")
	}
	if c.RecordingCfg.Binding == "" {
		return fmt.Errorf("recording.binding must not be empty")
	}
	switch c.ScriptCfg.ModuleStyle {
	case ModuleStyleCommonJS, ModuleStyleESM:
	default:
		return fmt.Errorf("script.module_style must be commonjs or esm (got %q)", c.ScriptCfg.ModuleStyle)
	}
	return nil
}

func scriptToStdout(output string) bool {
	switch output {
	case "", "-", "stdout":
		return true
	}
	return false
}
