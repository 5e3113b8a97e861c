package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// AppName names the configuration directory under $XDG_CONFIG_HOME.
const AppName = "tidyframe"

// Global configuration structure.
type Global struct {
	DefaultStrategy string `mapstructure:"default_strategy" yaml:"default_strategy"`

	// Output locations; VisualsDir is resolved under OutputDir when relative.
	OutputDir   string `mapstructure:"output_dir" yaml:"output_dir"`
	VisualsDir  string `mapstructure:"visuals_dir" yaml:"visuals_dir"`
	CleanedFile string `mapstructure:"cleaned_file" yaml:"cleaned_file"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`

	// Cleaning parameters
	MissingMarker string  `mapstructure:"missing_marker" yaml:"missing_marker"`
	IQRMultiplier float64 `mapstructure:"iqr_multiplier" yaml:"iqr_multiplier"`

	PreviewRows int    `mapstructure:"preview_rows" yaml:"preview_rows"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat   string `mapstructure:"log_format" yaml:"log_format"`
	// Run history; an empty HistoryDir means $XDG_DATA_HOME/tidyframe.
	RecordHistory bool   `mapstructure:"record_history" yaml:"record_history"`
	HistoryDir    string `mapstructure:"history_dir" yaml:"history_dir,omitempty"`

	// LogSeqURL optionally ships diagnostic logs to a Seq server.
	LogSeqURL string `mapstructure:"log_seq_url" yaml:"log_seq_url,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() *Global {
	return &Global{
		DefaultStrategy: "auto",
		OutputDir:       ".",
		VisualsDir:      "visuals",
		CleanedFile:     "cleaned_output.csv",
		LogFile:         "logs.txt",
		MissingMarker:   "Missing",
		IQRMultiplier:   1.5,
		PreviewRows:     5,
		RecordHistory:   true,
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

// Dir returns the default configuration directory.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DefaultPath returns the default configuration file path.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to DefaultPath, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("TIDYFRAME")
	v.AutomaticEnv()

	d := Defaults()
	v.SetDefault("default_strategy", d.DefaultStrategy)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("visuals_dir", d.VisualsDir)
	v.SetDefault("cleaned_file", d.CleanedFile)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("missing_marker", d.MissingMarker)
	v.SetDefault("iqr_multiplier", d.IQRMultiplier)
	v.SetDefault("preview_rows", d.PreviewRows)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("log_seq_url", d.LogSeqURL)
	v.SetDefault("record_history", d.RecordHistory)
	v.SetDefault("history_dir", d.HistoryDir)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(Dir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// A missing file is fine; a malformed one is not.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// ResolvedVisualsDir returns VisualsDir, joined to OutputDir when relative.
func (c *Global) ResolvedVisualsDir() string {
	if filepath.IsAbs(c.VisualsDir) {
		return c.VisualsDir
	}
	return filepath.Join(c.OutputDir, c.VisualsDir)
}

// ResolvedHistoryDir returns HistoryDir, or the XDG data directory when unset.
func (c *Global) ResolvedHistoryDir() string {
	if c.HistoryDir != "" {
		return c.HistoryDir
	}
	return filepath.Join(xdg.DataHome, AppName)
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"default_strategy", "output_dir", "visuals_dir", "cleaned_file", "log_file",
	"missing_marker", "iqr_multiplier", "preview_rows", "log_level", "log_format",
	"log_seq_url", "record_history", "history_dir",
}

// Get returns the string form of key.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "default_strategy":
		return c.DefaultStrategy, nil
	case "output_dir":
		return c.OutputDir, nil
	case "visuals_dir":
		return c.VisualsDir, nil
	case "cleaned_file":
		return c.CleanedFile, nil
	case "log_file":
		return c.LogFile, nil
	case "missing_marker":
		return c.MissingMarker, nil
	case "iqr_multiplier":
		return strconv.FormatFloat(c.IQRMultiplier, 'g', -1, 64), nil
	case "preview_rows":
		return strconv.Itoa(c.PreviewRows), nil
	case "log_level":
		return c.LogLevel, nil
	case "log_format":
		return c.LogFormat, nil
	case "log_seq_url":
		return c.LogSeqURL, nil
	case "record_history":
		return strconv.FormatBool(c.RecordHistory), nil
	case "history_dir":
		return c.HistoryDir, nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// Set parses val and assigns it to key.
func (c *Global) Set(key, val string) error {
	switch key {
	case "default_strategy":
		c.DefaultStrategy = strings.ToLower(strings.TrimSpace(val))
	case "output_dir":
		c.OutputDir = val
	case "visuals_dir":
		c.VisualsDir = val
	case "cleaned_file":
		c.CleanedFile = val
	case "log_file":
		c.LogFile = val
	case "missing_marker":
		if val == "" {
			return fmt.Errorf("missing_marker must not be empty")
		}
		c.MissingMarker = val
	case "iqr_multiplier":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("invalid positive float for iqr_multiplier: %v", val)
		}
		c.IQRMultiplier = f
	case "preview_rows":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for preview_rows: %v", val)
		}
		c.PreviewRows = i
	case "log_level":
		switch strings.ToLower(val) {
		case "debug", "info", "warn", "warning", "error":
			c.LogLevel = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
		}
	case "log_format":
		switch strings.ToLower(val) {
		case "text", "json":
			c.LogFormat = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_format: %s (use text or json)", val)
		}
	case "log_seq_url":
		if val != "" && !strings.HasPrefix(val, "http://") && !strings.HasPrefix(val, "https://") {
			return fmt.Errorf("invalid log_seq_url: %s (expected http(s) URL)", val)
		}
		c.LogSeqURL = val
	case "record_history":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for record_history: %v", val)
		}
		c.RecordHistory = b
	case "history_dir":
		c.HistoryDir = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}
