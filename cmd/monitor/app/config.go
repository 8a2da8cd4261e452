package app

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"csi-monitor/internal/csi"
)

const (
	defaultPort          = 5500
	defaultBandwidth     = 20
	defaultDataDirectory = "csi_data"
)

// Config represents the main application configuration
type Config struct {
	Settings Settings      `yaml:"settings"`
	Capture  CaptureConfig `yaml:"capture"`
	Storage  StorageConfig `yaml:"storage"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel string `yaml:"logLevel"`

	level slog.Level
}

// Level returns the parsed log level. It is valid after LoadConfig.
func (s Settings) Level() slog.Level {
	return s.level
}

// CaptureConfig represents the capture session settings
type CaptureConfig struct {
	Interface    string  `yaml:"interface"`
	Port         int     `yaml:"port"`
	Promiscuous  bool    `yaml:"promiscuous"`
	Target       string  `yaml:"target"`
	Bandwidth    float64 `yaml:"bandwidth"`
	WindowLength int     `yaml:"windowLength"`
	GapCadence   int     `yaml:"gapCadence"`
}

// StorageConfig represents storage settings
type StorageConfig struct {
	DataDirectory string `yaml:"dataDirectory"`
	Database      bool   `yaml:"database"`
}

// LoadConfig reads, parses and validates the configuration file,
// applying defaults for optional settings.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if config.Settings.LogLevel != "" {
		if err := config.Settings.level.UnmarshalText([]byte(config.Settings.LogLevel)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", config.Settings.LogLevel, err)
		}
	}

	if config.Capture.Interface == "" {
		return nil, fmt.Errorf("capture interface is required")
	}
	if config.Capture.Target == "" {
		return nil, fmt.Errorf("capture target is required")
	}
	if _, err := csi.ParseTarget(config.Capture.Target); err != nil {
		return nil, fmt.Errorf("invalid capture target: %w", err)
	}

	if config.Capture.Port == 0 {
		config.Capture.Port = defaultPort
	}
	if config.Capture.Port < 1 || config.Capture.Port > 65535 {
		return nil, fmt.Errorf("invalid capture port %d", config.Capture.Port)
	}

	if config.Capture.Bandwidth == 0 {
		config.Capture.Bandwidth = defaultBandwidth
	}
	if csi.SubcarrierCount(config.Capture.Bandwidth) <= 0 {
		return nil, fmt.Errorf("bandwidth %g MHz yields no subcarriers", config.Capture.Bandwidth)
	}

	if config.Capture.WindowLength == 0 {
		config.Capture.WindowLength = csi.DefaultWindowLength
	}
	if config.Capture.WindowLength < 0 {
		return nil, fmt.Errorf("invalid window length %d", config.Capture.WindowLength)
	}

	if config.Capture.GapCadence == 0 {
		config.Capture.GapCadence = csi.DefaultGapCadence
	}
	if config.Capture.GapCadence < 0 {
		return nil, fmt.Errorf("invalid gap cadence %d", config.Capture.GapCadence)
	}

	if config.Storage.DataDirectory == "" {
		config.Storage.DataDirectory = defaultDataDirectory
	}

	return &config, nil
}
