package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Auth          AuthConfig          `yaml:"auth"`
	Upload        UploadConfig        `yaml:"upload"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Media         MediaConfig         `yaml:"media"`
	Webhook       WebhookConfig       `yaml:"webhook"`
	Web           WebConfig           `yaml:"web"`
	Logging       LoggingConfig       `yaml:"logging"`
	App           AppConfig           `yaml:"app"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
}

// AuthConfig holds service authentication configuration.
// APIKey may be left empty in the yaml file and supplied through the
// API_KEY environment variable instead.
type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

// UploadConfig holds temp upload storage configuration
type UploadConfig struct {
	Dir string `yaml:"dir"`
}

// TranscriptionConfig holds the remote speech-to-text API configuration
type TranscriptionConfig struct {
	Endpoint       string        `yaml:"endpoint"`
	Model          string        `yaml:"model"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// MediaConfig holds audio segmentation configuration
type MediaConfig struct {
	FFmpegPath      string        `yaml:"ffmpeg_path"`
	FFprobePath     string        `yaml:"ffprobe_path"`
	SegmentSeconds  float64       `yaml:"segment_seconds"`
	MaxSegmentBytes int64         `yaml:"max_segment_bytes"`
	CommandTimeout  time.Duration `yaml:"command_timeout"`
}

// WebhookConfig holds result delivery configuration
type WebhookConfig struct {
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// WebConfig holds page and caption fetching configuration
type WebConfig struct {
	UserAgent       string        `yaml:"user_agent"`
	CaptionLanguage string        `yaml:"caption_language"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	Output       string `yaml:"output"`
	EnableCaller bool   `yaml:"enable_caller"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// Load reads and parses the configuration file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if key := os.Getenv("API_KEY"); key != "" {
		config.Auth.APIKey = key
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth api_key is required (yaml or API_KEY env)")
	}

	if c.Upload.Dir == "" {
		return fmt.Errorf("upload dir is required")
	}

	if c.Transcription.Endpoint == "" {
		return fmt.Errorf("transcription endpoint is required")
	}

	if c.Transcription.Model == "" {
		return fmt.Errorf("transcription model is required")
	}

	if c.Media.SegmentSeconds <= 0 {
		return fmt.Errorf("media segment_seconds must be greater than 0")
	}

	if c.Media.MaxSegmentBytes <= 0 {
		return fmt.Errorf("media max_segment_bytes must be greater than 0")
	}

	return nil
}
