// Package config loads the service configuration from a YAML file with
// environment-variable overrides for secrets.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"meeting-insight-service/internal/models"
)

// ServiceEndpoint describes one external AI service.
type ServiceEndpoint struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// Config is the full service configuration.
type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`

	Observability struct {
		Addr string `yaml:"addr"`
	} `yaml:"observability"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Audio struct {
		SampleRate  int     `yaml:"sample_rate"`
		FrameSize   int     `yaml:"frame_size"`
		ClipSeconds float64 `yaml:"clip_seconds"`
		Format      string  `yaml:"format"` // capture backend, e.g. alsa, avfoundation
		Input       string  `yaml:"input"`  // device identifier for the backend
	} `yaml:"audio"`

	Storage struct {
		WorkDir         string `yaml:"work_dir"`
		Database        string `yaml:"database"`
		SweepMinutes    int    `yaml:"sweep_minutes"`
		MaxClipAgeHours int    `yaml:"max_clip_age_hours"`
	} `yaml:"storage"`

	Summarizer struct {
		PartialInterval int `yaml:"partial_interval"`
		PartialWindow   int `yaml:"partial_window"`
	} `yaml:"summarizer"`

	Services struct {
		Provider    string          `yaml:"provider"` // http or mock
		Language    string          `yaml:"language"`
		Transcriber ServiceEndpoint `yaml:"transcriber"`
		Completion  ServiceEndpoint `yaml:"completion"`
		Embedding   ServiceEndpoint `yaml:"embedding"`
	} `yaml:"services"`

	Kafka struct {
		Enabled         bool     `yaml:"enabled"`
		Brokers         []string `yaml:"brokers"`
		TopicTranscript string   `yaml:"topic_transcript"`
		TopicSummary    string   `yaml:"topic_summary"`
		Principal       string   `yaml:"principal"`
	} `yaml:"kafka"`

	Pipeline struct {
		StopTimeoutSeconds int `yaml:"stop_timeout_seconds"`
		GraceMillis        int `yaml:"grace_millis"`
	} `yaml:"pipeline"`

	Objectives []models.Objective `yaml:"objectives"`
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 8080
	cfg.Observability.Addr = ":9090"
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"
	cfg.Audio.SampleRate = 16000
	cfg.Audio.FrameSize = 1024
	cfg.Audio.ClipSeconds = 5.0
	cfg.Audio.Format = "alsa"
	cfg.Audio.Input = "default"
	cfg.Storage.WorkDir = "temp_audio"
	cfg.Storage.Database = "meeting_insight.db"
	cfg.Storage.SweepMinutes = 30
	cfg.Storage.MaxClipAgeHours = 6
	cfg.Summarizer.PartialInterval = 2
	cfg.Summarizer.PartialWindow = 2
	cfg.Services.Provider = "http"
	cfg.Services.Language = "eng"
	cfg.Kafka.TopicTranscript = "meeting.transcript.line"
	cfg.Kafka.TopicSummary = "meeting.summary"
	cfg.Kafka.Principal = "meeting-insight-service"
	cfg.Pipeline.StopTimeoutSeconds = 3
	cfg.Pipeline.GraceMillis = 500
	return cfg
}

// Load reads the YAML file at path, applies defaults for anything unset, and
// then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Services.Transcriber.APIKey = envOrDefault("TRANSCRIBER_API_KEY", c.Services.Transcriber.APIKey)
	c.Services.Completion.APIKey = envOrDefault("COMPLETION_API_KEY", c.Services.Completion.APIKey)
	c.Services.Embedding.APIKey = envOrDefault("EMBEDDING_API_KEY", c.Services.Embedding.APIKey)
	c.Logging.Level = envOrDefault("LOG_LEVEL", c.Logging.Level)
}

func (c *Config) validate() error {
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be positive, got %d", c.Audio.SampleRate)
	}
	if c.Audio.FrameSize <= 0 {
		return fmt.Errorf("audio.frame_size must be positive, got %d", c.Audio.FrameSize)
	}
	if c.Audio.ClipSeconds <= 0 {
		return fmt.Errorf("audio.clip_seconds must be positive, got %v", c.Audio.ClipSeconds)
	}
	if c.Summarizer.PartialInterval <= 0 {
		return fmt.Errorf("summarizer.partial_interval must be positive, got %d", c.Summarizer.PartialInterval)
	}
	if c.Summarizer.PartialWindow <= 0 {
		return fmt.Errorf("summarizer.partial_window must be positive, got %d", c.Summarizer.PartialWindow)
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
