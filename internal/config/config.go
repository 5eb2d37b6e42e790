package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when the YAML file omits a value.
const (
	DefaultPort              = "5000"
	DefaultMaxUploadBytes    = 32 << 20
	DefaultKeywordThreshold  = 60
	DefaultMaxImageDimension = 1600
	DefaultPDFZoom           = 2.0
	DefaultLanguage          = "ta"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		CORSOrigins    []string `yaml:"cors_origins"`
		MaxUploadBytes int64    `yaml:"max_upload_bytes"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Reports struct {
		TTL string `yaml:"ttl"`
	} `yaml:"reports"`
	AnswerKeys struct {
		TTL string `yaml:"ttl"`
	} `yaml:"answer_keys"`
	Grading struct {
		KeywordThreshold int `yaml:"keyword_threshold"`
	} `yaml:"grading"`
	OCR struct {
		DefaultLanguage   string            `yaml:"default_language"`
		Languages         map[string]string `yaml:"languages"`
		MaxImageDimension int               `yaml:"max_image_dimension"`
		PDFZoom           float64           `yaml:"pdf_zoom"`
		PDFTextLayer      bool              `yaml:"pdf_text_layer"`
	} `yaml:"ocr"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
}

// Load reads YAML config from path. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = DefaultPort
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}
	if c.Server.MaxUploadBytes <= 0 {
		c.Server.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if c.Grading.KeywordThreshold <= 0 {
		c.Grading.KeywordThreshold = DefaultKeywordThreshold
	}
	if c.OCR.DefaultLanguage == "" {
		c.OCR.DefaultLanguage = DefaultLanguage
	}
	if len(c.OCR.Languages) == 0 {
		c.OCR.Languages = map[string]string{"en": "eng", "ta": "tam"}
	}
	if c.OCR.MaxImageDimension <= 0 {
		c.OCR.MaxImageDimension = DefaultMaxImageDimension
	}
	if c.OCR.PDFZoom <= 0 {
		c.OCR.PDFZoom = DefaultPDFZoom
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
