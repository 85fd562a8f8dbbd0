package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "config.yaml"

	defaultPort               = "8888"
	defaultStaticDir          = "static"
	defaultSessionTTL         = 2 * time.Hour
	defaultLogLevel           = "info"
	defaultTextModel          = "gemini-2.5-flash"
	defaultConceptCount       = 10
	defaultTemperature        = 1.0
	defaultSuggestTemperature = 1.2
	defaultImageModel         = "imagen-4.0-generate-001"
	defaultStyleSuffix        = "cinematic, photorealistic, highly detailed, dramatic lighting, 8k"
	defaultImageMIMEType      = "image/jpeg"
	defaultAspectRatio        = "16:9"
	defaultPageSize           = "A4"
	defaultCaptionHeight      = 80
	defaultCaptionMargin      = 40
	defaultFontSize           = 28
	defaultFontFamily         = "Helvetica"
)

type Config struct {
	// APIKey is only read by the CLI commands. The web UI always uses the
	// key pasted by the user.
	APIKey string `yaml:"-"`

	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Text     TextConfig     `yaml:"text"`
	Image    ImageConfig    `yaml:"image"`
	Document DocumentConfig `yaml:"document"`
	Prompts  PromptsConfig  `yaml:"prompts"`
}

type ServerConfig struct {
	Port       string        `yaml:"port"`
	StaticDir  string        `yaml:"static_dir"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type TextConfig struct {
	Model              string  `yaml:"model"`
	ConceptCount       int     `yaml:"concept_count"`
	Temperature        float64 `yaml:"temperature"`
	SuggestTemperature float64 `yaml:"suggest_temperature"`
}

type ImageConfig struct {
	Model       string        `yaml:"model"`
	StyleSuffix string        `yaml:"style_suffix"`
	MIMEType    string        `yaml:"mime_type"`
	AspectRatio string        `yaml:"aspect_ratio"`
	Concurrency int           `yaml:"concurrency"` // 0 means every prompt at once
	Interval    time.Duration `yaml:"interval"`    // 0 disables pacing
}

type DocumentConfig struct {
	PageSize      string  `yaml:"page_size"`
	CaptionHeight float64 `yaml:"caption_height"`
	CaptionMargin float64 `yaml:"caption_margin"`
	FontSize      float64 `yaml:"font_size"`
	FontFamily    string  `yaml:"font_family"`
}

type PromptsConfig struct {
	Path string `yaml:"path"`
}

// Load reads .env, then the YAML file at path (missing file is not an error),
// then applies environment overrides and defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}

	cfg := &Config{}
	if err := loadYAMLConfig(path, cfg); err != nil {
		return nil, err
	}
	applyEnv(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a configuration populated only with built-in defaults.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func (c *Config) Validate() error {
	if c.Text.ConceptCount < 1 {
		return fmt.Errorf("text.concept_count must be positive, got %d", c.Text.ConceptCount)
	}
	if c.Image.Concurrency < 0 {
		return fmt.Errorf("image.concurrency must not be negative, got %d", c.Image.Concurrency)
	}
	if c.Image.Interval < 0 {
		return fmt.Errorf("image.interval must not be negative, got %s", c.Image.Interval)
	}
	if c.Document.CaptionMargin < 0 || c.Document.CaptionHeight < 0 {
		return fmt.Errorf("document caption dimensions must not be negative")
	}
	return nil
}

func loadYAMLConfig(path string, cfg *Config) error {
	if path == "" {
		path = DefaultConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("No config file found, using defaults", "path", path)
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	cfg.Server.Port = getEnvOrDefault("QUOTEDECK_PORT", cfg.Server.Port)
	cfg.Log.Level = getEnvOrDefault("LOG_LEVEL", cfg.Log.Level)
	cfg.Text.Model = getEnvOrDefault("TEXT_MODEL", cfg.Text.Model)
	cfg.Image.Model = getEnvOrDefault("IMAGE_MODEL", cfg.Image.Model)

	if v := os.Getenv("CONCEPT_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("Ignoring invalid CONCEPT_COUNT", "value", v, "err", err)
		} else {
			cfg.Text.ConceptCount = n
		}
	}
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(cfg)
	applyTextDefaults(cfg)
	applyImageDefaults(cfg)
	applyDocumentDefaults(cfg)
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}
}

func applyServerDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = defaultPort
	}
	if cfg.Server.StaticDir == "" {
		cfg.Server.StaticDir = defaultStaticDir
	}
	if cfg.Server.SessionTTL == 0 {
		cfg.Server.SessionTTL = defaultSessionTTL
	}
}

func applyTextDefaults(cfg *Config) {
	if cfg.Text.Model == "" {
		cfg.Text.Model = defaultTextModel
	}
	if cfg.Text.ConceptCount == 0 {
		cfg.Text.ConceptCount = defaultConceptCount
	}
	if cfg.Text.Temperature == 0 {
		cfg.Text.Temperature = defaultTemperature
	}
	if cfg.Text.SuggestTemperature == 0 {
		cfg.Text.SuggestTemperature = defaultSuggestTemperature
	}
}

func applyImageDefaults(cfg *Config) {
	if cfg.Image.Model == "" {
		cfg.Image.Model = defaultImageModel
	}
	if cfg.Image.StyleSuffix == "" {
		cfg.Image.StyleSuffix = defaultStyleSuffix
	}
	if cfg.Image.MIMEType == "" {
		cfg.Image.MIMEType = defaultImageMIMEType
	}
	if cfg.Image.AspectRatio == "" {
		cfg.Image.AspectRatio = defaultAspectRatio
	}
}

func applyDocumentDefaults(cfg *Config) {
	if cfg.Document.PageSize == "" {
		cfg.Document.PageSize = defaultPageSize
	}
	if cfg.Document.CaptionHeight == 0 {
		cfg.Document.CaptionHeight = defaultCaptionHeight
	}
	if cfg.Document.CaptionMargin == 0 {
		cfg.Document.CaptionMargin = defaultCaptionMargin
	}
	if cfg.Document.FontSize == 0 {
		cfg.Document.FontSize = defaultFontSize
	}
	if cfg.Document.FontFamily == "" {
		cfg.Document.FontFamily = defaultFontFamily
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
