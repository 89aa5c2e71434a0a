// Package config loads sommelier configuration from an optional YAML file
// with environment variable overrides. API keys come from the environment
// only and are never written to config files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Gemini struct {
	// APIKey is populated from GEMINI_API_KEY, never from YAML.
	APIKey string `yaml:"-"`

	Model          string `yaml:"model"`
	EmbeddingModel string `yaml:"embedding_model"`
	BaseURL        string `yaml:"base_url"`
}

type Index struct {
	Path string `yaml:"path"`
}

type Pipeline struct {
	TopK int `yaml:"top_k"`
}

type Batch struct {
	Workers        int      `yaml:"workers"`
	MaxRetries     int      `yaml:"max_retries"`
	RequestTimeout Duration `yaml:"request_timeout"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps"`
	FailFast       bool     `yaml:"fail_fast"`
}

// Duration decodes YAML scalars like "45s" via time.ParseDuration.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	out, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(out)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Config struct {
	Gemini   Gemini   `yaml:"gemini"`
	Index    Index    `yaml:"index"`
	Pipeline Pipeline `yaml:"pipeline"`
	Batch    Batch    `yaml:"batch"`
}

func defaults() Config {
	return Config{
		Gemini: Gemini{
			Model:          "gemini-2.0-flash",
			EmbeddingModel: "gemini-embedding-001",
		},
		Index:    Index{Path: "wines.db"},
		Pipeline: Pipeline{TopK: 4},
		Batch: Batch{
			Workers:        4,
			MaxRetries:     3,
			RequestTimeout: Duration(2 * time.Minute),
		},
	}
}

// Load reads path (optional: "" keeps defaults), then applies environment
// overrides on top.
func Load(path string) (Config, error) {
	cfg := defaults()

	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %q: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Gemini.APIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	envStr("GEMINI_MODEL", &c.Gemini.Model)
	envStr("GEMINI_EMBEDDING_MODEL", &c.Gemini.EmbeddingModel)
	envStr("GEMINI_BASE_URL", &c.Gemini.BaseURL)
	envStr("SOMMELIER_INDEX_PATH", &c.Index.Path)

	if err := envInt("SOMMELIER_TOP_K", &c.Pipeline.TopK); err != nil {
		return err
	}
	if err := envInt("WORKERS", &c.Batch.Workers); err != nil {
		return err
	}
	if err := envInt("MAX_RETRIES", &c.Batch.MaxRetries); err != nil {
		return err
	}
	if err := envDuration("REQUEST_TIMEOUT", &c.Batch.RequestTimeout); err != nil {
		return err
	}
	if err := envFloat("RATE_LIMIT_RPS", &c.Batch.RateLimitRPS); err != nil {
		return err
	}
	if err := envBool("FAIL_FAST", &c.Batch.FailFast); err != nil {
		return err
	}
	return nil
}

func envStr(name string, dst *string) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		*dst = v
	}
}

func envInt(name string, dst *int) error {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return nil
	}
	out, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s=%q: %w", name, v, err)
	}
	*dst = out
	return nil
}

func envFloat(name string, dst *float64) error {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return nil
	}
	out, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid %s=%q: %w", name, v, err)
	}
	*dst = out
	return nil
}

func envBool(name string, dst *bool) error {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return nil
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes":
		*dst = true
	case "0", "false", "no":
		*dst = false
	default:
		return fmt.Errorf("invalid %s=%q: want a boolean", name, v)
	}
	return nil
}

func envDuration(name string, dst *Duration) error {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return nil
	}
	out, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s=%q: %w", name, v, err)
	}
	*dst = Duration(out)
	return nil
}
