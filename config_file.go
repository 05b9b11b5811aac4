package resilientgraphql

import (
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"gopkg.in/yaml.v3"

	"github.com/opengovern/resilient-graphql/internal"
)

// FileConfig is the YAML form of a client setup.
type FileConfig struct {
	Endpoint          string               `yaml:"endpoint"`
	CredentialHeader  string               `yaml:"credential_header"`
	TokenEnv          string               `yaml:"token_env"`
	UserAgent         string               `yaml:"user_agent"`
	RequestsPerSecond float64              `yaml:"requests_per_second"`
	Retry             RetryFileConfig      `yaml:"retry"`
	Checkpoint        CheckpointFileConfig `yaml:"checkpoint"`
}

// RetryFileConfig mirrors the retry fields of ClientConfig. Durations accept
// "500ms" style strings or bare seconds.
type RetryFileConfig struct {
	MaxAttempts int      `yaml:"max_attempts"`
	BaseDelay   string   `yaml:"base_delay"`
	MaxDelay    string   `yaml:"max_delay"`
	Multiplier  float64  `yaml:"multiplier"`
	Jitter      bool     `yaml:"jitter"`
	Rules       []string `yaml:"rules"`
}

// CheckpointFileConfig selects where pagination cursors are persisted.
type CheckpointFileConfig struct {
	Type      string `yaml:"type"` // memory, file, redis; empty disables
	Path      string `yaml:"path"`
	RedisAddr string `yaml:"redis_addr"` // host:port or redis:// URL
	Prefix    string `yaml:"prefix"`
	TTL       string `yaml:"ttl"`
}

// LoadFileConfig reads and parses a YAML config file.
func LoadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return ParseFileConfig(data)
}

func ParseFileConfig(data []byte) (*FileConfig, error) {
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &fc, nil
}

// ClientConfig converts the file form into a validated ClientConfig. Unset
// fields keep the DefaultClientConfig values.
func (f *FileConfig) ClientConfig(ts oauth2.TokenSource) (*ClientConfig, error) {
	cfg := DefaultClientConfig()
	cfg.TokenSource = ts
	cfg.UserAgent = f.UserAgent
	cfg.RequestsPerSecond = f.RequestsPerSecond
	if f.CredentialHeader != "" {
		cfg.CredentialHeader = f.CredentialHeader
	}

	r := f.Retry
	if r.MaxAttempts != 0 {
		cfg.MaxAttempts = r.MaxAttempts
	}
	if r.Multiplier != 0 {
		cfg.Multiplier = r.Multiplier
	}
	cfg.Jitter = r.Jitter
	if r.BaseDelay != "" {
		d, err := internal.ParseDuration(r.BaseDelay)
		if err != nil {
			return nil, fmt.Errorf("retry.base_delay: %w", err)
		}
		cfg.BaseDelay = d
	}
	if r.MaxDelay != "" {
		d, err := internal.ParseDuration(r.MaxDelay)
		if err != nil {
			return nil, fmt.Errorf("retry.max_delay: %w", err)
		}
		cfg.MaxDelay = d
	}
	if r.Rules != nil {
		rules, err := ParseRetryRules(r.Rules)
		if err != nil {
			return nil, fmt.Errorf("retry.rules: %w", err)
		}
		cfg.RetryRules = rules
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
