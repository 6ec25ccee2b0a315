package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for a local development setup.
const (
	DefaultServiceURL      = "http://127.0.0.1:8080"
	DefaultServiceCanister = "rrkah-fqaaa-aaaaa-aaaaq-cai"
	DefaultMintingCanister = "rkp4c-7iaaa-aaaaa-aaaca-cai"

	StoreFile   = "file"
	StoreBadger = "badger"

	// PassphraseEnv overrides the configured passphrase.
	PassphraseEnv = "TIPJAR_PASSPHRASE"
)

// Config holds runtime wiring options for building the app.
type Config struct {
	Home            string        `yaml:"home"`             // state directory, e.g. $HOME/.tipjar
	ServiceURL      string        `yaml:"service_url"`      // tip-jar service base URL
	ServiceCanister string        `yaml:"service_canister"` // owner of every deposit account
	MintingCanister string        `yaml:"minting_canister"` // cycles minting principal for top-ups
	StoreBackend    string        `yaml:"store_backend"`    // file or badger
	Passphrase      string        `yaml:"passphrase"`       // seals key material at rest when set
	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"` // text or json
	LoginMaxTTL     time.Duration `yaml:"login_max_ttl"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

// DefaultHome is $HOME/.tipjar, or .tipjar when the home directory is unknown.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tipjar"
	}
	return filepath.Join(home, ".tipjar")
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Home:            DefaultHome(),
		ServiceURL:      DefaultServiceURL,
		ServiceCanister: DefaultServiceCanister,
		MintingCanister: DefaultMintingCanister,
		StoreBackend:    StoreFile,
		LogLevel:        "info",
		LogFormat:       "text",
		LoginMaxTTL:     30 * 24 * time.Hour,
		RequestTimeout:  30 * time.Second,
		RefreshInterval: 5 * time.Second,
	}
}

// LoadConfig reads the YAML file at path over the defaults. A missing file
// yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		var parsed Config
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
		Merge(&cfg, parsed)
	}
	if pw := strings.TrimSpace(os.Getenv(PassphraseEnv)); pw != "" {
		cfg.Passphrase = pw
	}
	return cfg, cfg.Validate()
}

// Merge copies the set fields of src over dst.
func Merge(dst *Config, src Config) {
	if src.Home != "" {
		dst.Home = src.Home
	}
	if src.ServiceURL != "" {
		dst.ServiceURL = src.ServiceURL
	}
	if src.ServiceCanister != "" {
		dst.ServiceCanister = src.ServiceCanister
	}
	if src.MintingCanister != "" {
		dst.MintingCanister = src.MintingCanister
	}
	if src.StoreBackend != "" {
		dst.StoreBackend = src.StoreBackend
	}
	if src.Passphrase != "" {
		dst.Passphrase = src.Passphrase
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if src.LogFormat != "" {
		dst.LogFormat = src.LogFormat
	}
	if src.LoginMaxTTL != 0 {
		dst.LoginMaxTTL = src.LoginMaxTTL
	}
	if src.RequestTimeout != 0 {
		dst.RequestTimeout = src.RequestTimeout
	}
	if src.RefreshInterval != 0 {
		dst.RefreshInterval = src.RefreshInterval
	}
}

// Validate checks the enumerated fields.
func (c Config) Validate() error {
	switch c.StoreBackend {
	case StoreFile, StoreBadger:
	default:
		return fmt.Errorf("store_backend must be %q or %q, got %q", StoreFile, StoreBadger, c.StoreBackend)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	if c.Home == "" {
		return errors.New("home must be set")
	}
	return nil
}
