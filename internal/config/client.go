package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultClientFile is read when no path is given.
const DefaultClientFile = "study.yaml"

// Client is the CLI's configuration file.
type Client struct {
	BaseURL        string        `yaml:"base_url"`
	CredentialPath string        `yaml:"credential_path"`
	SeekStep       float64       `yaml:"seek_step_seconds"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	path string
}

func defaultClient() *Client {
	c := &Client{
		BaseURL:        "http://localhost:8080",
		CredentialPath: "credentials.db",
		SeekStep:       5,
		RequestTimeout: 30 * time.Second,
	}
	if dir, err := os.UserConfigDir(); err == nil {
		c.CredentialPath = filepath.Join(dir, "subtitle-study", "credentials.db")
	}
	return c
}

// LoadClient reads path over the defaults. A missing file is not an error.
// STUDY_BASE_URL and STUDY_CREDENTIALS override the file.
func LoadClient(path string) (*Client, error) {
	if path == "" {
		path = DefaultClientFile
	}
	cfg := defaultClient()
	cfg.path = path

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if v := os.Getenv("STUDY_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("STUDY_CREDENTIALS"); v != "" {
		cfg.CredentialPath = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Client) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: base_url %q is not an absolute URL", c.BaseURL)
	}
	if c.SeekStep <= 0 {
		return fmt.Errorf("config: seek_step_seconds must be positive, got %v", c.SeekStep)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("config: request_timeout must not be negative")
	}
	if c.CredentialPath == "" {
		return errors.New("config: credential_path is empty")
	}
	return nil
}

// Save writes the configuration back to the file it was loaded from.
func (c *Client) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(c.path, data, 0o644)
}

// Path is the file the configuration was loaded from.
func (c *Client) Path() string {
	return c.path
}
