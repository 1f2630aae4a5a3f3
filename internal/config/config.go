// Package config loads the hostspin YAML configuration.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"example.com/hostspin/internal/domain"
	"example.com/hostspin/internal/engine"
	"example.com/hostspin/internal/hostsfile"
	"example.com/hostspin/internal/source"
)

// Duration is a time.Duration written as "6h", "1500ms" in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) D() time.Duration { return time.Duration(d) }

type Config struct {
	SourceURL    string   `yaml:"source_url"`
	HostsPath    string   `yaml:"hosts_path"`
	Port         int      `yaml:"port"`
	Timeout      Duration `yaml:"timeout"`
	Concurrency  int      `yaml:"concurrency"`
	CycleTimeout Duration `yaml:"cycle_timeout"`
	Interval     Duration `yaml:"interval"`
	Match        string   `yaml:"match"`
	Backup       bool     `yaml:"backup"`
	Domains      []string `yaml:"domains"`

	FetchTimeout Duration `yaml:"fetch_timeout"`
	UserAgent    string   `yaml:"user_agent"`

	Listen     string `yaml:"listen"`
	AdminToken string `yaml:"admin_token"`
	LogLevel   string `yaml:"log_level"`
}

func Default() *Config {
	return &Config{
		SourceURL:    source.DefaultURL,
		HostsPath:    hostsfile.DefaultHostsPath(),
		Port:         engine.DefaultPort,
		Timeout:      Duration(engine.DefaultTimeout),
		Concurrency:  16,
		CycleTimeout: Duration(5 * time.Minute),
		Interval:     Duration(6 * time.Hour),
		Match:        string(hostsfile.MatchSubstring),
		FetchTimeout: Duration(30 * time.Second),
		UserAgent:    "hostspin/1.0",
		Listen:       "127.0.0.1:8053",
		LogLevel:     "info",
	}
}

// Load reads path on top of the defaults. A missing file is not an error
// when allowMissing is set.
func Load(path string, allowMissing bool) (*Config, error) {
	c := Default()
	if strings.TrimSpace(path) == "" {
		return c, c.Validate()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if allowMissing && os.IsNotExist(err) {
			return c, c.Validate()
		}
		return nil, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", path)
	}
	return c, nil
}

func (c *Config) Validate() error {
	if err := c.Engine().Validate(); err != nil {
		return err
	}
	if _, err := hostsfile.ParseMatchMode(c.Match); err != nil {
		return err
	}
	if strings.TrimSpace(c.SourceURL) == "" {
		return errors.New("empty source_url")
	}
	if strings.TrimSpace(c.HostsPath) == "" {
		return errors.New("empty hosts_path")
	}
	if c.Interval < 0 || c.CycleTimeout < 0 || c.FetchTimeout < 0 {
		return errors.New("negative duration")
	}
	if _, err := domain.NewFilter(c.Domains); err != nil {
		return errors.Wrap(err, "domains")
	}
	return nil
}

func (c *Config) Engine() engine.Config {
	return engine.Config{Port: c.Port, Timeout: c.Timeout.D(), Concurrency: c.Concurrency}
}

// HostsOptions assumes a validated config.
func (c *Config) HostsOptions() hostsfile.Options {
	mode, _ := hostsfile.ParseMatchMode(c.Match)
	return hostsfile.Options{Mode: mode, Backup: c.Backup}
}
