// Package config loads the optional YAML profile of httpreq.
package config

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"strings"

	"minhttp/application/http/client"
	"minhttp/application/util/rule"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config is a request profile. Flags given on the command line override it.
//
//	headers:
//	  - "Accept: application/json"
//	timeouts:
//	  connect: 10s
//	  total: 5m
//	max_redirects: 3
//	cacert: /etc/ssl/private-ca.pem
type Config struct {
	// Headers are field lines, as "Name: value".
	Headers  []string        `yaml:"headers"`
	Timeouts client.Timeouts `yaml:"timeouts"`

	FollowRedirects bool `yaml:"follow_redirects"`
	MaxRedirects    uint `yaml:"max_redirects"`

	// CACert is a PEM file of the only certificates trusted.
	// Empty means the system roots.
	CACert string `yaml:"cacert"`

	LogLevel string `yaml:"log_level"`
}

func Default() *Config {
	return &Config{
		Timeouts:        client.DefaultTimeouts,
		FollowRedirects: true,
		MaxRedirects:    client.DefaultMaxRedirects,
		LogLevel:        "warn",
	}
}

// Load reads path over the defaults. Keys missing from the file keep their default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}

	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrapf(ErrInvalidConfig, "%s: %s", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, path)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	for _, h := range c.Headers {
		if _, _, err := ParseHeader(h); err != nil {
			return err
		}
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseHeader splits "Name: value".
func ParseHeader(s string) (name, value string, err error) {
	name, value, ok := strings.Cut(s, ":")
	if !ok || !rule.IsValidToken(name) {
		return "", "", errors.Wrapf(ErrInvalidConfig, "header %q is not \"Name: value\"", s)
	}
	return name, strings.Trim(value, " \t"), nil
}

func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, errors.Wrapf(ErrInvalidConfig, "log level %q", s)
	}
	return level, nil
}
