// Package config loads the server configuration from a .env file, an
// optional YAML file and the environment, in that order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/yunkee-lee/mcp-tmap/pkg/tmap"
)

// Transport selects how the MCP server talks to clients.
type Transport string

const (
	TransportStdio Transport = "stdio"
	TransportHTTP  Transport = "http"
)

// Environment variables read by Load.
const (
	EnvTransport      = "TMAPMCP_TRANSPORT"
	EnvHTTPAddr       = "TMAPMCP_HTTP_ADDR"
	EnvTimeout        = "TMAPMCP_TIMEOUT"
	EnvLogLevel       = "TMAPMCP_LOG_LEVEL"
	EnvAllowedOrigins = "TMAPMCP_ALLOWED_ORIGINS"
)

// DotEnvFile is loaded from the working directory when present.
const DotEnvFile = ".env"

const (
	DefaultHTTPAddr = ":8080"
	DefaultLogLevel = "info"
)

// Config is the server configuration.
type Config struct {
	// APIKey is read from SK_OPEN_API_APP_KEY only.
	APIKey string `yaml:"-"`

	Transport      Transport     `yaml:"transport"`
	HTTPAddr       string        `yaml:"http_addr"`
	Timeout        time.Duration `yaml:"timeout"`
	LogLevel       string        `yaml:"log_level"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Transport:      TransportStdio,
		HTTPAddr:       DefaultHTTPAddr,
		Timeout:        tmap.DefaultTimeout,
		LogLevel:       DefaultLogLevel,
		AllowedOrigins: []string{"*"},
	}
}

// Load builds the configuration. Variables from .env never override ones
// already set in the environment. path names an optional YAML file; an empty
// path skips it.
func Load(path string) (Config, error) {
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading %s: %w", DotEnvFile, err)
	}

	cfg := Default()
	if strings.TrimSpace(path) != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	// #nosec G304 -- path comes from the operator's --config flag.
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %q: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing config %q: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.APIKey = strings.TrimSpace(os.Getenv(tmap.AppKeyEnv))

	if v := strings.TrimSpace(os.Getenv(EnvTransport)); v != "" {
		c.Transport = Transport(strings.ToLower(v))
	}
	if v := strings.TrimSpace(os.Getenv(EnvHTTPAddr)); v != "" {
		c.HTTPAddr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTimeout)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvTimeout, v, err)
		}
		c.Timeout = d
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAllowedOrigins)); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.AllowedOrigins = origins
	}
	return nil
}

// Validate checks the transport, timeout and log level. The API key is
// checked by tmap.NewClient.
func (c Config) Validate() error {
	switch c.Transport {
	case TransportStdio:
	case TransportHTTP:
		if strings.TrimSpace(c.HTTPAddr) == "" {
			return errors.New("http transport requires an address")
		}
	default:
		return fmt.Errorf("unsupported transport %q (want %q or %q)", c.Transport, TransportStdio, TransportHTTP)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative: %s", c.Timeout)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
