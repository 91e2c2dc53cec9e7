// Package config loads the process configuration.
//
// Sources, lowest precedence first: built-in defaults, an optional YAML file,
// a .env file merged into the environment, and the environment itself.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kaz/db2mcp/internal/db2"
)

type (
	Config struct {
		Driver         string        `yaml:"driver" validate:"required,dialect"`
		Database       Database      `yaml:"database"`
		Log            Log           `yaml:"log"`
		SSE            SSE           `yaml:"sse"`
		ConnectTimeout time.Duration `yaml:"connect_timeout" validate:"gte=0"`
		QueryTimeout   time.Duration `yaml:"query_timeout" validate:"gte=0"`
	}

	// Database holds the defaults used for implicit connects.
	Database struct {
		Hostname string `yaml:"hostname"`
		Port     string `yaml:"port"`
		Name     string `yaml:"name"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	}

	Log struct {
		Level string `yaml:"level" validate:"oneof=debug info warn error off"`
		File  string `yaml:"file"`
	}

	SSE struct {
		Host    string `yaml:"host" validate:"required"`
		Port    int    `yaml:"port" validate:"min=1,max=65535"`
		BaseURL string `yaml:"base_url" validate:"omitempty,url"`
	}
)

// Environment variable names.
const (
	EnvHostname       = "DB2_HOSTNAME"
	EnvPort           = "DB2_PORT"
	EnvDatabase       = "DB2_DATABASE"
	EnvUsername       = "DB2_USERNAME"
	EnvPassword       = "DB2_PASSWORD"
	EnvConfigFile     = "DB2MCP_CONFIG"
	EnvDriver         = "DB2MCP_DRIVER"
	EnvLogLevel       = "DB2MCP_LOG_LEVEL"
	EnvLogFile        = "DB2MCP_LOG_FILE"
	EnvSSEHost        = "DB2MCP_SSE_HOST"
	EnvSSEPort        = "DB2MCP_SSE_PORT"
	EnvSSEBaseURL     = "DB2MCP_SSE_BASE_URL"
	EnvConnectTimeout = "DB2MCP_CONNECT_TIMEOUT"
	EnvQueryTimeout   = "DB2MCP_QUERY_TIMEOUT"
)

func Default() *Config {
	return &Config{
		Driver: db2.DefaultDialect,
		Log: Log{
			Level: "info",
		},
		SSE: SSE{
			Host: "0.0.0.0",
			Port: 8000,
		},
		ConnectTimeout: db2.DefaultConnectTimeout,
	}
}

// Load builds the configuration. path names a YAML file; when empty the
// DB2MCP_CONFIG variable is consulted. envFiles are .env files to merge into
// the environment (".env" when none are given); missing ones are ignored.
func Load(path string, envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		EnvHostname:   &c.Database.Hostname,
		EnvPort:       &c.Database.Port,
		EnvDatabase:   &c.Database.Name,
		EnvUsername:   &c.Database.Username,
		EnvPassword:   &c.Database.Password,
		EnvDriver:     &c.Driver,
		EnvLogLevel:   &c.Log.Level,
		EnvLogFile:    &c.Log.File,
		EnvSSEHost:    &c.SSE.Host,
		EnvSSEBaseURL: &c.SSE.BaseURL,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(name); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv(EnvSSEPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvSSEPort, err)
		}
		c.SSE.Port = port
	}

	durations := map[string]*time.Duration{
		EnvConnectTimeout: &c.ConnectTimeout,
		EnvQueryTimeout:   &c.QueryTimeout,
	}
	for name, dst := range durations {
		if v, ok := os.LookupEnv(name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", name, err)
			}
			*dst = d
		}
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("dialect", func(fl validator.FieldLevel) bool {
		_, err := db2.LookupDialect(fl.Field().String())
		return err == nil
	})
	return v
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// DefaultConnection returns the credentials used for implicit connects.
func (c *Config) DefaultConnection() db2.ConnInfo {
	return db2.ConnInfo{
		Host:     c.Database.Hostname,
		Port:     c.Database.Port,
		Username: c.Database.Username,
		Password: c.Database.Password,
		Database: c.Database.Name,
	}
}

// Addr is the listen address of the SSE transport.
func (s SSE) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// URL is the externally reachable base URL advertised to SSE clients.
func (s SSE) URL() string {
	if s.BaseURL != "" {
		return s.BaseURL
	}
	host := s.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(s.Port))
}
