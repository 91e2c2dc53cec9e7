package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// unsetenv clears name for the duration of the test.
func unsetenv(t *testing.T, name string) {
	t.Helper()
	t.Setenv(name, "")
	os.Unsetenv(name)
}

func clearEnv(t *testing.T) {
	for _, name := range []string{
		EnvHostname, EnvPort, EnvDatabase, EnvUsername, EnvPassword,
		EnvConfigFile, EnvDriver, EnvLogLevel, EnvLogFile,
		EnvSSEHost, EnvSSEPort, EnvSSEBaseURL, EnvConnectTimeout, EnvQueryTimeout,
	} {
		unsetenv(t, name)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("", filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Driver != "db2" {
		t.Errorf("Driver is different from expected. Expected: db2, Actual: %s", cfg.Driver)
	}
	if cfg.SSE.Addr() != "0.0.0.0:8000" {
		t.Errorf("SSE address is different from expected. Expected: 0.0.0.0:8000, Actual: %s", cfg.SSE.Addr())
	}
	if cfg.SSE.URL() != "http://localhost:8000" {
		t.Errorf("SSE URL is different from expected. Expected: http://localhost:8000, Actual: %s", cfg.SSE.URL())
	}
	if cfg.ConnectTimeout != 10*time.Second || cfg.QueryTimeout != 0 {
		t.Errorf("Unexpected timeouts: connect=%v query=%v", cfg.ConnectTimeout, cfg.QueryTimeout)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log level is different from expected. Expected: info, Actual: %s", cfg.Log.Level)
	}
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)

	yamlPath := writeFile(t, "db2mcp.yaml", `
driver: db2
database:
  hostname: yaml-host
  port: "50000"
  name: SAMPLE
  username: yaml-user
  password: yaml-pass
log:
  level: debug
sse:
  port: 9000
connect_timeout: 5s
query_timeout: 30s
`)
	envPath := writeFile(t, "test.env", "DB2_USERNAME=dotenv-user\nDB2_PASSWORD=dotenv-pass\n")
	t.Setenv(EnvPassword, "env-pass")
	t.Setenv(EnvSSEPort, "8100")

	cfg, err := Load(yamlPath, envPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := map[string]string{
		"hostname": "yaml-host",
		"username": "dotenv-user",
		"password": "env-pass",
		"database": "SAMPLE",
		"level":    "debug",
	}
	got := map[string]string{
		"hostname": cfg.Database.Hostname,
		"username": cfg.Database.Username,
		"password": cfg.Database.Password,
		"database": cfg.Database.Name,
		"level":    cfg.Log.Level,
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s is different from expected. Expected: %s, Actual: %s", k, v, got[k])
		}
	}
	if cfg.SSE.Port != 8100 {
		t.Errorf("Environment did not override the YAML port: %d", cfg.SSE.Port)
	}
	if cfg.ConnectTimeout != 5*time.Second || cfg.QueryTimeout != 30*time.Second {
		t.Errorf("Unexpected timeouts: connect=%v query=%v", cfg.ConnectTimeout, cfg.QueryTimeout)
	}

	info := cfg.DefaultConnection()
	if info.Host != "yaml-host" || info.Port != "50000" || info.Username != "dotenv-user" || info.Database != "SAMPLE" {
		t.Errorf("Unexpected default connection: %+v", info)
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	clearEnv(t)

	path := writeFile(t, "db2mcp.yaml", "driver: sqlite\n")
	t.Setenv(EnvConfigFile, path)

	cfg, err := Load("", filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Driver != "sqlite" {
		t.Errorf("Config file from %s was not read: driver=%s", EnvConfigFile, cfg.Driver)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "unknown driver",
			env:     map[string]string{EnvDriver: "oracle"},
			wantErr: "validation failed",
		},
		{
			name:    "bad log level",
			env:     map[string]string{EnvLogLevel: "verbose"},
			wantErr: "validation failed",
		},
		{
			name:    "non numeric port",
			env:     map[string]string{EnvSSEPort: "http"},
			wantErr: EnvSSEPort,
		},
		{
			name:    "port out of range",
			env:     map[string]string{EnvSSEPort: "70000"},
			wantErr: "validation failed",
		},
		{
			name:    "bad duration",
			env:     map[string]string{EnvQueryTimeout: "soon"},
			wantErr: EnvQueryTimeout,
		},
		{
			name:    "negative duration",
			env:     map[string]string{EnvConnectTimeout: "-1s"},
			wantErr: "validation failed",
		},
		{
			name:    "bad base url",
			env:     map[string]string{EnvSSEBaseURL: "not a url"},
			wantErr: "validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load("", filepath.Join(t.TempDir(), "missing.env"))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	clearEnv(t)

	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Errorf("Expected an error for a missing config file")
	}
}

func TestSSEURL(t *testing.T) {
	tests := []struct {
		sse  SSE
		want string
	}{
		{SSE{Host: "0.0.0.0", Port: 8000}, "http://localhost:8000"},
		{SSE{Host: "10.0.0.5", Port: 8080}, "http://10.0.0.5:8080"},
		{SSE{Host: "::", Port: 8000}, "http://localhost:8000"},
		{SSE{Host: "0.0.0.0", Port: 8000, BaseURL: "https://db2.example.com"}, "https://db2.example.com"},
	}
	for _, tt := range tests {
		if got := tt.sse.URL(); got != tt.want {
			t.Errorf("URL() of %+v = %q, want %q", tt.sse, got, tt.want)
		}
	}
}
