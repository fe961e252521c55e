// ABOUTME: Tests for configuration loading
// ABOUTME: Covers YAML parsing, env expansion, duration parsing, and validation

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doku.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

const validConfig = `
server:
  http_addr: ":8085"
  base_url: "https://doku.example.com"
database:
  path: "/var/lib/doku/doku.db"
auth:
  jwt_secret: "test-jwt-secret-32-bytes-exactly!"
share:
  session_ttl: "168h"
  sweep_interval: "1h"
  slug_length: 14
  slug_retries: 5
assets:
  secret: "test-asset-secret-32-bytes-long!"
  dir: "/var/lib/doku/objects"
  url_ttl: "30m"
logging:
  level: "info"
  format: "json"
`

func TestLoad_Valid(t *testing.T) {
	path := writeConfig(t, validConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.HTTPAddr != ":8085" {
		t.Errorf("HTTPAddr = %q", cfg.Server.HTTPAddr)
	}
	if cfg.Share.SessionTTL != 168*time.Hour {
		t.Errorf("SessionTTL = %v, want 168h", cfg.Share.SessionTTL)
	}
	if cfg.Share.SweepInterval != time.Hour {
		t.Errorf("SweepInterval = %v, want 1h", cfg.Share.SweepInterval)
	}
	if cfg.Assets.URLTTL != 30*time.Minute {
		t.Errorf("URLTTL = %v, want 30m", cfg.Assets.URLTTL)
	}
	if cfg.Share.SlugLength != 14 {
		t.Errorf("SlugLength = %d", cfg.Share.SlugLength)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("DOKU_TEST_SECRET", "env-jwt-secret-32-bytes-exactly!!")

	path := writeConfig(t, `
server:
  http_addr: ":8085"
database:
  path: "/tmp/doku.db"
auth:
  jwt_secret: "${DOKU_TEST_SECRET}"
assets:
  secret: "test-asset-secret-32-bytes-long!"
  dir: "/tmp/objects"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Auth.JWTSecret != "env-jwt-secret-32-bytes-exactly!!" {
		t.Errorf("JWTSecret = %q, env var not expanded", cfg.Auth.JWTSecret)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	cases := map[string]string{
		"http_addr": `
database:
  path: "/tmp/doku.db"
auth:
  jwt_secret: "x"
assets:
  secret: "y"
  dir: "/tmp/objects"
`,
		"jwt_secret": `
server:
  http_addr: ":8085"
database:
  path: "/tmp/doku.db"
assets:
  secret: "y"
  dir: "/tmp/objects"
`,
		"assets.dir": `
server:
  http_addr: ":8085"
database:
  path: "/tmp/doku.db"
auth:
  jwt_secret: "x"
assets:
  secret: "y"
`,
	}

	for name, content := range cases {
		if _, err := Load(writeConfig(t, content)); err == nil {
			t.Errorf("config missing %s should fail validation", name)
		}
	}
}

func TestLoad_BadDuration(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: ":8085"
database:
  path: "/tmp/doku.db"
auth:
  jwt_secret: "x"
share:
  session_ttl: "seven days"
assets:
  secret: "y"
  dir: "/tmp/objects"
`)

	if _, err := Load(path); err == nil {
		t.Error("malformed duration should fail")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/doku.yaml"); err == nil {
		t.Error("missing file should fail")
	}
}
