package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWithSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StoreDriver != "json" || cfg.Port != "5000" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.AccessTTLSeconds != 86400 {
		t.Fatalf("expected 24h ttl, got %d", cfg.AccessTTLSeconds)
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("STORE_DRIVER", "json")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected missing secret error")
	}
}

func TestLoadYAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("port: \"8081\"\nstore_driver: sqlite\nstore_path: /tmp/hostel.db\njwt_secret: from-file\ncors_origins:\n  - http://a.test\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ORIGINS", "http://b.test, http://c.test")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("env should override file port, got %s", cfg.Port)
	}
	if cfg.StoreDriver != "sqlite" || cfg.StorePath != "/tmp/hostel.db" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.JWTSecret != "from-file" {
		t.Fatalf("expected secret from file, got %q", cfg.JWTSecret)
	}
	if len(cfg.CorsOrigins) != 2 || cfg.CorsOrigins[1] != "http://c.test" {
		t.Fatalf("unexpected origins %v", cfg.CorsOrigins)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"memory without secret", func(c *Config) { c.StoreDriver = "memory" }, true},
		{"unknown driver", func(c *Config) { c.StoreDriver = "mongo"; c.JWTSecret = "x" }, false},
		{"postgres without url", func(c *Config) { c.StoreDriver = "postgres"; c.JWTSecret = "x" }, false},
		{"s3 without bucket", func(c *Config) { c.JWTSecret = "x"; c.BackupDriver = "s3" }, false},
		{"bad ttl", func(c *Config) { c.JWTSecret = "x"; c.AccessTTLSeconds = 0 }, false},
		{"ok", func(c *Config) { c.JWTSecret = "x" }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestEnvHelpersFallback(t *testing.T) {
	t.Setenv("HOSTEL_TEST_INT", "abc")
	if got := envOrInt("HOSTEL_TEST_INT", 7); got != 7 {
		t.Fatalf("expected fallback, got %d", got)
	}
	t.Setenv("HOSTEL_TEST_BOOL", "nope")
	if got := envOrBool("HOSTEL_TEST_BOOL", true); !got {
		t.Fatalf("expected fallback true")
	}
	if items := parseCSV(" , "); len(items) != 0 {
		t.Fatalf("expected empty list, got %v", items)
	}
}
