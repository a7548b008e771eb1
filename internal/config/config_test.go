package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"PORT", "FACE_API_URL", "FACE_API_KEY", "FACE_API_TIMEOUT_MS", "FACEMASK_AUDIT_DB"} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Addr)
	}
	p := cfg.Proxy()
	if p.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", p.Timeout)
	}
	if p.Complete() {
		t.Error("Expected incomplete proxy config without URL and key")
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "facemask.yaml")
	content := "addr: \":9000\"\nupstream_url: http://file/detect\napi_key: from-file\ntimeout_ms: 2500\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Addr != ":9000" || cfg.UpstreamURL != "http://file/detect" || cfg.APIKey != "from-file" {
		t.Errorf("File values not applied: %+v", cfg)
	}
	if cfg.Proxy().Timeout != 2500*time.Millisecond {
		t.Errorf("Timeout = %v, want 2.5s", cfg.Proxy().Timeout)
	}

	t.Setenv("FACE_API_KEY", "from-env")
	t.Setenv("PORT", "7000")
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.APIKey != "from-env" || cfg.Addr != ":7000" {
		t.Errorf("Env did not override file: %+v", cfg)
	}
	if !cfg.Proxy().Complete() {
		t.Error("Expected complete proxy config")
	}
}

func TestLoad_BadTimeoutFallsBack(t *testing.T) {
	for _, v := range []string{"abc", "0", "-5"} {
		clearEnv(t)
		t.Setenv("FACE_API_TIMEOUT_MS", v)
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.Proxy().Timeout != DefaultTimeout {
			t.Errorf("FACE_API_TIMEOUT_MS=%q gave %v, want default", v, cfg.Proxy().Timeout)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected an error for a missing config file")
	}
}
