package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv(TokenEnv, "")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.PageSize != 10 || cfg.Listen != Default().Listen {
		t.Errorf("Expected defaults, got %+v", cfg)
	}
}

func TestLoad_YAML(t *testing.T) {
	t.Setenv(TokenEnv, "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "listen: 0.0.0.0:9000\npage_size: 25\nadmin_token: s3cret\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Listen != "0.0.0.0:9000" || cfg.PageSize != 25 || cfg.AdminToken != "s3cret" {
		t.Errorf("Unexpected config: %+v", cfg)
	}
	if cfg.EventPingSec != 30 {
		t.Errorf("Expected unset fields to keep defaults, got %d", cfg.EventPingSec)
	}
}

func TestLoad_TOML(t *testing.T) {
	t.Setenv(TokenEnv, "")
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "page_size = 5\napi_addr = \"http://desk:7480\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.PageSize != 5 || cfg.APIAddr != "http://desk:7480" {
		t.Errorf("Unexpected config: %+v", cfg)
	}
}

func TestLoad_EnvTokenOverrides(t *testing.T) {
	t.Setenv(TokenEnv, "from-env")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AdminToken != "from-env" {
		t.Errorf("Expected env token, got %q", cfg.AdminToken)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv(TokenEnv, "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("page_size: 0\n"), 0o600)
	if _, err := Load(path); err == nil {
		t.Error("Expected validation error for page_size 0")
	}

	os.WriteFile(path, []byte("listen: [\n"), 0o600)
	if _, err := Load(path); err == nil {
		t.Error("Expected parse error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv(TokenEnv, "")
	dir := t.TempDir()
	for _, name := range []string{"out.yaml", "out.toml"} {
		path := filepath.Join(dir, "nested", name)
		cfg := Default()
		cfg.PageSize = 42

		if err := Save(path, cfg); err != nil {
			t.Fatalf("Save(%s) failed: %v", name, err)
		}
		got, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%s) failed: %v", name, err)
		}
		if got.PageSize != 42 {
			t.Errorf("%s: expected page size 42, got %d", name, got.PageSize)
		}
	}

	if err := Save(filepath.Join(dir, "x.yaml"), nil); err == nil {
		t.Error("Expected error saving nil config")
	}
}
