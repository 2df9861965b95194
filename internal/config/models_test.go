package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestManagerDefaultsWhenFileMissing(t *testing.T) {
	mgr, err := NewManager(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	cfg := mgr.Get()
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.Output.Scale != 1 {
		t.Errorf("Output.Scale = %d, want 1", cfg.Output.Scale)
	}
	if cfg.Blur.Radius != 0 {
		t.Errorf("Blur.Radius = %d, want 0 (derived)", cfg.Blur.Radius)
	}
}

func TestManagerLoadsYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`log_level: debug
backend: x11
blur:
  radius: 64
  workers: 3
output:
  name: DP-1
  width: 2560
  height: 1440
  scale: 2
`)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	mgr, err := NewManager(path)
	if err != nil {
		t.Fatal(err)
	}

	cfg := mgr.Get()
	if cfg.LogLevel != "debug" || cfg.Backend != "x11" {
		t.Errorf("got log_level=%q backend=%q", cfg.LogLevel, cfg.Backend)
	}
	if cfg.Blur.Radius != 64 || cfg.Blur.Workers != 3 {
		t.Errorf("blur = %+v, want radius 64 workers 3", cfg.Blur)
	}
	if cfg.Output.Name != "DP-1" || cfg.Output.Scale != 2 {
		t.Errorf("output = %+v", cfg.Output)
	}
}

func TestManagerSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	mgr, err := NewManager(path)
	if err != nil {
		t.Fatal(err)
	}
	mgr.SetLogLevel("warn")
	mgr.SetBackend("portal")
	mgr.SetBlur(BlurConfig{Radius: 16, Workers: 2})
	if err := mgr.Save(); err != nil {
		t.Fatal(err)
	}

	reloaded, err := NewManager(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg := reloaded.Get()
	if cfg.LogLevel != "warn" || cfg.Backend != "portal" || cfg.Blur.Radius != 16 {
		t.Errorf("round trip lost values: %+v", cfg)
	}
}
