package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dshills/lispterm/internal/renderer/core"
)

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "lispterm.toml")
	data := "[repl]\nevaluator = \"lua\"\n\n[display]\nwidth = 40\nforeground = \"red\"\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(options{configPath: path, width: 60, bg: "#000080"})
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	defer cfg.Close()

	if got := cfg.Repl().Evaluator; got != "lua" {
		t.Errorf("expected evaluator from file, got %q", got)
	}
	d := cfg.Display()
	if d.Width != 60 {
		t.Errorf("expected flag width 60, got %d", d.Width)
	}
	if !d.Foreground.Equals(core.ColorRed) {
		t.Errorf("expected red foreground from file, got %s", d.Foreground)
	}
	if !d.Background.Equals(core.ColorFromRGB(0, 0, 0x80)) {
		t.Errorf("expected navy background from flag, got %s", d.Background)
	}
}

func TestLoadConfigRejectsBadFlag(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if _, err := loadConfig(options{evaluator: "cobol"}); err == nil {
		t.Error("expected error for unknown evaluator")
	}
	if _, err := loadConfig(options{fg: "not-a-color"}); err == nil {
		t.Error("expected error for bad color")
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if _, err := loadConfig(options{configPath: filepath.Join(t.TempDir(), "none.toml")}); err == nil {
		t.Error("expected error for missing config file")
	}
}
