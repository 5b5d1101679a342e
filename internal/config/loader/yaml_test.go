package loader

import (
	"errors"
	"strings"
	"testing"
)

func TestYAMLLoader_Load(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/lispterm.yaml", `
display:
  height: 30
  background: "#202020"
repl:
  indentWidth: 4
`)

	config, err := NewYAMLLoaderWithFS(memfs, "/lispterm.yaml").Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	display, ok := config["display"].(map[string]any)
	if !ok {
		t.Fatalf("expected display to be a map, got %T", config["display"])
	}
	if display["height"] != 30 {
		t.Errorf("expected height 30, got %v (%T)", display["height"], display["height"])
	}
	if display["background"] != "#202020" {
		t.Errorf("expected background #202020, got %v", display["background"])
	}

	repl := config["repl"].(map[string]any)
	if repl["indentWidth"] != 4 {
		t.Errorf("expected indentWidth 4, got %v", repl["indentWidth"])
	}
}

func TestYAMLLoader_LoadNonExistent(t *testing.T) {
	config, err := NewYAMLLoaderWithFS(NewMemFS(), "/missing.yml").Load()
	if err != nil || config != nil {
		t.Errorf("expected (nil, nil), got (%v, %v)", config, err)
	}
}

func TestYAMLLoader_LoadInvalid(t *testing.T) {
	_, err := NewYAMLLoader("").LoadFromReader(strings.NewReader("display: [unclosed\n"))
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}

	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %T", err)
	}
	if perr.Path != "<reader>" {
		t.Errorf("expected path <reader>, got %q", perr.Path)
	}
}
