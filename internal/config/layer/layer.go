// Package layer stacks configuration sources by priority.
//
// Each source (built-in defaults, the config file, the environment,
// command-line flags) is one Layer. The Manager merges them lowest
// priority first so later sources override earlier ones.
package layer

import (
	"github.com/dshills/lispterm/internal/config/loader"
)

// Layer represents a single configuration layer.
type Layer struct {
	// Name identifies the layer (e.g., "defaults", "file").
	Name string

	// Priority determines merge order (higher overrides lower).
	Priority int

	// Source indicates where this layer was loaded from.
	Source Source

	// Path is the file path (if loaded from file).
	Path string

	// Data holds the configuration values as a nested map.
	Data map[string]any
}

// NewLayer creates an empty layer with the standard name and priority
// for source.
func NewLayer(source Source) *Layer {
	return NewLayerWithData(source, make(map[string]any))
}

// NewLayerWithData creates a layer for source holding data.
func NewLayerWithData(source Source, data map[string]any) *Layer {
	return &Layer{
		Name:     source.String(),
		Source:   source,
		Priority: source.Priority(),
		Data:     data,
	}
}

// Clone creates a deep copy of the layer.
func (l *Layer) Clone() *Layer {
	return &Layer{
		Name:     l.Name,
		Priority: l.Priority,
		Source:   l.Source,
		Path:     l.Path,
		Data:     loader.Clone(l.Data),
	}
}

// Source indicates where a configuration layer came from.
type Source uint8

const (
	// SourceBuiltin represents built-in default configuration.
	SourceBuiltin Source = iota
	// SourceFile represents the TOML or YAML configuration file.
	SourceFile
	// SourceEnv represents LISPTERM_* environment variables.
	SourceEnv
	// SourceArgs represents command-line flags.
	SourceArgs
)

// Standard priority levels. Higher values override lower values.
const (
	PriorityBuiltin = 0
	PriorityFile    = 100
	PriorityEnv     = 500
	PriorityArgs    = 600
)

// String returns the standard layer name for the source.
func (s Source) String() string {
	switch s {
	case SourceBuiltin:
		return "defaults"
	case SourceFile:
		return "file"
	case SourceEnv:
		return "environment"
	case SourceArgs:
		return "arguments"
	default:
		return "unknown"
	}
}

// Priority returns the default priority for the source.
func (s Source) Priority() int {
	switch s {
	case SourceFile:
		return PriorityFile
	case SourceEnv:
		return PriorityEnv
	case SourceArgs:
		return PriorityArgs
	default:
		return PriorityBuiltin
	}
}
