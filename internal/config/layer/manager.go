package layer

import (
	"sort"
	"sync"

	"github.com/dshills/lispterm/internal/config/loader"
)

// Manager manages configuration layers and provides merged access.
type Manager struct {
	mu     sync.RWMutex
	layers []*Layer       // sorted by priority (ascending)
	merged map[string]any // cached merged result
	dirty  bool
}

// NewManager creates a new layer manager.
func NewManager() *Manager {
	return &Manager{dirty: true}
}

// AddLayer adds a layer, replacing any existing layer with the same name.
func (m *Manager) AddLayer(layer *Layer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.removeLocked(layer.Name)
	m.layers = append(m.layers, layer)
	sort.SliceStable(m.layers, func(i, j int) bool {
		return m.layers[i].Priority < m.layers[j].Priority
	})
	m.dirty = true
}

// RemoveLayer removes a layer by name.
// Returns true if the layer was found and removed.
func (m *Manager) RemoveLayer(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.removeLocked(name)
}

func (m *Manager) removeLocked(name string) bool {
	for i, layer := range m.layers {
		if layer.Name == name {
			m.layers = append(m.layers[:i], m.layers[i+1:]...)
			m.dirty = true
			return true
		}
	}
	return false
}

// GetLayer returns a layer by name.
func (m *Manager) GetLayer(name string) *Layer {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, layer := range m.layers {
		if layer.Name == name {
			return layer
		}
	}
	return nil
}

// Layers returns a copy of all layers sorted by priority.
func (m *Manager) Layers() []*Layer {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Layer, len(m.layers))
	copy(result, m.layers)
	return result
}

// Set sets path in the named layer, creating the layer from its source
// when missing.
func (m *Manager) Set(source Source, path string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var target *Layer
	for _, layer := range m.layers {
		if layer.Name == source.String() {
			target = layer
			break
		}
	}
	if target == nil {
		target = NewLayer(source)
		m.layers = append(m.layers, target)
		sort.SliceStable(m.layers, func(i, j int) bool {
			return m.layers[i].Priority < m.layers[j].Priority
		})
	}
	SetByPath(target.Data, path, value)
	m.dirty = true
}

// Merge combines all layers into a single configuration map.
// Results are cached until a layer changes.
func (m *Manager) Merge() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.dirty && m.merged != nil {
		return loader.Clone(m.merged)
	}

	result := make(map[string]any)
	for _, layer := range m.layers {
		result = loader.DeepMerge(result, loader.Clone(layer.Data))
	}

	m.merged = result
	m.dirty = false

	return loader.Clone(result)
}

// WhichLayer returns the name of the highest layer defining path.
func (m *Manager) WhichLayer(path string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.layers) - 1; i >= 0; i-- {
		if _, ok := GetByPath(m.layers[i].Data, path); ok {
			return m.layers[i].Name
		}
	}
	return ""
}
