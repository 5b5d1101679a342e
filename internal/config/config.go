package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dshills/lispterm/internal/config/layer"
	"github.com/dshills/lispterm/internal/config/loader"
	"github.com/dshills/lispterm/internal/config/notify"
	"github.com/dshills/lispterm/internal/config/watcher"
)

// Config provides unified access to lispterm configuration: layered
// sources, typed section accessors, live reload of the config file and
// change notification.
type Config struct {
	mu sync.RWMutex

	layers   *layer.Manager
	notifier *notify.Notifier
	watcher  *watcher.Watcher

	fs loader.FileSystem

	// file is the config file path. explicit is set when the path came
	// from the caller, in which case a missing file is an error.
	file     string
	explicit bool

	envPrefix     string
	enableWatcher bool
	onWatchError  func(error)
}

// Option configures a Config instance.
type Option func(*Config)

// WithFile sets the configuration file. The file must exist.
func WithFile(path string) Option {
	return func(c *Config) {
		if path != "" {
			c.file = path
			c.explicit = true
		}
	}
}

// WithFileSystem sets the file system used to read the config file.
func WithFileSystem(fs loader.FileSystem) Option {
	return func(c *Config) {
		c.fs = fs
	}
}

// WithEnvPrefix overrides the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(c *Config) {
		c.envPrefix = prefix
	}
}

// WithWatcher enables file watching for live reload.
func WithWatcher(enable bool) Option {
	return func(c *Config) {
		c.enableWatcher = enable
	}
}

// WithWatchErrorHandler receives errors from the file watcher.
func WithWatchErrorHandler(fn func(error)) Option {
	return func(c *Config) {
		c.onWatchError = fn
	}
}

// New creates a new Config instance with the given options.
func New(opts ...Option) *Config {
	c := &Config{
		layers:    layer.NewManager(),
		notifier:  notify.New(),
		fs:        loader.DefaultFS(),
		envPrefix: loader.EnvPrefix,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.file == "" {
		c.file = DefaultConfigPath()
	}

	c.layers.AddLayer(layer.NewLayerWithData(layer.SourceBuiltin, defaultConfig()))
	return c
}

// Load loads configuration from the file and the environment, then
// starts the watcher if enabled. Flags are applied afterwards with Set.
func (c *Config) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	if err := c.loadFile(); err != nil {
		c.mu.Unlock()
		return err
	}
	if err := c.loadEnvironment(); err != nil {
		c.mu.Unlock()
		return err
	}
	enable := c.enableWatcher && c.watcher == nil
	c.mu.Unlock()

	if err := c.Validate(); err != nil {
		return err
	}

	if enable {
		return c.startWatcher()
	}
	return nil
}

// Close shuts down the configuration system.
func (c *Config) Close() {
	c.mu.Lock()
	w := c.watcher
	c.watcher = nil
	c.mu.Unlock()

	if w != nil {
		w.Stop()
	}
	c.notifier.Close()
}

// File returns the configuration file path in use.
func (c *Config) File() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.file
}

// Get returns the value at the given path from the merged configuration.
func (c *Config) Get(path string) (any, bool) {
	return layer.GetByPath(c.layers.Merge(), path)
}

// GetString returns a string value at the given path.
func (c *Config) GetString(path string) (string, error) {
	v, ok := c.Get(path)
	if !ok {
		return "", ErrSettingNotFound
	}
	s, ok := v.(string)
	if !ok {
		return "", &TypeError{Path: path, Expected: "string", Actual: typeName(v)}
	}
	return s, nil
}

// GetInt returns an integer value at the given path.
func (c *Config) GetInt(path string) (int, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case float64:
		return int(val), nil
	default:
		return 0, &TypeError{Path: path, Expected: "int", Actual: typeName(v)}
	}
}

// GetBool returns a boolean value at the given path.
func (c *Config) GetBool(path string) (bool, error) {
	v, ok := c.Get(path)
	if !ok {
		return false, ErrSettingNotFound
	}
	b, ok := v.(bool)
	if !ok {
		return false, &TypeError{Path: path, Expected: "bool", Actual: typeName(v)}
	}
	return b, nil
}

// GetDuration returns a duration at the given path. Strings are parsed
// with time.ParseDuration; integers are milliseconds.
func (c *Config) GetDuration(path string) (time.Duration, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	switch val := v.(type) {
	case time.Duration:
		return val, nil
	case string:
		d, err := time.ParseDuration(val)
		if err != nil {
			return 0, &TypeError{Path: path, Expected: "duration", Actual: "string"}
		}
		return d, nil
	case int:
		return time.Duration(val) * time.Millisecond, nil
	case int64:
		return time.Duration(val) * time.Millisecond, nil
	default:
		return 0, &TypeError{Path: path, Expected: "duration", Actual: typeName(v)}
	}
}

// Set sets a value in the arguments layer, the highest priority source.
func (c *Config) Set(path string, value any) error {
	if len(splitPath(path)) == 0 {
		return ErrInvalidPath
	}

	oldValue, _ := c.Get(path)
	c.layers.Set(layer.SourceArgs, path, value)
	newValue, _ := c.Get(path)

	c.notifier.NotifySet(path, oldValue, newValue, layer.SourceArgs.String())
	return nil
}

// Subscribe registers an observer for all configuration changes.
func (c *Config) Subscribe(observer notify.Observer) *notify.Subscription {
	return c.notifier.Subscribe(observer)
}

// SubscribePath registers an observer for changes at or below path.
func (c *Config) SubscribePath(path string, observer notify.Observer) *notify.Subscription {
	return c.notifier.SubscribePath(path, observer)
}

// Merged returns the fully merged configuration.
func (c *Config) Merged() map[string]any {
	return c.layers.Merge()
}

// Source returns the name of the layer that supplies path.
func (c *Config) Source(path string) string {
	return c.layers.WhichLayer(path)
}

func (c *Config) loadFile() error {
	if !c.explicit {
		if _, err := c.fs.Stat(c.file); err != nil {
			return nil
		}
	}

	l, err := loader.ForPath(c.fs, c.file)
	if err != nil {
		return err
	}
	data, err := l.Load()
	if err != nil {
		return err
	}
	if data == nil {
		if c.explicit {
			return fmt.Errorf("%w: %s", ErrFileNotFound, c.file)
		}
		return nil
	}

	fileLayer := layer.NewLayerWithData(layer.SourceFile, data)
	fileLayer.Path = c.file
	c.layers.AddLayer(fileLayer)
	return nil
}

func (c *Config) loadEnvironment() error {
	data, err := loader.NewEnvLoader(c.envPrefix).Load()
	if err != nil {
		return err
	}
	if len(data) > 0 {
		c.layers.AddLayer(layer.NewLayerWithData(layer.SourceEnv, data))
	}
	return nil
}

func (c *Config) startWatcher() error {
	w, err := watcher.New(watcher.WithErrorHandler(c.onWatchError))
	if err != nil {
		return fmt.Errorf("starting config watcher: %w", err)
	}
	if err := w.Watch(c.File()); err != nil {
		w.Stop()
		return fmt.Errorf("watching %s: %w", c.File(), err)
	}
	w.OnChange(c.handleFileChange)

	c.mu.Lock()
	c.watcher = w
	c.mu.Unlock()

	w.Start()
	return nil
}

// handleFileChange reloads the file layer and notifies every setting
// whose effective value changed. A file that fails to parse leaves the
// previous values in place.
func (c *Config) handleFileChange(event watcher.Event) {
	before := c.layers.Merge()

	if event.Op == watcher.OpRemove {
		c.layers.RemoveLayer(layer.SourceFile.String())
	} else {
		l, err := loader.ForPath(c.fs, event.Path)
		if err != nil {
			return
		}
		data, err := l.Load()
		if err != nil || data == nil {
			if err != nil && c.onWatchError != nil {
				c.onWatchError(err)
			}
			return
		}
		fileLayer := layer.NewLayerWithData(layer.SourceFile, data)
		fileLayer.Path = event.Path
		c.layers.AddLayer(fileLayer)
	}

	after := c.layers.Merge()
	added, modified, removed := layer.DiffMaps(before, after)

	source := layer.SourceFile.String()
	for _, path := range append(added, modified...) {
		oldValue, _ := layer.GetByPath(before, path)
		newValue, _ := layer.GetByPath(after, path)
		c.notifier.NotifySet(path, oldValue, newValue, source)
	}
	for _, path := range removed {
		oldValue, _ := layer.GetByPath(before, path)
		c.notifier.NotifyDelete(path, oldValue, source)
	}
	c.notifier.NotifyReload(event.Path)
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/lispterm/config.toml or the
// ~/.config equivalent.
func DefaultConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "lispterm", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".lispterm", "config.toml")
	}
	return filepath.Join(home, ".config", "lispterm", "config.toml")
}

// defaultConfig returns the default configuration values.
func defaultConfig() map[string]any {
	return map[string]any{
		"display": map[string]any{
			"width":        0,
			"height":       0,
			"foreground":   "black",
			"background":   "white",
			"tickInterval": "30ms",
			"cursorStyle":  "block",
		},
		"repl": map[string]any{
			"evaluator":          "scheme",
			"prompt":             "> ",
			"continuationPrompt": "..",
			"resultPrefix":       "=> ",
			"indentWidth":        2,
			"evalTimeout":        "5s",
		},
		"logging": map[string]any{
			"level": "info",
			"file":  "",
		},
	}
}

// splitPath splits a dot-separated path into non-empty parts.
func splitPath(path string) []string {
	var parts []string
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '.' {
			if i > start {
				parts = append(parts, path[start:i])
			}
			start = i + 1
		}
	}
	return parts
}

// typeName returns the type name for error messages.
func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	switch v.(type) {
	case string:
		return "string"
	case int, int64:
		return "int"
	case float64:
		return "float64"
	case bool:
		return "bool"
	case time.Duration:
		return "duration"
	case []any:
		return "[]any"
	case map[string]any:
		return "map"
	default:
		return "unknown"
	}
}

// IsNotFound reports whether err means a setting was missing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSettingNotFound)
}
