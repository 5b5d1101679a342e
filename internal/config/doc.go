// Package config provides the configuration system for lispterm.
//
// # Architecture
//
// Configuration is organized in layers with higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  4. Command Line Flags      │  ← Highest priority (Config.Set)
//	├─────────────────────────────┤
//	│  3. Environment Variables   │  ← LISPTERM_*
//	├─────────────────────────────┤
//	│  2. Config File             │  ← ~/.config/lispterm/config.toml (or -config)
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// # Sub-packages
//
//   - loader: TOML, YAML and environment variable sources
//   - layer: Layer stack and merging
//   - watcher: fsnotify file watching for live reload
//   - notify: Change notification
//
// # Basic Usage
//
//	cfg := config.New(config.WithFile(path))
//	if err := cfg.Load(ctx); err != nil {
//	    return err
//	}
//	display := cfg.Display()
//	fmt.Println(display.Width, display.Foreground)
//
// # Configuration Files
//
// The format follows the file extension:
//
//	# config.toml
//	[display]
//	foreground = "#33ff33"
//	background = "black"
//
//	[repl]
//	evaluator = "lua"
//	prompt = "lua> "
//
// When live reload is enabled, edits to the file are merged in and every
// changed setting is reported to subscribers:
//
//	cfg.SubscribePath("display", func(c notify.Change) { ... })
package config
