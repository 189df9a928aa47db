// Package plugin loads check plugins from the checks directories, from the
// compiled-in manifest and from function provider executables.
package plugin

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"chk.szuro.net/internal/logger"
	"chk.szuro.net/internal/registry"
	"chk.szuro.net/pkg/check"
)

// Options controls where plugins are found and how errors are handled.
type Options struct {
	// Debug makes the first broken plugin or include file abort the load.
	Debug bool

	// LocalDir holds local plugins; they shadow shipped plugins of the same
	// file name.
	LocalDir string

	// ShippedDir holds the plugins shipped with the daemon.
	ShippedDir string
}

// Loader populates a Registry. A Loader is used for one load only.
type Loader struct {
	opts     Options
	registry *registry.Registry

	loaded   map[string]struct{}
	contexts []*registry.Context
	failed   []string
}

func NewLoader(reg *registry.Registry, opts Options) *Loader {
	return &Loader{
		opts:     opts,
		registry: reg,
		loaded:   make(map[string]struct{}),
	}
}

// Load reads the local and the shipped plugin directories, then the
// compiled-in plugins, and freezes the registry.
func (l *Loader) Load(builtins []check.Plugin) (*registry.Snapshot, error) {
	paths := PluginPaths(l.opts.LocalDir, l.opts.ShippedDir)
	if err := l.LoadChecks(paths); err != nil {
		return nil, err
	}
	if err := l.LoadBuiltins(builtins); err != nil {
		return nil, err
	}
	return l.Finish()
}

// Finish freezes the registry into a snapshot.
func (l *Loader) Finish() (*registry.Snapshot, error) {
	snap, err := l.registry.Freeze()
	if err != nil {
		return nil, fmt.Errorf("failed to finalize check plugins: %w", err)
	}
	checksRegistered.Set(float64(snap.Len()))
	logger.Info("Loaded check plugins",
		slog.Int("files", len(l.loaded)),
		slog.Int("failed", len(l.failed)),
		slog.Int("checks", snap.Len()))
	return snap, nil
}

// LoadChecks loads plugin files in order. The first file of a name wins;
// files that failed to load do not count, so a broken local file falls back
// to the shipped one.
func (l *Loader) LoadChecks(paths []string) error {
	for _, path := range paths {
		name := filepath.Base(path)
		if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") {
			continue
		}
		if _, ok := l.loaded[name]; ok {
			logger.Debug("Skipping shadowed plugin file", slog.String("path", path))
			continue
		}

		if err := l.loadFile(path); err != nil {
			filesFailed.Inc()
			l.failed = append(l.failed, fmt.Sprintf("%s: %v", path, err))
			logger.Error("Error in plugin file", slog.String("path", path), slog.Any("error", err))
			if l.opts.Debug {
				return err
			}
			continue
		}
		filesLoaded.Inc()
		l.loaded[name] = struct{}{}
	}

	if len(l.failed) > 0 {
		logger.Warn("Failed to load some plugin files", slog.String("errors", strings.Join(l.failed, "; ")))
	}
	return nil
}

func (l *Loader) loadFile(path string) error {
	includes, err := IncludesOf(path)
	if err != nil {
		return err
	}

	doc, err := ReadDocument(path, l.registry.Functions())
	if err != nil {
		return err
	}

	ctx := l.registry.NewContext(filepath.Base(path))
	for _, include := range includes {
		includePath := l.opts.IncludePath(include)
		inc, err := ReadDocument(includePath, l.registry.Functions())
		if err != nil {
			logger.Error("Error in check include file", slog.String("path", includePath), slog.Any("error", err))
			if l.opts.Debug {
				return err
			}
			continue
		}
		inc.Apply(ctx)
	}
	doc.Apply(ctx)

	l.adopt(ctx)
	return nil
}

// LoadBuiltins registers the compiled-in plugins. A plugin file with the same
// name as a plugin shadows it.
func (l *Loader) LoadBuiltins(plugins []check.Plugin) error {
	for _, p := range plugins {
		name := p.Name()
		if _, ok := l.loaded[name]; ok {
			logger.Info("Compiled-in plugin shadowed by plugin file", slog.String("plugin", name))
			continue
		}

		ctx := l.registry.NewContext(name)
		if err := p.Register(ctx); err != nil {
			filesFailed.Inc()
			l.failed = append(l.failed, fmt.Sprintf("%s: %v", name, err))
			logger.Error("Error in compiled-in plugin", slog.String("plugin", name), slog.Any("error", err))
			if l.opts.Debug {
				return fmt.Errorf("plugin %s: %w", name, err)
			}
			continue
		}
		l.adopt(ctx)
		l.loaded[name] = struct{}{}
	}
	return nil
}

func (l *Loader) adopt(ctx *registry.Context) {
	checks := l.registry.Adopt(ctx)
	l.contexts = append(l.contexts, ctx)
	logger.Debug("Loaded plugin",
		slog.String("source", ctx.Source()),
		slog.String("checks", strings.Join(checks, ",")))
}

// Contexts returns the contexts of all loaded plugins in load order.
func (l *Loader) Contexts() []*registry.Context {
	return l.contexts
}

// Failed returns the errors of the plugins that were skipped.
func (l *Loader) Failed() []string {
	return l.failed
}
