// Package registry holds the shared registries that check plugins populate
// while they are loaded, and turns them into an immutable Snapshot.
package registry

import (
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"

	"chk.szuro.net/internal/logger"
	"chk.szuro.net/pkg/check"
)

// Registry is written by plugins during loading only. It is not safe for
// concurrent use; once loading is finished it is frozen into a Snapshot.
type Registry struct {
	Checks            map[string]check.RawDeclaration
	CheckIncludes     map[string][]string
	DefaultLevels     map[string]string
	FactorySettings   map[string]map[string]any
	SNMPInfo          map[string]check.SNMPInfo
	SNMPScanFunctions map[string]check.ScanFunction
	ActiveChecks      map[string]check.Descriptor
	SpecialAgents     map[string]check.Descriptor

	functions *check.FunctionTable

	// contexts maps each check to the context of the file that declared it.
	contexts map[string]*Context

	// owners maps a check variable to the checks whose contexts use it.
	owners    map[string][]string
	defaults  map[string]any
	overrides map[string]any

	frozen bool
}

// New creates an empty registry resolving function names in functions.
func New(functions *check.FunctionTable) *Registry {
	if functions == nil {
		functions = check.DefaultFunctions
	}
	return &Registry{
		Checks:            make(map[string]check.RawDeclaration),
		CheckIncludes:     make(map[string][]string),
		DefaultLevels:     make(map[string]string),
		FactorySettings:   make(map[string]map[string]any),
		SNMPInfo:          make(map[string]check.SNMPInfo),
		SNMPScanFunctions: make(map[string]check.ScanFunction),
		ActiveChecks:      make(map[string]check.Descriptor),
		SpecialAgents:     make(map[string]check.Descriptor),
		functions:         functions,
		contexts:          make(map[string]*Context),
		owners:            make(map[string][]string),
		defaults:          make(map[string]any),
		overrides:         make(map[string]any),
	}
}

// Functions returns the function table of the registry.
func (r *Registry) Functions() *check.FunctionTable {
	return r.functions
}

// NewContext creates the namespace for one plugin file. The checks already
// registered are remembered so Adopt can tell which ones the file added.
func (r *Registry) NewContext(source string) *Context {
	ctx := &Context{
		registry: r,
		source:   source,
		vars:     apiVariables(r),
		known:    make(map[string]struct{}, len(r.Checks)),
	}
	for name := range r.Checks {
		ctx.known[name] = struct{}{}
	}
	ctx.baseline = make(map[string]struct{}, len(ctx.vars))
	for name := range ctx.vars {
		ctx.baseline[name] = struct{}{}
	}
	return ctx
}

// Adopt records the checks and variables a successfully loaded context
// introduced. Every introduced variable becomes owned by every check of the
// same file, so a later SetCheckVariable reaches that context. The default
// levels variable of a new check counts as introduced; unless the file sets
// it, its value is taken from the factory settings.
func (r *Registry) Adopt(ctx *Context) []string {
	newChecks := ctx.NewChecks()
	for _, name := range newChecks {
		r.contexts[name] = ctx
	}

	introduced := make(map[string]any)
	for name, value := range ctx.vars {
		if _, ok := ctx.baseline[name]; !ok {
			introduced[name] = value
		}
	}

	for _, name := range newChecks {
		varname := r.Checks[name].DefaultLevelsVariable(func() string { return r.DefaultLevels[name] })
		if _, set := introduced[varname]; varname == "" || set {
			continue
		}
		fs, ok := r.FactorySettings[varname]
		if !ok {
			fs = map[string]any{}
		}
		introduced[varname] = fs
	}

	for name, value := range introduced {
		if strings.HasPrefix(name, "_") || isFunction(value) {
			continue
		}
		r.defaults[name] = value
		r.owners[name] = append(r.owners[name], newChecks...)
	}

	logger.Debug("Adopted plugin context",
		slog.String("source", ctx.source),
		slog.Int("checks", len(newChecks)),
		slog.Int("variables", len(introduced)))

	return newChecks
}

func isFunction(v any) bool {
	return v != nil && reflect.TypeOf(v).Kind() == reflect.Func
}

// CheckVariableNames returns the sorted names of all tracked variables.
func (r *Registry) CheckVariableNames() []string {
	return sortedKeys(r.owners)
}

// SetCheckVariable overrides a check variable and injects the value into every
// context that owns it.
func (r *Registry) SetCheckVariable(name string, value any) error {
	owners, ok := r.owners[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownVariable, name)
	}
	r.overrides[name] = value
	for _, checkName := range owners {
		if ctx, ok := r.contexts[checkName]; ok {
			ctx.vars[name] = value
		}
	}
	return nil
}

// CheckVariables returns the current value of every tracked variable: the
// value set in the plugin file, or the override set with SetCheckVariable.
func (r *Registry) CheckVariables() map[string]any {
	vars := make(map[string]any, len(r.defaults))
	for name, value := range r.defaults {
		vars[name] = value
	}
	for name, value := range r.overrides {
		vars[name] = value
	}
	return vars
}

// ContextOf returns the context a check was declared in.
func (r *Registry) ContextOf(checkName string) (*Context, bool) {
	ctx, ok := r.contexts[checkName]
	return ctx, ok
}

// Freeze normalizes the declarations, validates the configuration groups,
// builds the type caches and returns the immutable result.
func (r *Registry) Freeze() (*Snapshot, error) {
	if r.frozen {
		return nil, ErrFrozen
	}
	if err := Normalize(r); err != nil {
		return nil, err
	}
	if err := VerifyCheckgroupMembers(r); err != nil {
		return nil, err
	}
	snap, err := newSnapshot(r)
	if err != nil {
		return nil, err
	}
	r.frozen = true
	return snap, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
