package check

import (
	"errors"
	"fmt"
	"maps"
	"sort"
	"sync"
)

// State is the monitoring state of a service.
type State int

const (
	OK State = iota
	WARN
	CRIT
	UNKNOWN
)

func (s State) String() string {
	switch s {
	case OK:
		return "OK"
	case WARN:
		return "WARN"
	case CRIT:
		return "CRIT"
	default:
		return "UNKNOWN"
	}
}

// Metric is one performance value reported by a check.
type Metric struct {
	Name  string
	Value float64
	Warn  float64
	Crit  float64
}

// Result is the outcome of one check function call.
type Result struct {
	State   State
	Summary string
	Metrics []Metric
}

// Discovered is one service proposed by a discovery function.
type Discovered struct {
	// Item identifies the service instance. Nil for checks without item.
	Item *string

	// Params are the discovery time parameters stored with the service.
	Params any
}

// CheckFunction computes the result for one item from the effective
// parameters and the parsed section.
type CheckFunction func(item *string, params any, section any) Result

// DiscoveryFunction proposes the services of a host from the parsed section.
type DiscoveryFunction func(section any) []Discovered

// ParseFunction turns the raw agent or SNMP lines into a section.
type ParseFunction func(info [][]string) any

// ScanFunction decides from single OID values whether an SNMP device supports
// a section. The oid callback returns an empty string for missing OIDs.
type ScanFunction func(oid func(string) string) bool

// ErrEmptyFunctionName is returned when registering a function without name.
var ErrEmptyFunctionName = errors.New("function name cannot be empty")

// ErrNilFunction is returned when registering a nil function.
var ErrNilFunction = errors.New("function cannot be nil")

// ErrDuplicateFunction is returned when a name is already registered for the
// same kind of function.
var ErrDuplicateFunction = errors.New("function is already registered")

// FunctionTable maps the function names used in plugin files to Go functions.
// Compiled-in plugin packages fill DefaultFunctions from their init functions;
// function providers add their remote functions at startup.
type FunctionTable struct {
	mu        sync.RWMutex
	checks    map[string]CheckFunction
	discovery map[string]DiscoveryFunction
	parse     map[string]ParseFunction
	scan      map[string]ScanFunction
}

// DefaultFunctions is the function table used by the daemon.
var DefaultFunctions = NewFunctionTable()

// NewFunctionTable creates an empty function table. Mostly useful for tests
// that need an isolated table.
func NewFunctionTable() *FunctionTable {
	return &FunctionTable{
		checks:    make(map[string]CheckFunction),
		discovery: make(map[string]DiscoveryFunction),
		parse:     make(map[string]ParseFunction),
		scan:      make(map[string]ScanFunction),
	}
}

func register[F any](mu *sync.RWMutex, table map[string]F, kind, name string, fn F, isNil bool) error {
	if name == "" {
		return ErrEmptyFunctionName
	}
	if isNil {
		return fmt.Errorf("%w: %s function %q", ErrNilFunction, kind, name)
	}

	mu.Lock()
	defer mu.Unlock()

	if _, exists := table[name]; exists {
		return fmt.Errorf("%w: %s function %q", ErrDuplicateFunction, kind, name)
	}
	table[name] = fn
	return nil
}

func lookup[F any](mu *sync.RWMutex, table map[string]F, name string) (F, bool) {
	mu.RLock()
	defer mu.RUnlock()
	fn, ok := table[name]
	return fn, ok
}

func conflicts[F any](dst, src map[string]F, kind string) error {
	for name := range src {
		if _, exists := dst[name]; exists {
			return fmt.Errorf("%w: %s function %q", ErrDuplicateFunction, kind, name)
		}
	}
	return nil
}

// RegisterAll adds every function of other to t. Nothing is added when one
// of the names is already taken.
func (t *FunctionTable) RegisterAll(other *FunctionTable) error {
	if t == other {
		return nil
	}
	other.mu.RLock()
	defer other.mu.RUnlock()
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := errors.Join(
		conflicts(t.checks, other.checks, "check"),
		conflicts(t.discovery, other.discovery, "discovery"),
		conflicts(t.parse, other.parse, "parse"),
		conflicts(t.scan, other.scan, "scan"),
	); err != nil {
		return err
	}
	maps.Copy(t.checks, other.checks)
	maps.Copy(t.discovery, other.discovery)
	maps.Copy(t.parse, other.parse)
	maps.Copy(t.scan, other.scan)
	return nil
}

// RegisterCheck adds a check function under name.
func (t *FunctionTable) RegisterCheck(name string, fn CheckFunction) error {
	return register(&t.mu, t.checks, "check", name, fn, fn == nil)
}

// RegisterDiscovery adds a discovery function under name.
func (t *FunctionTable) RegisterDiscovery(name string, fn DiscoveryFunction) error {
	return register(&t.mu, t.discovery, "discovery", name, fn, fn == nil)
}

// RegisterParse adds a parse function under name.
func (t *FunctionTable) RegisterParse(name string, fn ParseFunction) error {
	return register(&t.mu, t.parse, "parse", name, fn, fn == nil)
}

// RegisterScan adds an SNMP scan function under name.
func (t *FunctionTable) RegisterScan(name string, fn ScanFunction) error {
	return register(&t.mu, t.scan, "scan", name, fn, fn == nil)
}

// MustRegisterCheck is RegisterCheck for init functions; it panics on error.
func (t *FunctionTable) MustRegisterCheck(name string, fn CheckFunction) {
	if err := t.RegisterCheck(name, fn); err != nil {
		panic(fmt.Sprintf("function registration failed: %v", err))
	}
}

// MustRegisterDiscovery is RegisterDiscovery for init functions; it panics on error.
func (t *FunctionTable) MustRegisterDiscovery(name string, fn DiscoveryFunction) {
	if err := t.RegisterDiscovery(name, fn); err != nil {
		panic(fmt.Sprintf("function registration failed: %v", err))
	}
}

// MustRegisterParse is RegisterParse for init functions; it panics on error.
func (t *FunctionTable) MustRegisterParse(name string, fn ParseFunction) {
	if err := t.RegisterParse(name, fn); err != nil {
		panic(fmt.Sprintf("function registration failed: %v", err))
	}
}

// MustRegisterScan is RegisterScan for init functions; it panics on error.
func (t *FunctionTable) MustRegisterScan(name string, fn ScanFunction) {
	if err := t.RegisterScan(name, fn); err != nil {
		panic(fmt.Sprintf("function registration failed: %v", err))
	}
}

// Check returns the check function registered under name.
func (t *FunctionTable) Check(name string) (CheckFunction, bool) {
	return lookup(&t.mu, t.checks, name)
}

// Discovery returns the discovery function registered under name.
func (t *FunctionTable) Discovery(name string) (DiscoveryFunction, bool) {
	return lookup(&t.mu, t.discovery, name)
}

// Parse returns the parse function registered under name.
func (t *FunctionTable) Parse(name string) (ParseFunction, bool) {
	return lookup(&t.mu, t.parse, name)
}

// Scan returns the scan function registered under name.
func (t *FunctionTable) Scan(name string) (ScanFunction, bool) {
	return lookup(&t.mu, t.scan, name)
}

func sortedNames[F any](mu *sync.RWMutex, table map[string]F) []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckNames returns the sorted names of all registered check functions.
func (t *FunctionTable) CheckNames() []string {
	return sortedNames(&t.mu, t.checks)
}

// DiscoveryNames returns the sorted names of all registered discovery functions.
func (t *FunctionTable) DiscoveryNames() []string {
	return sortedNames(&t.mu, t.discovery)
}
