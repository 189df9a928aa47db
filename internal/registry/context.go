package registry

import (
	"sort"

	"chk.szuro.net/pkg/check"
)

// Context is the namespace of one loaded plugin file. It implements
// check.Context; registry writes go to the shared Registry while free
// variables stay in the context.
type Context struct {
	registry *Registry
	source   string
	vars     map[string]any

	// baseline holds the variable names present before anything was loaded.
	baseline map[string]struct{}

	// known holds the checks registered before the context was created.
	known map[string]struct{}
}

var _ check.Context = (*Context)(nil)

// apiVariables returns the names every context starts with: the shared
// registries and the constants of the authoring API.
func apiVariables(r *Registry) map[string]any {
	return map[string]any{
		"check_info":              r.Checks,
		"check_includes":          r.CheckIncludes,
		"check_default_levels":    r.DefaultLevels,
		"factory_settings":        r.FactorySettings,
		"snmp_info":               r.SNMPInfo,
		"snmp_scan_functions":     r.SNMPScanFunctions,
		"active_check_info":       r.ActiveChecks,
		"special_agent_info":      r.SpecialAgents,
		"host_precedence":         check.HostPrecedence,
		"host_only":               check.HostOnly,
		"mgmt_only":               check.MgmtOnly,
		check.NoDiscoveryPossible: check.NoDiscoveryPossible,
	}
}

// Source returns the file or plugin name the context was created for.
func (c *Context) Source() string {
	return c.source
}

func (c *Context) DeclareCheck(name string, decl check.RawDeclaration) {
	c.registry.Checks[name] = decl
}

func (c *Context) AddCheckIncludes(section string, includes ...string) {
	c.registry.CheckIncludes[section] = append(c.registry.CheckIncludes[section], includes...)
}

func (c *Context) SetDefaultLevelsVariable(checkName, variable string) {
	c.registry.DefaultLevels[checkName] = variable
}

func (c *Context) SetFactorySettings(variable string, value map[string]any) {
	c.registry.FactorySettings[variable] = value
}

func (c *Context) SetSNMPInfo(name string, info check.SNMPInfo) {
	c.registry.SNMPInfo[name] = info
}

func (c *Context) SetSNMPScanFunction(name string, fn check.ScanFunction) {
	c.registry.SNMPScanFunctions[name] = fn
}

func (c *Context) DeclareActiveCheck(name string, d check.Descriptor) {
	c.registry.ActiveChecks[name] = d
}

func (c *Context) DeclareSpecialAgent(name string, d check.Descriptor) {
	c.registry.SpecialAgents[name] = d
}

func (c *Context) Set(name string, value any) {
	c.vars[name] = value
}

func (c *Context) Get(name string) (any, bool) {
	v, ok := c.vars[name]
	return v, ok
}

func (c *Context) Functions() *check.FunctionTable {
	return c.registry.functions
}

// NewChecks returns the sorted names of the checks registered since the
// context was created.
func (c *Context) NewChecks() []string {
	var names []string
	for name := range c.registry.Checks {
		if _, ok := c.known[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Introduced returns the sorted names of the variables the plugin file set.
func (c *Context) Introduced() []string {
	var names []string
	for name := range c.vars {
		if _, ok := c.baseline[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
