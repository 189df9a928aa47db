package check

// Context is the authoring API handed to a plugin while it is loaded.
//
// Every plugin file and every compiled-in Plugin gets its own Context. The
// registries it writes to are shared by all plugins; free variables set with
// Set stay private to the context unless the user overrides them through the
// daemon configuration.
type Context interface {
	// DeclareCheck registers a check under its dotted name.
	DeclareCheck(name string, decl RawDeclaration)

	// AddCheckIncludes appends include files required by a section.
	AddCheckIncludes(section string, includes ...string)

	// SetDefaultLevelsVariable names the default levels variable of a legacy
	// declaration.
	SetDefaultLevelsVariable(checkName, variable string)

	// SetFactorySettings sets the plugin author defaults for a variable.
	SetFactorySettings(variable string, value map[string]any)

	// SetSNMPInfo sets the SNMP fetch descriptor for a check or section.
	SetSNMPInfo(name string, info SNMPInfo)

	// SetSNMPScanFunction sets the SNMP detection predicate for a check or section.
	SetSNMPScanFunction(name string, fn ScanFunction)

	// DeclareActiveCheck registers the descriptor of an active check.
	DeclareActiveCheck(name string, d Descriptor)

	// DeclareSpecialAgent registers the descriptor of a special agent.
	DeclareSpecialAgent(name string, d Descriptor)

	// Set assigns a free variable in the context namespace.
	Set(name string, value any)

	// Get returns a variable of the context namespace.
	Get(name string) (any, bool)

	// Functions returns the function table used to resolve function names.
	Functions() *FunctionTable
}

// Plugin is a check plugin compiled into the daemon. Plugins are listed in an
// explicit manifest and registered after the plugin files on disk; a plugin
// file with the same basename as Name shadows the compiled-in plugin.
type Plugin interface {
	Name() string
	Register(ctx Context) error
}
