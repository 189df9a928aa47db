// Package check provides the public types for writing chk check plugins.
//
// A check plugin is a unit of monitoring logic that maps the raw data collected
// for one aspect of a host (an agent section or an SNMP table) to a state and a
// human readable summary. Plugins are declared either in YAML plugin files that
// live in the shipped or local checks directory, or in Go through the Plugin
// interface and an explicit manifest compiled into the daemon.
//
// Declaring a plugin in Go:
//
//	package mem
//
//	import "chk.szuro.net/pkg/check"
//
//	func init() {
//	    check.DefaultFunctions.MustRegisterCheck("check_mem", checkMem)
//	    check.DefaultFunctions.MustRegisterDiscovery("inventory_mem", inventoryMem)
//	}
//
//	type Plugin struct{}
//
//	func (Plugin) Name() string { return "mem" }
//
//	func (Plugin) Register(ctx check.Context) error {
//	    ctx.SetFactorySettings("mem_default_levels", map[string]any{"levels": []any{80.0, 90.0}})
//	    ctx.DeclareCheck("mem", check.FromDeclaration(&check.Declaration{
//	        CheckFunction:         checkMem,
//	        DiscoveryFunction:     inventoryMem,
//	        ServiceDescription:    "Memory",
//	        Group:                 "memory",
//	        DefaultLevelsVariable: "mem_default_levels",
//	    }))
//	    return nil
//	}
//
// Declaring the same plugin in a YAML plugin file:
//
//	factory_settings:
//	  mem_default_levels:
//	    levels: [80.0, 90.0]
//	check_info:
//	  mem:
//	    check_function: check_mem
//	    inventory_function: inventory_mem
//	    service_description: Memory
//	    group: memory
//	    default_levels_variable: mem_default_levels
package check

import (
	"strings"
)

// ItemPlaceholder marks the position of the item in a service description template.
const ItemPlaceholder = "%s"

// NoDiscoveryPossible is the function name used in plugin files for checks that
// cannot be discovered. It resolves to a nil DiscoveryFunction.
const NoDiscoveryPossible = "no_discovery_possible"

// Keys recognized in a dict style check declaration.
const (
	KeyCheckFunction        = "check_function"
	KeyInventoryFunction    = "inventory_function"
	KeyParseFunction        = "parse_function"
	KeyGroup                = "group"
	KeySNMPInfo             = "snmp_info"
	KeySNMPScanFunction     = "snmp_scan_function"
	KeyHandleEmptyInfo      = "handle_empty_info"
	KeyHandleRealTimeChecks = "handle_real_time_checks"
	KeyDefaultLevelsVar     = "default_levels_variable"
	KeyNodeInfo             = "node_info"
	KeyExtraSections        = "extra_sections"
	KeyServiceDescription   = "service_description"
	KeyHasPerfdata          = "has_perfdata"
	KeyManagementBoard      = "management_board"
	KeyIncludes             = "includes"
)

// Precedence controls whether a check uses data of the host, of its management
// board, or both.
type Precedence string

const (
	// HostPrecedence prefers host data and falls back to the management board.
	HostPrecedence Precedence = "host_precedence"

	// HostOnly uses host data only.
	HostOnly Precedence = "host_only"

	// MgmtOnly uses management board data only.
	MgmtOnly Precedence = "mgmt_only"
)

// SNMPTree describes one table to fetch: a base OID and the columns below it.
type SNMPTree struct {
	Base string   `yaml:"base" json:"base"`
	OIDs []string `yaml:"oids" json:"oids"`
}

// SNMPInfo is the SNMP fetch descriptor of a section. A nil SNMPInfo means the
// section is not fetched via SNMP.
type SNMPInfo []SNMPTree

// Descriptor holds the opaque declaration of an active check or special agent.
type Descriptor map[string]any

// Declaration is the canonical form of a check plugin declaration. Every
// declaration in the registry ends up in this form after normalization.
type Declaration struct {
	// CheckFunction computes the state of one service.
	CheckFunction CheckFunction

	// DiscoveryFunction proposes the items to monitor. Nil if the check
	// cannot be discovered.
	DiscoveryFunction DiscoveryFunction

	// ParseFunction converts the raw section into the structure the check
	// and discovery functions consume. Optional.
	ParseFunction ParseFunction

	// ServiceDescription is the service name template. A "%s" in the template
	// is replaced by the item.
	ServiceDescription string

	// Group is the configuration group (parameter ruleset) of the check.
	// Empty if the check has no configurable parameters.
	Group string

	// SNMPInfo is the SNMP fetch descriptor. Nil for agent based checks.
	SNMPInfo SNMPInfo

	// SNMPScanFunction detects whether a device supports the check.
	SNMPScanFunction ScanFunction

	// HandleEmptyInfo makes the check function run even without data.
	HandleEmptyInfo bool

	// HandleRealTimeChecks enables real time check execution.
	HandleRealTimeChecks bool

	// DefaultLevelsVariable names the factory settings / user default
	// variable that holds the default parameters of the check.
	DefaultLevelsVariable string

	// NodeInfo makes the section carry the cluster node name per line.
	// Must be equal for a section and all of its sub-checks.
	NodeInfo bool

	// ExtraSections lists additional sections passed to the check.
	ExtraSections []string

	// HasPerfdata is set when the check produces metrics.
	HasPerfdata bool

	// ManagementBoard overrides the management board precedence. Empty
	// means HostPrecedence.
	ManagementBoard Precedence

	// Includes lists include files the declaration depends on.
	Includes []string
}

// HasItem reports whether services of this check carry an item.
func (d *Declaration) HasItem() bool {
	return strings.Contains(d.ServiceDescription, ItemPlaceholder)
}

// LegacyDeclaration is the historical positional form
// (check_function, service_description, has_perfdata, discovery_function).
type LegacyDeclaration struct {
	CheckFunction      CheckFunction
	ServiceDescription string

	// HasPerfdata is interpreted by its truthiness.
	HasPerfdata       any
	DiscoveryFunction DiscoveryFunction
}

// RawDeclaration is a declaration as found in the registry before
// normalization. Exactly one of the fields is set.
type RawDeclaration struct {
	Legacy    *LegacyDeclaration
	Dict      map[string]any
	Canonical *Declaration
}

// FromLegacy wraps a positional declaration.
func FromLegacy(l LegacyDeclaration) RawDeclaration {
	return RawDeclaration{Legacy: &l}
}

// FromDict wraps a dict style declaration. Its keys are validated during
// normalization.
func FromDict(m map[string]any) RawDeclaration {
	return RawDeclaration{Dict: m}
}

// FromDeclaration wraps an already canonical declaration.
func FromDeclaration(d *Declaration) RawDeclaration {
	return RawDeclaration{Canonical: d}
}

// DefaultLevelsVariable returns the default levels variable named by the
// declaration, whatever its form. Legacy declarations keep that name in a side
// table, so lookup is consulted for them.
func (r RawDeclaration) DefaultLevelsVariable(lookup func() string) string {
	switch {
	case r.Canonical != nil:
		return r.Canonical.DefaultLevelsVariable
	case r.Dict != nil:
		name, _ := r.Dict[KeyDefaultLevelsVar].(string)
		return name
	default:
		return lookup()
	}
}

// SectionName returns the section part of a dotted check name:
// "df.inodes" becomes "df".
func SectionName(checkName string) string {
	section, _, _ := strings.Cut(checkName, ".")
	return section
}

// Item returns a pointer to the given item name. Services without item use a
// nil item.
func Item(name string) *string {
	return &name
}

// Truthy reports whether v counts as true in a plugin file: nil, false, zero
// numbers and empty strings, slices and maps are false.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	default:
		return true
	}
}
