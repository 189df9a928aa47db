package registry

import (
	"maps"

	"chk.szuro.net/pkg/check"
)

// Snapshot is the immutable result of a load. It is safe for concurrent use.
type Snapshot struct {
	decls             map[string]*check.Declaration
	names             []string
	factorySettings   map[string]map[string]any
	includes          map[string][]string
	snmpInfo          map[string]check.SNMPInfo
	snmpScanFunctions map[string]check.ScanFunction
	activeChecks      map[string]check.Descriptor
	specialAgents     map[string]check.Descriptor
	types             *TypeCache
}

func newSnapshot(r *Registry) (*Snapshot, error) {
	decls, err := canonical(r)
	if err != nil {
		return nil, err
	}
	names := sortedKeys(decls)
	return &Snapshot{
		decls:             decls,
		names:             names,
		factorySettings:   maps.Clone(r.FactorySettings),
		includes:          maps.Clone(r.CheckIncludes),
		snmpInfo:          maps.Clone(r.SNMPInfo),
		snmpScanFunctions: maps.Clone(r.SNMPScanFunctions),
		activeChecks:      maps.Clone(r.ActiveChecks),
		specialAgents:     maps.Clone(r.SpecialAgents),
		types:             NewTypeCache(r.SNMPInfo, names),
	}, nil
}

// Declaration returns the normalized declaration of a check.
func (s *Snapshot) Declaration(name string) (*check.Declaration, bool) {
	d, ok := s.decls[name]
	return d, ok
}

// CheckNames returns the sorted names of all checks.
func (s *Snapshot) CheckNames() []string {
	return append([]string(nil), s.names...)
}

// Len returns the number of checks.
func (s *Snapshot) Len() int {
	return len(s.decls)
}

// FactorySettings returns the factory default of a variable.
func (s *Snapshot) FactorySettings(variable string) (map[string]any, bool) {
	fs, ok := s.factorySettings[variable]
	return fs, ok
}

// Includes returns the include files registered for a section.
func (s *Snapshot) Includes(section string) []string {
	return s.includes[section]
}

// SNMPInfo returns the SNMP fetch descriptor of a section.
func (s *Snapshot) SNMPInfo(section string) (check.SNMPInfo, bool) {
	info, ok := s.snmpInfo[section]
	return info, ok
}

// SNMPScanFunction returns the SNMP detection predicate of a section.
func (s *Snapshot) SNMPScanFunction(section string) (check.ScanFunction, bool) {
	fn, ok := s.snmpScanFunctions[section]
	return fn, ok
}

// ActiveCheck returns the descriptor of an active check.
func (s *Snapshot) ActiveCheck(name string) (check.Descriptor, bool) {
	d, ok := s.activeChecks[name]
	return d, ok
}

// SpecialAgent returns the descriptor of a special agent.
func (s *Snapshot) SpecialAgent(name string) (check.Descriptor, bool) {
	d, ok := s.specialAgents[name]
	return d, ok
}

// Types returns the type classification cache.
func (s *Snapshot) Types() *TypeCache {
	return s.types
}

// Checkgroups returns the check names per configuration group.
func (s *Snapshot) Checkgroups() map[string][]string {
	return ChecksByCheckgroup(s.decls)
}

// ManagementBoardPrecedence returns the management board precedence of a
// check, HostPrecedence unless the declaration sets one.
func (s *Snapshot) ManagementBoardPrecedence(name string) check.Precedence {
	if d, ok := s.decls[name]; ok && d.ManagementBoard != "" {
		return d.ManagementBoard
	}
	return check.HostPrecedence
}

// DiscoverableTCPChecks returns the sorted agent checks with a discovery function.
func (s *Snapshot) DiscoverableTCPChecks() []string {
	return s.discoverable(s.types.IsTCP)
}

// DiscoverableSNMPChecks returns the sorted SNMP checks with a discovery function.
func (s *Snapshot) DiscoverableSNMPChecks() []string {
	return s.discoverable(s.types.IsSNMP)
}

func (s *Snapshot) discoverable(is func(string) bool) []string {
	var names []string
	for _, name := range s.names {
		if is(name) && s.decls[name].DiscoveryFunction != nil {
			names = append(names, name)
		}
	}
	return names
}
