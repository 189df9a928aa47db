package registry

import (
	"sort"
	"sync"

	"chk.szuro.net/pkg/check"
)

// TypeCache classifies checks by the data source of their section. Sections
// with an SNMP fetch descriptor are SNMP checks, all other sections are agent
// (TCP) checks, including sections that declare neither.
type TypeCache struct {
	snmp map[string]struct{}
	tcp  map[string]struct{}

	isSNMP sync.Map
	isTCP  sync.Map
}

// NewTypeCache builds the classification from the SNMP side table and the
// declared checks.
func NewTypeCache(snmpInfo map[string]check.SNMPInfo, checkNames []string) *TypeCache {
	tc := &TypeCache{
		snmp: make(map[string]struct{}, len(snmpInfo)),
		tcp:  make(map[string]struct{}),
	}
	for name := range snmpInfo {
		tc.snmp[name] = struct{}{}
	}
	for _, name := range checkNames {
		section := check.SectionName(name)
		if _, ok := tc.snmp[section]; !ok {
			tc.tcp[section] = struct{}{}
		}
	}
	return tc
}

// IsSNMP reports whether the section of checkName is fetched via SNMP.
func (tc *TypeCache) IsSNMP(checkName string) bool {
	if v, ok := tc.isSNMP.Load(checkName); ok {
		return v.(bool)
	}
	_, result := tc.snmp[check.SectionName(checkName)]
	tc.isSNMP.Store(checkName, result)
	return result
}

// IsTCP reports whether the section of checkName is fetched from the agent.
func (tc *TypeCache) IsTCP(checkName string) bool {
	if v, ok := tc.isTCP.Load(checkName); ok {
		return v.(bool)
	}
	_, result := tc.tcp[check.SectionName(checkName)]
	tc.isTCP.Store(checkName, result)
	return result
}

// SNMPSections returns the sorted SNMP section names.
func (tc *TypeCache) SNMPSections() []string {
	return sortedSet(tc.snmp)
}

// TCPSections returns the sorted agent section names.
func (tc *TypeCache) TCPSections() []string {
	return sortedSet(tc.tcp)
}

func sortedSet(set map[string]struct{}) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
