package registry

import (
	"fmt"

	"chk.szuro.net/pkg/check"
)

type dictField func(d *check.Declaration, v any) bool

// dictFields lists the keys a dict declaration may use and how each one is
// assigned. A nil value always leaves the default in place.
var dictFields = map[string]dictField{
	check.KeyCheckFunction: func(d *check.Declaration, v any) bool {
		switch f := v.(type) {
		case check.CheckFunction:
			d.CheckFunction = f
		case func(*string, any, any) check.Result:
			d.CheckFunction = f
		default:
			return false
		}
		return true
	},
	check.KeyInventoryFunction: func(d *check.Declaration, v any) bool {
		switch f := v.(type) {
		case check.DiscoveryFunction:
			d.DiscoveryFunction = f
		case func(any) []check.Discovered:
			d.DiscoveryFunction = f
		default:
			return false
		}
		return true
	},
	check.KeyParseFunction: func(d *check.Declaration, v any) bool {
		switch f := v.(type) {
		case check.ParseFunction:
			d.ParseFunction = f
		case func([][]string) any:
			d.ParseFunction = f
		default:
			return false
		}
		return true
	},
	check.KeyGroup: func(d *check.Declaration, v any) (ok bool) {
		d.Group, ok = v.(string)
		return
	},
	check.KeySNMPInfo: func(d *check.Declaration, v any) (ok bool) {
		d.SNMPInfo, ok = v.(check.SNMPInfo)
		return
	},
	check.KeySNMPScanFunction: func(d *check.Declaration, v any) bool {
		switch f := v.(type) {
		case check.ScanFunction:
			d.SNMPScanFunction = f
		case func(func(string) string) bool:
			d.SNMPScanFunction = f
		default:
			return false
		}
		return true
	},
	check.KeyHandleEmptyInfo: func(d *check.Declaration, v any) (ok bool) {
		d.HandleEmptyInfo, ok = v.(bool)
		return
	},
	check.KeyHandleRealTimeChecks: func(d *check.Declaration, v any) (ok bool) {
		d.HandleRealTimeChecks, ok = v.(bool)
		return
	},
	check.KeyDefaultLevelsVar: func(d *check.Declaration, v any) (ok bool) {
		d.DefaultLevelsVariable, ok = v.(string)
		return
	},
	check.KeyNodeInfo: func(d *check.Declaration, v any) (ok bool) {
		d.NodeInfo, ok = v.(bool)
		return
	},
	check.KeyExtraSections: func(d *check.Declaration, v any) (ok bool) {
		d.ExtraSections, ok = v.([]string)
		return
	},
	check.KeyServiceDescription: func(d *check.Declaration, v any) (ok bool) {
		d.ServiceDescription, ok = v.(string)
		return
	},
	check.KeyHasPerfdata: func(d *check.Declaration, v any) bool {
		d.HasPerfdata = check.Truthy(v)
		return true
	},
	check.KeyManagementBoard: func(d *check.Declaration, v any) bool {
		switch p := v.(type) {
		case check.Precedence:
			d.ManagementBoard = p
		case string:
			d.ManagementBoard = check.Precedence(p)
		default:
			return false
		}
		switch d.ManagementBoard {
		case check.HostPrecedence, check.HostOnly, check.MgmtOnly:
			return true
		}
		return false
	},
}

// Normalize converts every declaration of the registry into the canonical
// form in place, validates dict declarations, checks the node_info invariant
// between sections and sub-checks and copies SNMP information of sub-checks
// back to their section.
func Normalize(r *Registry) error {
	for _, name := range sortedKeys(r.Checks) {
		raw := r.Checks[name]
		var (
			decl *check.Declaration
			err  error
		)
		switch {
		case raw.Canonical != nil:
			decl = raw.Canonical
		case raw.Legacy != nil:
			decl = fromLegacy(r, name, raw.Legacy)
		case raw.Dict != nil:
			decl, err = fromDict(r, name, raw.Dict)
		default:
			err = fmt.Errorf("%w: check %q has an empty declaration", ErrInvalidValue, name)
		}
		if err != nil {
			return err
		}
		r.Checks[name] = check.FromDeclaration(decl)
	}

	if err := verifyNodeInfo(r); err != nil {
		return err
	}

	for _, name := range sortedKeys(r.Checks) {
		decl := r.Checks[name].Canonical
		section := check.SectionName(name)
		if len(decl.SNMPInfo) > 0 {
			if _, ok := r.SNMPInfo[section]; !ok {
				r.SNMPInfo[section] = decl.SNMPInfo
			}
		}
		if decl.SNMPScanFunction != nil {
			if _, ok := r.SNMPScanFunctions[section]; !ok {
				r.SNMPScanFunctions[section] = decl.SNMPScanFunction
			}
		}
	}
	return nil
}

func fromLegacy(r *Registry, name string, l *check.LegacyDeclaration) *check.Declaration {
	scan, ok := r.SNMPScanFunctions[name]
	if !ok {
		scan = r.SNMPScanFunctions[check.SectionName(name)]
	}
	return &check.Declaration{
		CheckFunction:         l.CheckFunction,
		ServiceDescription:    l.ServiceDescription,
		HasPerfdata:           check.Truthy(l.HasPerfdata),
		DiscoveryFunction:     l.DiscoveryFunction,
		Group:                 name,
		SNMPInfo:              r.SNMPInfo[name],
		SNMPScanFunction:      scan,
		DefaultLevelsVariable: r.DefaultLevels[name],
		ExtraSections:         []string{},
	}
}

func fromDict(r *Registry, name string, info map[string]any) (*check.Declaration, error) {
	decl := &check.Declaration{ExtraSections: []string{}}
	for _, key := range sortedKeys(info) {
		value := info[key]
		if key == check.KeyIncludes {
			includes, ok := value.([]string)
			if value != nil && !ok {
				return nil, fmt.Errorf("%w: check %q: includes must be a list of include file names, found %T",
					ErrInvalidValue, name, value)
			}
			decl.Includes = includes
			continue
		}
		set, known := dictFields[key]
		if !known {
			return nil, fmt.Errorf("%w: the check %q declares an unexpected key %q in check_info",
				ErrUnexpectedKey, name, key)
		}
		if value == nil {
			continue
		}
		if !set(decl, value) {
			return nil, fmt.Errorf("%w: check %q: key %q has invalid value %v (%T)",
				ErrInvalidValue, name, key, value, value)
		}
	}
	if decl.ExtraSections == nil {
		decl.ExtraSections = []string{}
	}

	// Includes belong to the plugin file, which is named after the section.
	section := check.SectionName(name)
	r.CheckIncludes[section] = append(r.CheckIncludes[section], decl.Includes...)
	return decl, nil
}

func verifyNodeInfo(r *Registry) error {
	for _, name := range sortedKeys(r.Checks) {
		section := check.SectionName(name)
		if section == name {
			continue
		}
		decl := r.Checks[name].Canonical
		parent, ok := r.Checks[section]
		if !ok {
			if decl.NodeInfo {
				return fmt.Errorf("%w: node_info for %s is true, but base check %s not defined",
					ErrNodeInfoMismatch, name, section)
			}
			continue
		}
		if parent.Canonical.NodeInfo != decl.NodeInfo {
			return fmt.Errorf("%w: node_info for %s and %s are different",
				ErrNodeInfoMismatch, section, name)
		}
	}
	return nil
}
