package registry

import (
	"fmt"
	"strings"

	"chk.szuro.net/pkg/check"
)

// ChecksByCheckgroup returns the sorted check names per configuration group.
// Checks without group are left out.
func ChecksByCheckgroup(decls map[string]*check.Declaration) map[string][]string {
	groups := make(map[string][]string)
	for _, name := range sortedKeys(decls) {
		if group := decls[name].Group; group != "" {
			groups[group] = append(groups[group], name)
		}
	}
	return groups
}

// VerifyCheckgroupMembers fails if a configuration group mixes checks with and
// without item. Parameters of such a group cannot be resolved consistently.
func VerifyCheckgroupMembers(r *Registry) error {
	decls, err := canonical(r)
	if err != nil {
		return err
	}
	groups := ChecksByCheckgroup(decls)
	for _, group := range sortedKeys(groups) {
		var withItem, withoutItem []string
		for _, name := range groups[group] {
			if decls[name].HasItem() {
				withItem = append(withItem, name)
			} else {
				withoutItem = append(withoutItem, name)
			}
		}
		if len(withItem) > 0 && len(withoutItem) > 0 {
			return fmt.Errorf("%w: checkgroup %s (with item: %s, without item: %s)",
				ErrMixedCheckgroup, group, strings.Join(withItem, ", "), strings.Join(withoutItem, ", "))
		}
	}
	return nil
}

func canonical(r *Registry) (map[string]*check.Declaration, error) {
	decls := make(map[string]*check.Declaration, len(r.Checks))
	for name, raw := range r.Checks {
		if raw.Canonical == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotNormalized, name)
		}
		decls[name] = raw.Canonical
	}
	return decls, nil
}
