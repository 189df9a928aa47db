package params

import (
	"fmt"
	"strings"

	"chk.szuro.net/pkg/check"
)

// Describer renders service descriptions from the service description
// template of a check.
type Describer struct {
	decls Declarations
}

func NewDescriber(decls Declarations) *Describer {
	return &Describer{decls: decls}
}

// ServiceDescription replaces the item placeholder of the template with the
// item, or appends the item if the template has no placeholder.
func (d *Describer) ServiceDescription(host, checkType string, item *string) string {
	decl, ok := d.decls.Declaration(checkType)
	if !ok {
		if item != nil {
			return fmt.Sprintf("Unimplemented check %s / %s", checkType, *item)
		}
		return "Unimplemented check " + checkType
	}

	descr := decl.ServiceDescription
	if item == nil {
		return descr
	}
	if !strings.Contains(descr, check.ItemPlaceholder) {
		return descr + " " + *item
	}
	return strings.Replace(descr, check.ItemPlaceholder, *item, 1)
}
