package rules

import (
	"golang.org/x/exp/slices"
)

// Filter is a condition on a list of values, e.g. host names or host tags.
type Filter struct {
	Accepted []string `yaml:"accepted" json:"accepted,omitempty"`
	Rejected []string `yaml:"rejected" json:"rejected,omitempty"`
}

// Active reports whether the filter has any condition.
func (f Filter) Active() bool {
	return len(f.Accepted) != 0 || len(f.Rejected) != 0
}

// Accept checks if values satisfy the filter
// No condition -> everything is accepted
// only Accepted is provided -> one of the values must be accepted
// only Rejected is provided -> none of the values may be rejected
// both are provided -> an accepted value is needed and no value may be rejected
func (f Filter) Accept(values []string) (accepted bool) {
	if !f.Active() {
		return true
	}

	accepted = len(f.Accepted) == 0
	for _, v := range values {
		if slices.Contains(f.Accepted, v) {
			accepted = true
			break
		}
	}

	for _, v := range values {
		if slices.Contains(f.Rejected, v) {
			return false
		}
	}
	return
}
