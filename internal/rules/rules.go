// Package rules is a small rule matcher for check parameters. Rules are
// evaluated in the order they are configured, the first one has the highest
// priority.
package rules

import (
	"errors"
	"fmt"
	"regexp"
	"sync"
)

// ErrInvalidPattern is returned for a service condition that does not compile.
var ErrInvalidPattern = errors.New("invalid service pattern")

// Rule assigns a value to the hosts and services matching its conditions.
type Rule struct {
	Value       any      `yaml:"value" json:"value"`
	Hosts       Filter   `yaml:"hosts" json:"hosts"`
	Tags        Filter   `yaml:"tags" json:"tags"`
	Services    []string `yaml:"services" json:"services,omitempty"`
	Disabled    bool     `yaml:"disabled" json:"disabled,omitempty"`
	Description string   `yaml:"description" json:"description,omitempty"`
}

// Ruleset is an ordered list of rules, most specific first.
type Ruleset []Rule

// Matcher evaluates rulesets against the configured hosts.
type Matcher struct {
	hostTags map[string][]string
	patterns sync.Map
}

// NewMatcher creates a matcher knowing the tags of every host. Hosts missing
// from hostTags have no tags.
func NewMatcher(hostTags map[string][]string) *Matcher {
	return &Matcher{hostTags: hostTags}
}

func (m *Matcher) matchesHost(host string, r *Rule) bool {
	if r.Disabled {
		return false
	}
	return r.Hosts.Accept([]string{host}) && r.Tags.Accept(m.hostTags[host])
}

// HostExtraConf returns the values of the rules matching host, in ruleset order.
func (m *Matcher) HostExtraConf(host string, ruleset Ruleset) ([]any, error) {
	var values []any
	for i := range ruleset {
		if m.matchesHost(host, &ruleset[i]) {
			values = append(values, ruleset[i].Value)
		}
	}
	return values, nil
}

// ServiceExtraConf returns the values of the rules matching host and service,
// in ruleset order. Service conditions are regular expressions matched at the
// start of the service; a rule without service conditions matches every
// service.
func (m *Matcher) ServiceExtraConf(host, service string, ruleset Ruleset) ([]any, error) {
	var values []any
	for i := range ruleset {
		r := &ruleset[i]
		if !m.matchesHost(host, r) {
			continue
		}
		ok, err := m.matchesService(service, r.Services)
		if err != nil {
			return nil, err
		}
		if ok {
			values = append(values, r.Value)
		}
	}
	return values, nil
}

func (m *Matcher) matchesService(service string, patterns []string) (bool, error) {
	if len(patterns) == 0 {
		return true, nil
	}
	for _, p := range patterns {
		re, err := m.compile(p)
		if err != nil {
			return false, err
		}
		if re.MatchString(service) {
			return true, nil
		}
	}
	return false, nil
}

func (m *Matcher) compile(pattern string) (*regexp.Regexp, error) {
	if re, ok := m.patterns.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile("^(?:" + pattern + ")")
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, pattern, err)
	}
	m.patterns.Store(pattern, re)
	return re, nil
}
