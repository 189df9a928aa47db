// Package params computes the effective parameters of a check on a host.
//
// Parameters are layered from the lowest to the highest precedence: factory
// settings of the check, the user default of its default levels variable, the
// parameters stored at discovery and finally the matching rules of the check's
// configuration group and of the check_parameters ruleset.
package params

import (
	"fmt"
	"log/slog"
	"maps"

	"chk.szuro.net/internal/logger"
	"chk.szuro.net/internal/rules"
	"chk.szuro.net/pkg/check"
)

// DefaultServiceRuleGroups lists the groups whose rules are matched against
// the service even for checks without item.
var DefaultServiceRuleGroups = []string{"temperature"}

// Declarations gives access to the loaded checks. *registry.Snapshot
// implements it.
type Declarations interface {
	Declaration(name string) (*check.Declaration, bool)
	FactorySettings(variable string) (map[string]any, bool)
}

// RuleMatcher evaluates a ruleset. Both methods return the values of the
// matching rules, most specific first.
type RuleMatcher interface {
	HostExtraConf(host string, ruleset rules.Ruleset) ([]any, error)
	ServiceExtraConf(host, service string, ruleset rules.Ruleset) ([]any, error)
}

// ServiceDescriber renders the name of a service.
type ServiceDescriber interface {
	ServiceDescription(host, checkType string, item *string) string
}

// Rulesets holds the user rules consulted by the resolver.
type Rulesets struct {
	// CheckgroupParameters maps a configuration group to its ruleset.
	CheckgroupParameters map[string]rules.Ruleset

	// CheckParameters applies to every check and is always matched against
	// the service description.
	CheckParameters rules.Ruleset

	// ServiceRuleGroups overrides DefaultServiceRuleGroups when not nil.
	ServiceRuleGroups []string
}

// Config configures a Resolver.
type Config struct {
	Matcher  RuleMatcher
	Rulesets Rulesets

	// UserDefaults holds the current value of the check variables, see
	// registry.Registry.CheckVariables.
	UserDefaults map[string]any

	// Describer defaults to a Describer over the same declarations.
	Describer ServiceDescriber
}

// Resolver is safe for concurrent use as long as its inputs are not modified.
type Resolver struct {
	decls             Declarations
	matcher           RuleMatcher
	describer         ServiceDescriber
	rulesets          Rulesets
	userDefaults      map[string]any
	serviceRuleGroups map[string]struct{}
}

func NewResolver(decls Declarations, cfg Config) *Resolver {
	r := &Resolver{
		decls:             decls,
		matcher:           cfg.Matcher,
		describer:         cfg.Describer,
		rulesets:          cfg.Rulesets,
		userDefaults:      cfg.UserDefaults,
		serviceRuleGroups: make(map[string]struct{}),
	}
	if r.describer == nil {
		r.describer = NewDescriber(decls)
	}
	if r.matcher == nil {
		r.matcher = rules.NewMatcher(nil)
	}
	groups := cfg.Rulesets.ServiceRuleGroups
	if groups == nil {
		groups = DefaultServiceRuleGroups
	}
	for _, g := range groups {
		r.serviceRuleGroups[g] = struct{}{}
	}
	return r
}

// Resolve returns the effective parameters of checkType for item on host.
// discovered holds the parameters stored at discovery. ok is false if the
// check type is not loaded (anymore); the service should then be skipped.
func (r *Resolver) Resolve(host, checkType string, item *string, discovered any) (params any, ok bool, err error) {
	decl, ok := r.decls.Declaration(checkType)
	if !ok {
		resolutionsTotal.WithLabelValues("vanished").Inc()
		logger.Debug("Check type vanished", slog.String("host", host), slog.String("check_type", checkType))
		return nil, false, nil
	}

	params = r.withDefaults(decl, discovered)
	params, err = r.withRules(host, checkType, decl, item, params)
	if err != nil {
		resolutionsTotal.WithLabelValues("error").Inc()
		return nil, true, err
	}
	resolutionsTotal.WithLabelValues("resolved").Inc()
	return params, true, nil
}

// withDefaults merges factory settings, user defaults and discovered
// parameters. Only mapping parameters are merged; anything else is returned
// as it is.
func (r *Resolver) withDefaults(decl *check.Declaration, params any) any {
	varname := decl.DefaultLevelsVariable

	var factory map[string]any
	hasFactory := false
	if varname != "" {
		factory, hasFactory = r.decls.FactorySettings(varname)
	}

	// Discovery may store nil to mean "use the defaults".
	if params == nil && hasFactory {
		params = map[string]any{}
	}

	discovered, isMap := params.(map[string]any)
	if !isMap {
		return params
	}

	merged := make(map[string]any)
	if varname != "" {
		maps.Copy(merged, factory)
		if user, ok := r.userDefaults[varname].(map[string]any); ok {
			maps.Copy(merged, user)
		}
	}
	maps.Copy(merged, discovered)
	return merged
}

// withRules applies the matching rules from the lowest to the highest
// priority, so the first matching rule wins.
func (r *Resolver) withRules(host, checkType string, decl *check.Declaration, item *string, params any) (any, error) {
	if decl.Group == "" {
		return params, nil
	}

	entries, err := r.checkgroupEntries(host, decl.Group, item)
	if err != nil {
		return nil, fmt.Errorf("%w (on host %s, checktype %s)", err, host, checkType)
	}

	descr := r.describer.ServiceDescription(host, checkType, item)
	extra, err := r.matcher.ServiceExtraConf(host, descr, r.rulesets.CheckParameters)
	if err != nil {
		return nil, fmt.Errorf("%w (on host %s, checktype %s)", err, host, checkType)
	}
	entries = append(entries, extra...)

	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		acc, accIsMap := params.(map[string]any)
		update, entryIsMap := entry.(map[string]any)
		if accIsMap && entryIsMap {
			maps.Copy(acc, update)
			continue
		}
		// The entry still belongs to the rule; later updates must not reach it.
		params = deepCopy(entry)
	}
	return params, nil
}

func (r *Resolver) checkgroupEntries(host, group string, item *string) ([]any, error) {
	ruleset, ok := r.rulesets.CheckgroupParameters[group]
	if !ok {
		return nil, nil
	}
	if _, serviceRules := r.serviceRuleGroups[group]; item == nil && !serviceRules {
		return r.matcher.HostExtraConf(host, ruleset)
	}
	var service string
	if item != nil {
		service = *item
	}
	return r.matcher.ServiceExtraConf(host, service, ruleset)
}
