// Package mem declares the memory check of Linux hosts.
package mem

import (
	"fmt"
	"strconv"
	"strings"

	"chk.szuro.net/pkg/check"
)

const levelsVariable = "memory_default_levels"

type Plugin struct{}

func (Plugin) Name() string { return "mem" }

func (Plugin) Register(ctx check.Context) error {
	ctx.SetFactorySettings(levelsVariable, map[string]any{"levels": []any{150.0, 200.0}})
	ctx.DeclareCheck("mem", check.FromDeclaration(&check.Declaration{
		CheckFunction:         Check,
		DiscoveryFunction:     Discover,
		ParseFunction:         Parse,
		ServiceDescription:    "Memory",
		Group:                 "memory",
		HasPerfdata:           true,
		DefaultLevelsVariable: levelsVariable,
	}))
	return nil
}

// Parse turns /proc/meminfo lines ("MemTotal:", "16318496", "kB") into kB
// values keyed by field name.
func Parse(info [][]string) any {
	fields := make(map[string]float64, len(info))
	for _, line := range info {
		if len(line) < 2 {
			continue
		}
		v, err := strconv.ParseFloat(line[1], 64)
		if err != nil {
			continue
		}
		fields[strings.TrimSuffix(line[0], ":")] = v
	}
	return fields
}

func Discover(section any) []check.Discovered {
	fields, _ := section.(map[string]float64)
	if _, ok := fields["MemTotal"]; !ok {
		return nil
	}
	return []check.Discovered{{Params: map[string]any{}}}
}

// Check compares used RAM plus swap with params["levels"], given in percent
// of the RAM size.
func Check(_ *string, params any, section any) check.Result {
	fields, _ := section.(map[string]float64)
	total := fields["MemTotal"]
	if total == 0 {
		return check.Result{State: check.UNKNOWN, Summary: "no memory information"}
	}

	available, ok := fields["MemAvailable"]
	if !ok {
		available = fields["MemFree"] + fields["Buffers"] + fields["Cached"]
	}
	used := total - available + fields["SwapTotal"] - fields["SwapFree"]
	percent := used / total * 100

	warn, crit := 150.0, 200.0
	if p, ok := params.(map[string]any); ok {
		if l, ok := p["levels"].([]any); ok && len(l) == 2 {
			warn, _ = l[0].(float64)
			crit, _ = l[1].(float64)
		}
	}

	res := check.Result{
		Summary: fmt.Sprintf("%.1f%% of RAM used", percent),
		Metrics: []check.Metric{{Name: "mem_used_percent", Value: percent, Warn: warn, Crit: crit}},
	}
	switch {
	case percent >= crit:
		res.State = check.CRIT
	case percent >= warn:
		res.State = check.WARN
	}
	return res
}
