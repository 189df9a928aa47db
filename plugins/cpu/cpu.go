// Package cpu provides the functions of the shipped cpu plugin file.
package cpu

import (
	"fmt"
	"strconv"

	"chk.szuro.net/pkg/check"
)

func init() {
	check.DefaultFunctions.MustRegisterCheck("check_cpu_load", CheckLoad)
}

// CheckLoad checks the 15 minute load average of the section
// [["0.12", "0.30", "0.45", ...]] against (warn, crit) levels. The levels are
// a legacy pair, or a mapping with a "levels" pair.
func CheckLoad(_ *string, params any, section any) check.Result {
	info, _ := section.([][]string)
	if len(info) == 0 || len(info[0]) < 3 {
		return check.Result{State: check.UNKNOWN, Summary: "no load information"}
	}
	load, err := strconv.ParseFloat(info[0][2], 64)
	if err != nil {
		return check.Result{State: check.UNKNOWN, Summary: fmt.Sprintf("invalid load %q", info[0][2])}
	}

	warn, crit := 5.0, 10.0
	if p, ok := params.(map[string]any); ok {
		params = p["levels"]
	}
	if l, ok := params.([]any); ok && len(l) == 2 {
		if w, ok := l[0].(float64); ok {
			warn = w
		}
		if c, ok := l[1].(float64); ok {
			crit = c
		}
	}

	res := check.Result{
		Summary: fmt.Sprintf("15 min load: %.2f", load),
		Metrics: []check.Metric{{Name: "load15", Value: load, Warn: warn, Crit: crit}},
	}
	switch {
	case load >= crit:
		res.State = check.CRIT
	case load >= warn:
		res.State = check.WARN
	}
	return res
}
