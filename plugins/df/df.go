// Package df provides the functions of the shipped df plugin file.
package df

import (
	"fmt"
	"strconv"

	"chk.szuro.net/pkg/check"
)

// Filesystem is one line of the df section.
type Filesystem struct {
	Device     string
	Type       string
	SizeKB     float64
	UsedKB     float64
	Mountpoint string
}

func (f Filesystem) UsedPercent() float64 {
	if f.SizeKB == 0 {
		return 0
	}
	return f.UsedKB / f.SizeKB * 100
}

var ignoredTypes = map[string]struct{}{
	"tmpfs":    {},
	"devtmpfs": {},
	"squashfs": {},
	"overlay":  {},
}

func init() {
	check.DefaultFunctions.MustRegisterParse("parse_df", Parse)
	check.DefaultFunctions.MustRegisterDiscovery("inventory_df", Discover)
	check.DefaultFunctions.MustRegisterCheck("check_df", Check)
}

// Parse reads lines of "device type size used available mountpoint".
// Short or non-numeric lines are skipped.
func Parse(info [][]string) any {
	fs := make(map[string]Filesystem, len(info))
	for _, line := range info {
		if len(line) < 6 {
			continue
		}
		size, err := strconv.ParseFloat(line[2], 64)
		if err != nil {
			continue
		}
		used, err := strconv.ParseFloat(line[3], 64)
		if err != nil {
			continue
		}
		fs[line[5]] = Filesystem{Device: line[0], Type: line[1], SizeKB: size, UsedKB: used, Mountpoint: line[5]}
	}
	return fs
}

func Discover(section any) []check.Discovered {
	fs, _ := section.(map[string]Filesystem)
	var found []check.Discovered
	for mp, f := range fs {
		if _, ignored := ignoredTypes[f.Type]; ignored || f.SizeKB == 0 {
			continue
		}
		found = append(found, check.Discovered{Item: check.Item(mp), Params: map[string]any{}})
	}
	return found
}

// Check compares the used space with params["levels"], a [warn, crit]
// percentage pair.
func Check(item *string, params any, section any) check.Result {
	if item == nil {
		return check.Result{State: check.UNKNOWN, Summary: "no mountpoint"}
	}
	fs, _ := section.(map[string]Filesystem)
	f, ok := fs[*item]
	if !ok {
		return check.Result{State: check.UNKNOWN, Summary: "filesystem not found"}
	}

	warn, crit := levels(params, 80, 90)
	used := f.UsedPercent()
	res := check.Result{
		Summary: fmt.Sprintf("%.1f%% used (%.0f of %.0f kB)", used, f.UsedKB, f.SizeKB),
		Metrics: []check.Metric{{Name: "fs_used_percent", Value: used, Warn: warn, Crit: crit}},
	}
	switch {
	case used >= crit:
		res.State = check.CRIT
	case used >= warn:
		res.State = check.WARN
	}
	return res
}

func levels(params any, warn, crit float64) (float64, float64) {
	p, ok := params.(map[string]any)
	if !ok {
		return warn, crit
	}
	l, ok := p["levels"].([]any)
	if !ok || len(l) != 2 {
		return warn, crit
	}
	w, wok := toFloat(l[0])
	c, cok := toFloat(l[1])
	if !wok || !cok {
		return warn, crit
	}
	return w, c
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}
