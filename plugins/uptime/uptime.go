// Package uptime declares the SNMP uptime check.
package uptime

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"chk.szuro.net/pkg/check"
)

const sysUpTime = ".1.3.6.1.2.1.1.3.0"

type Plugin struct{}

func (Plugin) Name() string { return "snmp_uptime" }

func (Plugin) Register(ctx check.Context) error {
	ctx.SetSNMPInfo("snmp_uptime", check.SNMPInfo{{Base: ".1.3.6.1.2.1.1", OIDs: []string{"3.0"}}})
	ctx.SetSNMPScanFunction("snmp_uptime", Scan)
	ctx.DeclareCheck("snmp_uptime", check.FromLegacy(check.LegacyDeclaration{
		CheckFunction:      Check,
		ServiceDescription: "Uptime",
		HasPerfdata:        1,
		DiscoveryFunction:  Discover,
	}))
	return nil
}

// Scan accepts every device that answers sysUpTime.
func Scan(oid func(string) string) bool {
	return oid(sysUpTime) != ""
}

func Discover(section any) []check.Discovered {
	if info, _ := section.([][]string); len(info) > 0 {
		return []check.Discovered{{}}
	}
	return nil
}

// Check reports the uptime from sysUpTime, given in hundredths of a second.
// Parameters are a mapping with an optional "min" pair of seconds (warn, crit)
// below which the device is considered freshly rebooted.
func Check(_ *string, params any, section any) check.Result {
	info, _ := section.([][]string)
	if len(info) == 0 || len(info[0]) == 0 {
		return check.Result{State: check.UNKNOWN, Summary: "no uptime information"}
	}
	ticks, err := strconv.ParseInt(strings.TrimSpace(info[0][0]), 10, 64)
	if err != nil {
		return check.Result{State: check.UNKNOWN, Summary: fmt.Sprintf("invalid uptime %q", info[0][0])}
	}
	uptime := time.Duration(ticks) * 10 * time.Millisecond

	res := check.Result{
		Summary: "Up since " + uptime.Truncate(time.Second).String(),
		Metrics: []check.Metric{{Name: "uptime", Value: uptime.Seconds()}},
	}
	if p, ok := params.(map[string]any); ok {
		if l, ok := p["min"].([]any); ok && len(l) == 2 {
			warn, _ := l[0].(float64)
			crit, _ := l[1].(float64)
			switch {
			case uptime.Seconds() < crit:
				res.State = check.CRIT
			case uptime.Seconds() < warn:
				res.State = check.WARN
			}
		}
	}
	return res
}
