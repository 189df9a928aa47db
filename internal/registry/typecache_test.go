package registry

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"chk.szuro.net/pkg/check"
)

func TestTypeCacheClassification(t *testing.T) {
	snmpInfo := map[string]check.SNMPInfo{
		"hr_mem":      {{Base: ".1.3.6.1.2.1.25.2.3.1", OIDs: []string{"2", "4", "5", "6"}}},
		"snmp_uptime": {{Base: ".1.3.6.1.2.1.1", OIDs: []string{"3.0"}}},
	}
	names := []string{"hr_mem", "snmp_uptime", "df", "df.inodes", "cpu.loads", "cpu.threads", "local"}
	tc := NewTypeCache(snmpInfo, names)

	require.Equal(t, []string{"hr_mem", "snmp_uptime"}, tc.SNMPSections())
	require.Equal(t, []string{"cpu", "df", "local"}, tc.TCPSections())

	for _, name := range names {
		snmp, tcp := tc.IsSNMP(name), tc.IsTCP(name)
		require.NotEqual(t, snmp, tcp, "check %s must be exactly one of SNMP and TCP", name)
	}

	require.True(t, tc.IsTCP("df.inodes"))
	require.False(t, tc.IsSNMP("unknown"))
	require.False(t, tc.IsTCP("unknown"))
}

func TestTypeCacheConcurrentLookups(t *testing.T) {
	tc := NewTypeCache(map[string]check.SNMPInfo{"if": nil}, []string{"if", "if.errors", "df"})

	var wg sync.WaitGroup
	var mismatches atomic.Int64
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if !tc.IsSNMP("if.errors") || !tc.IsTCP("df") {
					mismatches.Add(1)
				}
			}
		}()
	}
	wg.Wait()
	require.Zero(t, mismatches.Load())
}
