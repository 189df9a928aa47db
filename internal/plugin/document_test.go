package plugin

import (
	"testing"

	"github.com/stretchr/testify/require"

	"chk.szuro.net/internal/registry"
	"chk.szuro.net/pkg/check"
)

func TestParseDocument(t *testing.T) {
	doc, err := ParseDocument([]byte(`
check_info:
  hr_cpu:
    check_function: check_cpu
    inventory_function: no_discovery_possible
    service_description: CPU utilization
    snmp_info:
      - base: .1.3.6.1.2.1.25.3.3.1
        oids: ["2"]
    management_board: mgmt_only
  hr_mem: [check_cpu, Memory, 0, inventory_df]
snmp_scan_functions:
  hr_mem: scan_hr
active_check_info:
  http:
    command_line: check_http $ARG1$
special_agent_info:
  vsphere:
    argument_function: agent_vsphere
factory_settings:
  hr_cpu_levels:
`), testFunctions(t))
	require.NoError(t, err)
	require.Equal(t, []string{"hr_cpu", "hr_mem"}, doc.Checks())

	reg := registry.New(testFunctions(t))
	ctx := reg.NewContext("hr")
	doc.Apply(ctx)

	cpu := reg.Checks["hr_cpu"]
	require.NotNil(t, cpu.Dict)
	require.Nil(t, cpu.Dict[check.KeyInventoryFunction])
	require.Equal(t, check.MgmtOnly, cpu.Dict[check.KeyManagementBoard])
	require.Equal(t, check.SNMPInfo{{Base: ".1.3.6.1.2.1.25.3.3.1", OIDs: []string{"2"}}}, cpu.Dict[check.KeySNMPInfo])

	mem := reg.Checks["hr_mem"]
	require.NotNil(t, mem.Legacy)
	require.NotNil(t, mem.Legacy.DiscoveryFunction)

	require.Contains(t, reg.SNMPScanFunctions, "hr_mem")
	require.Equal(t, "check_http $ARG1$", reg.ActiveChecks["http"]["command_line"])
	require.Contains(t, reg.SpecialAgents, "vsphere")
	require.Equal(t, map[string]any{}, reg.FactorySettings["hr_cpu_levels"])
	require.Equal(t, []string{"hr_cpu", "hr_mem"}, ctx.NewChecks())
}

func TestParseDocumentErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		err     error
	}{
		{
			name:    "unknown check function",
			content: "check_info:\n  foo:\n    check_function: check_foo\n",
			err:     ErrUnknownFunction,
		},
		{
			name:    "unknown discovery function",
			content: "check_info:\n  foo: [check_cpu, Foo, 0, inventory_foo]\n",
			err:     ErrUnknownFunction,
		},
		{
			name:    "unknown parse function",
			content: "check_info:\n  foo:\n    parse_function: parse_foo\n",
			err:     ErrUnknownFunction,
		},
		{
			name:    "unknown scan function",
			content: "snmp_scan_functions:\n  foo: scan_foo\n",
			err:     ErrUnknownFunction,
		},
		{
			name:    "scalar declaration",
			content: "check_info:\n  foo: check_cpu\n",
			err:     ErrMalformedDeclaration,
		},
		{
			name:    "legacy declaration too long",
			content: "check_info:\n  foo: [check_cpu, Foo, 0, no_discovery_possible, extra]\n",
			err:     ErrMalformedDeclaration,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument([]byte(tt.content), testFunctions(t))
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestParseDocumentKeepsInvalidValues(t *testing.T) {
	doc, err := ParseDocument([]byte(`
check_info:
  foo:
    check_function: [check_cpu]
    node_info: "yes"
`), testFunctions(t))
	require.NoError(t, err)

	reg := registry.New(testFunctions(t))
	doc.Apply(reg.NewContext("foo"))
	require.Equal(t, []any{"check_cpu"}, reg.Checks["foo"].Dict[check.KeyCheckFunction])
	require.ErrorIs(t, registry.Normalize(reg), registry.ErrInvalidValue)
}

func TestParseDocumentEmpty(t *testing.T) {
	doc, err := ParseDocument(nil, testFunctions(t))
	require.NoError(t, err)
	require.Empty(t, doc.Checks())
}
