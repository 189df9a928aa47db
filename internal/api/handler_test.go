package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"chk.szuro.net/internal/autochecks"
	"chk.szuro.net/internal/params"
	"chk.szuro.net/internal/registry"
	"chk.szuro.net/internal/rules"
	"chk.szuro.net/pkg/check"
)

func noopCheck(*string, any, any) check.Result { return check.Result{} }

func newTestServer(t *testing.T, rs params.Rulesets) *http.ServeMux {
	t.Helper()

	reg := registry.New(check.NewFunctionTable())
	reg.Checks["df"] = check.FromDeclaration(&check.Declaration{
		CheckFunction:         noopCheck,
		DiscoveryFunction:     func(any) []check.Discovered { return nil },
		ServiceDescription:    "Filesystem %s",
		Group:                 "filesystem",
		DefaultLevelsVariable: "df_default_levels",
	})
	reg.Checks["hr_cpu"] = check.FromDeclaration(&check.Declaration{
		CheckFunction:      noopCheck,
		ServiceDescription: "CPU utilization",
		SNMPInfo:           check.SNMPInfo{{Base: ".1.3.6.1.2.1.25.3.3.1", OIDs: []string{"2"}}},
		ManagementBoard:    check.MgmtOnly,
	})
	reg.FactorySettings["df_default_levels"] = map[string]any{"levels": []any{80.0, 90.0}}
	snap, err := reg.Freeze()
	require.NoError(t, err)

	store, err := autochecks.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Put("web01", []autochecks.Service{
		{CheckType: "df", Item: check.Item("/var"), Params: map[string]any{"inodes": true}},
	}))

	describer := params.NewDescriber(snap)
	resolver := params.NewResolver(snap, params.Config{
		Matcher:   rules.NewMatcher(nil),
		Rulesets:  rs,
		Describer: describer,
	})

	mux := http.NewServeMux()
	NewHandler(snap, resolver, describer, store).Register(mux)
	return mux
}

func get(t *testing.T, mux *http.ServeMux, url string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	return rec
}

func TestParams(t *testing.T) {
	mux := newTestServer(t, params.Rulesets{})

	tests := []struct {
		name       string
		url        string
		status     int
		discovered bool
		params     any
		service    string
	}{
		{
			name:       "discovered service",
			url:        "/params?host=web01&check=df&item=/var",
			status:     http.StatusOK,
			discovered: true,
			params:     map[string]any{"levels": []any{80.0, 90.0}, "inodes": true},
			service:    "Filesystem /var",
		},
		{
			name:    "undiscovered service uses factory settings",
			url:     "/params?host=web02&check=df&item=/",
			status:  http.StatusOK,
			params:  map[string]any{"levels": []any{80.0, 90.0}},
			service: "Filesystem /",
		},
		{
			name:    "check without parameters",
			url:     "/params?host=web01&check=hr_cpu",
			status:  http.StatusOK,
			service: "CPU utilization",
		},
		{name: "unknown check", url: "/params?host=web01&check=nonexistent", status: http.StatusNotFound},
		{name: "missing host", url: "/params?check=df", status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, mux, tt.url)
			require.Equal(t, tt.status, rec.Code)
			if tt.status != http.StatusOK {
				return
			}
			var resp ParamsResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.Equal(t, tt.discovered, resp.Discovered)
			require.Equal(t, tt.params, resp.Params)
			require.Equal(t, tt.service, resp.Service)
		})
	}
}

func TestParamsRuleError(t *testing.T) {
	mux := newTestServer(t, params.Rulesets{
		CheckParameters: rules.Ruleset{{Value: map[string]any{}, Services: []string{"Filesystem ("}}},
	})

	rec := get(t, mux, "/params?host=web01&check=df&item=/var")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "on host web01, checktype df")
}

func TestChecks(t *testing.T) {
	mux := newTestServer(t, params.Rulesets{})

	rec := get(t, mux, "/checks")
	require.Equal(t, http.StatusOK, rec.Code)

	var infos []CheckInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &infos))
	require.Equal(t, []CheckInfo{
		{
			Name:               "df",
			Type:               "tcp",
			Group:              "filesystem",
			ServiceDescription: "Filesystem %s",
			Discoverable:       true,
			ManagementBoard:    "host_precedence",
		},
		{
			Name:               "hr_cpu",
			Type:               "snmp",
			ServiceDescription: "CPU utilization",
			ManagementBoard:    "mgmt_only",
		},
	}, infos)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/checks", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
