// Package api serves the resolved check parameters over HTTP.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"chk.szuro.net/internal/autochecks"
	"chk.szuro.net/internal/logger"
	"chk.szuro.net/internal/registry"
	"chk.szuro.net/pkg/check"
)

// Checks is the loaded check registry. *registry.Snapshot implements it.
type Checks interface {
	CheckNames() []string
	Declaration(name string) (*check.Declaration, bool)
	Types() *registry.TypeCache
	ManagementBoardPrecedence(name string) check.Precedence
}

type Resolver interface {
	Resolve(host, checkType string, item *string, discovered any) (any, bool, error)
}

type Describer interface {
	ServiceDescription(host, checkType string, item *string) string
}

// Autochecks returns the parameters stored at discovery.
type Autochecks interface {
	Lookup(host, checkType string, item *string) (autochecks.Service, bool, error)
}

type Handler struct {
	checks     Checks
	resolver   Resolver
	describer  Describer
	autochecks Autochecks
}

func NewHandler(checks Checks, resolver Resolver, describer Describer, store Autochecks) *Handler {
	return &Handler{checks: checks, resolver: resolver, describer: describer, autochecks: store}
}

// Register adds the API endpoints to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/params", h.handleParams)
	mux.HandleFunc("/checks", h.handleChecks)
}

type ParamsResponse struct {
	Host       string  `json:"host"`
	Check      string  `json:"check"`
	Item       *string `json:"item"`
	Service    string  `json:"service"`
	Discovered bool    `json:"discovered"`
	Params     any     `json:"params"`
}

type CheckInfo struct {
	Name               string `json:"name"`
	Type               string `json:"type"`
	Group              string `json:"group,omitempty"`
	ServiceDescription string `json:"service_description"`
	Discoverable       bool   `json:"discoverable"`
	ManagementBoard    string `json:"management_board"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleParams serves GET /params?host=&check=&item=. Without the item
// parameter the service has no item.
func (h *Handler) handleParams(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	host, checkType := q.Get("host"), q.Get("check")
	if host == "" || checkType == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "host and check are required"})
		return
	}
	var item *string
	if q.Has("item") {
		item = check.Item(q.Get("item"))
	}

	var discovered any
	svc, found, err := h.autochecks.Lookup(host, checkType, item)
	if err != nil {
		logger.Error("Failed to read autochecks", slog.String("host", host), slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if found {
		discovered = svc.Params
	}

	params, ok, err := h.resolver.Resolve(host, checkType, item, discovered)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown check type " + checkType})
		return
	}
	if err != nil {
		logger.Error("Failed to compute check parameters",
			slog.String("host", host),
			slog.String("check", checkType),
			slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, ParamsResponse{
		Host:       host,
		Check:      checkType,
		Item:       item,
		Service:    h.describer.ServiceDescription(host, checkType, item),
		Discovered: found,
		Params:     params,
	})
}

func (h *Handler) handleChecks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	types := h.checks.Types()
	names := h.checks.CheckNames()
	infos := make([]CheckInfo, 0, len(names))
	for _, name := range names {
		decl, _ := h.checks.Declaration(name)
		info := CheckInfo{
			Name:               name,
			Type:               "tcp",
			Group:              decl.Group,
			ServiceDescription: decl.ServiceDescription,
			Discoverable:       decl.DiscoveryFunction != nil,
			ManagementBoard:    string(h.checks.ManagementBoardPrecedence(name)),
		}
		if types.IsSNMP(name) {
			info.Type = "snmp"
		}
		infos = append(infos, info)
	}
	writeJSON(w, http.StatusOK, infos)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to write response", slog.Any("error", err))
	}
}
