package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/claude/healthbridge/internal/bridge"
	"github.com/claude/healthbridge/internal/taxonomy"
)

// callResponse wraps a method result so null results stay distinguishable from
// an empty body.
type callResponse struct {
	Result any `json:"result"`
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	method := chi.URLParam(r, "method")

	args := map[string]any{}
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&args); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	result, err := s.bridge.Call(r.Context(), method, args)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			s.log.Error("method call failed", "method", method, "caller", userInfoFromContext(r).Login, "error", err)
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, callResponse{Result: result})
}

// statusFor maps bridge errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, bridge.ErrNotImplemented):
		return http.StatusNotImplemented
	case errors.Is(err, bridge.ErrMalformedRequest), errors.Is(err, taxonomy.ErrUnsupportedMetric):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleListMethods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, bridge.Methods())
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, taxonomy.BuildCatalog())
}

// permissionState is one scope in the /permissions listing.
type permissionState struct {
	Scope string `json:"scope"`
	State string `json:"state"`
}

func (s *Server) handlePermissions(w http.ResponseWriter, r *http.Request) {
	scopes := s.bridge.RequiredScopes()
	states := s.bridge.Gate().PermissionStates(r.Context(), scopes)

	out := make([]permissionState, 0, len(scopes))
	for _, scope := range scopes {
		out = append(out, permissionState{Scope: string(scope), State: states[scope].String()})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"availability": s.bridge.Gate().CheckAvailable(r.Context()).String(),
		"permissions":  out,
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
