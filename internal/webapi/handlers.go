// Package webapi exposes saved evaluation results over a small read-only
// JSON API.
package webapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/spboyer/agentra/models"
	"github.com/spboyer/agentra/internal/reporting"
	"github.com/spboyer/agentra/internal/results"
)

// Handlers holds the HTTP handler methods for the web API.
type Handlers struct {
	store ResultStore
}

// NewHandlers creates a new Handlers with the given store.
func NewHandlers(store ResultStore) *Handlers {
	return &Handlers{store: store}
}

// HandleHealth returns a simple health check response.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: models.Version,
	})
}

// HandleSummary returns aggregate scores across all saved results.
func (h *Handlers) HandleSummary(w http.ResponseWriter, _ *http.Request) {
	entries, err := h.store.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summarize(entries))
}

// HandleResults lists saved results, with optional sort/order query params.
func (h *Handlers) HandleResults(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	list := toSummaries(entries)
	sortSummaries(list, r.URL.Query().Get("sort"), r.URL.Query().Get("order"))
	writeJSON(w, http.StatusOK, list)
}

// HandleResultDetail returns one full result.
func (h *Handlers) HandleResultDetail(w http.ResponseWriter, r *http.Request) {
	result, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleResultReport renders one result as an HTML page.
func (h *Handlers) HandleResultReport(w http.ResponseWriter, r *http.Request) {
	result, ok := h.load(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := reporting.WriteHTML(&buf, result); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck
}

// HandleCompare lines up the results named by repeated "name" query params.
func (h *Handlers) HandleCompare(w http.ResponseWriter, r *http.Request) {
	names := r.URL.Query()["name"]
	if len(names) < 2 {
		writeError(w, http.StatusBadRequest, "at least two name parameters are required")
		return
	}

	cmp, err := h.store.Compare(names...)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toComparison(cmp))
}

func (h *Handlers) load(w http.ResponseWriter, r *http.Request) (*models.EvaluationResult, bool) {
	name := r.PathValue("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "result name is required")
		return nil, false
	}

	result, err := h.store.Load(name)
	if err != nil {
		writeStoreError(w, err)
		return nil, false
	}
	return result, true
}

// RegisterRoutes registers all web API routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, store ResultStore) {
	h := NewHandlers(store)
	mux.HandleFunc("GET /api/health", h.HandleHealth)
	mux.HandleFunc("GET /api/summary", h.HandleSummary)
	mux.HandleFunc("GET /api/results", h.HandleResults)
	mux.HandleFunc("GET /api/results/{name}", h.HandleResultDetail)
	mux.HandleFunc("GET /api/results/{name}/report", h.HandleResultReport)
	mux.HandleFunc("GET /api/compare", h.HandleCompare)
}

// CORSMiddleware wraps a handler with CORS headers.
// If allowedOrigins is empty, no CORS header is set (same-origin only).
// Otherwise, the request Origin is checked against the allowed list.
func CORSMiddleware(next http.Handler, allowedOrigins ...string) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if len(allowedOrigins) > 0 && origin != "" && allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, results.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg, Code: code})
}
