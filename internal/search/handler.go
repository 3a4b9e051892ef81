package search

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/coralcms/sitesearch/internal/analytics"
	"github.com/coralcms/sitesearch/internal/indexer"
	apperrors "github.com/coralcms/sitesearch/pkg/errors"
	"github.com/coralcms/sitesearch/pkg/logger"
)

// Handler is the thin HTTP shim over Service. Routing and rendering stay
// minimal; anything clever belongs in the service or below.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register attaches all routes to the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/suggest", h.Suggest)
	mux.HandleFunc("POST /api/v1/analytics/track", h.Track)
	mux.HandleFunc("GET /api/v1/analytics/dashboard", h.Dashboard)
	mux.HandleFunc("POST /api/v1/index/content/{id}", h.IndexContent)
	mux.HandleFunc("DELETE /api/v1/index/content/{id}", h.RemoveContent)
	mux.HandleFunc("PUT /api/v1/index/content/{id}/boost", h.SetBoost)
	mux.HandleFunc("POST /api/v1/index/rebuild", h.Rebuild)
	mux.HandleFunc("POST /api/v1/suggest/rebuild", h.RebuildSuggestions)
	mux.HandleFunc("GET /api/v1/index/status", h.Status)
}

// Search handles ranked and weighted search. mode=weighted selects the
// pattern-based retrieval path.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	term := q.Get("q")
	meta := requestMeta(r)

	if q.Get("mode") == "weighted" {
		limit := intParam(q.Get("limit"), 0)
		results, err := h.svc.WeightedSearch(r.Context(), term, limit, meta)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"query":   term,
			"results": emptyIfNil(results),
			"total":   len(results),
		})
		return
	}

	filters := indexer.Filters{}
	if types := q.Get("types"); types != "" {
		filters.ContentTypes = strings.Split(types, ",")
	}
	page := intParam(q.Get("page"), 1)
	pageSize := intParam(q.Get("page_size"), 0)

	results, total, err := h.svc.Search(r.Context(), term, filters, page, pageSize, meta)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":   term,
		"results": emptyIfNil(results),
		"total":   total,
		"page":    page,
	})
}

// Suggest serves autocomplete matches.
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	matches := h.svc.Suggest(q.Get("q"), intParam(q.Get("limit"), 0))
	writeJSON(w, http.StatusOK, map[string]any{
		"query":       q.Get("q"),
		"suggestions": emptyIfNil(matches),
	})
}

// Track records an externally executed search. The result count is
// optional and defaults to zero.
func (h *Handler) Track(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query       string `json:"query"`
		ResultCount *int   `json:"result_count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Query) == "" {
		h.writeError(w, r, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query is required"))
		return
	}
	count := 0
	if body.ResultCount != nil {
		count = *body.ResultCount
	}
	h.svc.TrackSearch(body.Query, count, requestMeta(r))
	w.WriteHeader(http.StatusAccepted)
}

// Dashboard serves the aggregated analytics window.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	days := intParam(r.URL.Query().Get("days"), 0)
	data, err := h.svc.Dashboard(r.Context(), days)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// IndexContent re-indexes a single content item.
func (h *Handler) IndexContent(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.IndexOne(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveContent removes a single content item from the index.
func (h *Handler) RemoveContent(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RemoveOne(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetBoost records an external ranking override for a content item.
func (h *Handler) SetBoost(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Factor float64 `json:"factor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, r, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "factor is required"))
		return
	}
	if err := h.svc.SetBoostFactor(r.Context(), r.PathValue("id"), body.Factor); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Rebuild starts a background full index rebuild.
func (h *Handler) Rebuild(w http.ResponseWriter, r *http.Request) {
	var types []string
	if v := r.URL.Query().Get("types"); v != "" {
		types = strings.Split(v, ",")
	}
	// The rebuild outlives this request; it is cancelled by process
	// shutdown, not by the client going away.
	if !h.svc.StartRebuild(r.Context(), types) {
		h.writeError(w, r, apperrors.New(apperrors.ErrRebuildInProgress, http.StatusConflict, "index rebuild already running"))
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// RebuildSuggestions rebuilds the suggestion snapshot synchronously.
func (h *Handler) RebuildSuggestions(w http.ResponseWriter, r *http.Request) {
	count, err := h.svc.RebuildSuggestions(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"terms": count})
}

// Status serves the human-readable index summary.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Status(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": summary})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	logger.FromContext(r.Context()).Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	writeJSON(w, apperrors.HTTPStatusCode(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func intParam(v string, fallback int) int {
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// requestMeta extracts the requester context recorded with analytics
// events. X-Forwarded-For wins over the socket address when present.
func requestMeta(r *http.Request) analytics.RequestMeta {
	ip := r.Header.Get("X-Forwarded-For")
	if ip == "" {
		ip = r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
	} else if i := strings.IndexByte(ip, ','); i >= 0 {
		ip = strings.TrimSpace(ip[:i])
	}
	return analytics.RequestMeta{
		ClientIP:  ip,
		UserAgent: r.UserAgent(),
		Referrer:  r.Referer(),
	}
}
