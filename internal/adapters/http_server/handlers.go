package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"flex_reviews/internal/adapters/observability"
	"flex_reviews/internal/app"
	"flex_reviews/internal/domain"
)

type Handlers struct {
	Q          *app.ReviewQueryService
	Selections domain.SelectionStore
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// togglePayload is the toggle request consumed from the dashboard.
// listingSlug is caller-side context only; it is validated for presence
// but never matched against any record.
type togglePayload struct {
	ReviewID    *int64  `json:"reviewId"`
	ListingSlug *string `json:"listingSlug"`
	IsSelected  *bool   `json:"isSelected"`
}

func (p togglePayload) validate() error {
	if p.ReviewID == nil || p.IsSelected == nil {
		return fmt.Errorf("reviewId must be an integer and isSelected a boolean: %w", domain.ErrInvalidToggle)
	}
	if p.ListingSlug == nil || strings.TrimSpace(*p.ListingSlug) == "" {
		return fmt.Errorf("missing listingSlug: %w", domain.ErrInvalidToggle)
	}
	return nil
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/api/reviews", h.getReviews)
	s.mux.Get("/api/reviews/selections", h.getSelections)
	s.mux.Post("/api/reviews/selections", h.toggleSelection)
	s.mux.Get("/api/analytics/kpis", h.getKpis)
	s.mux.Get("/api/analytics/trend", h.getTrend)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeWithETag serves v with an ETag, short-circuiting to 304 when the
// client already holds this version.
func writeWithETag(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func (h *Handlers) getReviews(w http.ResponseWriter, r *http.Request) {
	filter := app.ReviewFilter{
		ListingSlug: strings.TrimSpace(r.URL.Query().Get("listingSlug")),
		Channel:     strings.TrimSpace(r.URL.Query().Get("channel")),
	}
	resp, err := h.Q.Reviews(r.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("reviews query failed")
		writeProblem(w, http.StatusBadGateway, "Upstream Unavailable", "could not load review feed")
		return
	}
	writeWithETag(w, r, resp)
}

func (h *Handlers) getSelections(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		SelectedIDs []int64 `json:"selectedIds"`
	}{SelectedIDs: h.Selections.ReadApproved()})
}

func (h *Handlers) toggleSelection(w http.ResponseWriter, r *http.Request) {
	var p togglePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Payload", "body must be JSON")
		return
	}
	if err := p.validate(); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}

	ids := h.Selections.Toggle(*p.ReviewID, *p.IsSelected)
	observability.ObserveToggle(*p.IsSelected)

	writeJSON(w, http.StatusOK, struct {
		OK          bool    `json:"ok"`
		SelectedIDs []int64 `json:"selectedIds"`
	}{OK: true, SelectedIDs: ids})
}

func (h *Handlers) getKpis(w http.ResponseWriter, r *http.Request) {
	kpis, err := h.Q.Kpis(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("kpi query failed")
		writeProblem(w, http.StatusBadGateway, "Upstream Unavailable", "could not load review feed")
		return
	}
	writeWithETag(w, r, kpis)
}

func (h *Handlers) getTrend(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimSpace(r.URL.Query().Get("listingSlug"))
	trend, err := h.Q.Trend(r.Context(), slug)
	if err != nil {
		log.Error().Err(err).Msg("trend query failed")
		writeProblem(w, http.StatusBadGateway, "Upstream Unavailable", "could not load review feed")
		return
	}
	writeWithETag(w, r, trend)
}
