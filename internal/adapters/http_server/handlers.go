// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"skardu_hotels/internal/app"
	"skardu_hotels/internal/domain"
)

const maxBody = 64 << 10

type Handlers struct {
	Hotels *app.HotelService
	Search *app.SearchService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type hotelsResponse struct {
	Count  int            `json:"count"`
	Hotels []domain.Hotel `json:"hotels"`
}

type searchResponse struct {
	Query domain.SearchQuery `json:"query"`
	Hits  []domain.SearchHit `json:"hits"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/hotels", h.listHotels)
	s.mux.Get("/v1/hotels/{key}", h.getHotel)
	s.mux.Get("/v1/search", h.search)
	s.mux.Post("/v1/answer", h.answer)
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
	return `W/"` + hex.EncodeToString(sum[:]) + `"`, body
}

func (h *Handlers) getHotel(w http.ResponseWriter, r *http.Request) {
	hotel, err := h.Hotels.GetHotel(r.Context(), chi.URLParam(r, "key"))
	if errors.Is(err, domain.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Not Found", "hotel not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("get hotel failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	etag, body := calcETagAndBody(hotel)
	// client already has this version
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write getHotel body")
	}
}

func (h *Handlers) listHotels(w http.ResponseWriter, r *http.Request) {
	q := domain.HotelsQuery{City: r.URL.Query().Get("city")}
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 500 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 500")
			return
		}
		q.Limit = l
	}
	hs, err := h.Hotels.ListHotels(r.Context(), q)
	if err != nil {
		log.Error().Err(err).Msg("list hotels failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if hs == nil {
		hs = []domain.Hotel{}
	}
	writeJSON(w, http.StatusOK, hotelsResponse{Count: len(hs), Hotels: hs})
}

// parseSearchQuery reads q, k, city, min_stars and max_price.
func parseSearchQuery(r *http.Request) (domain.SearchQuery, string) {
	v := r.URL.Query()
	q := domain.SearchQuery{Text: strings.TrimSpace(v.Get("q")), City: strings.TrimSpace(v.Get("city"))}
	if s := v.Get("k"); s != "" {
		k, err := strconv.Atoi(s)
		if err != nil || k <= 0 || k > 50 {
			return q, "k must be an integer between 1 and 50"
		}
		q.K = k
	}
	if s := v.Get("min_stars"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 5 {
			return q, "min_stars must be an integer between 1 and 5"
		}
		q.MinStars = n
	}
	if s := v.Get("max_price"); s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f <= 0 {
			return q, "max_price must be a positive number"
		}
		q.MaxPrice = f
	}
	return q, ""
}

func (h *Handlers) search(w http.ResponseWriter, r *http.Request) {
	q, bad := parseSearchQuery(r)
	if bad != "" {
		writeProblem(w, http.StatusBadRequest, "Invalid query", bad)
		return
	}
	hits, err := h.Search.Search(r.Context(), q)
	if errors.Is(err, domain.ErrEmptyQuery) {
		writeProblem(w, http.StatusBadRequest, "Invalid query", "q is required")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("query", q.Text).Msg("search failed")
		writeProblem(w, http.StatusBadGateway, "Search Failed", "")
		return
	}
	noteSearch(r, q, len(hits))
	writeJSON(w, http.StatusOK, searchResponse{Query: q, Hits: hits})
}

func (h *Handlers) answer(w http.ResponseWriter, r *http.Request) {
	var q domain.SearchQuery
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&q); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "expected a JSON object with a query field")
		return
	}

	ans, err := h.Search.Answer(r.Context(), q)
	switch {
	case errors.Is(err, domain.ErrEmptyQuery):
		writeProblem(w, http.StatusBadRequest, "Invalid query", "query is required")
		return
	case errors.Is(err, domain.ErrNoAnswerer):
		writeProblem(w, http.StatusNotImplemented, "Not Implemented", "answer generation is not configured")
		return
	case err != nil:
		log.Error().Err(err).Str("query", q.Text).Msg("answer failed")
		writeProblem(w, http.StatusBadGateway, "Answer Failed", "")
		return
	}
	noteSearch(r, q, len(ans.Hits))
	writeJSON(w, http.StatusOK, ans)
}
