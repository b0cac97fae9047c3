package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/SteadfastAsArt/paper-ladder/internal/aggregator"
	"github.com/SteadfastAsArt/paper-ladder/internal/domain"
	"github.com/SteadfastAsArt/paper-ladder/internal/papersources"
)

const dateLayout = "2006-01-02"

// searchHandler handles GET /api/v1/search.
//
// Query parameters: q (required), limit, sources (comma-separated),
// date_from, date_to (YYYY-MM-DD), open_access, min_citations,
// auto_paginate.
func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	query := strings.TrimSpace(q.Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	limit := s.cfg.DefaultLimit
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if parsed > s.cfg.MaxLimit {
			parsed = s.cfg.MaxLimit
		}
		limit = parsed
	}

	params := papersources.SearchParams{}

	if raw := q.Get("date_from"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date_from must be YYYY-MM-DD")
			return
		}
		params.DateFrom = &t
	}
	if raw := q.Get("date_to"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date_to must be YYYY-MM-DD")
			return
		}
		params.DateTo = &t
	}
	if raw := q.Get("open_access"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "open_access must be a boolean")
			return
		}
		params.OpenAccessOnly = v
	}
	if raw := q.Get("min_citations"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			writeError(w, http.StatusBadRequest, "min_citations must be a non-negative integer")
			return
		}
		params.MinCitations = v
	}

	autoPaginate := s.cfg.AutoPaginate
	if raw := q.Get("auto_paginate"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "auto_paginate must be a boolean")
			return
		}
		autoPaginate = v
	}

	req := aggregator.SearchRequest{
		Query:        query,
		Sources:      splitSources(q.Get("sources")),
		Limit:        limit,
		AutoPaginate: autoPaginate,
		Timeout:      s.cfg.SourceTimeout,
		Params:       params,
	}

	result, err := s.agg.Search(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error().Err(err).Str("query", query).Msg("search failed")
		writeError(w, http.StatusBadGateway, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, searchResultToResponse(result))
}

// getPaperHandler handles GET /api/v1/papers/{identifier}. The identifier
// may be a DOI (slashes included) or a source-native ID. With merge=true
// every source is queried and the hits are merged into one record.
func (s *Server) getPaperHandler(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "*")
	if identifier == "" {
		writeError(w, http.StatusBadRequest, "paper identifier is required")
		return
	}

	sources := splitSources(r.URL.Query().Get("sources"))
	merge, _ := strconv.ParseBool(r.URL.Query().Get("merge"))

	var (
		paper *domain.Paper
		err   error
	)
	if merge {
		paper, err = s.agg.GetPaperMerged(r.Context(), identifier, sources)
	} else {
		paper, err = s.agg.GetPaper(r.Context(), identifier, sources)
	}
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error().Err(err).Str("identifier", identifier).Msg("paper lookup failed")
		writeError(w, http.StatusBadGateway, "paper lookup failed")
		return
	}
	if paper == nil {
		writeError(w, http.StatusNotFound, "paper not found in any source")
		return
	}

	writeJSON(w, http.StatusOK, paperToResponse(paper))
}

// sourcesHandler handles GET /api/v1/sources, reporting every registered
// source with its pagination model and enablement.
func (s *Server) sourcesHandler(w http.ResponseWriter, r *http.Request) {
	sources := s.registry.All()
	infos := make([]sourceInfoResponse, 0, len(sources))
	for _, src := range sources {
		infos = append(infos, sourceToResponse(src))
	}
	// registry.All order is undefined; keep the listing stable.
	sortSourceInfos(infos)

	writeJSON(w, http.StatusOK, listSourcesResponse{Sources: infos})
}

// splitSources parses a comma-separated source list, dropping empties.
func splitSources(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			names = append(names, name)
		}
	}
	return names
}
