package api

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/pultar/gamepass-service/internal/store"
)

func (s *Server) listGames(w http.ResponseWriter, r *http.Request) {
	market := r.URL.Query().Get("market")
	collectionID := r.URL.Query().Get("collectionId")
	if market != "" && !s.index.IsMarket(market) {
		writeError(w, http.StatusBadRequest, "unknown market: "+market)
		return
	}

	ids, err := s.games.ListProducts(r.Context(), market, collectionID)
	if err != nil {
		s.logger.Error("list products failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

func (s *Server) gameDetails(w http.ResponseWriter, r *http.Request) {
	productIDs := splitIDs(r.URL.Query().Get("productIds"))
	language := r.URL.Query().Get("language")
	if len(productIDs) == 0 || language == "" {
		writeError(w, http.StatusBadRequest, "missing required parameters: productIds, language")
		return
	}
	market := r.URL.Query().Get("market")
	collectionID := r.URL.Query().Get("collectionId")

	games, err := s.games.Details(r.Context(), productIDs, language, market, collectionID)
	if err != nil {
		s.logger.Error("game details failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load details")
		return
	}

	// Products the crawler has not persisted yet are fetched from the
	// marketplace directly so clients see new additions immediately.
	found := make(map[string]struct{}, len(games))
	for _, g := range games {
		found[g.ProductID] = struct{}{}
	}
	var missing []string
	for _, id := range productIDs {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		fetched, err := s.marketplace.FetchProducts(r.Context(), missing, language, s.cfg.Crawl.DefaultMarket)
		if err != nil {
			s.logger.Warn("marketplace fallback failed",
				zap.Int("missing", len(missing)),
				zap.Error(err),
			)
		} else {
			for _, g := range fetched {
				games = append(games, store.GameDetails{Game: g})
			}
		}
	}
	if games == nil {
		games = []store.GameDetails{}
	}
	writeJSON(w, http.StatusOK, games)
}

func (s *Server) gameAvailability(w http.ResponseWriter, r *http.Request) {
	productIDs := splitIDs(r.URL.Query().Get("productIds"))
	market := r.URL.Query().Get("market")
	collectionID := r.URL.Query().Get("collectionId")
	if len(productIDs) == 0 || market == "" || collectionID == "" {
		writeError(w, http.StatusBadRequest, "missing required parameters: productIds, market, collectionId")
		return
	}
	if !s.index.IsMarket(market) {
		writeError(w, http.StatusBadRequest, "unknown market: "+market)
		return
	}

	periods, err := s.games.Availability(r.Context(), productIDs, market, collectionID, s.clock.Now())
	if err != nil {
		s.logger.Error("availability lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load availability")
		return
	}
	writeJSON(w, http.StatusOK, periods)
}

func (s *Server) searchGames(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	language := r.URL.Query().Get("language")
	market := r.URL.Query().Get("market")
	if query == "" || language == "" || market == "" {
		writeError(w, http.StatusBadRequest, "missing required parameters: query, language, market")
		return
	}
	if !s.index.IsMarket(market) {
		writeError(w, http.StatusBadRequest, "unknown market: "+market)
		return
	}

	ids, err := s.marketplace.Search(r.Context(), query, language, market)
	if err != nil {
		s.logger.Error("marketplace search failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "marketplace search failed")
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

// splitIDs parses a comma-separated id list, trimming whitespace and
// dropping empty entries.
func splitIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if id := strings.TrimSpace(p); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
