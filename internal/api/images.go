package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pultar/gamepass-service/internal/store"
)

const imageCacheControl = "max-age=86400"

func (s *Server) serveImage(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	language := r.URL.Query().Get("language")
	purpose := r.URL.Query().Get("purpose")
	if language == "" || purpose == "" {
		writeError(w, http.StatusBadRequest, "missing required parameters: language, purpose")
		return
	}

	width := 0
	if raw := r.URL.Query().Get("width"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "invalid width: "+raw)
			return
		}
		width = parsed
	}

	data, err := s.images.Serve(r.Context(), productID, language, purpose, width)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "image not found for product: "+productID+", purpose: "+purpose)
			return
		}
		s.logger.Error("image serve failed",
			zap.String("product_id", productID),
			zap.String("purpose", purpose),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "failed to serve image")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", imageCacheControl)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("image write failed", zap.Error(err))
	}
}

func (s *Server) imageManifest(w http.ResponseWriter, r *http.Request) {
	language := r.URL.Query().Get("language")
	purpose := r.URL.Query().Get("purpose")
	widthRaw := r.URL.Query().Get("width")
	productIDs := splitIDs(r.URL.Query().Get("productIds"))
	if language == "" || purpose == "" || widthRaw == "" || len(productIDs) == 0 {
		writeError(w, http.StatusBadRequest, "missing required parameters: language, purpose, width, productIds")
		return
	}
	width, err := strconv.Atoi(widthRaw)
	if err != nil || width <= 0 {
		writeError(w, http.StatusBadRequest, "invalid width: "+widthRaw)
		return
	}

	writeJSON(w, http.StatusOK, s.manifests.Manifest(productIDs, language, purpose, width))
}
