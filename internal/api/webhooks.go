package api

import (
	"errors"
	"net/http"

	"github.com/pultar/gamepass-service/internal/crawl"
)

func (s *Server) triggerCrawl(w http.ResponseWriter, _ *http.Request) {
	if err := s.coordinator.Start(); err != nil {
		if errors.Is(err, crawl.ErrAlreadyRunning) {
			writeError(w, http.StatusConflict, "a crawl is already in progress")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to start crawl")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":  "crawl_started",
		"message": "Crawler has been started successfully",
	})
}

func (s *Server) crawlStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.coordinator.Status())
}

func (s *Server) cancelCrawl(w http.ResponseWriter, _ *http.Request) {
	s.coordinator.Cancel()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "cancel_requested"})
}
