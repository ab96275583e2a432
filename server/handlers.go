package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/lavai-rg/telegram-automation/logger"
	"github.com/lavai-rg/telegram-automation/model"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", logger.ErrorField(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statsHandler reports per-status tracker counts and the total.
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	counts, err := s.tracks.CountsByStatus(r.Context())
	if err != nil {
		logger.Error("failed to load status counts", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}

	var total int64
	byStatus := make(map[string]int64, len(counts))
	for status, n := range counts {
		byStatus[string(status)] = n
		total += n
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":     total,
		"by_status": byStatus,
	})
}

// tracksHandler lists tracker rows with paging and an optional status
// filter, newest updates first.
func (s *Server) tracksHandler(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", defaultPageLimit)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxPageLimit {
		limit = defaultPageLimit
	}

	var (
		items []*model.TrackItem
		err   error
	)
	if status := r.URL.Query().Get("status"); status != "" {
		if !validStatus(status) {
			writeError(w, http.StatusBadRequest, "unknown status: "+status)
			return
		}
		items, err = s.tracks.ListByStatus(r.Context(), model.Status(status), page, limit)
	} else {
		items, err = s.tracks.List(r.Context(), page, limit)
	}
	if err != nil {
		logger.Error("failed to list tracks", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "failed to list tracks")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"page":   page,
		"limit":  limit,
		"count":  len(items),
		"tracks": items,
	})
}

// progressHandler returns the latest scan progress snapshot, or 204 when no
// scan has published one.
func (s *Server) progressHandler(w http.ResponseWriter, r *http.Request) {
	snap, err := s.progress.Latest(r.Context())
	if err != nil {
		logger.Error("failed to load scan progress", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "failed to load progress")
		return
	}
	if snap == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func validStatus(s string) bool {
	for _, status := range model.AllStatuses {
		if string(status) == s {
			return true
		}
	}
	return false
}
