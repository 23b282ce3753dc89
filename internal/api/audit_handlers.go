package api

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/latsic/idbridge/internal/api/presenter"
	"github.com/latsic/idbridge/internal/core"
)

// handleAdminAudit returns recent audit log entries, optionally filtered by
// provider, user or action.
func (s *Server) handleAdminAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx)

	if s.auditReader == nil {
		presenter.Error(w, r, "audit log inspection is not enabled", http.StatusNotFound)
		return
	}

	q := r.URL.Query()
	filterProvider := q.Get("provider")
	filterUserID := q.Get("user_id")
	filterAction := q.Get("action")

	limit := 50
	if limitStr := q.Get("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil {
			logger.Warn().Err(err).Str("limit", limitStr).Msg("invalid limit parameter")
			presenter.Error(w, r, "invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = v
	}

	entries, err := s.auditReader.Recent(limit)
	if err != nil {
		logger.Error().Err(err).Msg("failed to retrieve audit logs")
		presenter.Error(w, r, "failed to retrieve audit logs", http.StatusInternalServerError)
		return
	}

	if filterProvider != "" || filterUserID != "" || filterAction != "" {
		filtered := make([]core.AuditEntry, 0, len(entries))
		for _, entry := range entries {
			if filterProvider != "" && entry.Provider != filterProvider {
				continue
			}
			if filterUserID != "" && entry.UserID != filterUserID {
				continue
			}
			if filterAction != "" && entry.Action != filterAction {
				continue
			}
			filtered = append(filtered, entry)
		}
		entries = filtered
	}

	presenter.JSON(w, r, entries, http.StatusOK)
}
