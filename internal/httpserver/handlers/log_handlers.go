package handlers

import (
	"net/http"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"userhub/internal/models"
)

// ListLogs returns action-log rows newest first. The log is read-only:
// there is no update or delete surface.
func ListLogs(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseLimit(r)
		if limit < 0 {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		q := db.Order("created_at desc")
		if limit > 0 {
			q = q.Limit(limit)
		}
		var logs []models.ActionLog
		if err := q.Find(&logs).Error; err != nil {
			lg.Errorw("log list failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		respondJSON(w, http.StatusOK, logs)
	}
}
