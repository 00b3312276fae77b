package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"userhub/internal/audit"
	"userhub/internal/auth"
	"userhub/internal/models"
)

// ListSessions exposes the refresh-token ledger for administrative review.
// Token values themselves are never serialized.
func ListSessions(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sessions []models.RefreshToken
		if err := db.Order("created_at desc").Find(&sessions).Error; err != nil {
			lg.Errorw("session list failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		respondJSON(w, http.StatusOK, sessions)
	}
}

// DeleteSession revokes a refresh token by ledger row id.
func DeleteSession(db *gorm.DB, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid session id")
			return
		}
		var sess models.RefreshToken
		if err := db.First(&sess, "id = ?", id).Error; err != nil {
			respondError(w, http.StatusNotFound, "Session not found")
			return
		}
		if err := db.Delete(&sess).Error; err != nil {
			lg.Errorw("session delete failed", "id", id, "error", err)
			respondError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		rec.Record(r.Context(), audit.Entry{
			Action:     "Delete Session",
			Details:    map[string]any{"id": sess.ID, "userId": sess.UserID, "appId": sess.AppID},
			ActorID:    auth.ActorID(r.Context()),
			TargetID:   id,
			TargetType: "Session",
			IPAddress:  r.RemoteAddr,
		})
		respondJSON(w, http.StatusOK, map[string]string{"msg": "Session deleted permanently"})
	}
}
