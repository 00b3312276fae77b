package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"userhub/internal/audit"
	"userhub/internal/auth"
	"userhub/internal/models"
)

func ListMqttAccess(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var access []models.MqttAccess
		if err := db.Find(&access).Error; err != nil {
			lg.Errorw("mqtt access list failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		respondJSON(w, http.StatusOK, access)
	}
}

func AddMqttAccess(db *gorm.DB, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			ClientID string `json:"clientId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		req.Email = normalizeEmail(req.Email)
		if !validEmail(req.Email) {
			respondError(w, http.StatusBadRequest, "Invalid email format")
			return
		}
		if req.ClientID == "" {
			req.ClientID = uuid.NewString()
		}

		access := models.MqttAccess{Email: req.Email, ClientID: req.ClientID, IsActive: true}
		if err := db.Create(&access).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				respondError(w, http.StatusConflict, "Access record already exists")
				return
			}
			lg.Errorw("mqtt access create failed", "email", req.Email, "error", err)
			respondError(w, http.StatusInternalServerError, "Could not create access record")
			return
		}

		rec.Record(r.Context(), audit.Entry{
			Action:     "Create Mqtt Access",
			Details:    access,
			ActorID:    auth.ActorID(r.Context()),
			TargetID:   access.ID,
			TargetType: "MQTT",
			IPAddress:  r.RemoteAddr,
		})
		respondJSON(w, http.StatusCreated, access)
	}
}

func DeleteMqttAccess(db *gorm.DB, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid access id")
			return
		}
		var access models.MqttAccess
		if err := db.First(&access, "id = ?", id).Error; err != nil {
			respondError(w, http.StatusNotFound, "Access record not found")
			return
		}
		if err := db.Delete(&access).Error; err != nil {
			lg.Errorw("mqtt access delete failed", "id", id, "error", err)
			respondError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		rec.Record(r.Context(), audit.Entry{
			Action:     "Delete Mqtt Access",
			Details:    access,
			ActorID:    auth.ActorID(r.Context()),
			TargetID:   id,
			TargetType: "MQTT",
			IPAddress:  r.RemoteAddr,
		})
		respondJSON(w, http.StatusOK, map[string]string{"msg": "Access deleted permanently"})
	}
}
