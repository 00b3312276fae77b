package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"userhub/internal/audit"
	"userhub/internal/auth"
	"userhub/internal/models"
)

func ListUserTypes(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var types []models.UserType
		if err := db.Where("is_active = ?", true).Find(&types).Error; err != nil {
			lg.Errorw("user type list failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		respondJSON(w, http.StatusOK, types)
	}
}

func AddUserType(db *gorm.DB, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserType string `json:"userType"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.UserType == "" {
			respondError(w, http.StatusBadRequest, "Please include the user type")
			return
		}

		t := models.UserType{UserType: req.UserType, IsActive: true}
		if err := db.Create(&t).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				respondError(w, http.StatusConflict, "User type already exists")
				return
			}
			lg.Errorw("user type create failed", "userType", req.UserType, "error", err)
			respondError(w, http.StatusInternalServerError, "Could not create user type")
			return
		}

		rec.Record(r.Context(), audit.Entry{
			Action:     "Create User Type",
			Details:    t,
			ActorID:    auth.ActorID(r.Context()),
			TargetID:   t.ID,
			TargetType: "User Type",
			IPAddress:  r.RemoteAddr,
		})
		respondJSON(w, http.StatusCreated, t)
	}
}

func UpdateUserType(db *gorm.DB, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid user type id")
			return
		}
		var req struct {
			UserType *string `json:"userType"`
			IsActive *bool   `json:"isActive"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		var t models.UserType
		if err := db.First(&t, "id = ?", id).Error; err != nil {
			respondError(w, http.StatusNotFound, "User type not found")
			return
		}
		if req.UserType != nil {
			t.UserType = *req.UserType
		}
		if req.IsActive != nil {
			t.IsActive = *req.IsActive
		}
		if err := db.Save(&t).Error; err != nil {
			lg.Errorw("user type update failed", "id", id, "error", err)
			respondError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		rec.Record(r.Context(), audit.Entry{
			Action:     "Update User Type",
			Details:    t,
			ActorID:    auth.ActorID(r.Context()),
			TargetID:   t.ID,
			TargetType: "User Type",
			IPAddress:  r.RemoteAddr,
		})
		respondJSON(w, http.StatusOK, t)
	}
}

func DeleteUserType(db *gorm.DB, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid user type id")
			return
		}
		var t models.UserType
		if err := db.First(&t, "id = ?", id).Error; err != nil {
			respondError(w, http.StatusNotFound, "User type not found")
			return
		}
		if err := db.Delete(&t).Error; err != nil {
			lg.Errorw("user type delete failed", "id", id, "error", err)
			respondError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		rec.Record(r.Context(), audit.Entry{
			Action:     "Delete User Type",
			Details:    t,
			ActorID:    auth.ActorID(r.Context()),
			TargetID:   id,
			TargetType: "User Type",
			IPAddress:  r.RemoteAddr,
		})
		respondJSON(w, http.StatusOK, map[string]string{"msg": "User type deleted permanently"})
	}
}
