package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"userhub/internal/audit"
	"userhub/internal/auth"
	"userhub/internal/models"
)

func ListApps(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseLimit(r)
		if limit < 0 {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		q := db.Where("is_active = ?", true)
		if limit > 0 {
			q = q.Limit(limit)
		}
		var apps []models.App
		if err := q.Find(&apps).Error; err != nil {
			lg.Errorw("app list failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		respondJSON(w, http.StatusOK, apps)
	}
}

// GetApp returns one app with its active role assignments and their users.
func GetApp(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid app id")
			return
		}
		var app models.App
		err = db.Preload("Assignments", "is_active = ?", true).
			Preload("Assignments.User").
			First(&app, "id = ? AND is_active = ?", id, true).Error
		if err != nil {
			respondError(w, http.StatusNotFound, "App not found")
			return
		}
		respondJSON(w, http.StatusOK, app)
	}
}

type appReq struct {
	Name         string `json:"name"`
	URL          string `json:"url"`
	OwnerOffice  string `json:"ownerOffice"`
	Email        string `json:"email"`
	MobileNumber string `json:"mobileNumber"`
}

func CreateApp(db *gorm.DB, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req appReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Name == "" {
			respondError(w, http.StatusBadRequest, "Please include a name")
			return
		}

		app := models.App{
			Name:         req.Name,
			URL:          req.URL,
			OwnerOffice:  req.OwnerOffice,
			Email:        normalizeEmail(req.Email),
			MobileNumber: req.MobileNumber,
			IsActive:     true,
		}
		if err := db.Create(&app).Error; err != nil {
			lg.Errorw("app create failed", "name", req.Name, "error", err)
			respondError(w, http.StatusInternalServerError, "Could not create app")
			return
		}

		rec.Record(r.Context(), audit.Entry{
			Action:     "Create App",
			Details:    app,
			ActorID:    auth.ActorID(r.Context()),
			TargetID:   app.ID,
			TargetType: "App",
			IPAddress:  r.RemoteAddr,
		})
		respondJSON(w, http.StatusCreated, app)
	}
}

func UpdateApp(db *gorm.DB, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid app id")
			return
		}
		var req struct {
			Name         *string `json:"name"`
			URL          *string `json:"url"`
			OwnerOffice  *string `json:"ownerOffice"`
			Email        *string `json:"email"`
			MobileNumber *string `json:"mobileNumber"`
			IsActive     *bool   `json:"isActive"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		var app models.App
		if err := db.First(&app, "id = ?", id).Error; err != nil {
			respondError(w, http.StatusNotFound, "App not found")
			return
		}

		if req.Name != nil {
			app.Name = *req.Name
		}
		if req.URL != nil {
			app.URL = *req.URL
		}
		if req.OwnerOffice != nil {
			app.OwnerOffice = *req.OwnerOffice
		}
		if req.Email != nil {
			app.Email = normalizeEmail(*req.Email)
		}
		if req.MobileNumber != nil {
			app.MobileNumber = *req.MobileNumber
		}
		if req.IsActive != nil {
			app.IsActive = *req.IsActive
		}

		if err := db.Save(&app).Error; err != nil {
			lg.Errorw("app update failed", "appId", id, "error", err)
			respondError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		rec.Record(r.Context(), audit.Entry{
			Action:     "Update App",
			Details:    app,
			ActorID:    auth.ActorID(r.Context()),
			TargetID:   app.ID,
			TargetType: "App",
			IPAddress:  r.RemoteAddr,
		})
		respondJSON(w, http.StatusOK, app)
	}
}

func DeleteApp(db *gorm.DB, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid app id")
			return
		}
		var app models.App
		if err := db.First(&app, "id = ?", id).Error; err != nil {
			respondError(w, http.StatusNotFound, "App not found")
			return
		}
		if err := db.Delete(&app).Error; err != nil {
			lg.Errorw("app delete failed", "appId", id, "error", err)
			respondError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		rec.Record(r.Context(), audit.Entry{
			Action:     "Delete App",
			Details:    app,
			ActorID:    auth.ActorID(r.Context()),
			TargetID:   id,
			TargetType: "App",
			IPAddress:  r.RemoteAddr,
		})
		respondJSON(w, http.StatusOK, map[string]string{"msg": "App deleted permanently"})
	}
}
