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

func ListRoles(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var roles []models.RoleAssignment
		if err := db.Where("is_active = ?", true).Find(&roles).Error; err != nil {
			lg.Errorw("role list failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		respondJSON(w, http.StatusOK, roles)
	}
}

type roleReq struct {
	UserID   int    `json:"userId"`
	AppID    int    `json:"appId"`
	UserType string `json:"userType"`
}

func AddRole(db *gorm.DB, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req roleReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.UserID <= 0 || req.AppID <= 0 || req.UserType == "" {
			respondError(w, http.StatusBadRequest, "userId, appId and userType are required")
			return
		}

		role := models.RoleAssignment{
			UserID:   req.UserID,
			AppID:    req.AppID,
			UserType: req.UserType,
			IsActive: true,
		}
		if err := db.Create(&role).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				respondError(w, http.StatusConflict, "User already has a role in this app")
				return
			}
			lg.Errorw("role create failed", "userId", req.UserID, "appId", req.AppID, "error", err)
			respondError(w, http.StatusInternalServerError, "Could not create role")
			return
		}

		rec.Record(r.Context(), audit.Entry{
			Action:     "Create Role",
			Details:    role,
			ActorID:    auth.ActorID(r.Context()),
			TargetID:   role.ID,
			TargetType: "Role",
			IPAddress:  r.RemoteAddr,
		})
		respondJSON(w, http.StatusCreated, role)
	}
}

func UpdateRole(db *gorm.DB, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid role id")
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

		var role models.RoleAssignment
		if err := db.First(&role, "id = ?", id).Error; err != nil {
			respondError(w, http.StatusNotFound, "Role not found")
			return
		}
		if req.UserType != nil {
			role.UserType = *req.UserType
		}
		if req.IsActive != nil {
			role.IsActive = *req.IsActive
		}
		if err := db.Save(&role).Error; err != nil {
			lg.Errorw("role update failed", "roleId", id, "error", err)
			respondError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		rec.Record(r.Context(), audit.Entry{
			Action:     "Update Role",
			Details:    role,
			ActorID:    auth.ActorID(r.Context()),
			TargetID:   role.ID,
			TargetType: "Role",
			IPAddress:  r.RemoteAddr,
		})
		respondJSON(w, http.StatusOK, role)
	}
}

func DeleteRole(db *gorm.DB, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid role id")
			return
		}
		var role models.RoleAssignment
		if err := db.First(&role, "id = ?", id).Error; err != nil {
			respondError(w, http.StatusNotFound, "Role not found")
			return
		}
		if err := db.Delete(&role).Error; err != nil {
			lg.Errorw("role delete failed", "roleId", id, "error", err)
			respondError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		rec.Record(r.Context(), audit.Entry{
			Action:     "Delete Role",
			Details:    role,
			ActorID:    auth.ActorID(r.Context()),
			TargetID:   id,
			TargetType: "Role",
			IPAddress:  r.RemoteAddr,
		})
		respondJSON(w, http.StatusOK, map[string]string{"msg": "Role deleted permanently"})
	}
}
