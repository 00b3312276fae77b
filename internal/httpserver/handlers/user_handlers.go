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

// parseLimit interprets the optional ?limit= query. Returns 0 when absent,
// -1 when present but invalid.
func parseLimit(r *http.Request) int {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return -1
	}
	return n
}

func ListUsers(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseLimit(r)
		if limit < 0 {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		q := db.Where("is_active = ?", true).Order("created_at desc")
		if limit > 0 {
			q = q.Limit(limit)
		}
		var users []models.User
		if err := q.Find(&users).Error; err != nil {
			lg.Errorw("user list failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		respondJSON(w, http.StatusOK, users)
	}
}

func GetUser(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := chi.URLParam(r, "username")
		var u models.User
		if err := db.First(&u, "username = ? AND is_active = ?", username, true).Error; err != nil {
			respondError(w, http.StatusNotFound, "User "+username+" not found")
			return
		}
		respondJSON(w, http.StatusOK, u)
	}
}

// CreateUser is the admin variant of registration: the role may be set.
func CreateUser(db *gorm.DB, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			registerReq
			Role string `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		req.Email = normalizeEmail(req.Email)
		if !validEmail(req.Email) || !validPassword(req.Password) {
			respondError(w, http.StatusBadRequest, "Valid email and password are required")
			return
		}
		if req.Role != models.RoleAdmin {
			req.Role = models.RoleUser
		}
		if req.Username == "" {
			req.Username = req.Email
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Could not process password")
			return
		}
		u := models.User{
			Username:     req.Username,
			Email:        req.Email,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			PasswordHash: hash,
			Role:         req.Role,
			Office:       req.Office,
			MobileNo:     req.MobileNo,
			Avatar:       req.Avatar,
			IsActive:     true,
		}
		if err := db.Create(&u).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				respondError(w, http.StatusConflict, "Email already exists")
				return
			}
			lg.Errorw("user create failed", "email", req.Email, "error", err)
			respondError(w, http.StatusInternalServerError, "Could not create user")
			return
		}

		rec.Record(r.Context(), audit.Entry{
			Action:     "Create User",
			Details:    u,
			ActorID:    auth.ActorID(r.Context()),
			TargetID:   u.ID,
			TargetType: "User",
			IPAddress:  r.RemoteAddr,
		})
		respondJSON(w, http.StatusCreated, u)
	}
}

func UpdateUser(db *gorm.DB, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid user id")
			return
		}
		var req struct {
			Email     *string `json:"email"`
			FirstName *string `json:"firstName"`
			LastName  *string `json:"lastName"`
			Office    *string `json:"office"`
			MobileNo  *string `json:"mobileNo"`
			Avatar    *string `json:"avatar"`
			IsActive  *bool   `json:"isActive"`
			Password  *string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		var u models.User
		if err := db.First(&u, "id = ?", id).Error; err != nil {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}

		if req.Email != nil {
			email := normalizeEmail(*req.Email)
			if !validEmail(email) {
				respondError(w, http.StatusBadRequest, "Invalid email format")
				return
			}
			u.Email = email
		}
		if req.FirstName != nil {
			u.FirstName = *req.FirstName
		}
		if req.LastName != nil {
			u.LastName = *req.LastName
		}
		if req.Office != nil {
			u.Office = *req.Office
		}
		if req.MobileNo != nil {
			u.MobileNo = *req.MobileNo
		}
		if req.Avatar != nil {
			u.Avatar = *req.Avatar
		}
		if req.IsActive != nil {
			u.IsActive = *req.IsActive
		}
		if req.Password != nil && *req.Password != "" {
			if !validPassword(*req.Password) {
				respondError(w, http.StatusBadRequest, "Password does not meet policy")
				return
			}
			hash, err := auth.HashPassword(*req.Password)
			if err != nil {
				respondError(w, http.StatusInternalServerError, "Could not process password")
				return
			}
			u.PasswordHash = hash
		}

		if err := db.Save(&u).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				respondError(w, http.StatusConflict, "Email already exists")
				return
			}
			lg.Errorw("user update failed", "userId", u.ID, "error", err)
			respondError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		rec.Record(r.Context(), audit.Entry{
			Action:     "Update User",
			Details:    u,
			ActorID:    auth.ActorID(r.Context()),
			TargetID:   u.ID,
			TargetType: "User",
			IPAddress:  r.RemoteAddr,
		})
		respondJSON(w, http.StatusOK, u)
	}
}

func DeleteUser(db *gorm.DB, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid user id")
			return
		}
		var u models.User
		if err := db.First(&u, "id = ?", id).Error; err != nil {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		if err := db.Delete(&u).Error; err != nil {
			lg.Errorw("user delete failed", "userId", id, "error", err)
			respondError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		rec.Record(r.Context(), audit.Entry{
			Action:     "Delete User",
			Details:    u,
			ActorID:    auth.ActorID(r.Context()),
			TargetID:   id,
			TargetType: "User",
			IPAddress:  r.RemoteAddr,
		})
		respondJSON(w, http.StatusOK, map[string]string{"msg": "User deleted permanently"})
	}
}
