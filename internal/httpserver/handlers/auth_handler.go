package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"userhub/internal/audit"
	"userhub/internal/auth"
	"userhub/internal/mailer"
	"userhub/internal/models"
	"userhub/internal/session"
)

const refreshCookieName = "refreshToken"

// setRefreshCookie scopes the refresh token to the auth routes only.
func setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/api/auth",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/api/auth",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
		MaxAge:   -1,
	})
}

func refreshCookie(r *http.Request) string {
	c, err := r.Cookie(refreshCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	AppID    int    `json:"appId"`
}

// Login authenticates (email, password) inside one registered app. Unknown
// users, wrong passwords and missing role assignments all produce the same
// 401 so the response cannot be used to enumerate accounts.
func Login(db *gorm.DB, sessions *session.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		req.Email = normalizeEmail(req.Email)
		if !validEmail(req.Email) || req.Password == "" {
			respondError(w, http.StatusBadRequest, "Email and password are required")
			return
		}
		if req.AppID <= 0 {
			respondError(w, http.StatusBadRequest, "Which app are you trying to login for?")
			return
		}

		var u models.User
		if err := db.First(&u, "email = ? AND is_active = ?", req.Email, true).Error; err != nil {
			respondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		if !u.IsAdmin() {
			var ra models.RoleAssignment
			err := db.Joins("JOIN apps ON apps.id = role_assignments.app_id AND apps.is_active = ?", true).
				Where("role_assignments.user_id = ? AND role_assignments.app_id = ? AND role_assignments.is_active = ?",
					u.ID, req.AppID, true).
				First(&ra).Error
			if err != nil {
				respondError(w, http.StatusUnauthorized, "Invalid credentials")
				return
			}
		}

		if err := auth.CheckPassword(u.PasswordHash, req.Password); err != nil {
			respondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		scope := req.AppID
		if u.IsAdmin() {
			scope = session.ScopeAllApps
		}
		pair, err := sessions.Issue(r.Context(), u.ID, u.Role, scope)
		if err != nil {
			lg.Errorw("token issue failed", "userId", u.ID, "error", err)
			respondError(w, http.StatusInternalServerError, "Could not create session")
			return
		}

		setRefreshCookie(w, pair.RefreshToken)
		respondJSON(w, http.StatusOK, map[string]any{
			"msg":   "Login successful",
			"user":  u,
			"token": pair,
		})
	}
}

type superLoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SuperLogin is the admin-only variant: application scoping is ignored and
// non-admin credentials are rejected outright, even when otherwise valid.
func SuperLogin(db *gorm.DB, sessions *session.Service, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req superLoginReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		req.Email = normalizeEmail(req.Email)
		if !validEmail(req.Email) || req.Password == "" {
			respondError(w, http.StatusBadRequest, "Email and password are required")
			return
		}

		var u models.User
		if err := db.First(&u, "email = ? AND is_active = ?", req.Email, true).Error; err != nil {
			respondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		if !u.IsAdmin() {
			// No verified claim exists on this route; the x-user-id header
			// is a trusted-network-only attribution fallback.
			actor := headerUserID(r)
			rec.Record(r.Context(), audit.Entry{
				Action:     "Login Attempt Failed",
				Details:    map[string]string{"email": req.Email},
				ActorID:    actor,
				TargetType: "User",
				IPAddress:  r.RemoteAddr,
			})
			respondError(w, http.StatusForbidden, "Admin access required")
			return
		}

		if err := auth.CheckPassword(u.PasswordHash, req.Password); err != nil {
			respondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		pair, err := sessions.Issue(r.Context(), u.ID, u.Role, session.ScopeAllApps)
		if err != nil {
			lg.Errorw("token issue failed", "userId", u.ID, "error", err)
			respondError(w, http.StatusInternalServerError, "Could not create session")
			return
		}

		rec.Record(r.Context(), audit.Entry{
			Action:     "Super Login",
			Details:    u,
			ActorID:    u.ID,
			TargetID:   u.ID,
			TargetType: "User",
			IPAddress:  r.RemoteAddr,
		})

		setRefreshCookie(w, pair.RefreshToken)
		respondJSON(w, http.StatusOK, map[string]any{
			"msg":   "Login successful",
			"user":  u,
			"token": pair,
		})
	}
}

type registerReq struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Office    string `json:"office"`
	MobileNo  string `json:"mobileNo"`
	Avatar    string `json:"avatar"`
}

func Register(db *gorm.DB, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		req.Email = normalizeEmail(req.Email)
		switch {
		case !validEmail(req.Email):
			respondError(w, http.StatusBadRequest, "Invalid email format")
			return
		case !validPassword(req.Password):
			respondError(w, http.StatusBadRequest,
				"Password must be at least 8 characters with an uppercase letter, a lowercase letter and a number")
			return
		case req.FirstName == "" || req.LastName == "":
			respondError(w, http.StatusBadRequest, "First name and last name are required")
			return
		case req.Office == "" || req.MobileNo == "":
			respondError(w, http.StatusBadRequest, "Office and mobile number are required")
			return
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
			Role:         models.RoleUser,
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
			ActorID:    u.ID,
			TargetID:   u.ID,
			TargetType: "User",
			IPAddress:  r.RemoteAddr,
		})

		respondJSON(w, http.StatusCreated, u)
	}
}

// Logout revokes both halves of the session. Revoking already-revoked
// tokens is a no-op success, so calling logout twice is harmless.
func Logout(sessions *session.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if tok := auth.BearerToken(r); tok != "" {
			if err := sessions.RevokeAccess(r.Context(), tok); err != nil {
				lg.Errorw("access revoke failed", "error", err)
			}
		}
		if tok := refreshCookie(r); tok != "" {
			if err := sessions.RevokeRefresh(r.Context(), tok); err != nil {
				lg.Errorw("refresh revoke failed", "error", err)
			}
		}
		clearRefreshCookie(w)
		respondJSON(w, http.StatusOK, map[string]string{"msg": "Logged out successfully"})
	}
}

// Refresh exchanges a live refresh token for a new access token. Identity
// comes from the ledger record and the stored user row, never from the
// request body. The refresh token itself is not rotated.
func Refresh(db *gorm.DB, sessions *session.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := refreshCookie(r)
		if token == "" {
			respondError(w, http.StatusBadRequest, "No refresh token provided")
			return
		}

		rec, err := sessions.VerifyRefresh(r.Context(), token)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrExpired) {
				respondError(w, http.StatusUnauthorized, "Invalid or expired refresh token")
				return
			}
			lg.Errorw("refresh verify failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Could not verify session")
			return
		}

		var u models.User
		if err := db.First(&u, "id = ? AND is_active = ?", rec.UserID, true).Error; err != nil {
			respondError(w, http.StatusUnauthorized, "Invalid or expired refresh token")
			return
		}

		scope := rec.AppID
		if u.IsAdmin() {
			scope = session.ScopeAllApps
		}
		access, err := sessions.ReissueAccess(r.Context(), u.ID, u.Role, scope)
		if err != nil {
			lg.Errorw("access reissue failed", "userId", u.ID, "error", err)
			respondError(w, http.StatusInternalServerError, "Could not create session")
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"accessToken": access})
	}
}

// IsAuthenticated reports whether the current session is live. Both token
// halves must be presented; no claim is returned beyond the status.
func IsAuthenticated(sessions *session.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		access := auth.BearerToken(r)
		refresh := refreshCookie(r)
		if access == "" || refresh == "" {
			respondError(w, http.StatusUnauthorized, "No token provided")
			return
		}
		if _, err := sessions.VerifyAccess(r.Context(), access); err != nil {
			respondError(w, http.StatusUnauthorized, "Session expired")
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"msg": "Session valid"})
	}
}

type passwdResetReq struct {
	Email string `json:"email"`
}

// RequestPasswdReset stores a one-hour reset token and mails the link.
// The response is identical whether or not the account exists.
func RequestPasswdReset(db *gorm.DB, ml mailer.Mailer, domainURL string, resetTTL time.Duration, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req passwdResetReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		req.Email = normalizeEmail(req.Email)
		if !validEmail(req.Email) {
			respondError(w, http.StatusBadRequest, "Invalid email format")
			return
		}

		generic := map[string]string{"msg": "If the account exists, a reset link has been sent"}

		var u models.User
		if err := db.First(&u, "email = ?", req.Email).Error; err != nil {
			respondJSON(w, http.StatusOK, generic)
			return
		}

		token, err := session.NewOpaqueToken(32)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		expiry := time.Now().Add(resetTTL).UnixMilli()
		if err := db.Model(&u).Updates(map[string]any{
			"reset_token":        token,
			"reset_token_expiry": expiry,
		}).Error; err != nil {
			lg.Errorw("reset token store failed", "userId", u.ID, "error", err)
			respondError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		link := domainURL + "/reset-password/" + token
		if err := ml.Send(r.Context(), u.Email, "Password Reset Request",
			"Click this link to reset your password: "+link); err != nil {
			lg.Errorw("reset mail failed", "userId", u.ID, "error", err)
		}

		respondJSON(w, http.StatusOK, generic)
	}
}

type resetPasswdReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

func ResetPasswd(db *gorm.DB, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resetPasswdReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Token == "" {
			respondError(w, http.StatusBadRequest, "Invalid or expired token")
			return
		}
		if !validPassword(req.NewPassword) {
			respondError(w, http.StatusBadRequest,
				"Password must be at least 8 characters with an uppercase letter, a lowercase letter and a number")
			return
		}

		var u models.User
		err := db.First(&u, "reset_token = ? AND reset_token_expiry > ?", req.Token, time.Now().UnixMilli()).Error
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid or expired token")
			return
		}

		hash, err := auth.HashPassword(req.NewPassword)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Could not process password")
			return
		}
		if err := db.Model(&u).Updates(map[string]any{
			"password_hash":      hash,
			"reset_token":        nil,
			"reset_token_expiry": nil,
		}).Error; err != nil {
			lg.Errorw("password reset failed", "userId", u.ID, "error", err)
			respondError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		rec.Record(r.Context(), audit.Entry{
			Action:     "Password Reset",
			Details:    map[string]any{"userId": u.ID, "email": u.Email},
			ActorID:    u.ID,
			TargetID:   u.ID,
			TargetType: "User",
			IPAddress:  r.RemoteAddr,
		})

		respondJSON(w, http.StatusOK, map[string]string{"msg": "Password reset successfully"})
	}
}

type changePasswordReq struct {
	Password    string `json:"password"`
	NewPassword string `json:"newPassword"`
}

func ChangePassword(db *gorm.DB, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claim := auth.ClaimFromContext(r.Context())
		if claim.UserID == 0 {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req changePasswordReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if !validPassword(req.NewPassword) {
			respondError(w, http.StatusBadRequest,
				"Password must be at least 8 characters with an uppercase letter, a lowercase letter and a number")
			return
		}

		var u models.User
		if err := db.First(&u, "id = ? AND is_active = ?", claim.UserID, true).Error; err != nil {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if err := auth.CheckPassword(u.PasswordHash, req.Password); err != nil {
			respondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		hash, err := auth.HashPassword(req.NewPassword)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Could not process password")
			return
		}
		if err := db.Model(&u).Update("password_hash", hash).Error; err != nil {
			lg.Errorw("password change failed", "userId", u.ID, "error", err)
			respondError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		rec.Record(r.Context(), audit.Entry{
			Action:     "Change Password",
			Details:    map[string]any{"userId": u.ID},
			ActorID:    u.ID,
			TargetID:   u.ID,
			TargetType: "User",
			IPAddress:  r.RemoteAddr,
		})

		respondJSON(w, http.StatusOK, map[string]string{"msg": "Password changed successfully"})
	}
}

// headerUserID reads the client-supplied x-user-id attribution header.
// Only consulted on routes with no verified claim; trusted-network-only.
func headerUserID(r *http.Request) int {
	id, err := strconv.Atoi(r.Header.Get("x-user-id"))
	if err != nil || id <= 0 {
		return 0
	}
	return id
}
