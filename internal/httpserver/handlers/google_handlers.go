package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"userhub/internal/auth"
	"userhub/internal/google"
	"userhub/internal/models"
)

// GoogleSession accepts the verified-identity handoff from the OAuth
// callback and answers with a session token. The profile has already been
// verified upstream; this route must not be reachable from untrusted
// networks without that guarantee.
func GoogleSession(svc *google.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserInfo google.Profile `json:"userInfo"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		token, user, err := svc.RegisterOrLogin(r.Context(), req.UserInfo)
		if err != nil {
			if req.UserInfo.GoogleID == "" || req.UserInfo.Email == "" {
				respondError(w, http.StatusBadRequest, "Profile missing id or email")
				return
			}
			lg.Errorw("google session failed", "googleId", req.UserInfo.GoogleID, "error", err)
			respondError(w, http.StatusInternalServerError, "Could not create session")
			return
		}

		respondJSON(w, http.StatusOK, map[string]any{
			"token": token,
			"user":  user,
		})
	}
}

func GoogleLogout(svc *google.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Logout(r.Context(), auth.BearerToken(r)); err != nil {
			lg.Errorw("google logout failed", "error", err)
		}
		respondJSON(w, http.StatusOK, map[string]string{"msg": "Logged out successfully"})
	}
}

// GoogleMe resolves the bearer session token to its GoogleUser.
func GoogleMe(db *gorm.DB, svc *google.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := svc.Session(r.Context(), auth.BearerToken(r))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		var u models.GoogleUser
		if err := db.First(&u, "id = ? AND is_active = ?", userID, true).Error; err != nil {
			respondError(w, http.StatusUnauthorized, "User not found")
			return
		}
		respondJSON(w, http.StatusOK, u)
	}
}
