package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"userhub/internal/audit"
	"userhub/internal/auth"
	"userhub/internal/google"
	"userhub/internal/httpserver/handlers"
	"userhub/internal/mailer"
	"userhub/internal/session"
)

// Deps carries the explicitly constructed collaborators every route group
// needs. Nothing is reached through package-level singletons.
type Deps struct {
	DB       *gorm.DB
	Sessions *session.Service
	Google   *google.Service
	Audit    *audit.Recorder
	Mailer   mailer.Mailer
	Lg       *zap.SugaredLogger

	DomainURL     string
	ResetTokenTTL time.Duration
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, middleware.Logger)

	mw := auth.NewMiddleware(d.Sessions)

	r.Route("/api/auth", func(ar chi.Router) {
		ar.Use(RateLimit(10, 10))
		ar.Post("/login", handlers.Login(d.DB, d.Sessions, d.Lg))
		ar.Post("/superLogin", handlers.SuperLogin(d.DB, d.Sessions, d.Audit, d.Lg))
		ar.Post("/register", handlers.Register(d.DB, d.Audit, d.Lg))
		ar.Post("/logout", handlers.Logout(d.Sessions, d.Lg))
		ar.Post("/refresh", handlers.Refresh(d.DB, d.Sessions, d.Lg))
		ar.Get("/isAuthenticated", handlers.IsAuthenticated(d.Sessions))
		ar.Post("/request-passwd-reset",
			handlers.RequestPasswdReset(d.DB, d.Mailer, d.DomainURL, d.ResetTokenTTL, d.Lg))
		ar.Post("/reset-passwd", handlers.ResetPasswd(d.DB, d.Audit, d.Lg))

		ar.Group(func(pr chi.Router) {
			pr.Use(mw.Authenticate, mw.RequireUser)
			pr.Post("/change-password", handlers.ChangePassword(d.DB, d.Audit, d.Lg))
		})
	})

	r.Group(func(admin chi.Router) {
		admin.Use(mw.Authenticate, mw.RequireAdmin)

		admin.Route("/api/users", func(ur chi.Router) {
			ur.Get("/", handlers.ListUsers(d.DB, d.Lg))
			ur.Get("/{username}", handlers.GetUser(d.DB, d.Lg))
			ur.Post("/", handlers.CreateUser(d.DB, d.Audit, d.Lg))
			ur.Put("/{id}", handlers.UpdateUser(d.DB, d.Audit, d.Lg))
			ur.Delete("/{id}", handlers.DeleteUser(d.DB, d.Audit, d.Lg))
		})

		admin.Route("/api/apps", func(apr chi.Router) {
			apr.Get("/", handlers.ListApps(d.DB, d.Lg))
			apr.Get("/{id}", handlers.GetApp(d.DB, d.Lg))
			apr.Post("/", handlers.CreateApp(d.DB, d.Audit, d.Lg))
			apr.Put("/{id}", handlers.UpdateApp(d.DB, d.Audit, d.Lg))
			apr.Delete("/{id}", handlers.DeleteApp(d.DB, d.Audit, d.Lg))
		})

		admin.Route("/api/roles", func(rr chi.Router) {
			rr.Get("/", handlers.ListRoles(d.DB, d.Lg))
			rr.Post("/", handlers.AddRole(d.DB, d.Audit, d.Lg))
			rr.Put("/{id}", handlers.UpdateRole(d.DB, d.Audit, d.Lg))
			rr.Delete("/{id}", handlers.DeleteRole(d.DB, d.Audit, d.Lg))
		})

		admin.Route("/api/usertypes", func(tr chi.Router) {
			tr.Get("/", handlers.ListUserTypes(d.DB, d.Lg))
			tr.Post("/", handlers.AddUserType(d.DB, d.Audit, d.Lg))
			tr.Put("/{id}", handlers.UpdateUserType(d.DB, d.Audit, d.Lg))
			tr.Delete("/{id}", handlers.DeleteUserType(d.DB, d.Audit, d.Lg))
		})

		admin.Get("/api/logs", handlers.ListLogs(d.DB, d.Lg))

		admin.Route("/api/sessions", func(sr chi.Router) {
			sr.Get("/", handlers.ListSessions(d.DB, d.Lg))
			sr.Delete("/{id}", handlers.DeleteSession(d.DB, d.Audit, d.Lg))
		})

		admin.Route("/api/mqtt", func(mr chi.Router) {
			mr.Get("/", handlers.ListMqttAccess(d.DB, d.Lg))
			mr.Post("/", handlers.AddMqttAccess(d.DB, d.Audit, d.Lg))
			mr.Delete("/{id}", handlers.DeleteMqttAccess(d.DB, d.Audit, d.Lg))
		})
	})

	r.Route("/api/google", func(gr chi.Router) {
		gr.Use(RateLimit(10, 10))
		gr.Post("/session", handlers.GoogleSession(d.Google, d.Lg))
		gr.Post("/logout", handlers.GoogleLogout(d.Google, d.Lg))
		gr.Get("/me", handlers.GoogleMe(d.DB, d.Google, d.Lg))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return r
}
