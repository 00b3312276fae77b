package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"userhub/internal/audit"
	"userhub/internal/auth"
	"userhub/internal/config"
	"userhub/internal/google"
	"userhub/internal/httpserver"
	"userhub/internal/logger"
	"userhub/internal/mailer"
	"userhub/internal/models"
	"userhub/internal/session"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	lg := logger.New(cfg.LogLevel)
	defer lg.Sync()

	if cfg.DatabaseURL == "" {
		lg.Fatalw("DATABASE_URL is empty")
	}
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		lg.Fatalw("db connect failed", "error", err)
	}
	if err := db.AutoMigrate(
		&models.User{}, &models.App{}, &models.RoleAssignment{}, &models.UserType{},
		&models.RefreshToken{}, &models.ActionLog{}, &models.MqttAccess{}, &models.GoogleUser{},
	); err != nil {
		lg.Fatalw("automigrate failed", "error", err)
	}
	seedDefaults(db, lg)

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		lg.Fatalw("invalid REDIS_URL", "error", err)
	}
	redisClient := redis.NewClient(redisOpts)
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		cancel()
		lg.Fatalw("redis connect failed", "error", err)
	}
	cancel()

	store := session.NewRedisStore(redisClient)
	sessions := session.NewService(store, session.NewGormLedger(db), lg,
		session.WithAccessTTL(cfg.AccessTokenTTL),
		session.WithRefreshTTL(cfg.RefreshTokenTTL),
	)
	sweeper := session.NewSweeper(sessions, lg, cfg.SweepInterval)
	sweeper.Start()

	router := httpserver.NewRouter(httpserver.Deps{
		DB:            db,
		Sessions:      sessions,
		Google:        google.NewService(db, store, lg),
		Audit:         audit.NewRecorder(audit.NewGormStore(db), lg),
		Mailer:        mailer.NewLogMailer(lg),
		Lg:            lg,
		DomainURL:     cfg.DomainURL,
		ResetTokenTTL: cfg.ResetTokenTTL,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		lg.Infow("listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	lg.Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Errorw("server shutdown failed", "error", err)
	}
	sweeper.Stop()
	if err := redisClient.Close(); err != nil {
		lg.Errorw("redis close failed", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// seedDefaults makes a fresh database usable: one admin account and the
// baseline user-type catalog.
func seedDefaults(db *gorm.DB, lg *zap.SugaredLogger) {
	for _, t := range []string{"viewer", "editor", "manager"} {
		db.Exec("INSERT INTO user_types(user_type, is_active) VALUES (?, true) ON CONFLICT DO NOTHING", t)
	}

	var count int64
	db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count)
	if count > 0 {
		return
	}
	hash, err := auth.HashPassword("ChangeMe1")
	if err != nil {
		lg.Errorw("seed admin hash failed", "error", err)
		return
	}
	admin := models.User{
		Username:     "admin",
		Email:        "admin@userhub.local",
		FirstName:    "Default",
		LastName:     "Admin",
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Office:       "HQ",
		MobileNo:     "0",
		IsActive:     true,
	}
	if err := db.Create(&admin).Error; err != nil {
		lg.Errorw("seed admin failed", "error", err)
		return
	}
	lg.Infow("seeded default admin", "email", admin.Email)
}
