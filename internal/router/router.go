package router

import (
	"database/sql"
	"net/http"
	"time"

	"store-rating/internal/config"
	"store-rating/internal/handlers"
	"store-rating/internal/metrics"
	"store-rating/internal/middleware"
	"store-rating/internal/models"
	"store-rating/internal/services"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const slowRequestThreshold = 1 * time.Second

// SetupRouter wires services, handlers and the middleware chain. CORS wraps the
// router from outside so preflight requests are answered before route matching.
func SetupRouter(db *sql.DB, cfg config.Config, logger zerolog.Logger) http.Handler {
	if cfg.UsesDefaultSecret() {
		logger.Warn().Msg("JWT_SECRET not set, using default key")
	}

	tokenService := services.NewTokenService(cfg.JWTSecret, cfg.TokenTTL, logger)
	hasher := services.NewBcryptHasher(cfg.BcryptCost)

	userService := services.NewUserService(db, hasher, tokenService, logger)
	adminService := services.NewAdminService(db, hasher, logger)
	ratingService := services.NewRatingService(db, logger)

	authHandler := handlers.NewAuthHandler(userService, logger)
	adminHandler := handlers.NewAdminHandler(adminService, ratingService, logger)
	ownerHandler := handlers.NewOwnerHandler(ratingService, logger)
	ratingHandler := handlers.NewRatingHandler(ratingService, logger)

	r := mux.NewRouter()

	r.Use(middleware.ErrorHandling(logger))
	r.Use(metrics.Middleware)
	r.Use(middleware.PerformanceMonitoring(logger, slowRequestThreshold))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.SecurityHeaders())

	authenticate := middleware.Authentication(tokenService, logger)
	rateLimiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)

	auth := r.PathPrefix("/auth").Subrouter()

	public := auth.PathPrefix("").Subrouter()
	public.Use(rateLimiter.Middleware())
	public.HandleFunc("/register", authHandler.Register).Methods("POST")
	public.HandleFunc("/login", authHandler.Login).Methods("POST")

	protectedAuth := auth.PathPrefix("").Subrouter()
	protectedAuth.Use(authenticate)
	protectedAuth.HandleFunc("/update-password", authHandler.UpdatePassword).Methods("POST")

	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(authenticate)
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	admin.HandleFunc("/dashboard", adminHandler.Dashboard).Methods("GET")
	admin.HandleFunc("/users", adminHandler.AddUser).Methods("POST")
	admin.HandleFunc("/users", adminHandler.ListUsers).Methods("GET")
	admin.HandleFunc("/users/{id:[0-9]+}", adminHandler.GetUser).Methods("GET")
	admin.HandleFunc("/stores", adminHandler.AddStore).Methods("POST")
	admin.HandleFunc("/stores", adminHandler.ListStores).Methods("GET")

	owner := r.PathPrefix("/owner").Subrouter()
	owner.Use(authenticate)
	owner.Use(middleware.RequireRole(models.RoleStoreOwner))
	owner.HandleFunc("/dashboard", ownerHandler.Dashboard).Methods("GET")

	user := r.PathPrefix("/user").Subrouter()
	user.Use(authenticate)
	user.Use(middleware.RequireRole(models.RoleUser))
	user.HandleFunc("/stores", ratingHandler.ListStores).Methods("GET")
	user.HandleFunc("/rating", ratingHandler.Submit).Methods("POST")
	user.HandleFunc("/rating", ratingHandler.Modify).Methods("PUT")

	r.HandleFunc("/health", healthHandler(db, logger)).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")

	return middleware.CORS(cfg.CORSOrigins)(r)
}

func healthHandler(db *sql.DB, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.PingContext(r.Context()); err != nil {
			logger.Error().Err(err).Msg("Health check failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}
}
