package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-user-api/internal/application/auth"
	"github.com/go-user-api/internal/application/user"
	"github.com/go-user-api/internal/config"
	"github.com/go-user-api/internal/transport/http/handler"
	appmiddleware "github.com/go-user-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider)

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	userSvc := user.NewService(user.ServiceDeps{
		UserRepo:    deps.UserRepo,
		CodeRepo:    deps.CodeRepo,
		Mailer:      deps.Mailer,
		AvatarStore: deps.AvatarStore,
		CodeTTL:     cfg.CodeTTL,
	})
	authSvc := auth.NewService(auth.ServiceDeps{
		UserRepo:    deps.UserRepo,
		CodeRepo:    deps.CodeRepo,
		Mailer:      deps.Mailer,
		TokenSigner: deps.JWTProvider,
		CodeTTL:     cfg.CodeTTL,
	})

	healthH := handler.NewHealthHandler()
	userH := handler.NewUserHandler(userSvc)
	sessionH := handler.NewSessionHandler(authSvc)
	verifyH := handler.NewEmailVerifyHandler(authSvc)
	resetH := handler.NewPasswordResetHandler(authSvc)

	// ── Public routes (no auth) ──────────────────────────────────────────
	r.Get("/health-check/{action}", healthH.Ping)
	r.With(sensitiveRL.Limit).Post("/users", userH.Register)
	r.Get("/users/verify/{code}", verifyH.Verify)
	r.With(sensitiveRL.Limit).Post("/users/login", sessionH.Login)
	r.With(sensitiveRL.Limit).Post("/users/reset_password", resetH.Request)
	r.Post("/users/reset_password/{code}", resetH.Confirm)

	// ── Authenticated routes ─────────────────────────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(authMw)

		r.Get("/users", userH.List)
		r.Get("/users/me", userH.Me)
		r.Get("/users/{id}", userH.Get)
		r.Put("/users/{id}", userH.Update)
		r.Delete("/users/{id}", userH.Delete)
		r.Put("/users/{id}/image", userH.UploadImage)
	})

	return r
}
