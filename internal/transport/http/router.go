package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"admarket/internal/handler"
	"admarket/internal/httputil"
	authmw "admarket/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler     *handler.AuthHandler
	UserHandler     *handler.UserHandler
	AdHandler       *handler.AdHandler
	FavoriteHandler *handler.FavoriteHandler
	TokenVerifier   authmw.TokenVerifier
	Env             string
	AllowedOrigin   string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(authmw.CORS(cfg.Env, cfg.AllowedOrigin))

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	// Public routes - no authentication required
	r.Post("/sign_up", cfg.AuthHandler.SignUp)
	r.Post("/signin", cfg.AuthHandler.SignIn)
	r.Post("/refresh", cfg.AuthHandler.Refresh)

	// Public ad browsing
	r.Get("/ads", cfg.AdHandler.List)
	r.Get("/ads/{category:children|adult|vintage}", cfg.AdHandler.List)
	r.Get("/ads/{id:[0-9]+}", cfg.AdHandler.GetByID)

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.TokenVerifier))

		r.Get("/protected_route", cfg.AuthHandler.ProtectedRoute)
		r.Post("/logout", cfg.AuthHandler.Logout)

		r.Get("/me", cfg.UserHandler.Me)
		r.Put("/profile", cfg.UserHandler.UpdateProfile)

		r.Post("/ads", cfg.AdHandler.Create)
		r.Put("/ads/{id:[0-9]+}", cfg.AdHandler.Update)
		r.Delete("/ads/{id:[0-9]+}", cfg.AdHandler.Delete)
		r.Get("/my_ads", cfg.AdHandler.MyAds)

		r.Get("/favorites", cfg.FavoriteHandler.List)
		r.Post("/favorites", cfg.FavoriteHandler.Add)
		r.Delete("/favorites/{adId:[0-9]+}", cfg.FavoriteHandler.Remove)
	})

	return r
}
