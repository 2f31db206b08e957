// Package router assembles the chi route tree from the handlers and
// middleware. Route groups share one auth middleware instance so every
// protected endpoint reports the same 401/403/404 distinctions.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/aki-13627/animalia/internal/http/handler"
	"github.com/aki-13627/animalia/internal/http/middleware"
	"github.com/aki-13627/animalia/internal/http/response"
	"github.com/aki-13627/animalia/internal/service"
)

type Dependencies struct {
	AuthHandler *handler.AuthHandler
	UserHandler *handler.UserHandler
	PetHandler  *handler.PetHandler
	PostHandler *handler.PostHandler

	AuthService service.AuthServiceInterface
	RateLimiter middleware.Limiter

	CORSOrigins      []string
	AuthRateLimitRPM int
	APIRateLimitRPM  int
}

func New(dep Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   dep.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	requireAuth := middleware.RequireAuth(dep.AuthService)

	// Credential endpoints get a tighter limit than the rest of the API.
	authLimit := middleware.NewRateLimiter(dep.RateLimiter, dep.AuthRateLimitRPM, time.Minute, middleware.FailOpen, "auth").Middleware()
	apiLimit := middleware.NewRateLimiter(dep.RateLimiter, dep.APIRateLimitRPM, time.Minute, middleware.FailOpen, "api").Middleware()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authLimit)
			r.Post("/signup", dep.AuthHandler.SignUp)
			r.Post("/verify-email", dep.AuthHandler.VerifyEmail)
			r.Post("/signin", dep.AuthHandler.SignIn)
			r.Post("/refresh", dep.AuthHandler.Refresh)
		})
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", dep.AuthHandler.Me)
		})
		r.Post("/signout", dep.AuthHandler.SignOut)
	})

	r.Group(func(r chi.Router) {
		r.Use(apiLimit)
		r.Use(requireAuth)

		r.Route("/users", func(r chi.Router) {
			r.Put("/profile", dep.UserHandler.UpdateProfile)
			r.Post("/{id}/follow", dep.UserHandler.Follow)
			r.Delete("/{id}/follow", dep.UserHandler.Unfollow)
			r.Get("/{id}/follow-stats", dep.UserHandler.FollowStats)
			r.Get("/{id}/followers", dep.UserHandler.Followers)
			r.Get("/{id}/follows", dep.UserHandler.Follows)
			r.Get("/{id}/posts", dep.PostHandler.ListByUser)
		})

		r.Route("/pets", func(r chi.Router) {
			r.Get("/mine", dep.PetHandler.ListMine)
			r.Post("/", dep.PetHandler.Create)
			r.Put("/{id}", dep.PetHandler.Update)
			r.Delete("/{id}", dep.PetHandler.Delete)
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/timeline", dep.PostHandler.Timeline)
			r.Post("/", dep.PostHandler.Create)
			r.Delete("/{id}", dep.PostHandler.Delete)
			r.Get("/{id}/comments", dep.PostHandler.ListComments)
			r.Post("/{id}/comments", dep.PostHandler.AddComment)
			r.Post("/{id}/like", dep.PostHandler.Like)
			r.Delete("/{id}/like", dep.PostHandler.Unlike)
		})
	})

	return r
}
