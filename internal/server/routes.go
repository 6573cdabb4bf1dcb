package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"srms/internal/auth"
	"srms/internal/result"
	"srms/internal/server/handlers"
	"srms/internal/server/util"
	"srms/internal/shared"
	"srms/internal/student"
)

// Services bundles the domain services the router dispatches to.
type Services struct {
	Auth     *auth.Service
	Results  *result.Service
	Students *student.Service
}

// SetupRoutes configures the Chi router, middleware, and route handlers.
func SetupRoutes(config *shared.AppConfig, svc *Services) *chi.Mux {
	r := chi.NewRouter()

	// 1. Global Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS Configuration (Allow React Frontend)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   config.CORS.AllowedOrigins,
		AllowedMethods:   config.CORS.AllowedMethods,
		AllowedHeaders:   config.CORS.AllowedHeaders,
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: config.CORS.AllowCredentials,
		MaxAge:           config.CORS.MaxAge,
	}))

	// 2. Initialize Handlers
	authHandler := handlers.NewAuthHandler(svc.Auth)
	resultHandler := handlers.NewResultHandler(svc.Results, config.Upload)
	studentHandler := handlers.NewStudentHandler(svc.Students, config.Upload)

	// Health / banner
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		util.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "Student Result Management API is running",
		})
	})

	// Uploaded attachments and profile pictures are served statically.
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(config.Upload.Dir))))

	// 3. Define Routes (grouped by prefix)
	r.Route("/api", func(r chi.Router) {

		// --- Public Routes ---

		r.Post("/auth/register", authHandler.RegisterStudent)
		r.Post("/auth/register-teacher", authHandler.RegisterTeacher)
		r.Post("/auth/login", authHandler.Login)

		// --- Protected Routes (Require Valid Token) ---
		r.Group(func(r chi.Router) {
			// Inject Auth Middleware
			r.Use(AuthMiddleware(svc.Auth))

			r.Get("/auth/me", authHandler.Me)

			// Results
			r.Route("/results", func(r chi.Router) {
				r.Post("/", resultHandler.Create)
				r.Get("/", resultHandler.ListAll)
				r.Get("/student/{studentId}", resultHandler.ListForStudent)
				r.Get("/{id}", resultHandler.Get)
				r.Put("/{id}", resultHandler.Update)
				r.Delete("/{id}", resultHandler.Delete)
			})

			// Student Directory
			r.Route("/students", func(r chi.Router) {
				r.Get("/", studentHandler.List)
				r.Get("/{id}", studentHandler.Get)
				r.Put("/{id}", studentHandler.Update)
				r.Post("/{id}/upload", studentHandler.UploadProfilePicture)
			})
		})
	})

	return r
}

// AuthMiddleware creates a middleware that validates JWT tokens and injects
// the resolved account into the request context.
func AuthMiddleware(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Extract Token
			tokenStr, err := util.ExtractToken(r)
			if err != nil {
				util.WriteJSONError(w, http.StatusUnauthorized, "Authorization token required")
				return
			}

			// 2. Validate
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()

			user, err := authService.VerifyToken(ctx, tokenStr)
			if err != nil {
				util.HandleServiceError(w, err)
				return
			}

			// 3. Inject User into Context
			ctxWithUser := context.WithValue(r.Context(), handlers.UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctxWithUser))
		})
	}
}
