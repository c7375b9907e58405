package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	apimiddleware "github.com/phrazzld/taskboard-api/internal/api/middleware"
	"github.com/phrazzld/taskboard-api/internal/service/auth"
)

// RouterDeps are the handlers and collaborators the router mounts.
type RouterDeps struct {
	Auth       *AuthHandler
	Users      *UserHandler
	Projects   *ProjectHandler
	Tasks      *TaskHandler
	JWTService auth.JWTService
	Logger     *slog.Logger
}

// NewRouter builds the HTTP handler for the whole API.
func NewRouter(deps RouterDeps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(apimiddleware.Tracing)
	r.Use(apimiddleware.TraceMiddleware(log))
	r.Use(chimiddleware.Recoverer)

	authMiddleware := apimiddleware.NewAuthMiddleware(deps.JWTService)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", deps.Auth.Register)
		r.Post("/auth/login", deps.Auth.Login)
		r.Post("/auth/refresh", deps.Auth.RefreshToken)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.With(apimiddleware.RequireAdmin).Get("/users", deps.Users.ListUsers)
			r.Get("/users/me", deps.Users.GetCurrentUser)
			r.Get("/users/{id}", deps.Users.GetUser)
			r.Patch("/users/{id}", deps.Users.UpdateUser)
			r.Delete("/users/{id}", deps.Users.DeleteUser)

			r.Post("/projects", deps.Projects.CreateProject)
			r.Get("/projects", deps.Projects.ListProjects)
			r.Get("/projects/{id}", deps.Projects.GetProject)
			r.Patch("/projects/{id}", deps.Projects.UpdateProject)
			r.Delete("/projects/{id}", deps.Projects.DeleteProject)
			r.Post("/projects/{id}/members", deps.Projects.AddMembers)
			r.Delete("/projects/{id}/members/{userID}", deps.Projects.RemoveMember)
			r.Post("/projects/{id}/tasks", deps.Tasks.CreateTask)

			r.Get("/tasks", deps.Tasks.ListTasks)
			r.Get("/tasks/{id}", deps.Tasks.GetTask)
			r.Patch("/tasks/{id}", deps.Tasks.UpdateTask)
			r.Delete("/tasks/{id}", deps.Tasks.DeleteTask)
			r.Get("/tasks/{id}/history", deps.Tasks.ListHistory)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error("failed to write health check response", slog.String("error", err.Error()))
		}
	})

	return r
}
