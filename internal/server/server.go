package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/teamtask-api/internal/auth"
	"github.com/yukikurage/teamtask-api/internal/constants"
	apierrors "github.com/yukikurage/teamtask-api/internal/errors"
	"github.com/yukikurage/teamtask-api/internal/handlers"
	"github.com/yukikurage/teamtask-api/internal/middleware"
)

// Deps is everything the router needs
type Deps struct {
	Log              *logrus.Logger
	Resolver         *auth.Resolver
	SessionStore     sessions.Store
	Metrics          *middleware.Metrics
	OperationTimeout time.Duration

	Health *handlers.HealthHandler
	Auth   *handlers.AuthHandler
	Users  *handlers.UserHandler
	Groups *handlers.GroupHandler
	Tasks  *handlers.TaskHandler
}

// Server is the HTTP front of the API
type Server struct {
	httpSrv *http.Server
	log     *logrus.Logger
}

func New(addr string, deps Deps) *Server {
	return &Server{
		httpSrv: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(deps),
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: deps.Log,
	}
}

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Start() error {
	s.log.WithField("addr", s.httpSrv.Addr).Info("server listening")
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// NewRouter wires middleware and routes. Everything except /health and
// /metrics lives under /api.
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(deps.Log))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Instrument())
	}
	r.Use(sessions.Sessions(constants.SessionCookieName, deps.SessionStore))
	r.Use(middleware.OperationTimeout(deps.OperationTimeout))

	r.NoRoute(func(c *gin.Context) {
		apierrors.NotFound(c, "Route not found")
	})
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		apierrors.RespondWithError(c, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.GET("/health", deps.Health.Health)
	if deps.Metrics != nil {
		r.GET("/metrics", deps.Metrics.Handler())
	}

	requireAuth := middleware.RequireAuth(deps.Resolver, deps.Log)
	taskID := middleware.RequireIDParam("id", "task")
	groupID := middleware.RequireIDParam("id", "group")
	userID := middleware.RequireIDParam("id", "user")

	api := r.Group("/api")
	{
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", deps.Auth.Register)
			authRoutes.POST("/login", deps.Auth.Login)
			authRoutes.GET("/verify", deps.Auth.Verify)
			authRoutes.POST("/logout", requireAuth, deps.Auth.Logout)
			authRoutes.GET("/me", requireAuth, deps.Auth.GetCurrentUser)
		}

		api.POST("/users/set-password", deps.Users.SetPassword)

		users := api.Group("/users")
		users.Use(requireAuth)
		{
			users.GET("", deps.Users.ListUsers)
			users.POST("", deps.Users.CreateUser)
			users.GET("/:id", userID, deps.Users.GetUser)
			users.PUT("/:id", userID, deps.Users.UpdateUser)
			users.DELETE("/:id", userID, deps.Users.DeleteUser)
			users.POST("/:id/resend-email", userID, deps.Users.ResendSetupEmail)
		}

		groups := api.Group("/groups")
		groups.Use(requireAuth)
		{
			groups.GET("", deps.Groups.ListGroups)
			groups.POST("", deps.Groups.CreateGroup)
			groups.GET("/all", middleware.RequireAdmin(), deps.Groups.ListAllGroups)
			groups.GET("/users", middleware.RequireAdmin(), deps.Groups.ListAvailableUsers)
			groups.GET("/:id", groupID, deps.Groups.GetGroup)
			groups.PUT("/:id", groupID, deps.Groups.UpdateGroup)
			groups.DELETE("/:id", groupID, deps.Groups.DeleteGroup)
			groups.POST("/:id/members", groupID, deps.Groups.AddMember)
			groups.DELETE("/:id/members", groupID, deps.Groups.RemoveMember)
		}

		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", deps.Tasks.ListTasks)
			tasks.POST("", deps.Tasks.CreateTask)
			tasks.GET("/mine", deps.Tasks.ListMyTasks)
			tasks.GET("/stats", deps.Tasks.GetStats)
			tasks.POST("/generate", deps.Tasks.GenerateTasks)
			tasks.GET("/:id", taskID, deps.Tasks.GetTask)
			tasks.PATCH("/:id", taskID, deps.Tasks.UpdateTask)
			tasks.PUT("/:id", taskID, deps.Tasks.UpdateTask)
			tasks.DELETE("/:id", taskID, deps.Tasks.DeleteTask)
		}
	}

	return r
}
