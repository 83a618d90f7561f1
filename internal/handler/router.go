package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sparc-center/sparc-api/internal/middleware"
	"github.com/sparc-center/sparc-api/internal/models"
	"github.com/sparc-center/sparc-api/internal/service"
	"github.com/sparc-center/sparc-api/pkg/config"
	"github.com/sparc-center/sparc-api/pkg/logger"
	"github.com/sparc-center/sparc-api/pkg/metrics"
	"github.com/sparc-center/sparc-api/pkg/middleware/cors"
	"github.com/sparc-center/sparc-api/pkg/middleware/requestid"
	"github.com/sparc-center/sparc-api/pkg/response"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Auth         *AuthHandler
	Appointments *AppointmentHandler
	Enrollments  *EnrollmentHandler
	ScoreCards   *ScoreCardHandler
	Reports      *ReportHandler
	Students     *StudentHandler
	Employees    *EmployeeHandler
	Lookups      *LookupHandler
}

// NewRouter assembles the Gin engine: ambient middleware, operational
// endpoints outside the API prefix, and the authenticated API surface
// beneath it.
func NewRouter(cfg *config.Config, log *zap.Logger, m *metrics.Metrics, auth *service.AuthService, h Handlers, db *sqlx.DB, cache *redis.Client) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.Middleware())
	router.Use(logger.GinMiddleware(log))
	router.Use(cors.New(cfg.CORS.AllowedOrigins))
	if m != nil {
		router.Use(m.GinMiddleware())
	}

	router.GET("/health", func(c *gin.Context) {
		response.JSON(c, http.StatusOK, gin.H{"status": "ok"}, "")
	})
	router.GET("/ready", readiness(db, cache))
	if m != nil {
		router.GET("/metrics", m.Handler())
	}

	authenticated := middleware.Authenticate(auth, cfg.JWT.CookieName)
	staff := middleware.RequireRoles(models.RoleEmployee, models.RoleAdmin)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	studentOnly := middleware.RequireRoles(models.RoleStudent)

	api := router.Group(cfg.APIPrefix)

	// Public surface: consultation requests and report downloads carry their
	// own credentials (none, and a signed token respectively).
	api.POST("/appointments", h.Appointments.Create)
	api.GET("/reports/download", h.Reports.Download)

	api.POST("/students/login", h.Auth.StudentLogin)
	api.POST("/employees/login", h.Auth.EmployeeLogin)
	api.POST("/admin/login", h.Auth.AdminLogin)
	api.POST("/students/logout", authenticated, h.Auth.Logout)
	api.POST("/employees/logout", authenticated, h.Auth.Logout)
	api.POST("/admin/logout", authenticated, h.Auth.Logout)
	api.POST("/auth/change-password", authenticated, h.Auth.ChangePassword)

	appointments := api.Group("/appointments", authenticated, staff)
	{
		appointments.GET("", h.Appointments.List)
		appointments.GET("/:id", h.Appointments.Get)
		appointments.PATCH("/:id", h.Appointments.Update)
		appointments.PATCH("/:id/schedule", adminOnly, h.Appointments.Schedule)
	}

	students := api.Group("/students", authenticated)
	{
		students.GET("/me", studentOnly, h.Students.Me)
		students.POST("", adminOnly, h.Students.Create)
		students.GET("/:id", staff, h.Students.Get)
		students.POST("/:id/reports", staff, h.Reports.Request)
	}

	employees := api.Group("/employees", authenticated)
	{
		employees.POST("", adminOnly, h.Employees.Create)
		employees.GET("/:id", staff, h.Employees.Get)
	}

	enrollments := api.Group("/enrollments", authenticated, staff)
	{
		enrollments.POST("", adminOnly, h.Enrollments.Create)
		enrollments.GET("", adminOnly, h.Enrollments.ListAll)
		enrollments.GET("/mine", h.Enrollments.ListMine)
		enrollments.GET("/:id", h.Enrollments.Get)
		enrollments.GET("/:id/context", h.Enrollments.ScoreContext)
		enrollments.GET("/:id/scorecards", h.Enrollments.Scores)
	}

	api.POST("/scorecards", authenticated, staff, h.ScoreCards.Create)
	api.GET("/reports/:id", authenticated, staff, h.Reports.Status)

	lookups := api.Group("", authenticated)
	{
		lookups.GET("/programs", h.Lookups.ListPrograms)
		lookups.POST("/programs", adminOnly, h.Lookups.CreateProgram)
		lookups.GET("/designations", h.Lookups.ListDesignations)
		lookups.POST("/designations", adminOnly, h.Lookups.CreateDesignation)
		lookups.GET("/departments", h.Lookups.ListDepartments)
		lookups.POST("/departments", adminOnly, h.Lookups.CreateDepartment)
		lookups.GET("/diagnoses", h.Lookups.ListDiagnoses)
		lookups.POST("/diagnoses", adminOnly, h.Lookups.CreateDiagnosis)
	}

	return router
}

// readiness pings the backing stores; a failing dependency flips the endpoint
// to 503 so orchestrators stop routing traffic.
func readiness(db *sqlx.DB, cache *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		checks := gin.H{}
		healthy := true

		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				checks["database"] = "down"
				healthy = false
			} else {
				checks["database"] = "up"
			}
		}
		if cache != nil {
			if err := cache.Ping(ctx).Err(); err != nil {
				checks["redis"] = "down"
				healthy = false
			} else {
				checks["redis"] = "up"
			}
		}

		if !healthy {
			c.JSON(http.StatusServiceUnavailable, response.Envelope{
				Success:    false,
				StatusCode: http.StatusServiceUnavailable,
				Data:       checks,
				Message:    "dependencies unavailable",
			})
			return
		}
		response.JSON(c, http.StatusOK, checks, "")
	}
}
