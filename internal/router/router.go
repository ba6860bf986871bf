package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/myhealth/scheduling-api/internal/config"
	appointmentHandler "github.com/myhealth/scheduling-api/internal/handler/appointment"
	auditHandler "github.com/myhealth/scheduling-api/internal/handler/audit"
	doctorHandler "github.com/myhealth/scheduling-api/internal/handler/doctor"
	healthHandler "github.com/myhealth/scheduling-api/internal/handler/health"
	leaveHandler "github.com/myhealth/scheduling-api/internal/handler/leave"
	medicalHandler "github.com/myhealth/scheduling-api/internal/handler/medical"
	patientHandler "github.com/myhealth/scheduling-api/internal/handler/patient"
	waitlistHandler "github.com/myhealth/scheduling-api/internal/handler/waitlist"
	"github.com/myhealth/scheduling-api/internal/middleware"
	"github.com/myhealth/scheduling-api/internal/model"
	"github.com/myhealth/scheduling-api/pkg/auth"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Appointment *appointmentHandler.Handler
	Leave       *leaveHandler.Handler
	Waitlist    *waitlistHandler.Handler
	Doctor      *doctorHandler.Handler
	Patient     *patientHandler.Handler
	Medical     *medicalHandler.Handler
	Audit       *auditHandler.Handler
	Health      *healthHandler.Handler
}

func New(cfg *config.Config, logger zerolog.Logger, verifier *auth.TokenVerifier, h Handlers) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	model.RegisterValidations()
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Logger(logger))

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.CORS.AllowedOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.CORS.AllowedOrigins
	}
	if len(cfg.CORS.AllowedMethods) > 0 {
		corsCfg.AllowMethods = cfg.CORS.AllowedMethods
	}
	if len(cfg.CORS.AllowedHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.CORS.AllowedHeaders
	}
	engine.Use(middleware.CORS(corsCfg))

	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  rate.Limit(cfg.RateLimit.RequestsPerSecond),
			Burst: cfg.RateLimit.Burst,
		})
		engine.Use(limiter.RateLimit())
	}

	engine.Use(middleware.Identity(verifier, logger))
	engine.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	engine.Use(middleware.ErrorHandler(logger))

	h.Health.RegisterRoutes(engine)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := engine.Group("/api/v1")
	{
		h.Appointment.RegisterRoutes(v1)
		h.Leave.RegisterRoutes(v1)
		h.Waitlist.RegisterRoutes(v1)
		h.Doctor.RegisterRoutes(v1)
		h.Patient.RegisterRoutes(v1)
		h.Medical.RegisterRoutes(v1)
		h.Audit.RegisterRoutes(v1)
	}

	return engine
}
