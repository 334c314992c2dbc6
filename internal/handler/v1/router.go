package v1

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/smartmed/smartmed-api/internal/config"
	"github.com/smartmed/smartmed-api/pkg/auth"
	"github.com/smartmed/smartmed-api/pkg/metrics"
)

type RouterParams struct {
	Config     *config.Config
	JWTManager *auth.JWTManager
	Metrics    *metrics.Collector
	Logger     *zap.Logger

	Auth    *AuthHandler
	Doctor  *DoctorHandler
	Patient *PatientHandler
	Reading *ReadingHandler
	Report  *ReportHandler
}

// NewRouter builds the gin engine with all middleware and v1 routes.
func NewRouter(p RouterParams) *gin.Engine {
	if p.Config.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		RequestID(),
		RequestLogger(p.Logger),
		Metrics(p.Metrics),
		cors.New(cors.Config{
			AllowOrigins:     p.Config.CORS.AllowedOrigins,
			AllowMethods:     p.Config.CORS.AllowedMethods,
			AllowHeaders:     p.Config.CORS.AllowedHeaders,
			AllowCredentials: true,
			MaxAge:           p.Config.CORS.MaxAge,
		}),
	)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": p.Config.App.Version})
	})
	router.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	api := router.Group("/v1")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", p.Auth.Register)
		authGroup.POST("/login", p.Auth.Login)
		authGroup.POST("/refresh", p.Auth.Refresh)
		authGroup.GET("/verify", p.Auth.Verify)
	}

	protected := api.Group("")
	protected.Use(Authenticate(p.JWTManager))
	{
		protected.DELETE("/auth/account", p.Auth.DeleteAccount)

		protected.GET("/profile", p.Doctor.GetProfile)
		protected.PATCH("/profile", p.Doctor.UpdateProfile)

		patients := protected.Group("/patients")
		{
			patients.POST("", p.Patient.Create)
			patients.GET("", p.Patient.List)
			patients.GET("/:patientID", p.Patient.Get)
			patients.PATCH("/:patientID", p.Patient.Update)
			patients.PATCH("/:patientID/cured", p.Patient.SetCured)
			patients.DELETE("/:patientID", p.Patient.Delete)

			readings := patients.Group("/:patientID/readings")
			{
				readings.POST("", p.Reading.Create)
				readings.GET("", p.Reading.List)
				readings.GET("/:readingID", p.Reading.Get)
				readings.DELETE("/:readingID", p.Reading.Delete)
				readings.POST("/:readingID/report", p.Report.Generate)
				readings.GET("/:readingID/report", p.Report.GetForReading)
			}

			reports := patients.Group("/:patientID/reports")
			{
				reports.GET("", p.Report.List)
				reports.GET("/:reportID", p.Report.Get)
				reports.GET("/:reportID/document", p.Report.Document)
				reports.PUT("/:reportID/follow-up", p.Report.ScheduleFollowUp)
				reports.DELETE("/:reportID/follow-up", p.Report.CancelFollowUp)
				reports.DELETE("/:reportID", p.Report.Delete)
			}
		}
	}

	return router
}
