package api

import (
	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/partnex-scoring/internal/auth"
	"github.com/ajharbinger/partnex-scoring/internal/metrics"
	"github.com/ajharbinger/partnex-scoring/internal/models"
	"github.com/ajharbinger/partnex-scoring/internal/services"
)

// Dependencies are the collaborators the routes are built from
type Dependencies struct {
	Services *services.Services
	JWT      *auth.JWTService
	DB       HealthChecker
	Metrics  *metrics.Metrics
	Name     string
	Version  string
}

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, deps Dependencies) {
	healthHandler := NewHealthHandler(deps.DB, deps.Name, deps.Version)
	authHandler := NewAuthHandler(deps.Services.Auth)
	smeHandler := NewSMEHandler(deps.Services.SME)
	soaHandler := NewSOAHandler(deps.Services.SOA)
	scoringHandler := NewScoringHandler(deps.Services.Scoring)
	investorHandler := NewInvestorHandler(deps.Services.Investor)

	r.GET("/", healthHandler.Root)
	r.GET("/db-health", healthHandler.DBHealth)
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	v1 := r.Group("/api/v1")

	public := v1.Group("/auth")
	{
		public.POST("/register", authHandler.Register)
		public.POST("/login", authHandler.Login)
	}

	protected := v1.Group("")
	protected.Use(auth.JWTMiddleware(deps.JWT))

	sme := auth.RequireRole(string(models.RoleSME))
	{
		protected.POST("/sme/profile", sme, smeHandler.CreateProfile)
		protected.GET("/sme/profile", sme, smeHandler.GetMyProfile)
		protected.POST("/soa/upload", sme, soaHandler.Upload)

		protected.POST("/score/run", sme, scoringHandler.RunMyScore)
		protected.GET("/score/latest", sme, scoringHandler.GetLatest)
		protected.GET("/score/history", sme, scoringHandler.GetHistory)
	}

	protected.GET("/investor/smes", auth.RequireRole(string(models.RoleInvestor)), investorHandler.ListSMEs)
	protected.GET("/health/scoring", auth.RequireRole(string(models.RoleAdmin)), scoringHandler.GetExternalHealth)
}
