package user

import (
	"github.com/codearena/codearena/internal/api"
	"github.com/codearena/codearena/internal/config"
	"github.com/codearena/codearena/internal/contest"
	"github.com/codearena/codearena/internal/judge"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// NewUserRouter creates and configures the user Gin engine.
func NewUserRouter(
	cfg *config.Config,
	db *gorm.DB,
	appState *contest.AppState,
	orchestrator *judge.Orchestrator) *gin.Engine {

	r := gin.Default()

	r.Use(api.CORSMiddleware(cfg.CORS))

	h := NewHandler(cfg, db, appState, orchestrator)

	v1 := r.Group("/api/v1")
	{
		// Auth
		authGroup := v1.Group("/auth")
		{
			authGroup.GET("/status", h.getAuthStatus)
			gitlabGroup := authGroup.Group("/gitlab")
			gitlabGroup.GET("/login", h.gitlabAuthHandler.Login)
			gitlabGroup.GET("/callback", h.gitlabAuthHandler.Callback)

			if cfg.Auth.Local.Enabled {
				localAuthGroup := authGroup.Group("/local")
				{
					localAuthGroup.POST("/register", h.localRegister)
					localAuthGroup.POST("/login", h.localLogin)
				}
			}
		}

		// Websocket for live judging progress and the final verdict
		v1.GET("/ws/submissions/:id/verdict", h.handleVerdictWs)

		// Publicly accessible info
		v1.GET("/languages", h.getLanguages)
		v1.GET("/contests", h.getAllContests)
		v1.GET("/contests/:id", h.getContest)
		v1.GET("/contests/:id/leaderboard", h.getContestLeaderboard)
		v1.GET("/problems/:id", h.getProblem)
		v1.GET("/users/:id", h.getPublicUserProfile)

		// Authenticated routes
		authed := v1.Group("/")
		authed.Use(api.AuthMiddleware(cfg.Auth.JWT.Secret))
		{
			// User profile
			profile := authed.Group("/user")
			{
				profile.GET("/profile", h.getUserProfile)
				profile.PATCH("/profile", h.updateUserProfile)
			}

			// Contest participation
			authed.POST("/contests/:id/register", h.registerForContest)
			authed.GET("/contests/:id/clock", h.getContestClock)
			authed.POST("/contests/:id/virtual", h.startVirtual)
			authed.POST("/contests/:id/virtual/finish", h.finishVirtual)
			authed.GET("/contests/:id/virtual", h.getVirtualStanding)
			authed.GET("/contests/:id/submissions", h.getContestSubmissions)

			// Problems & submissions
			authed.POST("/problems/:id/submit", h.submitToProblem)

			submissions := authed.Group("/submissions")
			{
				submissions.GET("", h.getUserSubmissions)
				submissions.GET("/:id", h.getUserSubmission)
			}
		}
	}

	return r
}
