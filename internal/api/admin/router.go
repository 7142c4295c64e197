package admin

import (
	"github.com/codearena/codearena/internal/api"
	"github.com/codearena/codearena/internal/config"
	"github.com/codearena/codearena/internal/contest"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// NewAdminRouter creates and configures the admin Gin engine. It is served
// on its own listener and is expected to sit behind network-level access
// control.
func NewAdminRouter(cfg *config.Config, db *gorm.DB, appState *contest.AppState) *gin.Engine {
	r := gin.Default()

	r.Use(api.CORSMiddleware(cfg.CORS))

	h := NewHandler(cfg, db, appState)

	v1 := r.Group("/api/v1")
	{
		// Management
		v1.POST("/reload", h.reload)

		// User management
		users := v1.Group("/users")
		{
			users.GET("", h.getAllUsers)
			users.GET("/:id", h.getUser)
			users.DELETE("/:id", h.deleteUser)
		}

		// Submission management
		submissions := v1.Group("/submissions")
		{
			submissions.GET("", h.getAllSubmissions)
			submissions.POST("/:id/invalidate", h.invalidateSubmission)
		}
	}

	return r
}
