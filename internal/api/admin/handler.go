package admin

import (
	"github.com/codearena/codearena/internal/config"
	"github.com/codearena/codearena/internal/contest"
	"gorm.io/gorm"
)

// Handler holds all dependencies for the admin API handlers.
type Handler struct {
	cfg      *config.Config
	db       *gorm.DB
	appState *contest.AppState
}

// NewHandler creates a new admin handler with its dependencies.
func NewHandler(cfg *config.Config, db *gorm.DB, appState *contest.AppState) *Handler {
	return &Handler{
		cfg:      cfg,
		db:       db,
		appState: appState,
	}
}
