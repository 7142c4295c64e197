package user

import (
	"github.com/codearena/codearena/internal/auth"
	"github.com/codearena/codearena/internal/config"
	"github.com/codearena/codearena/internal/contest"
	"github.com/codearena/codearena/internal/judge"
	"gorm.io/gorm"
)

// Handler holds all dependencies for the user API handlers.
type Handler struct {
	cfg               *config.Config
	db                *gorm.DB
	appState          *contest.AppState
	orchestrator      *judge.Orchestrator
	gitlabAuthHandler *auth.GitLabHandler
}

// NewHandler creates a new user handler with its dependencies.
func NewHandler(
	cfg *config.Config,
	db *gorm.DB,
	appState *contest.AppState,
	orchestrator *judge.Orchestrator,
) *Handler {
	return &Handler{
		cfg:               cfg,
		db:                db,
		appState:          appState,
		orchestrator:      orchestrator,
		gitlabAuthHandler: auth.NewGitLabHandler(cfg, db),
	}
}
