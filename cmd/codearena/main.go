package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/codearena/codearena/internal/api/admin"
	"github.com/codearena/codearena/internal/api/user"
	"github.com/codearena/codearena/internal/config"
	"github.com/codearena/codearena/internal/contest"
	"github.com/codearena/codearena/internal/database"
	"github.com/codearena/codearena/internal/judge"
	"github.com/codearena/codearena/internal/outbox"

	"go.uber.org/zap"
)

var Version = "dev-build"

func main() {

	fmt.Fprintf(os.Stderr, "CodeArena %s - Contest Judging Backend\n\n", Version)

	// config
	var configPath string
	flag.StringVar(&configPath, "c", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// logger
	var logger *zap.Logger
	if cfg.Logger.Level == "debug" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	// database
	db, err := database.Init(cfg.Storage.Database)
	if err != nil {
		zap.S().Fatalf("failed to initialize database: %v", err)
	}
	zap.S().Info("database initialized successfully")

	// contests and problems
	appState := contest.NewAppState()
	contests, problems, err := contest.LoadAllContestsAndProblems(cfg.Contest)
	if err != nil {
		zap.S().Fatalf("failed to load contests and problems: %v", err)
	}
	appState.Replace(contests, problems)
	zap.S().Infof("loaded %d contests and %d problems", len(contests), len(problems))

	// judging pipeline
	client := judge.NewClient(cfg.Judge)
	reconciler := judge.NewReconciler(db)
	orchestrator := judge.NewOrchestrator(db, client, reconciler, cfg.Judge)

	// submission history projector
	projectorCtx, projectorCancel := context.WithCancel(context.Background())
	defer projectorCancel()
	projector := outbox.NewProjector(db)
	go projector.Run(projectorCtx)
	zap.S().Info("submission outbox projector started")

	// API routers
	userEngine := user.NewUserRouter(cfg, db, appState, orchestrator)
	adminEngine := admin.NewAdminRouter(cfg, db, appState)

	// start servers
	go func() {
		zap.S().Infof("starting user server at %s", cfg.Listen)
		if err := userEngine.Run(cfg.Listen); err != nil {
			zap.S().Fatalf("failed to start user server: %v", err)
		}
	}()

	if cfg.Admin.Enabled {
		go func() {
			zap.S().Infof("starting admin server at %s", cfg.Admin.Listen)
			if err := adminEngine.Run(cfg.Admin.Listen); err != nil {
				zap.S().Fatalf("failed to start admin server: %v", err)
			}
		}()
	}

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.S().Info("shutting down server...")
	projectorCancel()
}
