package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ironrail/rails-server-go/internal/auth"
	"github.com/ironrail/rails-server-go/internal/config"
	"github.com/ironrail/rails-server-go/internal/game"
	"github.com/ironrail/rails-server-go/internal/lobby"
	"github.com/ironrail/rails-server-go/internal/repository"
	"github.com/ironrail/rails-server-go/internal/server"
)

var version = "dev" // set via ldflags during build

func main() {
	var configPath string

	root := &cobra.Command{
		Use:          "rails-server",
		Short:        "18xx rules-engine server",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to configuration file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP/WebSocket game server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(configPath)
		},
	}

	replayCmd := &cobra.Command{
		Use:   "replay <save-file>",
		Short: "Replay a save file and print the game report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(configPath, args[0])
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the server version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Println(version)
		},
	}

	root.AddCommand(serveCmd, replayCmd, versionCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("starting rails server",
		zap.String("version", version),
		zap.String("address", cfg.Server.Address),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var repo *repository.GameRepository
	if cfg.Database.URL != "" {
		pool, err := repository.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		repo = repository.NewGameRepository(pool)
		if err := repo.Bootstrap(ctx); err != nil {
			return fmt.Errorf("bootstrap database: %w", err)
		}
		logger.Info("saved-game store initialized")
	} else {
		logger.Info("no database configured, saves stay on the filesystem")
	}

	saveDir := ""
	if cfg.Game.Autosave {
		saveDir = cfg.Game.SaveDir
	}
	engine := game.NewEngine(logger, saveDir)
	logger.Info("game engine initialized", zap.String("save_dir", saveDir))

	authMgr := auth.NewManager(cfg.Auth.SessionTTL, cfg.Auth.BcryptCost)
	logger.Info("auth manager initialized", zap.Duration("session_ttl", cfg.Auth.SessionTTL))

	lobbyMgr := lobby.NewManager(logger)
	logger.Info("lobby manager initialized")

	srv := server.New(cfg, logger, engine, authMgr, lobbyMgr, repo)
	go srv.Run(ctx)

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("address", cfg.Server.Address))
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && serveErr != http.ErrServerClosed {
			errChan <- serveErr
		}
	}()

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case serveErr := <-errChan:
		logger.Error("server error", zap.Error(serveErr))
	}

	logger.Info("shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}

	logger.Info("rails server stopped")
	return nil
}

func runReplay(configPath, savePath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logger, err := initLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer logger.Sync()

	sup, err := game.LoadSavedGame(savePath, logger)
	if err != nil {
		return fmt.Errorf("replay %s: %w", savePath, err)
	}
	for _, line := range sup.GameReport() {
		fmt.Println(line)
	}
	return nil
}

// initLogger builds the zap logger from configuration.
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
