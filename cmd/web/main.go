package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/windoze95/saltybytes-search/internal/config"
	"github.com/windoze95/saltybytes-search/internal/logger"
	"github.com/windoze95/saltybytes-search/internal/router"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// init is called before the main function.
func init() {
	// Initialize structured logger (dev mode if GIN_MODE != release)
	isDev := os.Getenv("GIN_MODE") != "release"
	logger.Init(isDev)

	// Configure the runtime
	ConfigureRuntime()
}

// Entry point for the web client.
func main() {
	defer logger.Sync()

	// Load the config
	var cfg *config.Config
	if c, err := config.LoadConfig(); err != nil {
		logger.Get().Fatal("failed to load config", zap.Error(err))
	} else {
		cfg = c
	}

	// Check that all ENV variables are set
	if err := cfg.CheckConfigEnvFields(); err != nil {
		logger.Get().Fatal("missing required config fields", zap.Error(err))
	}

	// Load translations, embedded unless LOCALES_PATH is set
	locales, err := config.LoadLocales(cfg.EnvVars.LocalesPath, cfg.EnvVars.DefaultLocale)
	if err != nil {
		logger.Get().Fatal("failed to load locales", zap.Error(err))
	}
	cfg.Locales = locales

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Create a new gin router
	gin.SetMode(gin.ReleaseMode)
	r, _, err := router.SetupRouter(ctx, cfg, router.Deps{})
	if err != nil {
		logger.Get().Fatal("failed to set up router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.EnvVars.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Get().Error("server shutdown failed", zap.Error(err))
		}
	}()

	// Run the server
	logger.Get().Info("starting server", zap.String("port", cfg.EnvVars.Port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Get().Fatal("server stopped", zap.Error(err))
	}
	logger.Get().Info("server stopped")
}

// ConfigureRuntime sets the number of operating system threads.
func ConfigureRuntime() {
	nuCPU := runtime.NumCPU()
	runtime.GOMAXPROCS(nuCPU)
	logger.Get().Info("runtime configured", zap.Int("cpus", nuCPU))
}
