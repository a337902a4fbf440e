package router

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/windoze95/saltybytes-search/internal/cache"
	"github.com/windoze95/saltybytes-search/internal/config"
	"github.com/windoze95/saltybytes-search/internal/handlers"
	"github.com/windoze95/saltybytes-search/internal/logger"
	"github.com/windoze95/saltybytes-search/internal/metrics"
	"github.com/windoze95/saltybytes-search/internal/middleware"
	"github.com/windoze95/saltybytes-search/internal/recipeapi"
	"github.com/windoze95/saltybytes-search/internal/session"
	"github.com/windoze95/saltybytes-search/internal/web"
	"github.com/windoze95/saltybytes-search/internal/ws"
	"go.uber.org/zap"
)

const (
	sweepInterval      = time.Minute
	rateLimitCleanup   = time.Minute
	rateLimitExpiry    = 5 * time.Minute
	memoryCacheEntries = 2048
)

// Deps carries collaborators that tests replace. A nil API means a
// recipeapi.Client built from the config.
type Deps struct {
	API session.API
}

// NewRecipeClient builds the recipe service client, caching responses in
// Redis when REDIS_URL is set and in memory otherwise. The returned func
// releases the cache connection.
func NewRecipeClient(cfg *config.Config) (*recipeapi.Client, func(), error) {
	env := cfg.EnvVars
	var store cache.Cache
	release := func() {}

	if env.RedisURL != "" {
		r, err := cache.NewRedis(env.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		store = r
		release = func() { r.Close() }
		logger.Get().Info("caching recipe responses in redis")
	} else {
		store = cache.NewMemory(memoryCacheEntries)
	}

	client := recipeapi.NewClient(env.RecipeAPIBaseURL, env.Upstream.Timeout,
		recipeapi.WithCache(store, env.Upstream.CacheTTL))
	return client, release, nil
}

// SetupRouter sets up the Gin router. Background work (the websocket hub
// and the idle session sweep) stops when ctx is done.
func SetupRouter(ctx context.Context, cfg *config.Config, deps Deps) (*gin.Engine, *session.Manager, error) {
	api := deps.API
	if api == nil {
		client, release, err := NewRecipeClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		context.AfterFunc(ctx, release)
		api = client
	}

	renderer, err := web.NewRenderer(cfg.Locales)
	if err != nil {
		return nil, nil, err
	}

	// Sessions and their websocket fan-out
	manager := session.NewManager(api, cfg.Locales, session.OptionsFromConfig(cfg), cfg.EnvVars.SessionTTL)
	hub := ws.NewHub()
	go hub.Run(ctx)
	sessionHandler := ws.NewSessionHandler(hub, manager, renderer, cfg.EnvVars.AllowedOrigins)
	manager.OnPublish(sessionHandler.Publish)
	go manager.Run(ctx, sweepInterval)
	context.AfterFunc(ctx, manager.Close)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestIDMiddleware())
	r.Use(logger.AccessLogMiddleware())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.EnvVars.AllowedOrigins))
	r.SetHTMLTemplate(renderer.Templates())

	// Routes that need no session
	r.GET("/ping", handlers.Ping)
	r.GET("/metrics", metrics.Handler())
	r.StaticFS("/static", web.Static())

	pageHandler := handlers.NewPageHandler(cfg, renderer)

	pages := r.Group("/")
	{
		pages.Use(middleware.SessionCookieMiddleware(cfg))
		pages.Use(middleware.RateLimitBySession(cfg.EnvVars.RateLimit, rateLimitCleanup, rateLimitExpiry))
		pages.Use(middleware.AttachSession(manager))
		pages.Use(middleware.NoStore())

		// Search page; "?query=" runs a search
		pages.GET("/", pageHandler.Home)
		// Recipe detail page
		pages.GET("/recipes/:recipe_id", pageHandler.Recipe)
		// Toggle an ingredient's exclusion without javascript
		pages.POST("/recipes/:recipe_id/exclusions/:ingredient_id", pageHandler.ToggleExclusion)
		// Switch the display language
		pages.POST("/language/:locale", pageHandler.SetLanguage)
		// Close the error modal without javascript
		pages.POST("/errors/dismiss", pageHandler.DismissError)
		// Current suggestion list as JSON
		pages.GET("/suggestions", pageHandler.Suggestions)
		// Live session updates
		pages.GET("/ws", sessionHandler.HandleSession)
	}

	logger.Get().Info("router configured",
		zap.Strings("locales", cfg.Locales.Locales()),
		zap.Bool("redis_cache", cfg.EnvVars.RedisURL != "" && deps.API == nil))

	return r, manager, nil
}
