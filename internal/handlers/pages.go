package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/windoze95/saltybytes-search/internal/apierror"
	"github.com/windoze95/saltybytes-search/internal/config"
	"github.com/windoze95/saltybytes-search/internal/logger"
	"github.com/windoze95/saltybytes-search/internal/middleware"
	"github.com/windoze95/saltybytes-search/internal/session"
	"github.com/windoze95/saltybytes-search/internal/web"
	"go.uber.org/zap"
)

// PageHandler serves the server-rendered pages.
type PageHandler struct {
	Cfg      *config.Config
	Renderer *web.Renderer
}

// NewPageHandler is the constructor function for initializing a new PageHandler.
func NewPageHandler(cfg *config.Config, renderer *web.Renderer) *PageHandler {
	return &PageHandler{Cfg: cfg, Renderer: renderer}
}

// Home renders the search page. A query parameter runs the search first;
// without one any open error modal is closed.
func (h *PageHandler) Home(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No session"})
		return
	}

	status := http.StatusOK
	if query, submitted := c.GetQuery("query"); !submitted {
		sess.DismissError()
	} else {
		cuisine := c.Query("cuisine")
		maxCalories := parseOptionalInt(c.Query("max_calories"))

		err := sess.SearchFor(c.Request.Context(), query, cuisine, maxCalories)
		if err != nil && !errors.Is(err, session.ErrEmptyQuery) {
			status = statusFor(apierror.Classify(err))
		}
	}

	c.HTML(status, web.SearchPage, h.Renderer.Page(sess.Snapshot(), c.Request.URL.RequestURI()))
}

// Recipe renders the detail page for recipe_id. The ingredient data keeps
// arriving over the socket after the page is served; "?reload=1" starts the
// view over even when the recipe is already open.
func (h *PageHandler) Recipe(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No session"})
		return
	}

	recipeID, err := parseIDParam(c.Param("recipe_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recipe ID"})
		return
	}

	ctx := c.Request.Context()
	if c.Query("reload") != "" {
		err = sess.OpenRecipe(ctx, recipeID)
	} else {
		err = sess.ShowRecipe(ctx, recipeID)
	}

	status := http.StatusOK
	if err != nil {
		cat := apierror.Classify(err)
		logger.FromContext(c).Warn("recipe page rendered with error",
			zap.Int("recipe_id", recipeID),
			zap.String("category", string(cat)))
		status = statusFor(cat)
	}

	c.HTML(status, web.RecipePage, h.Renderer.Page(sess.Snapshot(), c.Request.URL.Path))
}

// ToggleExclusion flips one ingredient's exclusion and returns to the recipe.
func (h *PageHandler) ToggleExclusion(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No session"})
		return
	}

	recipeID, err := parseIDParam(c.Param("recipe_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recipe ID"})
		return
	}
	ingredientID, err := parseIDParam(c.Param("ingredient_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ingredient ID"})
		return
	}

	snap := sess.Snapshot()
	if snap.Recipe != nil && snap.Recipe.ID == recipeID {
		sess.ToggleExclusion(ingredientID)
	}
	c.Redirect(http.StatusSeeOther, "/recipes/"+c.Param("recipe_id"))
}

// SetLanguage stores the language preference in the session and its cookie.
func (h *PageHandler) SetLanguage(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No session"})
		return
	}

	locale := sess.SetLocale(c.Param("locale"))
	if err := middleware.SetSessionCookie(c, h.Cfg, sess.ID, locale); err != nil {
		logger.FromContext(c).Error("failed to update session cookie", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save language"})
		return
	}
	c.Redirect(http.StatusSeeOther, safeRedirect(c.PostForm("next")))
}

// DismissError closes the error modal and redirects to next, or to the
// search page.
func (h *PageHandler) DismissError(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No session"})
		return
	}

	sess.DismissError()
	c.Redirect(http.StatusSeeOther, safeRedirect(c.PostForm("next")))
}

// Suggestions returns the session's current suggestion list.
func (h *PageHandler) Suggestions(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No session"})
		return
	}

	if query, present := c.GetQuery("query"); present {
		sess.QueryChanged(query)
	}

	snap := sess.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"query":       snap.Query,
		"open":        snap.SuggestionsOpen,
		"loading":     snap.SuggestionsLoading,
		"suggestions": snap.Suggestions,
	})
}

// Ping reports liveness.
func Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}
