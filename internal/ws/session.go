package ws

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/windoze95/saltybytes-search/internal/logger"
	"github.com/windoze95/saltybytes-search/internal/middleware"
	"github.com/windoze95/saltybytes-search/internal/session"
	"github.com/windoze95/saltybytes-search/internal/state"
	"github.com/windoze95/saltybytes-search/internal/web"
	"go.uber.org/zap"
)

// WebSocket message types for the session protocol.
const (
	MsgTypeQueryChanged         = "query_changed"         // Search box edited
	MsgTypeFiltersChanged       = "filters_changed"       // Cuisine or calorie cap changed
	MsgTypeSearchSubmitted      = "search_submitted"      // Search form submitted
	MsgTypeSuggestionSelected   = "suggestion_selected"   // Suggestion clicked
	MsgTypeSuggestionsDismissed = "suggestions_dismissed" // Click outside the list
	MsgTypeRecipeOpened         = "recipe_opened"         // Recipe card clicked
	MsgTypeExclusionToggled     = "exclusion_toggled"     // Ingredient card clicked
	MsgTypeLanguageChanged      = "language_changed"      // Language switcher
	MsgTypeErrorDismissed       = "error_dismissed"       // Modal closed
	MsgTypeSnapshot             = "snapshot"              // Rendered session state
	MsgTypeError                = "error"                 // Error message
	MsgTypeConnected            = "connected"             // Connection confirmed
)

// WSMessage is the envelope for all messages sent over the session WebSocket.
type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// QueryPayload carries the raw search box text.
type QueryPayload struct {
	Query string `json:"query"`
}

// FiltersPayload carries both filter values.
type FiltersPayload struct {
	Cuisine     string `json:"cuisine"`
	MaxCalories int    `json:"max_calories"`
}

// SuggestionPayload names the chosen suggestion.
type SuggestionPayload struct {
	Title string `json:"title"`
}

// RecipePayload names the recipe to open.
type RecipePayload struct {
	RecipeID int `json:"recipe_id"`
}

// ExclusionPayload names the ingredient to toggle.
type ExclusionPayload struct {
	IngredientID int `json:"ingredient_id"`
}

// LanguagePayload names the requested locale.
type LanguagePayload struct {
	Locale string `json:"locale"`
}

// SnapshotPayload is the session state plus its rendered page regions.
type SnapshotPayload struct {
	Snapshot state.Snapshot    `json:"snapshot"`
	HTML     map[string]string `json:"html,omitempty"`
}

// ErrorPayload carries an error message to the client.
type ErrorPayload struct {
	Message string `json:"message"`
}

// ConnectedPayload confirms a successful connection.
type ConnectedPayload struct {
	SessionID string `json:"session_id"`
}

// SessionHandler streams session snapshots to browsers and feeds their UI
// events back into the session.
type SessionHandler struct {
	Hub            *Hub
	Sessions       *session.Manager
	Renderer       *web.Renderer
	AllowedOrigins []string

	upgrader websocket.Upgrader
}

// NewSessionHandler returns a new SessionHandler.
func NewSessionHandler(hub *Hub, sessions *session.Manager, renderer *web.Renderer, allowedOrigins []string) *SessionHandler {
	h := &SessionHandler{
		Hub:            hub,
		Sessions:       sessions,
		Renderer:       renderer,
		AllowedOrigins: allowedOrigins,
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin:     h.checkOrigin,
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
	}
	return h
}

// checkOrigin accepts same-host pages, configured origins and localhost.
func (h *SessionHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, allowed := range h.AllowedOrigins {
		if strings.EqualFold(strings.TrimSpace(allowed), origin) {
			return true
		}
	}
	// Allow localhost for development
	return strings.HasPrefix(origin, "http://localhost:") || origin == "http://localhost"
}

// Publish renders snap and broadcasts it to every tab of the session. It is
// installed as the session manager's publish hook.
func (h *SessionHandler) Publish(sessionID string, snap state.Snapshot) {
	msg, err := h.snapshotMessage(snap)
	if err != nil {
		logger.ForSession(sessionID).Error("failed to render snapshot", zap.Error(err))
		return
	}
	h.Hub.Publish(sessionID, msg)
}

func (h *SessionHandler) snapshotMessage(snap state.Snapshot) ([]byte, error) {
	html, err := h.Renderer.Fragments(snap, "/")
	if err != nil {
		return nil, err
	}
	return encode(MsgTypeSnapshot, SnapshotPayload{Snapshot: snap, HTML: html})
}

// HandleSession upgrades an HTTP request to a WebSocket connection for the
// session named by the cookie.
func (h *SessionHandler) HandleSession(c *gin.Context) {
	log := logger.FromContext(c)

	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "session cookie is required"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed", zap.String("session_id", sess.ID), zap.Error(err))
		return
	}

	client := &Client{
		Hub:    h.Hub,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		RoomID: sess.ID,
		Locale: middleware.Locale(c),
	}
	select {
	case h.Hub.Register <- client:
	case <-h.Hub.done:
		conn.Close()
		return
	}

	h.greet(client, sess)

	log.Info("session socket opened", zap.String("session_id", sess.ID))

	go client.WritePump()
	go client.ReadPump(func(cl *Client, data []byte) {
		h.handleMessage(cl, data)
	})
}

// greet sends the connection confirmation and the current state.
func (h *SessionHandler) greet(client *Client, sess *session.Session) {
	connected, _ := encode(MsgTypeConnected, ConnectedPayload{SessionID: sess.ID})
	client.Deliver(connected)

	msg, err := h.snapshotMessage(sess.Snapshot())
	if err != nil {
		logger.ForSession(sess.ID).Error("failed to render snapshot", zap.Error(err))
		h.sendError(client, "failed to render page")
		return
	}
	client.Deliver(msg)
}

// handleMessage parses an incoming WebSocket message and routes it to the
// session. Operations that call the recipe service run on their own
// goroutine so the read pump keeps draining the socket.
func (h *SessionHandler) handleMessage(client *Client, data []byte) {
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.sendError(client, "invalid message format")
		return
	}

	logger.ForSession(client.RoomID).Debug("received ws message", zap.String("type", msg.Type))

	// An expired session is recreated so the tab keeps working.
	sess := h.Sessions.Get(client.RoomID, client.Locale)

	switch msg.Type {
	case MsgTypeQueryChanged:
		var p QueryPayload
		if !h.decode(client, msg, &p) {
			return
		}
		sess.QueryChanged(p.Query)

	case MsgTypeFiltersChanged:
		var p FiltersPayload
		if !h.decode(client, msg, &p) {
			return
		}
		sess.SetFilters(p.Cuisine, p.MaxCalories)

	case MsgTypeSearchSubmitted:
		go sess.Search(sess.Context())

	case MsgTypeSuggestionSelected:
		var p SuggestionPayload
		if !h.decode(client, msg, &p) {
			return
		}
		go sess.SelectSuggestion(sess.Context(), p.Title)

	case MsgTypeSuggestionsDismissed:
		sess.DismissSuggestions()

	case MsgTypeRecipeOpened:
		var p RecipePayload
		if !h.decode(client, msg, &p) {
			return
		}
		if p.RecipeID <= 0 {
			h.sendError(client, "recipe_id must be a positive integer")
			return
		}
		go sess.OpenRecipe(sess.Context(), p.RecipeID)

	case MsgTypeExclusionToggled:
		var p ExclusionPayload
		if !h.decode(client, msg, &p) {
			return
		}
		if !sess.ToggleExclusion(p.IngredientID) {
			h.sendError(client, "no recipe is open")
		}

	case MsgTypeLanguageChanged:
		var p LanguagePayload
		if !h.decode(client, msg, &p) {
			return
		}
		client.Locale = sess.SetLocale(p.Locale)

	case MsgTypeErrorDismissed:
		sess.DismissError()

	default:
		h.sendError(client, "unknown message type: "+msg.Type)
	}
}

func (h *SessionHandler) decode(client *Client, msg WSMessage, v interface{}) bool {
	if len(msg.Payload) == 0 {
		h.sendError(client, "missing "+msg.Type+" payload")
		return false
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		h.sendError(client, "invalid "+msg.Type+" payload")
		return false
	}
	return true
}

// sendError sends an error message to a single client.
func (h *SessionHandler) sendError(client *Client, message string) {
	msg, _ := encode(MsgTypeError, ErrorPayload{Message: message})
	client.Deliver(msg)
}

func encode(msgType string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(WSMessage{Type: msgType, Payload: raw})
}
