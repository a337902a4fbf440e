package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/windoze95/saltybytes-search/internal/session"
)

const sessionKey = "session"

// AttachSession looks up (or creates) the session named by the cookie and
// attaches it to the context. It must run after SessionCookieMiddleware.
func AttachSession(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := SessionID(c)
		if sid == "" {
			c.Set(sessionKey, nil)
			c.Next()
			return
		}
		c.Set(sessionKey, manager.Get(sid, Locale(c)))
		c.Next()
	}
}

// SessionFromContext returns the session attached by AttachSession.
func SessionFromContext(c *gin.Context) (*session.Session, bool) {
	val, exists := c.Get(sessionKey)
	if !exists {
		return nil, false
	}
	s, ok := val.(*session.Session)
	return s, ok && s != nil
}
