package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/windoze95/saltybytes-search/internal/config"
	"github.com/windoze95/saltybytes-search/internal/logger"
	"go.uber.org/zap"
)

const (
	// SessionCookieName holds the signed session token.
	SessionCookieName = "recipe_session"

	sessionIDKey     = "session_id"
	localeKey        = "locale"
	sessionTokenType = "session"
	cookieLifetime   = 365 * 24 * time.Hour
)

// SessionClaims identify a browser session and carry its language preference.
type SessionClaims struct {
	SessionID string `json:"sid"`
	Locale    string `json:"locale"`
	Type      string `json:"type"`
	jwt.RegisteredClaims
}

// SignSessionToken returns an HS256 token for sid and locale.
func SignSessionToken(secret, sid, locale string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		SessionID: sid,
		Locale:    locale,
		Type:      sessionTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseSessionToken verifies tokenString and returns its claims.
func ParseSessionToken(secret, tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid session token")
	}
	if claims.Type != sessionTokenType {
		return nil, errors.New("invalid session token type")
	}
	if _, err := uuid.Parse(claims.SessionID); err != nil {
		return nil, errors.New("invalid session id in token")
	}
	return claims, nil
}

// SessionCookieMiddleware reads the session cookie, or starts a new session
// when it is missing or invalid, and stores the session id and locale in the
// gin context.
func SessionCookieMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := cfg.EnvVars.SessionSecret

		if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie != "" {
			claims, err := ParseSessionToken(secret, cookie)
			if err == nil {
				c.Set(sessionIDKey, claims.SessionID)
				c.Set(localeKey, resolveLocale(cfg, claims.Locale))
				c.Next()
				return
			}
			logger.FromContext(c).Debug("discarding invalid session cookie", zap.Error(err))
		}

		sid := uuid.NewString()
		locale := resolveLocale(cfg, preferredLocale(c.GetHeader("Accept-Language")))
		if err := SetSessionCookie(c, cfg, sid, locale); err != nil {
			logger.FromContext(c).Error("failed to sign session cookie", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start session"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// SetSessionCookie issues a fresh cookie and updates the gin context.
func SetSessionCookie(c *gin.Context, cfg *config.Config, sid, locale string) error {
	token, err := SignSessionToken(cfg.EnvVars.SessionSecret, sid, locale, cookieLifetime)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, token, int(cookieLifetime.Seconds()), "/", "", c.Request.TLS != nil, true)
	c.Set(sessionIDKey, sid)
	c.Set(localeKey, locale)
	return nil
}

// SessionID returns the id stored by SessionCookieMiddleware.
func SessionID(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}

// Locale returns the locale stored by SessionCookieMiddleware.
func Locale(c *gin.Context) string {
	return c.GetString(localeKey)
}

func resolveLocale(cfg *config.Config, locale string) string {
	if cfg.Locales != nil {
		return cfg.Locales.Resolve(locale)
	}
	if locale == "" {
		return cfg.EnvVars.DefaultLocale
	}
	return locale
}

// preferredLocale returns the primary subtag of the first Accept-Language
// entry, e.g. "ar" for "ar-EG,ar;q=0.9,en;q=0.8".
func preferredLocale(header string) string {
	first := strings.TrimSpace(strings.SplitN(header, ",", 2)[0])
	first = strings.SplitN(first, ";", 2)[0]
	first = strings.SplitN(first, "-", 2)[0]
	return strings.ToLower(strings.TrimSpace(first))
}
