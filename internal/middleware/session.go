package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/irfndi/timeseries-dashboard/internal/config"
)

// SessionIDKey is the gin context key holding the browser session id.
const SessionIDKey = "session_id"

// SessionClaims is the payload of the signed session cookie.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// SessionMiddleware issues and validates the session cookie that keys the
// session store. Every request leaves it with a session id.
type SessionMiddleware struct {
	secretKey  []byte
	cookieName string
	ttl        time.Duration
	secure     bool
	logger     *slog.Logger
	now        func() time.Time
}

// NewSessionMiddleware builds the middleware from config. An empty secret
// (allowed in development only) is replaced by a random per-process key,
// so cookies do not survive a restart.
func NewSessionMiddleware(cfg config.SessionConfig, logger *slog.Logger) *SessionMiddleware {
	if logger == nil {
		logger = slog.Default()
	}

	secret := cfg.Secret
	if secret == "" {
		secret = uuid.NewString() + uuid.NewString()
		logger.Warn("session secret not configured, using an ephemeral key")
	}

	name := cfg.CookieName
	if name == "" {
		name = "ts_session"
	}

	return &SessionMiddleware{
		secretKey:  []byte(secret),
		cookieName: name,
		ttl:        cfg.SessionTTL(),
		secure:     cfg.Secure,
		logger:     logger,
		now:        time.Now,
	}
}

// CookieName returns the name of the session cookie.
func (sm *SessionMiddleware) CookieName() string {
	return sm.cookieName
}

// Handler attaches the session id to the request, starting a new session
// when the cookie is missing, expired or tampered with. A cookie past half
// its lifetime is re-signed so active visitors keep their session.
func (sm *SessionMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := c.Cookie(sm.cookieName); err == nil && token != "" {
			claims, err := sm.ValidateToken(token)
			if err == nil {
				if sm.needsRefresh(claims) {
					if err := sm.issue(c, claims.SessionID); err != nil {
						sm.logger.Warn("failed to refresh session cookie", "error", err.Error())
					}
				}
				c.Set(SessionIDKey, claims.SessionID)
				c.Next()
				return
			}
			if errors.Is(err, jwt.ErrTokenExpired) {
				sm.logger.Debug("session cookie expired, starting a new session")
			} else {
				sm.logger.Warn("rejected session cookie", "error", err.Error())
			}
		}

		sessionID := uuid.NewString()
		if err := sm.issue(c, sessionID); err != nil {
			sm.logger.Error("failed to sign session cookie", "error", err.Error())
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to start session"})
			return
		}
		c.Set(SessionIDKey, sessionID)
		c.Next()
	}
}

// issue signs a cookie for sessionID and sets it on the response.
func (sm *SessionMiddleware) issue(c *gin.Context, sessionID string) error {
	token, err := sm.GenerateToken(sessionID)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sm.cookieName, token, int(sm.ttl.Seconds()), "/", "", sm.secure, true)
	return nil
}

func (sm *SessionMiddleware) needsRefresh(claims *SessionClaims) bool {
	if claims.IssuedAt == nil {
		return true
	}
	return sm.now().Sub(claims.IssuedAt.Time) > sm.ttl/2
}

// GenerateToken signs a cookie value for sessionID.
func (sm *SessionMiddleware) GenerateToken(sessionID string) (string, error) {
	now := sm.now()
	claims := &SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(sm.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(sm.secretKey)
}

// ValidateToken checks the signature and expiry of a cookie value.
func (sm *SessionMiddleware) ValidateToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return sm.secretKey, nil
	}, jwt.WithTimeFunc(sm.now))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if _, err := uuid.Parse(claims.SessionID); err != nil {
		return nil, fmt.Errorf("invalid session id: %w", err)
	}
	return claims, nil
}

// SessionID returns the id set by SessionMiddleware, or "" outside it.
func SessionID(c *gin.Context) string {
	return c.GetString(SessionIDKey)
}
