package handlers

import (
	"net/http"
	"time"

	"github.com/attestation/backend/internal/config"
	"github.com/attestation/backend/internal/services"
	"github.com/attestation/backend/pkg/jwt"
	"github.com/gin-gonic/gin"
)

const sessionCookie = "attestation_session"

// SessionManager carries the encrypted-profile handle in a signed cookie
type SessionManager struct {
	secret string
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewSessionManager signs and checks tokens against now
func NewSessionManager(cfg *config.Config, now func() time.Time) *SessionManager {
	if now == nil {
		now = time.Now
	}
	return &SessionManager{
		secret: cfg.SessionSecret,
		ttl:    cfg.SessionTTL,
		secure: cfg.CookieSecure,
		now:    now,
	}
}

// Handle returns the store handle of the request's session, if any
func (m *SessionManager) Handle(c *gin.Context) (services.StoreHandle, bool) {
	token, err := c.Cookie(sessionCookie)
	if err != nil || token == "" {
		return services.StoreHandle{}, false
	}
	claims, err := jwt.ValidateSessionToken(token, m.secret, m.now())
	if err != nil {
		return services.StoreHandle{}, false
	}
	h, err := services.ParseStoreHandle(claims.StoreID, claims.StoreKey)
	if err != nil {
		return services.StoreHandle{}, false
	}
	return h, true
}

// Issue sets a fresh session cookie for h
func (m *SessionManager) Issue(c *gin.Context, h services.StoreHandle) error {
	token, err := jwt.GenerateSessionToken(h.ID, h.EncodedKey(), m.secret, m.now(), m.ttl)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(sessionCookie, token, int(m.ttl.Seconds()), "/", "", m.secure, true)
	return nil
}

// Clear expires the session cookie
func (m *SessionManager) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", m.secure, true)
}
