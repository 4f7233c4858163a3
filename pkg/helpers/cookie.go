package helpers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
)

// SessionCookies writes the access/refresh token pair as HttpOnly cookies.
// The refresh cookie is scoped to the refresh endpoint so it is not sent
// with every admin request.
type SessionCookies struct {
	Domain      string
	Secure      bool
	RefreshPath string
}

func NewSessionCookies(domain string, secure bool) *SessionCookies {
	return &SessionCookies{Domain: domain, Secure: secure, RefreshPath: "/api"}
}

func (m *SessionCookies) SetPair(c *gin.Context, access string, aexp time.Time, refresh string, rexp time.Time) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessCookie, access, maxAgeFrom(aexp), "/", m.Domain, m.Secure, true)
	c.SetCookie(RefreshCookie, refresh, maxAgeFrom(rexp), m.RefreshPath, m.Domain, m.Secure, true)
}

func (m *SessionCookies) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessCookie, "", -1, "/", m.Domain, m.Secure, true)
	c.SetCookie(RefreshCookie, "", -1, m.RefreshPath, m.Domain, m.Secure, true)
}

// RefreshToken returns the refresh cookie value, or "" when absent.
func (m *SessionCookies) RefreshToken(c *gin.Context) string {
	v, err := c.Cookie(RefreshCookie)
	if err != nil {
		return ""
	}
	return v
}

func maxAgeFrom(exp time.Time) int {
	sec := int(time.Until(exp).Seconds())
	if sec < 0 {
		return 0
	}
	return sec
}
