package security

import (
	"net/http"
	"strings"
	"time"
)

// Cookie names mirror the client storage keys, so web and mobile clients
// share one contract.
const (
	CookieAccessToken  = "accessToken"
	CookieIDToken      = "idToken"
	CookieRefreshToken = "refreshToken"
)

type CookieManager struct {
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

func NewCookieManager(domain string, secure bool, sameSite string) *CookieManager {
	ss := http.SameSiteLaxMode
	switch strings.ToLower(sameSite) {
	case "none":
		ss = http.SameSiteNoneMode
	case "strict":
		ss = http.SameSiteStrictMode
	}
	return &CookieManager{Domain: domain, Secure: secure, SameSite: ss}
}

func (c *CookieManager) SetTokenCookies(w http.ResponseWriter, accessToken, idToken, refreshToken string, accessTTL, refreshTTL time.Duration) {
	set := func(name, value string, maxAge int) {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    value,
			Path:     "/",
			HttpOnly: true,
			Secure:   c.Secure,
			SameSite: c.SameSite,
			Domain:   c.Domain,
			MaxAge:   maxAge,
		})
	}
	set(CookieAccessToken, accessToken, int(accessTTL.Seconds()))
	set(CookieIDToken, idToken, int(accessTTL.Seconds()))
	set(CookieRefreshToken, refreshToken, int(refreshTTL.Seconds()))
}

func (c *CookieManager) ClearTokenCookies(w http.ResponseWriter) {
	for _, name := range []string{CookieAccessToken, CookieIDToken, CookieRefreshToken} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   c.Secure,
			SameSite: c.SameSite,
			Domain:   c.Domain,
		})
	}
}

func GetCookie(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
