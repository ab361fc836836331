package server

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
)

const (
	// sessionCookieName carries the signed id of the dashboard session
	sessionCookieName = "s"
	// authStateCookieName binds a pending login to the browser that started it
	authStateCookieName = "auth_state"
)

// generateRandomString creates a random base64url string
func generateRandomString(length int) string {
	b := make([]byte, length)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// setSignedCookie writes a signed cookie. maxAge 0 makes a browser session cookie, -1 deletes it.
func (s *Server) setSignedCookie(w http.ResponseWriter, r *http.Request, name, value string, maxAge int) {
	if maxAge >= 0 {
		value = s.cookies.Sign(value)
	} else {
		value = ""
	}

	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

// signedCookie returns the verified value of a signed cookie.
func (s *Server) signedCookie(r *http.Request, name string) (string, bool) {
	cookie, err := r.Cookie(name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	value, err := s.cookies.Verify(cookie.Value)
	if err != nil {
		return "", false
	}
	return value, true
}
