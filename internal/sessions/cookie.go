package sessions

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"
)

const CookieName = "photo_session"

// Cookie signs session ids so a client cannot forge or enumerate them.
type Cookie struct {
	secret []byte
	ttl    time.Duration
	secure bool
}

func NewCookie(secret string, ttl time.Duration, secure bool) *Cookie {
	return &Cookie{secret: []byte(secret), ttl: ttl, secure: secure}
}

func (c *Cookie) TTL() time.Duration {
	return c.ttl
}

func (c *Cookie) sign(id string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(id))
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *Cookie) Encode(id string) string {
	return id + "." + c.sign(id)
}

// Decode returns the session id carried by a cookie value, or false when the
// signature does not match.
func (c *Cookie) Decode(value string) (string, bool) {
	id, sig, ok := strings.Cut(value, ".")
	if !ok || id == "" {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(c.sign(id))) {
		return "", false
	}
	return id, true
}

// Read extracts the session id from the request, if the cookie is present and valid.
func (c *Cookie) Read(r *http.Request) (string, bool) {
	ck, err := r.Cookie(CookieName)
	if err != nil {
		return "", false
	}
	return c.Decode(ck.Value)
}

func (c *Cookie) Write(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    c.Encode(id),
		Path:     "/",
		MaxAge:   int(c.ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c *Cookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
