// Package csrf guards state-changing admin requests.
//
// Two checks are available: same-origin verification of the Origin or
// Referer header, and a double-submit token carried in a cookie and echoed in
// the form or a request header. Chain runs several checks in order.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/louisbranch/featureadmin/internal/platform/errors"
)

const (
	// FieldName is the hidden form field carrying the token.
	FieldName = "csrf_token"
	// HeaderName carries the token for HTMX and scripted requests.
	HeaderName = "X-CSRF-Token"
	// CookieName stores the token issued to the browser.
	CookieName = "featureadmin_csrf"

	tokenBytes = 32
)

// Protector checks state-changing requests and issues form tokens.
type Protector interface {
	// Check returns a CodeCSRFInvalid error when the request must be rejected.
	Check(r *http.Request) error
	// Token returns the value forms should submit in FieldName. It may set a
	// cookie on w and returns "" when the protector does not use tokens.
	Token(w http.ResponseWriter, r *http.Request) string
}

func invalid(reason string) error {
	return apperrors.New(apperrors.CodeCSRFInvalid, "csrf: "+reason)
}

// SameOrigin rejects requests whose Origin or Referer points at another host.
type SameOrigin struct{}

// Check implements Protector.
func (SameOrigin) Check(r *http.Request) error {
	if r == nil {
		return invalid("missing request")
	}
	if origin := strings.TrimSpace(r.Header.Get("Origin")); origin != "" {
		if !sameOrigin(origin, r) {
			return invalid("origin mismatch")
		}
		return nil
	}
	if referer := strings.TrimSpace(r.Referer()); referer != "" {
		if !sameOrigin(referer, r) {
			return invalid("referer mismatch")
		}
		return nil
	}
	return invalid("missing origin")
}

// Token implements Protector.
func (SameOrigin) Token(http.ResponseWriter, *http.Request) string {
	return ""
}

func sameOrigin(rawURL string, r *http.Request) bool {
	if rawURL == "" || rawURL == "null" || r == nil {
		return false
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return false
	}
	if !strings.EqualFold(parsed.Host, r.Host) {
		return false
	}
	if parsed.Scheme != "" {
		return strings.EqualFold(parsed.Scheme, RequestScheme(r))
	}
	return true
}

// RequestScheme reports the scheme the client used, honoring X-Forwarded-Proto.
func RequestScheme(r *http.Request) string {
	if r == nil {
		return "http"
	}
	if proto := strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")); proto != "" {
		parts := strings.Split(proto, ",")
		return strings.ToLower(strings.TrimSpace(parts[0]))
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

// DoubleSubmit compares a cookie token with the token echoed by the form.
type DoubleSubmit struct{}

// Check implements Protector.
func (DoubleSubmit) Check(r *http.Request) error {
	if r == nil {
		return invalid("missing request")
	}
	cookie, err := r.Cookie(CookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		return invalid("missing token cookie")
	}
	submitted := strings.TrimSpace(r.Header.Get(HeaderName))
	if submitted == "" {
		submitted = strings.TrimSpace(r.PostFormValue(FieldName))
	}
	if submitted == "" {
		return invalid("missing submitted token")
	}
	if subtle.ConstantTimeCompare([]byte(submitted), []byte(cookie.Value)) != 1 {
		return invalid("token mismatch")
	}
	return nil
}

// Token implements Protector. It reuses the request cookie when present.
func (DoubleSubmit) Token(w http.ResponseWriter, r *http.Request) string {
	if r != nil {
		if cookie, err := r.Cookie(CookieName); err == nil && strings.TrimSpace(cookie.Value) != "" {
			return cookie.Value
		}
	}
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	token := hex.EncodeToString(buf)
	if w != nil {
		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			Secure:   RequestScheme(r) == "https",
			SameSite: http.SameSiteStrictMode,
		})
	}
	return token
}

// Chain runs protectors in order and stops at the first failure.
type Chain []Protector

// Check implements Protector.
func (c Chain) Check(r *http.Request) error {
	for _, p := range c {
		if p == nil {
			continue
		}
		if err := p.Check(r); err != nil {
			return err
		}
	}
	return nil
}

// Token implements Protector with the first non-empty token.
func (c Chain) Token(w http.ResponseWriter, r *http.Request) string {
	for _, p := range c {
		if p == nil {
			continue
		}
		if token := p.Token(w, r); token != "" {
			return token
		}
	}
	return ""
}

// Default is the protector the admin server uses.
func Default() Protector {
	return Chain{SameOrigin{}, DoubleSubmit{}}
}
