// Package htmx renders admin pages for both full navigations and HTMX swaps.
package htmx

import (
	"bytes"
	"html"
	"net/http"
	"strings"

	"github.com/a-h/templ"
)

const (
	// RequestHeader marks requests issued by HTMX.
	RequestHeader = "HX-Request"
	// RedirectHeader tells HTMX to perform a full client-side redirect.
	RedirectHeader = "HX-Redirect"
)

// IsHTMXRequest reports whether the request was initiated by HTMX.
func IsHTMXRequest(r *http.Request) bool {
	if r == nil {
		return false
	}
	return strings.EqualFold(r.Header.Get(RequestHeader), "true")
}

// TitleTag formats an escaped `<title>` element.
func TitleTag(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}
	return "<title>" + html.EscapeString(title) + "</title>"
}

// RenderPage writes fragment for HTMX requests and full otherwise. HTMX
// responses are prefixed with htmxTitle so the swap updates the document
// title. A nil fragment falls back to the content of full's <main> element.
func RenderPage(w http.ResponseWriter, r *http.Request, fragment templ.Component, full templ.Component, htmxTitle string) {
	if !IsHTMXRequest(r) {
		if full == nil {
			full = fragment
		}
		if full != nil {
			render(w, r, full, nil)
		}
		return
	}

	var body bytes.Buffer
	switch {
	case fragment != nil:
		if err := fragment.Render(r.Context(), &body); err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
	case full != nil:
		if err := full.Render(r.Context(), &body); err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if content, ok := extractMainContent(body.Bytes()); ok {
			body.Reset()
			body.Write(content)
		}
	default:
		return
	}

	var prefix []byte
	if !bytes.Contains(bytes.ToLower(body.Bytes()), []byte("<title")) {
		prefix = []byte(htmxTitle)
	}
	render(w, r, nil, append(prefix, body.Bytes()...))
}

func render(w http.ResponseWriter, r *http.Request, component templ.Component, raw []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if component == nil {
		_, _ = w.Write(raw)
		return
	}
	var body bytes.Buffer
	if err := component.Render(r.Context(), &body); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(body.Bytes())
}

// Redirect sends HTMX requests to location through the HX-Redirect header and
// answers other requests with an HTTP redirect carrying status.
func Redirect(w http.ResponseWriter, r *http.Request, location string, status int) {
	if IsHTMXRequest(r) {
		w.Header().Set(RedirectHeader, location)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, location, status)
}

func extractMainContent(body []byte) ([]byte, bool) {
	start := bytes.Index(body, []byte("<main"))
	if start < 0 {
		return nil, false
	}
	openClose := bytes.IndexByte(body[start:], '>')
	if openClose < 0 {
		return nil, false
	}
	contentStart := start + openClose + 1
	end := bytes.Index(body[contentStart:], []byte("</main>"))
	if end < 0 {
		return nil, false
	}
	return body[contentStart : contentStart+end], true
}
