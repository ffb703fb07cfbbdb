package htmx

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/a-h/templ"
)

func text(body string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, body)
		return err
	})
}

func htmxRequest(method string) *http.Request {
	r := httptest.NewRequest(method, "/features", nil)
	r.Header.Set(RequestHeader, "true")
	return r
}

func TestIsHTMXRequest(t *testing.T) {
	t.Parallel()
	if IsHTMXRequest(nil) {
		t.Fatal("IsHTMXRequest(nil) = true, want false")
	}
	if IsHTMXRequest(httptest.NewRequest(http.MethodGet, "/", nil)) {
		t.Fatal("plain request reported as htmx")
	}
	if !IsHTMXRequest(htmxRequest(http.MethodGet)) {
		t.Fatal("htmx request not detected")
	}
}

func TestTitleTag(t *testing.T) {
	t.Parallel()
	if got, want := TitleTag(`Cohort <beta>`), "<title>Cohort &lt;beta&gt;</title>"; got != want {
		t.Fatalf("TitleTag(...) = %q, want %q", got, want)
	}
	if got := TitleTag("   "); got != "" {
		t.Fatalf("TitleTag(blank) = %q, want empty", got)
	}
}

func TestRenderPage(t *testing.T) {
	t.Parallel()

	full := text("<html><main class=\"x\"><p>body</p></main></html>")
	tests := []struct {
		name     string
		htmx     bool
		fragment templ.Component
		want     string
	}{
		{name: "full navigation", fragment: text("<p>fragment</p>"), want: "<html><main class=\"x\"><p>body</p></main></html>"},
		{name: "htmx fragment", htmx: true, fragment: text("<p>fragment</p>"), want: "<title>T</title><p>fragment</p>"},
		{name: "htmx main extraction", htmx: true, want: "<title>T</title><p>body</p>"},
		{name: "htmx keeps own title", htmx: true, fragment: text("<title>Own</title><p>x</p>"), want: "<title>Own</title><p>x</p>"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, "/features", nil)
			if tc.htmx {
				r = htmxRequest(http.MethodGet)
			}
			w := httptest.NewRecorder()
			RenderPage(w, r, tc.fragment, full, TitleTag("T"))
			if got := w.Body.String(); got != tc.want {
				t.Fatalf("body = %q, want %q", got, tc.want)
			}
			if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
				t.Fatalf("Content-Type = %q", ct)
			}
		})
	}
}

func TestRenderPageRenderError(t *testing.T) {
	t.Parallel()
	failing := templ.ComponentFunc(func(context.Context, io.Writer) error { return errors.New("boom") })

	w := httptest.NewRecorder()
	RenderPage(w, htmxRequest(http.MethodGet), failing, nil, "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestRedirect(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	Redirect(w, httptest.NewRequest(http.MethodPost, "/cohorts", nil), "/cohorts?message=ok", http.StatusSeeOther)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/cohorts?message=ok" {
		t.Fatalf("plain redirect = %d %q", w.Code, w.Header().Get("Location"))
	}

	w = httptest.NewRecorder()
	Redirect(w, htmxRequest(http.MethodPost), "/cohorts?message=ok", http.StatusSeeOther)
	if w.Code != http.StatusOK || w.Header().Get(RedirectHeader) != "/cohorts?message=ok" {
		t.Fatalf("htmx redirect = %d %q", w.Code, w.Header().Get(RedirectHeader))
	}
}
