package templates

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
	"github.com/louisbranch/featureadmin/internal/services/admin/csrf"
	routepath "github.com/louisbranch/featureadmin/internal/services/admin/routepath"
)

// Layout wraps body in the admin chrome: navigation, language links and the
// flash message.
func Layout(page PageContext, title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out := &htmlWriter{w: w}
		lang := page.Lang
		if lang == "" {
			lang = "en"
		}
		out.raw("<!DOCTYPE html><html")
		out.attr("lang", lang)
		out.raw(`><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
		out.raw("<title>")
		out.text(T(page.Loc, "layout.title", title))
		out.raw("</title>")
		out.raw(`<link rel="stylesheet" href="` + routepath.StaticPrefix + `admin.css">`)
		out.raw("</head><body><nav>")
		navLink(out, page, routepath.Features, T(page.Loc, "nav.features"))
		navLink(out, page, routepath.Cohorts, T(page.Loc, "nav.cohorts"))
		out.raw(`<span class="languages">`)
		for i, option := range LanguageOptions(page) {
			if i > 0 {
				out.raw(" · ")
			}
			if option.Active {
				out.raw("<strong>")
				out.text(option.Label)
				out.raw("</strong>")
				continue
			}
			out.raw("<a")
			out.attr("href", LanguageURL(page, option.Tag))
			out.raw(">")
			out.text(option.Label)
			out.raw("</a>")
		}
		out.raw("</span></nav><main>")
		if out.err != nil {
			return out.err
		}
		if err := Flash(page.Message).Render(ctx, w); err != nil {
			return err
		}
		if body != nil {
			if err := body.Render(ctx, w); err != nil {
				return err
			}
		}
		out.raw("</main></body></html>")
		return out.err
	})
}

func navLink(out *htmlWriter, page PageContext, path, label string) {
	out.raw("<a")
	out.attr("href", path)
	if page.CurrentPath == path || strings.HasPrefix(page.CurrentPath, path+"/") {
		out.raw(` class="active"`)
	}
	out.raw(">")
	out.text(label)
	out.raw("</a>")
}

// Flash renders a status message, or nothing when message is empty.
func Flash(message string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		message = strings.TrimSpace(message)
		if message == "" {
			return nil
		}
		out := &htmlWriter{w: w}
		out.raw(`<p class="flash" role="status">`)
		out.text(message)
		out.raw("</p>")
		return out.err
	})
}

func csrfField(out *htmlWriter, token string) {
	if token == "" {
		return
	}
	out.raw(`<input type="hidden"`)
	out.attr("name", csrf.FieldName)
	out.attr("value", token)
	out.raw(">")
}
