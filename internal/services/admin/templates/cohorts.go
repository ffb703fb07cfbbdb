package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/louisbranch/featureadmin/internal/features"
	routepath "github.com/louisbranch/featureadmin/internal/services/admin/routepath"
)

// CohortsPageView holds the cohort list.
type CohortsPageView struct {
	Cohorts []features.Cohort
}

// CohortsPage renders the cohort list and the add form.
func CohortsPage(view CohortsPageView, page PageContext) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		out := &htmlWriter{w: w}
		loc := page.Loc
		out.raw("<h1>")
		out.text(T(loc, "cohorts.title"))
		out.raw("</h1>")

		out.raw(`<form method="post" id="cohort-add-form"`)
		out.attr("action", routepath.Cohorts)
		out.raw(">")
		csrfField(out, page.CSRFToken)
		out.raw(`<label>`)
		out.text(T(loc, "cohorts.add_label"))
		out.raw(` <input type="text" name="add" required></label> <button type="submit">`)
		out.text(T(loc, "cohorts.add_button"))
		out.raw("</button></form>")

		if len(view.Cohorts) == 0 {
			out.raw(`<p class="empty">`)
			out.text(T(loc, "cohorts.empty"))
			out.raw("</p>")
			return out.err
		}
		out.raw(`<ul class="cohorts">`)
		for _, cohort := range view.Cohorts {
			out.raw("<li><a")
			out.attr("href", routepath.Cohort(cohort.ID))
			out.raw(">")
			out.text(cohort.Name)
			out.raw("</a></li>")
		}
		out.raw("</ul>")
		return out.err
	})
}

// CohortsFullPage renders the cohort list inside the layout.
func CohortsFullPage(view CohortsPageView, page PageContext) templ.Component {
	return Layout(page, T(page.Loc, "cohorts.title"), CohortsPage(view, page))
}

// CohortEditView holds one cohort and its members.
type CohortEditView struct {
	Cohort features.Cohort
}

// CohortEditPage renders cohort membership with add and remove forms.
func CohortEditPage(view CohortEditView, page PageContext) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		out := &htmlWriter{w: w}
		loc := page.Loc
		action := routepath.Cohort(view.Cohort.ID)

		out.raw("<p><a")
		out.attr("href", routepath.Cohorts)
		out.raw(">")
		out.text(T(loc, "cohort.back"))
		out.raw("</a></p><h1>")
		out.text(T(loc, "cohort.title", view.Cohort.Name))
		out.raw("</h1>")

		out.raw(`<form method="post" id="member-add-form"`)
		out.attr("action", action)
		out.raw(">")
		csrfField(out, page.CSRFToken)
		out.raw("<label>")
		out.text(T(loc, "cohort.username"))
		out.raw(` <input type="text" name="add" required></label> <button type="submit">`)
		out.text(T(loc, "cohort.add_member"))
		out.raw("</button></form>")

		out.raw("<h2>")
		out.text(T(loc, "cohort.members"))
		out.raw("</h2>")
		if len(view.Cohort.Members) == 0 {
			out.raw(`<p class="empty">`)
			out.text(T(loc, "cohort.no_members"))
			out.raw("</p>")
			return out.err
		}
		out.raw(`<ul class="members">`)
		for _, member := range view.Cohort.Members {
			out.raw("<li")
			out.attr("data-username", member.Username)
			out.raw(">")
			out.text(member.Username)
			out.raw(` <form method="post" class="inline"`)
			out.attr("action", action)
			out.raw(">")
			csrfField(out, page.CSRFToken)
			out.raw(`<input type="hidden" name="remove"`)
			out.attr("value", member.Username)
			out.raw(`><button type="submit">`)
			out.text(T(loc, "cohort.remove_member"))
			out.raw("</button></form></li>")
		}
		out.raw("</ul>")
		return out.err
	})
}

// CohortEditFullPage renders the cohort page inside the layout.
func CohortEditFullPage(view CohortEditView, page PageContext) templ.Component {
	return Layout(page, T(page.Loc, "cohort.title", view.Cohort.Name), CohortEditPage(view, page))
}
