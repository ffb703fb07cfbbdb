package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/louisbranch/featureadmin/internal/features"
	routepath "github.com/louisbranch/featureadmin/internal/services/admin/routepath"
)

// FeatureRow is one feature in the features form.
type FeatureRow struct {
	Name        string
	Description string
	Everyone    bool
	Staff       bool
	Admins      bool
	Cohorts     []CohortToggle
}

// CohortToggle is one cohort checkbox for a feature.
type CohortToggle struct {
	Name string
	On   bool
}

// FeaturesPageView holds the features form.
type FeaturesPageView struct {
	Features []FeatureRow
}

// BuildFeatureRows pairs stored features with registry descriptions and the
// full cohort list.
func BuildFeatureRows(feats []features.Feature, cohorts []features.Cohort, describe func(string) string) []FeatureRow {
	rows := make([]FeatureRow, 0, len(feats))
	for _, feat := range feats {
		row := FeatureRow{
			Name:     feat.Name,
			Everyone: feat.Everyone,
			Staff:    feat.Staff,
			Admins:   feat.Admins,
		}
		if describe != nil {
			row.Description = describe(feat.Name)
		}
		for _, cohort := range cohorts {
			row.Cohorts = append(row.Cohorts, CohortToggle{Name: cohort.Name, On: feat.HasCohort(cohort.Name)})
		}
		rows = append(rows, row)
	}
	return rows
}

// FeaturesPage renders the features form.
func FeaturesPage(view FeaturesPageView, page PageContext) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		out := &htmlWriter{w: w}
		loc := page.Loc
		out.raw("<h1>")
		out.text(T(loc, "features.title"))
		out.raw("</h1>")
		if len(view.Features) == 0 {
			out.raw(`<p class="empty">`)
			out.text(T(loc, "features.empty"))
			out.raw("</p>")
			return out.err
		}

		out.raw(`<form method="post" id="features-form"`)
		out.attr("action", routepath.Features)
		out.raw(">")
		csrfField(out, page.CSRFToken)
		out.raw("<table><thead><tr>")
		for _, key := range []string{
			"features.column.name",
			"features.column.everyone",
			"features.column.staff",
			"features.column.admins",
			"features.column.cohorts",
		} {
			out.raw("<th>")
			out.text(T(loc, key))
			out.raw("</th>")
		}
		out.raw("</tr></thead><tbody>")
		for _, row := range view.Features {
			featureRow(out, row)
		}
		out.raw("</tbody></table><button type=\"submit\">")
		out.text(T(loc, "features.save"))
		out.raw("</button></form>")
		return out.err
	})
}

func featureRow(out *htmlWriter, row FeatureRow) {
	out.raw("<tr")
	out.attr("data-feature", row.Name)
	out.raw("><td><code>")
	out.text(row.Name)
	out.raw("</code>")
	if row.Description != "" {
		out.raw(`<div class="description">`)
		out.text(row.Description)
		out.raw("</div>")
	}
	out.raw("</td>")
	for _, attr := range features.Attributes {
		on := false
		switch attr {
		case features.AttrEveryone:
			on = row.Everyone
		case features.AttrStaff:
			on = row.Staff
		case features.AttrAdmins:
			on = row.Admins
		}
		out.raw(`<td class="toggle"><input type="checkbox"`)
		out.attr("name", features.AttrKey(row.Name, attr))
		out.attr("value", features.ValueOn)
		out.checked(on)
		out.raw("></td>")
	}
	out.raw(`<td class="cohort-toggles">`)
	for _, cohort := range row.Cohorts {
		key := features.CohortKey(row.Name, cohort.Name)
		// The hidden "off" precedes the checkbox so a checked box wins.
		out.raw(`<input type="hidden"`)
		out.attr("name", key)
		out.attr("value", features.ValueOff)
		out.raw("><label><input type=\"checkbox\"")
		out.attr("name", key)
		out.attr("value", features.ValueOn)
		out.checked(cohort.On)
		out.raw("> ")
		out.text(cohort.Name)
		out.raw("</label>")
	}
	out.raw("</td></tr>")
}

// FeaturesFullPage renders the features form inside the layout.
func FeaturesFullPage(view FeaturesPageView, page PageContext) templ.Component {
	return Layout(page, T(page.Loc, "features.title"), FeaturesPage(view, page))
}
