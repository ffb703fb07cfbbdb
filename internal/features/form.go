package features

import (
	"net/url"
	"strings"
)

const (
	// ValueOn is the only value that switches an attribute or cohort on.
	ValueOn = "on"
	// ValueOff explicitly switches a cohort link off.
	ValueOff = "off"

	cohortsKey = "cohorts"
)

// FormState holds the parsed form entries for one feature.
type FormState struct {
	// Attrs maps an attribute key to its submitted value. Unknown
	// attribute names are kept so callers can inspect them, but ApplyForm
	// ignores them.
	Attrs map[string]string
	// Cohorts maps a cohort name to its submitted value.
	Cohorts map[string]string
}

// On reports whether the attribute was submitted with the "on" marker.
func (s *FormState) On(attr string) bool {
	if s == nil {
		return false
	}
	return s.Attrs[attr] == ValueOn
}

// CohortOn reports whether the cohort checkbox was submitted as "on".
func (s *FormState) CohortOn(cohort string) bool {
	if s == nil {
		return false
	}
	return s.Cohorts[cohort] == ValueOn
}

// AttrKey builds the form key for a feature attribute.
func AttrKey(feature, attr string) string {
	return feature + "[" + attr + "]"
}

// CohortKey builds the form key for a feature's cohort checkbox.
func CohortKey(feature, cohort string) string {
	return feature + "[" + cohortsKey + "][" + cohort + "]"
}

// ParseForm groups bracketed form keys by feature name. Keys that do not
// follow `name[attr]` or `name[cohorts][cohort]` are skipped. When a key
// repeats, the last value wins so a hidden "off" input followed by a
// checked box reads as "on".
func ParseForm(values url.Values) map[string]*FormState {
	states := make(map[string]*FormState)
	for key, submitted := range values {
		if len(submitted) == 0 {
			continue
		}
		value := submitted[len(submitted)-1]

		name, rest, ok := splitKey(key)
		if !ok {
			continue
		}
		state := states[name]
		if state == nil {
			state = &FormState{Attrs: map[string]string{}, Cohorts: map[string]string{}}
			states[name] = state
		}

		if cohort, ok := cohortSegment(rest); ok {
			state.Cohorts[cohort] = value
			continue
		}
		attr, ok := singleSegment(rest)
		if !ok {
			continue
		}
		state.Attrs[attr] = value
	}
	return states
}

// ApplyForm updates every feature from the submitted form: each audience
// attribute is true only when its key carries "on", and each cohort link is
// present only when the cohort key carries "on". The returned flag reports
// whether any feature changed.
func ApplyForm(feats []Feature, cohorts []Cohort, values url.Values) ([]Feature, bool) {
	states := ParseForm(values)
	out := make([]Feature, len(feats))
	changed := false
	for i, feat := range feats {
		feat.Cohorts = append([]CohortRef(nil), feat.Cohorts...)
		state := states[feat.Name]

		for _, attr := range Attributes {
			want := state.On(attr)
			if current, _ := feat.Attr(attr); current != want {
				feat.SetAttr(attr, want)
				changed = true
			}
		}

		for _, cohort := range cohorts {
			if state.CohortOn(cohort.Name) {
				if feat.AddCohort(CohortRef{ID: cohort.ID, Name: cohort.Name}) {
					changed = true
				}
				continue
			}
			if feat.RemoveCohort(cohort.Name) {
				changed = true
			}
		}
		out[i] = feat
	}
	return out, changed
}

// splitKey separates `name[...]...` into the name and the bracketed rest.
func splitKey(key string) (string, string, bool) {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return "", "", false
	}
	return key[:open], key[open:], true
}

// singleSegment returns the content of a lone `[segment]`.
func singleSegment(rest string) (string, bool) {
	inner := rest[1 : len(rest)-1]
	if inner == "" || strings.ContainsAny(inner, "[]") {
		return "", false
	}
	return inner, true
}

// cohortSegment returns the cohort name from `[cohorts][name]`. Everything
// between the second opening bracket and the final closing bracket is the
// name, so cohort names may contain brackets.
func cohortSegment(rest string) (string, bool) {
	prefix := "[" + cohortsKey + "]["
	if !strings.HasPrefix(rest, prefix) {
		return "", false
	}
	name := rest[len(prefix) : len(rest)-1]
	if name == "" {
		return "", false
	}
	return name, true
}
