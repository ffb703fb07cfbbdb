package features

import "strings"

// Audience attribute names accepted by the form grammar.
const (
	AttrEveryone = "everyone"
	AttrStaff    = "staff"
	AttrAdmins   = "admins"
)

// Attributes lists the recognized audience attributes in display order.
var Attributes = []string{AttrEveryone, AttrStaff, AttrAdmins}

// Feature is a named capability flag with its audience switches.
type Feature struct {
	ID       int64
	Name     string
	Everyone bool
	Staff    bool
	Admins   bool
	Cohorts  []CohortRef
}

// CohortRef identifies a cohort linked to a feature.
type CohortRef struct {
	ID   int64
	Name string
}

// Cohort is an operator-managed group of users.
type Cohort struct {
	ID      int64
	Name    string
	Members []User
}

// User is the subset of account data the admin surfaces need.
type User struct {
	ID       int64
	Username string
	Admin    bool
	Staff    bool
	// Cohorts holds the names of the cohorts the user belongs to.
	Cohorts []string
}

// Attr reports the value of a recognized audience attribute.
func (f Feature) Attr(name string) (bool, bool) {
	switch name {
	case AttrEveryone:
		return f.Everyone, true
	case AttrStaff:
		return f.Staff, true
	case AttrAdmins:
		return f.Admins, true
	default:
		return false, false
	}
}

// SetAttr sets a recognized audience attribute. Unknown names are ignored
// and reported as false.
func (f *Feature) SetAttr(name string, value bool) bool {
	switch name {
	case AttrEveryone:
		f.Everyone = value
	case AttrStaff:
		f.Staff = value
	case AttrAdmins:
		f.Admins = value
	default:
		return false
	}
	return true
}

// HasCohort reports whether the feature is linked to the named cohort.
func (f Feature) HasCohort(name string) bool {
	for _, ref := range f.Cohorts {
		if ref.Name == name {
			return true
		}
	}
	return false
}

// AddCohort links the cohort unless it is already linked.
func (f *Feature) AddCohort(ref CohortRef) bool {
	if f.HasCohort(ref.Name) {
		return false
	}
	f.Cohorts = append(f.Cohorts, ref)
	return true
}

// RemoveCohort unlinks the named cohort when present.
func (f *Feature) RemoveCohort(name string) bool {
	for i, ref := range f.Cohorts {
		if ref.Name == name {
			f.Cohorts = append(f.Cohorts[:i:i], f.Cohorts[i+1:]...)
			return true
		}
	}
	return false
}

// HasMember reports whether username belongs to the cohort.
func (c Cohort) HasMember(username string) bool {
	for _, member := range c.Members {
		if member.Username == username {
			return true
		}
	}
	return false
}

// InCohort reports whether the user belongs to the named cohort.
func (u User) InCohort(name string) bool {
	for _, cohort := range u.Cohorts {
		if cohort == name {
			return true
		}
	}
	return false
}

// NormalizeName trims surrounding whitespace from cohort and user names.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}
