package features

import "testing"

func TestFeatureCohortLinks(t *testing.T) {
	var feat Feature
	if !feat.AddCohort(CohortRef{ID: 1, Name: "beta"}) {
		t.Fatal("expected first add to link")
	}
	if feat.AddCohort(CohortRef{ID: 1, Name: "beta"}) {
		t.Fatal("expected duplicate add to be a no-op")
	}
	if !feat.RemoveCohort("beta") {
		t.Fatal("expected remove to unlink")
	}
	if feat.RemoveCohort("beta") {
		t.Fatal("expected second remove to be a no-op")
	}
}

func TestFeatureAttrs(t *testing.T) {
	var feat Feature
	if feat.SetAttr("wibble", true) {
		t.Fatal("expected unknown attribute to be rejected")
	}
	for _, attr := range Attributes {
		if !feat.SetAttr(attr, true) {
			t.Fatalf("expected %s to be settable", attr)
		}
		if value, ok := feat.Attr(attr); !ok || !value {
			t.Fatalf("Attr(%s) = %t, %t", attr, value, ok)
		}
	}
	if _, ok := feat.Attr("wibble"); ok {
		t.Fatal("expected unknown attribute lookup to fail")
	}
}

func TestCohortAndUserMembership(t *testing.T) {
	cohort := Cohort{Name: "beta", Members: []User{{Username: "benoit"}}}
	if !cohort.HasMember("benoit") || cohort.HasMember("emily") {
		t.Fatalf("HasMember mismatch for %+v", cohort)
	}
	user := User{Username: "benoit", Cohorts: []string{"beta"}}
	if !user.InCohort("beta") || user.InCohort("gamma") {
		t.Fatalf("InCohort mismatch for %+v", user)
	}
	if NormalizeName("  benoit ") != "benoit" {
		t.Fatal("expected trimmed name")
	}
}
