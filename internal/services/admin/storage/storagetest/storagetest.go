// Package storagetest holds behavior checks every admin storage backend must
// pass.
package storagetest

import (
	"context"
	"reflect"
	"testing"

	"github.com/louisbranch/featureadmin/internal/features"
	apperrors "github.com/louisbranch/featureadmin/internal/platform/errors"
	"github.com/louisbranch/featureadmin/internal/services/admin/storage"
)

// OpenFunc returns an empty store. The suite does not close it.
type OpenFunc func(t *testing.T) storage.Store

// Run executes the shared storage checks against stores returned by open.
func Run(t *testing.T, open OpenFunc) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, store storage.Store)
	}{
		{"SyncFeaturesCreatesMissingRows", testSyncFeaturesCreatesMissingRows},
		{"SaveFeaturesPersistsFlagsAndCohorts", testSaveFeaturesPersistsFlagsAndCohorts},
		{"SaveFeaturesUnknownCohort", testSaveFeaturesUnknownCohort},
		{"PruneFeatures", testPruneFeatures},
		{"ListFeaturesOrderedByName", testListFeaturesOrderedByName},
		{"CreateCohort", testCreateCohort},
		{"CreateCohortValidation", testCreateCohortValidation},
		{"ListCohortsOrderedByName", testListCohortsOrderedByName},
		{"GetCohortNotFound", testGetCohortNotFound},
		{"CohortMembership", testCohortMembership},
		{"CohortMembershipUnknownCohort", testCohortMembershipUnknownCohort},
		{"Users", testUsers},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, open(t))
		})
	}
}

func testSyncFeaturesCreatesMissingRows(t *testing.T, store storage.Store) {
	ctx := context.Background()

	feats, err := store.SyncFeatures(ctx, []string{"search_page", "orphans_tab"})
	if err != nil {
		t.Fatalf("sync features: %v", err)
	}
	if len(feats) != 2 || feats[0].Name != "search_page" || feats[1].Name != "orphans_tab" {
		t.Fatalf("features = %+v", feats)
	}
	for _, feat := range feats {
		if feat.ID == 0 || feat.Everyone || feat.Staff || feat.Admins || len(feat.Cohorts) != 0 {
			t.Fatalf("expected new feature with defaults, got %+v", feat)
		}
	}

	again, err := store.SyncFeatures(ctx, []string{"orphans_tab"})
	if err != nil {
		t.Fatalf("sync features again: %v", err)
	}
	if len(again) != 1 || again[0].ID != feats[1].ID {
		t.Fatalf("expected stable ids, got %+v", again)
	}
}

func testSaveFeaturesPersistsFlagsAndCohorts(t *testing.T, store storage.Store) {
	ctx := context.Background()

	cohort, err := store.CreateCohort(ctx, "cohort")
	if err != nil {
		t.Fatalf("create cohort: %v", err)
	}
	feats, err := store.SyncFeatures(ctx, []string{"feat", "other"})
	if err != nil {
		t.Fatalf("sync features: %v", err)
	}

	feats[0].Staff = true
	feats[0].Cohorts = []features.CohortRef{{ID: cohort.ID, Name: cohort.Name}}
	feats[1].Everyone = true
	if err := store.SaveFeatures(ctx, feats); err != nil {
		t.Fatalf("save features: %v", err)
	}

	got, err := store.SyncFeatures(ctx, []string{"feat", "other"})
	if err != nil {
		t.Fatalf("sync features: %v", err)
	}
	if !got[0].Staff || got[0].Everyone || got[0].Admins {
		t.Fatalf("feat = %+v", got[0])
	}
	if !reflect.DeepEqual(got[0].Cohorts, []features.CohortRef{{ID: cohort.ID, Name: "cohort"}}) {
		t.Fatalf("feat cohorts = %+v", got[0].Cohorts)
	}
	if !got[1].Everyone || len(got[1].Cohorts) != 0 {
		t.Fatalf("other = %+v", got[1])
	}

	got[0].Cohorts = nil
	if err := store.SaveFeatures(ctx, got); err != nil {
		t.Fatalf("save features: %v", err)
	}
	cleared, err := store.SyncFeatures(ctx, []string{"feat"})
	if err != nil {
		t.Fatalf("sync features: %v", err)
	}
	if len(cleared[0].Cohorts) != 0 {
		t.Fatalf("expected cohort link removed, got %+v", cleared[0].Cohorts)
	}
}

func testSaveFeaturesUnknownCohort(t *testing.T, store storage.Store) {
	ctx := context.Background()

	err := store.SaveFeatures(ctx, []features.Feature{
		{Name: "first", Everyone: true},
		{Name: "second", Cohorts: []features.CohortRef{{Name: "missing"}}},
	})
	if !apperrors.IsCode(err, apperrors.CodeCohortNotFound) {
		t.Fatalf("expected cohort not found, got %v", err)
	}

	feats, err := store.SyncFeatures(ctx, []string{"first"})
	if err != nil {
		t.Fatalf("sync features: %v", err)
	}
	if feats[0].Everyone {
		t.Fatal("expected failed save to roll back")
	}
}

func testPruneFeatures(t *testing.T, store storage.Store) {
	ctx := context.Background()

	if _, err := store.SyncFeatures(ctx, []string{"keep", "retired", "gone"}); err != nil {
		t.Fatalf("sync features: %v", err)
	}
	removed, err := store.PruneFeatures(ctx, []string{"keep"})
	if err != nil {
		t.Fatalf("prune features: %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
	removed, err = store.PruneFeatures(ctx, []string{"keep"})
	if err != nil {
		t.Fatalf("prune features again: %v", err)
	}
	if removed != 0 {
		t.Fatalf("removed = %d, want 0", removed)
	}
	feats, err := store.ListFeatures(ctx)
	if err != nil {
		t.Fatalf("list features: %v", err)
	}
	if len(feats) != 1 || feats[0].Name != "keep" {
		t.Fatalf("features = %+v, want [keep]", feats)
	}
}

func testListFeaturesOrderedByName(t *testing.T, store storage.Store) {
	ctx := context.Background()

	if _, err := store.SyncFeatures(ctx, []string{"zeta", "alpha", "mid"}); err != nil {
		t.Fatalf("sync features: %v", err)
	}
	feats, err := store.ListFeatures(ctx)
	if err != nil {
		t.Fatalf("list features: %v", err)
	}
	var names []string
	for _, feat := range feats {
		names = append(names, feat.Name)
	}
	if want := []string{"alpha", "mid", "zeta"}; !reflect.DeepEqual(names, want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
}

func testCreateCohort(t *testing.T, store storage.Store) {
	ctx := context.Background()

	created, err := store.CreateCohort(ctx, "  cohort ")
	if err != nil {
		t.Fatalf("create cohort: %v", err)
	}
	if created.ID == 0 || created.Name != "cohort" {
		t.Fatalf("created = %+v", created)
	}

	cohorts, err := store.ListCohorts(ctx)
	if err != nil {
		t.Fatalf("list cohorts: %v", err)
	}
	if len(cohorts) != 1 || cohorts[0].Name != "cohort" {
		t.Fatalf("cohorts = %+v", cohorts)
	}
	got, err := store.GetCohort(ctx, created.ID)
	if err != nil {
		t.Fatalf("get cohort: %v", err)
	}
	if len(got.Members) != 0 {
		t.Fatalf("expected no members, got %+v", got.Members)
	}
}

func testCreateCohortValidation(t *testing.T, store storage.Store) {
	ctx := context.Background()

	if _, err := store.CreateCohort(ctx, "  "); !apperrors.IsCode(err, apperrors.CodeCohortNameEmpty) {
		t.Fatalf("expected empty name error, got %v", err)
	}
	if _, err := store.CreateCohort(ctx, "beta"); err != nil {
		t.Fatalf("create cohort: %v", err)
	}
	if _, err := store.CreateCohort(ctx, "beta"); !apperrors.IsCode(err, apperrors.CodeCohortNameTaken) {
		t.Fatalf("expected name taken error, got %v", err)
	}
}

func testListCohortsOrderedByName(t *testing.T, store storage.Store) {
	ctx := context.Background()

	empty, err := store.ListCohorts(ctx)
	if err != nil {
		t.Fatalf("list cohorts: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", empty)
	}

	for _, name := range []string{"gamma", "alpha", "beta"} {
		if _, err := store.CreateCohort(ctx, name); err != nil {
			t.Fatalf("create cohort %s: %v", name, err)
		}
	}
	cohorts, err := store.ListCohorts(ctx)
	if err != nil {
		t.Fatalf("list cohorts: %v", err)
	}
	var names []string
	for _, cohort := range cohorts {
		names = append(names, cohort.Name)
	}
	if !reflect.DeepEqual(names, []string{"alpha", "beta", "gamma"}) {
		t.Fatalf("names = %v", names)
	}
}

func testGetCohortNotFound(t *testing.T, store storage.Store) {
	if _, err := store.GetCohort(context.Background(), 4242); !apperrors.IsCode(err, apperrors.CodeCohortNotFound) {
		t.Fatalf("expected cohort not found, got %v", err)
	}
}

func testCohortMembership(t *testing.T, store storage.Store) {
	ctx := context.Background()

	cohort, err := store.CreateCohort(ctx, "cohort")
	if err != nil {
		t.Fatalf("create cohort: %v", err)
	}
	benoit, err := store.PutUser(ctx, features.User{Username: "benoit"})
	if err != nil {
		t.Fatalf("put user: %v", err)
	}
	emily, err := store.PutUser(ctx, features.User{Username: "emily", Staff: true})
	if err != nil {
		t.Fatalf("put user: %v", err)
	}

	for _, user := range []features.User{emily, benoit, benoit} {
		if err := store.AddCohortMember(ctx, cohort.ID, user.ID); err != nil {
			t.Fatalf("add member %s: %v", user.Username, err)
		}
	}
	got, err := store.GetCohort(ctx, cohort.ID)
	if err != nil {
		t.Fatalf("get cohort: %v", err)
	}
	if len(got.Members) != 2 || got.Members[0].Username != "benoit" || got.Members[1].Username != "emily" {
		t.Fatalf("members = %+v", got.Members)
	}
	if !got.Members[1].Staff {
		t.Fatalf("expected member flags, got %+v", got.Members[1])
	}

	for i := 0; i < 2; i++ {
		if err := store.RemoveCohortMember(ctx, cohort.ID, benoit.ID); err != nil {
			t.Fatalf("remove member: %v", err)
		}
	}
	got, err = store.GetCohort(ctx, cohort.ID)
	if err != nil {
		t.Fatalf("get cohort: %v", err)
	}
	if len(got.Members) != 1 || got.Members[0].Username != "emily" {
		t.Fatalf("members = %+v", got.Members)
	}
}

func testCohortMembershipUnknownCohort(t *testing.T, store storage.Store) {
	ctx := context.Background()

	user, err := store.PutUser(ctx, features.User{Username: "benoit"})
	if err != nil {
		t.Fatalf("put user: %v", err)
	}
	if err := store.AddCohortMember(ctx, 4242, user.ID); !apperrors.IsCode(err, apperrors.CodeCohortNotFound) {
		t.Fatalf("expected cohort not found on add, got %v", err)
	}
	if err := store.RemoveCohortMember(ctx, 4242, user.ID); !apperrors.IsCode(err, apperrors.CodeCohortNotFound) {
		t.Fatalf("expected cohort not found on remove, got %v", err)
	}
}

func testUsers(t *testing.T, store storage.Store) {
	ctx := context.Background()

	if _, err := store.GetUserByUsername(ctx, "nobody"); !apperrors.IsCode(err, apperrors.CodeUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
	if _, err := store.GetUserByUsername(ctx, " "); !apperrors.IsCode(err, apperrors.CodeUsernameEmpty) {
		t.Fatalf("expected username empty, got %v", err)
	}
	if _, err := store.PutUser(ctx, features.User{}); !apperrors.IsCode(err, apperrors.CodeUsernameEmpty) {
		t.Fatalf("expected username empty on put, got %v", err)
	}

	created, err := store.PutUser(ctx, features.User{Username: "root"})
	if err != nil {
		t.Fatalf("put user: %v", err)
	}
	updated, err := store.PutUser(ctx, features.User{Username: "root", Admin: true})
	if err != nil {
		t.Fatalf("update user: %v", err)
	}
	if updated.ID != created.ID {
		t.Fatalf("expected upsert to keep id %d, got %d", created.ID, updated.ID)
	}

	for _, name := range []string{"zeta", "alpha"} {
		cohort, err := store.CreateCohort(ctx, name)
		if err != nil {
			t.Fatalf("create cohort: %v", err)
		}
		if err := store.AddCohortMember(ctx, cohort.ID, created.ID); err != nil {
			t.Fatalf("add member: %v", err)
		}
	}

	got, err := store.GetUserByUsername(ctx, "root")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if !got.Admin || got.Staff {
		t.Fatalf("user = %+v", got)
	}
	if !reflect.DeepEqual(got.Cohorts, []string{"alpha", "zeta"}) {
		t.Fatalf("cohorts = %v", got.Cohorts)
	}
}
