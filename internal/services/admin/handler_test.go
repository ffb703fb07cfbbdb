package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/louisbranch/featureadmin/internal/features"
	apperrors "github.com/louisbranch/featureadmin/internal/platform/errors"
	"github.com/louisbranch/featureadmin/internal/services/admin/cache"
	adminsqlite "github.com/louisbranch/featureadmin/internal/services/admin/storage/sqlite"
	"github.com/louisbranch/featureadmin/internal/services/shared/authctx"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// countingCSRF records every Check call and fails when err is set.
type countingCSRF struct {
	calls int
	err   error
}

func (c *countingCSRF) Check(*http.Request) error {
	c.calls++
	return c.err
}

func (c *countingCSRF) Token(http.ResponseWriter, *http.Request) string { return "test-token" }

type testEnv struct {
	store   *adminsqlite.Store
	csrf    *countingCSRF
	handler http.Handler
}

func newTestEnv(t *testing.T, names ...string) *testEnv {
	t.Helper()
	store, err := adminsqlite.Open(filepath.Join(t.TempDir(), "admin.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	defs := make([]features.Definition, len(names))
	for i, name := range names {
		defs[i] = features.Definition{Name: name, Description: name + " flag"}
	}
	registry, err := features.NewRegistry(defs...)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	protector := &countingCSRF{}
	handler, err := NewHandler(HandlerConfig{
		Store:    store,
		Registry: registry,
		Cache:    cache.NewMemory(0),
		CSRF:     protector,
		Logger:   zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return &testEnv{store: store, csrf: protector, handler: handler}
}

func (e *testEnv) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func (e *testEnv) post(t *testing.T, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) feature(t *testing.T, name string) features.Feature {
	t.Helper()
	feats, err := e.store.SyncFeatures(context.Background(), []string{name})
	if err != nil {
		t.Fatalf("sync features: %v", err)
	}
	return feats[0]
}

func (e *testEnv) createCohort(t *testing.T, name string) features.Cohort {
	t.Helper()
	cohort, err := e.store.CreateCohort(context.Background(), name)
	if err != nil {
		t.Fatalf("create cohort: %v", err)
	}
	return cohort
}

func (e *testEnv) putUser(t *testing.T, user features.User) features.User {
	t.Helper()
	saved, err := e.store.PutUser(context.Background(), user)
	if err != nil {
		t.Fatalf("put user: %v", err)
	}
	return saved
}

func assertRedirect(t *testing.T, rec *httptest.ResponseRecorder, path string) url.Values {
	t.Helper()
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d (body %q)", rec.Code, http.StatusSeeOther, rec.Body.String())
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	if loc.Path != path {
		t.Fatalf("Location path = %q, want %q", loc.Path, path)
	}
	return loc.Query()
}

func assertContains(t *testing.T, body string, expected string) {
	t.Helper()
	if !strings.Contains(body, expected) {
		t.Fatalf("expected body to contain %q", expected)
	}
}

func TestNewHandlerRequiresStore(t *testing.T) {
	t.Parallel()
	if _, err := NewHandler(HandlerConfig{}); err == nil {
		t.Fatal("expected error without store")
	}
}

func TestRootRedirectsToFeatures(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.get(t, "/")
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusFound)
	}
	if loc := rec.Header().Get("Location"); loc != "/features" {
		t.Fatalf("Location = %q, want %q", loc, "/features")
	}
}

func TestStaticAssetsServed(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.get(t, "/static/admin.css")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("Cache-Control"); !strings.Contains(got, "max-age=3600") {
		t.Fatalf("Cache-Control = %q", got)
	}
}

func TestFeaturesPageRendersRegistry(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, "checkout", "search")
	env.createCohort(t, "beta")

	rec := env.get(t, "/features")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	assertContains(t, body, "<!DOCTYPE html>")
	assertContains(t, body, `name="checkout[everyone]"`)
	assertContains(t, body, `name="search[admins]"`)
	assertContains(t, body, `name="checkout[cohorts][beta]"`)
	assertContains(t, body, "test-token")
}

func TestFeaturesPageHTMXOmitsLayout(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, "checkout")

	req := httptest.NewRequest(http.MethodGet, "/features", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if strings.Contains(rec.Body.String(), "<!DOCTYPE html>") {
		t.Fatal("expected fragment without layout")
	}
}

func TestFeaturesSaveAppliesAttributes(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, "checkout")

	rec := env.post(t, "/features", url.Values{
		"checkout[everyone]": {"on"},
		"checkout[staff]":    {"on"},
		"checkout[admins]":   {"ignoreme"},
		"checkout[wibble]":   {"on"},
	})
	query := assertRedirect(t, rec, "/features")
	if got := query.Get("message"); got != "Changes saved." {
		t.Fatalf("message = %q, want %q", got, "Changes saved.")
	}

	feat := env.feature(t, "checkout")
	if !feat.Everyone || !feat.Staff || feat.Admins {
		t.Fatalf("feature = %+v, want everyone and staff only", feat)
	}

	rec = env.post(t, "/features", url.Values{"checkout[admins]": {"on"}})
	assertRedirect(t, rec, "/features")
	feat = env.feature(t, "checkout")
	if feat.Everyone || feat.Staff || !feat.Admins {
		t.Fatalf("feature = %+v, want admins only", feat)
	}
}

func TestFeaturesSaveCohortToggle(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, "checkout")
	cohort := env.createCohort(t, "beta")

	assertRedirect(t, env.post(t, "/features", url.Values{"checkout[cohorts][beta]": {"on"}}), "/features")
	feat := env.feature(t, "checkout")
	if len(feat.Cohorts) != 1 || feat.Cohorts[0].ID != cohort.ID {
		t.Fatalf("cohorts = %+v, want [beta]", feat.Cohorts)
	}

	assertRedirect(t, env.post(t, "/features", url.Values{"checkout[cohorts][beta]": {"off"}}), "/features")
	if feat = env.feature(t, "checkout"); len(feat.Cohorts) != 0 {
		t.Fatalf("cohorts = %+v, want none", feat.Cohorts)
	}
}

func TestFeaturesSaveChecksCSRFOnce(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		names []string
		form  url.Values
	}{
		{name: "empty payload no features", form: url.Values{}},
		{name: "empty payload with features", names: []string{"checkout"}, form: url.Values{}},
		{name: "full payload", names: []string{"checkout"}, form: url.Values{"checkout[everyone]": {"on"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t, tc.names...)
			assertRedirect(t, env.post(t, "/features", tc.form), "/features")
			if env.csrf.calls != 1 {
				t.Fatalf("csrf calls = %d, want 1", env.csrf.calls)
			}
		})
	}
}

func TestCSRFFailureRejectsMutations(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, "checkout")
	cohort := env.createCohort(t, "beta")
	env.putUser(t, features.User{Username: "benoit"})
	env.csrf.err = apperrors.New(apperrors.CodeCSRFInvalid, "csrf: token mismatch")

	requests := []struct {
		target string
		form   url.Values
	}{
		{target: "/features", form: url.Values{"checkout[everyone]": {"on"}}},
		{target: "/cohorts", form: url.Values{"add": {"gamma"}}},
		{target: "/cohorts/" + strconv.FormatInt(cohort.ID, 10), form: url.Values{"add": {"benoit"}}},
	}
	for _, req := range requests {
		if rec := env.post(t, req.target, req.form); rec.Code != http.StatusForbidden {
			t.Fatalf("%s status = %d, want %d", req.target, rec.Code, http.StatusForbidden)
		}
	}
	if env.csrf.calls != len(requests) {
		t.Fatalf("csrf calls = %d, want %d", env.csrf.calls, len(requests))
	}

	if feat := env.feature(t, "checkout"); feat.Everyone {
		t.Fatal("feature mutated despite csrf failure")
	}
	cohorts, err := env.store.ListCohorts(context.Background())
	if err != nil {
		t.Fatalf("list cohorts: %v", err)
	}
	if len(cohorts) != 1 {
		t.Fatalf("cohorts = %d, want 1", len(cohorts))
	}
	got, err := env.store.GetCohort(context.Background(), cohort.ID)
	if err != nil {
		t.Fatalf("get cohort: %v", err)
	}
	if len(got.Members) != 0 {
		t.Fatalf("members = %d, want 0", len(got.Members))
	}
}

func TestCohortCreate(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	assertRedirect(t, env.post(t, "/cohorts", url.Values{"add": {" cohort "}}), "/cohorts")

	cohorts, err := env.store.ListCohorts(context.Background())
	if err != nil {
		t.Fatalf("list cohorts: %v", err)
	}
	if len(cohorts) != 1 || cohorts[0].Name != "cohort" {
		t.Fatalf("cohorts = %+v, want one named cohort", cohorts)
	}
	created, err := env.store.GetCohort(context.Background(), cohorts[0].ID)
	if err != nil {
		t.Fatalf("get cohort: %v", err)
	}
	if len(created.Members) != 0 {
		t.Fatalf("members = %d, want 0", len(created.Members))
	}
	if env.csrf.calls != 1 {
		t.Fatalf("csrf calls = %d, want 1", env.csrf.calls)
	}
}

func TestCohortCreateRejectsInvalidNames(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.createCohort(t, "beta")

	if rec := env.post(t, "/cohorts", url.Values{"add": {"  "}}); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty name status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if rec := env.post(t, "/cohorts", url.Values{"add": {"beta"}}); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate name status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestCohortFieldsAcceptQueryParameters(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	assertRedirect(t, env.post(t, "/cohorts?add=qa", url.Values{}), "/cohorts")
	cohorts, err := env.store.ListCohorts(context.Background())
	if err != nil {
		t.Fatalf("list cohorts: %v", err)
	}
	if len(cohorts) != 1 || cohorts[0].Name != "qa" {
		t.Fatalf("cohorts = %+v, want one named qa", cohorts)
	}

	env.putUser(t, features.User{Username: "benoit"})
	path := "/cohorts/" + strconv.FormatInt(cohorts[0].ID, 10)
	assertRedirect(t, env.post(t, path+"?add=benoit", url.Values{}), path)
	got, err := env.store.GetCohort(context.Background(), cohorts[0].ID)
	if err != nil {
		t.Fatalf("get cohort: %v", err)
	}
	if len(got.Members) != 1 || got.Members[0].Username != "benoit" {
		t.Fatalf("members = %+v, want [benoit]", got.Members)
	}
}

func TestCohortsPageListsByName(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.createCohort(t, "zeta")
	env.createCohort(t, "alpha")

	rec := env.get(t, "/cohorts")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	alpha, zeta := strings.Index(body, "alpha"), strings.Index(body, "zeta")
	if alpha < 0 || zeta < 0 || alpha > zeta {
		t.Fatalf("expected alpha before zeta in body")
	}
}

func TestCohortMembersAddAndRemove(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	cohort := env.createCohort(t, "cohort")
	env.putUser(t, features.User{Username: "benoit"})
	path := "/cohorts/" + strconv.FormatInt(cohort.ID, 10)

	assertRedirect(t, env.post(t, path, url.Values{"add": {"benoit"}}), path)
	got, err := env.store.GetCohort(context.Background(), cohort.ID)
	if err != nil {
		t.Fatalf("get cohort: %v", err)
	}
	if len(got.Members) != 1 || got.Members[0].Username != "benoit" {
		t.Fatalf("members = %+v, want [benoit]", got.Members)
	}

	rec := env.get(t, path)
	if rec.Code != http.StatusOK {
		t.Fatalf("edit status = %d, want %d", rec.Code, http.StatusOK)
	}
	assertContains(t, rec.Body.String(), "benoit")

	assertRedirect(t, env.post(t, path, url.Values{"remove": {"benoit"}}), path)
	if got, err = env.store.GetCohort(context.Background(), cohort.ID); err != nil {
		t.Fatalf("get cohort: %v", err)
	}
	if len(got.Members) != 0 {
		t.Fatalf("members = %+v, want none", got.Members)
	}
	if env.csrf.calls != 2 {
		t.Fatalf("csrf calls = %d, want 2", env.csrf.calls)
	}
}

func TestCohortMembersUnknownUser(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	cohort := env.createCohort(t, "cohort")
	path := "/cohorts/" + strconv.FormatInt(cohort.ID, 10)

	query := assertRedirect(t, env.post(t, path, url.Values{"add": {"ghost"}}), path)
	if got := query.Get("message"); got != "User not found" {
		t.Fatalf("message = %q, want %q", got, "User not found")
	}
	got, err := env.store.GetCohort(context.Background(), cohort.ID)
	if err != nil {
		t.Fatalf("get cohort: %v", err)
	}
	if len(got.Members) != 0 {
		t.Fatalf("members = %+v, want none", got.Members)
	}
}

func TestCohortMembersRequiresUsername(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	cohort := env.createCohort(t, "cohort")

	rec := env.post(t, "/cohorts/"+strconv.FormatInt(cohort.ID, 10), url.Values{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCohortNotFound(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	for _, path := range []string{"/cohorts/999", "/cohorts/abc", "/cohorts/0"} {
		if rec := env.get(t, path); rec.Code != http.StatusNotFound {
			t.Fatalf("GET %s status = %d, want %d", path, rec.Code, http.StatusNotFound)
		}
	}
	if rec := env.post(t, "/cohorts/999", url.Values{"add": {"benoit"}}); rec.Code != http.StatusNotFound {
		t.Fatalf("POST status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestFeaturesEvaluate(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, "checkout", "search")
	beta := env.createCohort(t, "beta")
	user := env.putUser(t, features.User{Username: "benoit"})
	if err := env.store.AddCohortMember(context.Background(), beta.ID, user.ID); err != nil {
		t.Fatalf("add member: %v", err)
	}
	assertRedirect(t, env.post(t, "/features", url.Values{"search[cohorts][beta]": {"on"}}), "/features")

	tests := []struct {
		target string
		want   map[string]bool
	}{
		{target: "/features/evaluate", want: map[string]bool{"checkout": false, "search": false}},
		{target: "/features/evaluate?username=benoit", want: map[string]bool{"checkout": false, "search": true}},
	}
	for _, tc := range tests {
		rec := env.get(t, tc.target)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d, want %d", tc.target, rec.Code, http.StatusOK)
		}
		var resp evaluateResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		for name, want := range tc.want {
			if resp.Features[name] != want {
				t.Fatalf("%s %s = %v, want %v", tc.target, name, resp.Features[name], want)
			}
		}
	}
}

func TestFeaturesEvaluateUnknownUser(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, "checkout")

	rec := env.get(t, "/features/evaluate?username=ghost")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["code"] != string(apperrors.CodeUserNotFound) {
		t.Fatalf("code = %q", body["code"])
	}
}

func TestFeaturesSaveInvalidatesSnapshot(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, "checkout")

	evaluate := func() bool {
		rec := env.get(t, "/features/evaluate")
		var resp evaluateResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return resp.Features["checkout"]
	}
	if evaluate() {
		t.Fatal("expected checkout off before save")
	}
	assertRedirect(t, env.post(t, "/features", url.Values{"checkout[everyone]": {"on"}}), "/features")
	if !evaluate() {
		t.Fatal("expected checkout on after save")
	}
}

func TestCohortCreateHTMXRedirect(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/cohorts", strings.NewReader(url.Values{"add": {"beta"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if loc := rec.Header().Get("HX-Redirect"); !strings.HasPrefix(loc, "/cohorts?message=") {
		t.Fatalf("HX-Redirect = %q", loc)
	}
}

func TestRequestLogIncludesAuthenticatedUser(t *testing.T) {
	store, err := adminsqlite.Open(filepath.Join(t.TempDir(), "admin.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	core, logs := observer.New(zap.InfoLevel)
	handler, err := NewHandler(HandlerConfig{
		Store:  store,
		CSRF:   &countingCSRF{},
		Logger: zap.New(core),
		Auth: &AuthConfig{
			Introspector: &fakeIntrospector{result: authctx.IntrospectionResult{Active: true, UserID: "user-42", Admin: true}},
			LoginURL:     testLoginURL,
		},
	})
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/cohorts", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	entries := logs.FilterMessage("admin request").All()
	if len(entries) != 1 {
		t.Fatalf("request log entries = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["user_id"] != "user-42" {
		t.Fatalf("user_id = %v, want %q (fields %v)", fields["user_id"], "user-42", fields)
	}
	if fields["status"] != int64(http.StatusOK) {
		t.Fatalf("status field = %v", fields["status"])
	}
}

func TestRequestLogOmitsUserWhenUnauthenticated(t *testing.T) {
	store, err := adminsqlite.Open(filepath.Join(t.TempDir(), "admin.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	core, logs := observer.New(zap.InfoLevel)
	handler, err := NewHandler(HandlerConfig{
		Store:  store,
		Logger: zap.New(core),
		Auth:   &AuthConfig{Introspector: &fakeIntrospector{}, LoginURL: testLoginURL},
	})
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cohorts", nil))
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusFound)
	}
	entries := logs.FilterMessage("admin request").All()
	if len(entries) != 1 {
		t.Fatalf("request log entries = %d, want 1", len(entries))
	}
	if _, ok := entries[0].ContextMap()["user_id"]; ok {
		t.Fatalf("unexpected user_id in %v", entries[0].ContextMap())
	}
}
