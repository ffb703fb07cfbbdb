package seed

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"

	"github.com/louisbranch/featureadmin/internal/features"
	apperrors "github.com/louisbranch/featureadmin/internal/platform/errors"
	"github.com/louisbranch/featureadmin/internal/services/admin/storage"
	"gopkg.in/yaml.v3"
)

//go:embed demo.yaml
var demoFixture []byte

// Fixture is the YAML document the seed command loads.
type Fixture struct {
	Users    []FixtureUser    `yaml:"users"`
	Cohorts  []FixtureCohort  `yaml:"cohorts"`
	Features []FixtureFeature `yaml:"features"`
}

type FixtureUser struct {
	Username string `yaml:"username"`
	Admin    bool   `yaml:"admin"`
	Staff    bool   `yaml:"staff"`
}

type FixtureCohort struct {
	Name    string   `yaml:"name"`
	Members []string `yaml:"members"`
}

type FixtureFeature struct {
	Name     string   `yaml:"name"`
	Everyone bool     `yaml:"everyone"`
	Staff    bool     `yaml:"staff"`
	Admins   bool     `yaml:"admins"`
	Cohorts  []string `yaml:"cohorts"`
}

// Report counts what Apply wrote.
type Report struct {
	Users    int
	Cohorts  int
	Members  int
	Features int
}

// LoadFixture decodes a fixture, rejecting unknown fields.
func LoadFixture(r io.Reader) (Fixture, error) {
	var fixture Fixture
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&fixture); err != nil && err != io.EOF {
		return Fixture{}, fmt.Errorf("decode seed fixture: %w", err)
	}
	return fixture, nil
}

// LoadFixtureFile reads a fixture from path, or the embedded demo data when
// path is empty.
func LoadFixtureFile(path string) (Fixture, error) {
	if path == "" {
		return LoadFixture(bytes.NewReader(demoFixture))
	}
	f, err := os.Open(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("open seed fixture: %w", err)
	}
	defer f.Close()
	return LoadFixture(f)
}

// Apply writes users, then cohorts and their members, then feature states.
// Existing rows are updated in place so a fixture can be applied repeatedly.
func Apply(ctx context.Context, store storage.Store, registry *features.Registry, fixture Fixture) (Report, error) {
	var report Report
	if store == nil {
		return report, fmt.Errorf("storage is not configured")
	}

	for _, user := range fixture.Users {
		if _, err := store.PutUser(ctx, features.User{Username: user.Username, Admin: user.Admin, Staff: user.Staff}); err != nil {
			return report, fmt.Errorf("seed user %q: %w", user.Username, err)
		}
		report.Users++
	}

	existing, err := store.ListCohorts(ctx)
	if err != nil {
		return report, err
	}
	cohortIDs := make(map[string]int64, len(existing))
	for _, cohort := range existing {
		cohortIDs[cohort.Name] = cohort.ID
	}
	for _, entry := range fixture.Cohorts {
		name := features.NormalizeName(entry.Name)
		id, ok := cohortIDs[name]
		if !ok {
			cohort, err := store.CreateCohort(ctx, name)
			if err != nil {
				return report, fmt.Errorf("seed cohort %q: %w", entry.Name, err)
			}
			id = cohort.ID
			cohortIDs[cohort.Name] = id
			report.Cohorts++
		}
		for _, username := range entry.Members {
			user, err := store.GetUserByUsername(ctx, username)
			if err != nil {
				return report, fmt.Errorf("seed member %q of %q: %w", username, name, err)
			}
			if err := store.AddCohortMember(ctx, id, user.ID); err != nil {
				return report, fmt.Errorf("seed member %q of %q: %w", username, name, err)
			}
			report.Members++
		}
	}

	feats := make([]features.Feature, 0, len(fixture.Features))
	for _, entry := range fixture.Features {
		if _, ok := registry.Lookup(entry.Name); !ok {
			return report, apperrors.WithMetadata(apperrors.CodeFeatureUnknown,
				fmt.Sprintf("feature %q is not in the registry", entry.Name),
				map[string]string{"Name": entry.Name})
		}
		feat := features.Feature{
			Name:     entry.Name,
			Everyone: entry.Everyone,
			Staff:    entry.Staff,
			Admins:   entry.Admins,
		}
		for _, cohort := range entry.Cohorts {
			feat.Cohorts = append(feat.Cohorts, features.CohortRef{Name: features.NormalizeName(cohort)})
		}
		feats = append(feats, feat)
	}
	if err := store.SaveFeatures(ctx, feats); err != nil {
		return report, fmt.Errorf("seed features: %w", err)
	}
	report.Features = len(feats)
	return report, nil
}
