package storage

import (
	"context"

	"github.com/louisbranch/featureadmin/internal/features"
)

// FeatureStore persists feature flag state.
type FeatureStore interface {
	// SyncFeatures returns the stored state of names in the same order,
	// creating rows for names that have never been stored.
	SyncFeatures(ctx context.Context, names []string) ([]features.Feature, error)
	// SaveFeatures writes flags and cohort links for every feature in one
	// transaction. Features are matched by name.
	SaveFeatures(ctx context.Context, feats []features.Feature) error
	// ListFeatures returns every stored feature ordered by name, including
	// rows the current registry no longer declares.
	ListFeatures(ctx context.Context) ([]features.Feature, error)
	// PruneFeatures deletes stored features whose names are not in keep and
	// reports how many were removed.
	PruneFeatures(ctx context.Context, keep []string) (int, error)
}

// CohortStore persists cohorts and their membership.
type CohortStore interface {
	// ListCohorts returns every cohort ordered by name, without members.
	ListCohorts(ctx context.Context) ([]features.Cohort, error)
	CreateCohort(ctx context.Context, name string) (features.Cohort, error)
	// GetCohort returns one cohort with members ordered by username.
	GetCohort(ctx context.Context, id int64) (features.Cohort, error)
	// AddCohortMember is a no-op when the user is already a member.
	AddCohortMember(ctx context.Context, cohortID, userID int64) error
	// RemoveCohortMember is a no-op when the user is not a member.
	RemoveCohortMember(ctx context.Context, cohortID, userID int64) error
}

// UserStore persists the users cohorts reference.
type UserStore interface {
	// GetUserByUsername returns the user with the names of its cohorts.
	GetUserByUsername(ctx context.Context, username string) (features.User, error)
	// PutUser creates or updates a user by username and returns the stored row.
	PutUser(ctx context.Context, user features.User) (features.User, error)
}

// Store is a composite interface for admin storage concerns.
type Store interface {
	FeatureStore
	CohortStore
	UserStore
	Close() error
}
