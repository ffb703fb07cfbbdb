// Package sqlstore implements the admin storage contracts over database/sql.
//
// Engine packages open the connection, apply their own migrations and hand
// the handle here together with the placeholder dialect and a classifier for
// unique-constraint violations.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/louisbranch/featureadmin/internal/features"
	apperrors "github.com/louisbranch/featureadmin/internal/platform/errors"
	"github.com/louisbranch/featureadmin/internal/platform/storage/sqlmigrate"
	"github.com/louisbranch/featureadmin/internal/services/admin/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/louisbranch/featureadmin/internal/services/admin/storage")

// Store provides the shared SQL implementation of storage.Store.
type Store struct {
	sqlDB    *sql.DB
	dialect  sqlmigrate.Dialect
	isUnique func(error) bool
}

// New wraps an open database. isUnique reports unique-constraint violations
// for the engine behind sqlDB.
func New(sqlDB *sql.DB, dialect sqlmigrate.Dialect, isUnique func(error) bool) *Store {
	if isUnique == nil {
		isUnique = func(error) bool { return false }
	}
	return &Store{sqlDB: sqlDB, dialect: dialect, isUnique: isUnique}
}

// DB exposes the underlying handle to engine packages and tests.
func (s *Store) DB() *sql.DB {
	if s == nil {
		return nil
	}
	return s.sqlDB
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

func (s *Store) q(query string) string {
	return s.dialect.Rebind(query)
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, "storage."+name, trace.WithAttributes(attrs...))
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SyncFeatures returns stored features for names, creating missing rows.
func (s *Store) SyncFeatures(ctx context.Context, names []string) ([]features.Feature, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	ctx, span := startSpan(ctx, "SyncFeatures", attribute.Int("features.count", len(names)))
	defer span.End()

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	insert := s.q(`INSERT INTO features (name) VALUES (?) ON CONFLICT (name) DO NOTHING`)
	for _, name := range names {
		if _, err := tx.ExecContext(ctx, insert, name); err != nil {
			return nil, fmt.Errorf("create feature %q: %w", name, err)
		}
	}

	stored, err := s.loadFeatures(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	byName := make(map[string]features.Feature, len(stored))
	for _, feat := range stored {
		byName[feat.Name] = feat
	}
	out := make([]features.Feature, 0, len(names))
	for _, name := range names {
		out = append(out, byName[name])
	}
	return out, nil
}

// ListFeatures returns every stored feature ordered by name.
func (s *Store) ListFeatures(ctx context.Context) ([]features.Feature, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	ctx, span := startSpan(ctx, "ListFeatures")
	defer span.End()
	return s.loadFeatures(ctx, s.sqlDB)
}

func (s *Store) loadFeatures(ctx context.Context, db queryer) ([]features.Feature, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name, everyone, staff, admins FROM features ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list features: %w", err)
	}
	var feats []features.Feature
	index := map[int64]int{}
	for rows.Next() {
		var feat features.Feature
		if err := rows.Scan(&feat.ID, &feat.Name, &feat.Everyone, &feat.Staff, &feat.Admins); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan feature: %w", err)
		}
		index[feat.ID] = len(feats)
		feats = append(feats, feat)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterate features: %w", err)
	}
	_ = rows.Close()

	links, err := db.QueryContext(ctx, `
SELECT l.feature_id, c.id, c.name
  FROM feature_cohort_features l
  JOIN feature_cohorts c ON c.id = l.cohort_id
 ORDER BY c.name`)
	if err != nil {
		return nil, fmt.Errorf("list feature cohorts: %w", err)
	}
	defer links.Close()
	for links.Next() {
		var featureID int64
		var ref features.CohortRef
		if err := links.Scan(&featureID, &ref.ID, &ref.Name); err != nil {
			return nil, fmt.Errorf("scan feature cohort: %w", err)
		}
		if i, ok := index[featureID]; ok {
			feats[i].Cohorts = append(feats[i].Cohorts, ref)
		}
	}
	if err := links.Err(); err != nil {
		return nil, fmt.Errorf("iterate feature cohorts: %w", err)
	}
	return feats, nil
}

// SaveFeatures writes every feature and its cohort links in one transaction.
func (s *Store) SaveFeatures(ctx context.Context, feats []features.Feature) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	ctx, span := startSpan(ctx, "SaveFeatures", attribute.Int("features.count", len(feats)))
	defer span.End()

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	upsert := s.q(`
INSERT INTO features (name, everyone, staff, admins) VALUES (?, ?, ?, ?)
ON CONFLICT (name) DO UPDATE SET
  everyone = excluded.everyone,
  staff = excluded.staff,
  admins = excluded.admins
RETURNING id`)
	unlink := s.q(`DELETE FROM feature_cohort_features WHERE feature_id = ?`)
	link := s.q(`INSERT INTO feature_cohort_features (feature_id, cohort_id) VALUES (?, ?) ON CONFLICT DO NOTHING`)

	for _, feat := range feats {
		name := strings.TrimSpace(feat.Name)
		if name == "" {
			return fmt.Errorf("feature name is required")
		}
		var id int64
		if err := tx.QueryRowContext(ctx, upsert, name, feat.Everyone, feat.Staff, feat.Admins).Scan(&id); err != nil {
			return fmt.Errorf("save feature %q: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, unlink, id); err != nil {
			return fmt.Errorf("clear cohorts for %q: %w", name, err)
		}
		for _, ref := range feat.Cohorts {
			cohortID := ref.ID
			if cohortID == 0 {
				if cohortID, err = s.cohortIDByName(ctx, tx, ref.Name); err != nil {
					return err
				}
			}
			if _, err := tx.ExecContext(ctx, link, id, cohortID); err != nil {
				return fmt.Errorf("link %q to cohort %d: %w", name, cohortID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) cohortIDByName(ctx context.Context, tx *sql.Tx, name string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, s.q(`SELECT id FROM feature_cohorts WHERE name = ?`), name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, cohortNotFound(name)
	}
	if err != nil {
		return 0, fmt.Errorf("get cohort %q: %w", name, err)
	}
	return id, nil
}

// PruneFeatures deletes stored features whose names are not in keep.
func (s *Store) PruneFeatures(ctx context.Context, keep []string) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	ctx, span := startSpan(ctx, "PruneFeatures", attribute.Int("features.keep", len(keep)))
	defer span.End()

	query := `DELETE FROM features`
	args := make([]any, 0, len(keep))
	if len(keep) > 0 {
		query += ` WHERE name NOT IN (` + strings.TrimSuffix(strings.Repeat("?, ", len(keep)), ", ") + `)`
		for _, name := range keep {
			args = append(args, name)
		}
	}
	res, err := s.sqlDB.ExecContext(ctx, s.q(query), args...)
	if err != nil {
		return 0, fmt.Errorf("prune features: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune features: %w", err)
	}
	return int(n), nil
}

// ListCohorts returns every cohort ordered by name.
func (s *Store) ListCohorts(ctx context.Context) ([]features.Cohort, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	ctx, span := startSpan(ctx, "ListCohorts")
	defer span.End()

	rows, err := s.sqlDB.QueryContext(ctx, `SELECT id, name FROM feature_cohorts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list cohorts: %w", err)
	}
	defer rows.Close()

	cohorts := []features.Cohort{}
	for rows.Next() {
		var cohort features.Cohort
		if err := rows.Scan(&cohort.ID, &cohort.Name); err != nil {
			return nil, fmt.Errorf("scan cohort: %w", err)
		}
		cohorts = append(cohorts, cohort)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cohorts: %w", err)
	}
	return cohorts, nil
}

// CreateCohort inserts an empty cohort.
func (s *Store) CreateCohort(ctx context.Context, name string) (features.Cohort, error) {
	if err := s.ready(ctx); err != nil {
		return features.Cohort{}, err
	}
	name = features.NormalizeName(name)
	if name == "" {
		return features.Cohort{}, apperrors.New(apperrors.CodeCohortNameEmpty, "cohort name is required")
	}
	ctx, span := startSpan(ctx, "CreateCohort", attribute.String("cohort.name", name))
	defer span.End()

	cohort := features.Cohort{Name: name}
	err := s.sqlDB.QueryRowContext(ctx, s.q(`INSERT INTO feature_cohorts (name) VALUES (?) RETURNING id`), name).Scan(&cohort.ID)
	if err != nil {
		if s.isUnique(err) {
			return features.Cohort{}, &apperrors.Error{
				Code:     apperrors.CodeCohortNameTaken,
				Message:  fmt.Sprintf("cohort %q already exists", name),
				Metadata: map[string]string{"Name": name},
				Cause:    err,
			}
		}
		return features.Cohort{}, fmt.Errorf("create cohort: %w", err)
	}
	return cohort, nil
}

// GetCohort returns one cohort with its members ordered by username.
func (s *Store) GetCohort(ctx context.Context, id int64) (features.Cohort, error) {
	if err := s.ready(ctx); err != nil {
		return features.Cohort{}, err
	}
	ctx, span := startSpan(ctx, "GetCohort", attribute.Int64("cohort.id", id))
	defer span.End()

	cohort := features.Cohort{ID: id}
	err := s.sqlDB.QueryRowContext(ctx, s.q(`SELECT name FROM feature_cohorts WHERE id = ?`), id).Scan(&cohort.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return features.Cohort{}, apperrors.WithMetadata(apperrors.CodeCohortNotFound,
			fmt.Sprintf("cohort %d not found", id),
			map[string]string{"ID": fmt.Sprint(id)})
	}
	if err != nil {
		return features.Cohort{}, fmt.Errorf("get cohort: %w", err)
	}

	rows, err := s.sqlDB.QueryContext(ctx, s.q(`
SELECT u.id, u.username, u.admin, u.staff
  FROM feature_cohort_users m
  JOIN users u ON u.id = m.user_id
 WHERE m.cohort_id = ?
 ORDER BY u.username`), id)
	if err != nil {
		return features.Cohort{}, fmt.Errorf("list cohort members: %w", err)
	}
	defer rows.Close()
	cohort.Members = []features.User{}
	for rows.Next() {
		var user features.User
		if err := rows.Scan(&user.ID, &user.Username, &user.Admin, &user.Staff); err != nil {
			return features.Cohort{}, fmt.Errorf("scan cohort member: %w", err)
		}
		cohort.Members = append(cohort.Members, user)
	}
	if err := rows.Err(); err != nil {
		return features.Cohort{}, fmt.Errorf("iterate cohort members: %w", err)
	}
	return cohort, nil
}

// AddCohortMember adds a user to a cohort unless already a member.
func (s *Store) AddCohortMember(ctx context.Context, cohortID, userID int64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	ctx, span := startSpan(ctx, "AddCohortMember", attribute.Int64("cohort.id", cohortID), attribute.Int64("user.id", userID))
	defer span.End()

	if err := s.cohortExists(ctx, cohortID); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx,
		s.q(`INSERT INTO feature_cohort_users (cohort_id, user_id) VALUES (?, ?) ON CONFLICT DO NOTHING`),
		cohortID, userID)
	if err != nil {
		return fmt.Errorf("add cohort member: %w", err)
	}
	return nil
}

// RemoveCohortMember removes a user from a cohort when present.
func (s *Store) RemoveCohortMember(ctx context.Context, cohortID, userID int64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	ctx, span := startSpan(ctx, "RemoveCohortMember", attribute.Int64("cohort.id", cohortID), attribute.Int64("user.id", userID))
	defer span.End()

	if err := s.cohortExists(ctx, cohortID); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx,
		s.q(`DELETE FROM feature_cohort_users WHERE cohort_id = ? AND user_id = ?`),
		cohortID, userID)
	if err != nil {
		return fmt.Errorf("remove cohort member: %w", err)
	}
	return nil
}

func (s *Store) cohortExists(ctx context.Context, id int64) error {
	var found int
	err := s.sqlDB.QueryRowContext(ctx, s.q(`SELECT 1 FROM feature_cohorts WHERE id = ?`), id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return cohortNotFound(fmt.Sprint(id))
	}
	if err != nil {
		return fmt.Errorf("get cohort: %w", err)
	}
	return nil
}

func cohortNotFound(ref string) error {
	return apperrors.WithMetadata(apperrors.CodeCohortNotFound,
		fmt.Sprintf("cohort %s not found", ref),
		map[string]string{"ID": ref})
}

// GetUserByUsername returns a user and the names of its cohorts.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (features.User, error) {
	if err := s.ready(ctx); err != nil {
		return features.User{}, err
	}
	username = features.NormalizeName(username)
	if username == "" {
		return features.User{}, apperrors.New(apperrors.CodeUsernameEmpty, "username is required")
	}
	ctx, span := startSpan(ctx, "GetUserByUsername")
	defer span.End()

	user := features.User{Username: username}
	err := s.sqlDB.QueryRowContext(ctx, s.q(`SELECT id, admin, staff FROM users WHERE username = ?`), username).
		Scan(&user.ID, &user.Admin, &user.Staff)
	if errors.Is(err, sql.ErrNoRows) {
		return features.User{}, apperrors.WithMetadata(apperrors.CodeUserNotFound,
			fmt.Sprintf("user %q not found", username),
			map[string]string{"Username": username})
	}
	if err != nil {
		return features.User{}, fmt.Errorf("get user: %w", err)
	}

	rows, err := s.sqlDB.QueryContext(ctx, s.q(`
SELECT c.name
  FROM feature_cohort_users m
  JOIN feature_cohorts c ON c.id = m.cohort_id
 WHERE m.user_id = ?`), user.ID)
	if err != nil {
		return features.User{}, fmt.Errorf("list user cohorts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return features.User{}, fmt.Errorf("scan user cohort: %w", err)
		}
		user.Cohorts = append(user.Cohorts, name)
	}
	if err := rows.Err(); err != nil {
		return features.User{}, fmt.Errorf("iterate user cohorts: %w", err)
	}
	sort.Strings(user.Cohorts)
	return user, nil
}

// PutUser creates or updates a user by username.
func (s *Store) PutUser(ctx context.Context, user features.User) (features.User, error) {
	if err := s.ready(ctx); err != nil {
		return features.User{}, err
	}
	user.Username = features.NormalizeName(user.Username)
	if user.Username == "" {
		return features.User{}, apperrors.New(apperrors.CodeUsernameEmpty, "username is required")
	}
	ctx, span := startSpan(ctx, "PutUser")
	defer span.End()

	err := s.sqlDB.QueryRowContext(ctx, s.q(`
INSERT INTO users (username, admin, staff) VALUES (?, ?, ?)
ON CONFLICT (username) DO UPDATE SET
  admin = excluded.admin,
  staff = excluded.staff
RETURNING id`), user.Username, user.Admin, user.Staff).Scan(&user.ID)
	if err != nil {
		return features.User{}, fmt.Errorf("put user: %w", err)
	}
	user.Cohorts = nil
	return user, nil
}

var _ storage.Store = (*Store)(nil)
