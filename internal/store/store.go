// internal/store/store.go
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github-scraper/internal/model"
)

// Reader is the read-only query surface used by the API handlers.
type Reader interface {
	ListUsers(ctx context.Context, sinceID int64, limit int) ([]model.User, error)
	GetUserByLogin(ctx context.Context, login string) (model.User, error)
	ListRepositories(ctx context.Context, sinceID int64, limit int) ([]model.Repository, error)
	GetRepositoryByFullName(ctx context.Context, fullName string) (model.Repository, error)
	ListRepositoriesByOwnerLogin(ctx context.Context, login string, sinceID int64, limit int) ([]model.Repository, error)
}

// Store persists and queries scraped users and repositories.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by the given connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// SaveUser inserts a user if no row with its id exists yet. Existing rows are
// left untouched. Reports whether a new row was created. Records failing
// validation are rejected with a *errors.ValidationError before any write.
func (s *Store) SaveUser(ctx context.Context, user model.User) (bool, error) {
	if err := user.Validate(); err != nil {
		return false, err
	}

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, login, url) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
		user.ID, user.Login, user.URL,
	)
	if err != nil {
		return false, fmt.Errorf("inserting user %q: %w", user.Login, err)
	}
	return tag.RowsAffected() == 1, nil
}

// SaveRepository inserts a repository if absent, creating its owner row first
// when needed. Both inserts happen in one transaction so a repository row is
// never visible without its owner. Reports whether a new repository row was
// created.
func (s *Store) SaveRepository(ctx context.Context, repo model.Repository) (bool, error) {
	if err := repo.Validate(); err != nil {
		return false, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx) // Rollback is a no-op if the transaction is already committed.

	if _, err := tx.Exec(ctx,
		`INSERT INTO users (id, login, url) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
		repo.Owner.ID, repo.Owner.Login, repo.Owner.URL,
	); err != nil {
		return false, fmt.Errorf("inserting owner %q: %w", repo.Owner.Login, err)
	}

	tag, err := tx.Exec(ctx,
		`INSERT INTO repositories (id, owner_id, full_name, name, description, url)
		 VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT DO NOTHING`,
		repo.ID, repo.Owner.ID, repo.FullName, repo.Name, repo.Description, repo.URL,
	)
	if err != nil {
		return false, fmt.Errorf("inserting repository %q: %w", repo.FullName, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ListUsers returns up to limit users with id greater than sinceID, ordered
// by id.
func (s *Store) ListUsers(ctx context.Context, sinceID int64, limit int) ([]model.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, login, url FROM users WHERE id > $1 ORDER BY id LIMIT $2`,
		sinceID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanUsers(rows)
}

// GetUserByLogin returns the user with the given login. Returns pgx.ErrNoRows
// when no such user is stored.
func (s *Store) GetUserByLogin(ctx context.Context, login string) (model.User, error) {
	var user model.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, login, url FROM users WHERE login = $1`,
		login,
	).Scan(&user.ID, &user.Login, &user.URL)
	return user, err
}

// ListRepositories returns up to limit repositories with id greater than
// sinceID, ordered by id, with their owners.
func (s *Store) ListRepositories(ctx context.Context, sinceID int64, limit int) ([]model.Repository, error) {
	rows, err := s.pool.Query(ctx,
		repositorySelect+` WHERE r.id > $1 ORDER BY r.id LIMIT $2`,
		sinceID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRepositories(rows)
}

// GetRepositoryByFullName returns the repository with the given
// `owner-login/name` full name. Returns pgx.ErrNoRows when absent.
func (s *Store) GetRepositoryByFullName(ctx context.Context, fullName string) (model.Repository, error) {
	row := s.pool.QueryRow(ctx,
		repositorySelect+` WHERE r.full_name = $1`,
		fullName,
	)
	return scanRepository(row)
}

// ListRepositoriesByOwnerLogin returns up to limit repositories owned by the
// named user with id greater than sinceID, ordered by id. Returns
// pgx.ErrNoRows when the owner is not stored.
func (s *Store) ListRepositoriesByOwnerLogin(ctx context.Context, login string, sinceID int64, limit int) ([]model.Repository, error) {
	// Distinguish "unknown user" from "user with no repositories".
	if _, err := s.GetUserByLogin(ctx, login); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		repositorySelect+` WHERE u.login = $1 AND r.id > $2 ORDER BY r.id LIMIT $3`,
		login, sinceID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRepositories(rows)
}

const repositorySelect = `SELECT r.id, r.full_name, r.name, r.description, r.url,
	u.id, u.login, u.url
	FROM repositories r JOIN users u ON u.id = r.owner_id`

func scanRepository(row pgx.Row) (model.Repository, error) {
	var repo model.Repository
	err := row.Scan(
		&repo.ID, &repo.FullName, &repo.Name, &repo.Description, &repo.URL,
		&repo.Owner.ID, &repo.Owner.Login, &repo.Owner.URL,
	)
	return repo, err
}

func scanRepositories(rows pgx.Rows) ([]model.Repository, error) {
	var repos []model.Repository
	for rows.Next() {
		repo, err := scanRepository(rows)
		if err != nil {
			return nil, err
		}
		repos = append(repos, repo)
	}
	return repos, rows.Err()
}

func scanUsers(rows pgx.Rows) ([]model.User, error) {
	var users []model.User
	for rows.Next() {
		var user model.User
		if err := rows.Scan(&user.ID, &user.Login, &user.URL); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
