package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/marcelsud/webhook-relay/webhook"
)

/*
PostgreSQL implementation of the Registration Store

Holds the two relational collections of the system:
- webhook_types: the catalog, slug unique
- registrations: target URLs bound to an owner and a type, never hard-deleted

Identifiers are generated by the service (uuid) and stored as TEXT.
*/

const uniqueViolation = "23505"

const (
	selectRegistrationQuery = `SELECT id, owner_id, webhook_type_id, target_url, is_active, created_at, updated_at
		FROM registrations WHERE id = $1`
	selectRegistrationsQuery = `SELECT id, owner_id, webhook_type_id, target_url, is_active, created_at, updated_at
		FROM registrations ORDER BY created_at, id`
	selectActiveRegistrationsQuery = `SELECT id, owner_id, webhook_type_id, target_url, is_active, created_at, updated_at
		FROM registrations WHERE is_active ORDER BY created_at, id`
	insertRegistrationQuery = `INSERT INTO registrations
		(id, owner_id, webhook_type_id, target_url, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	updateTargetURLQuery = `UPDATE registrations SET target_url = $1, updated_at = $2 WHERE id = $3
		RETURNING id, owner_id, webhook_type_id, target_url, is_active, created_at, updated_at`

	insertWebhookTypeQuery = `INSERT INTO webhook_types (id, slug, description, created_at)
		VALUES ($1, $2, $3, $4)`
	webhookTypeExistsQuery  = `SELECT EXISTS (SELECT 1 FROM webhook_types WHERE id = $1)`
	selectWebhookTypesQuery = `SELECT id, slug, description, created_at FROM webhook_types ORDER BY slug`
)

const schema = `
	CREATE TABLE IF NOT EXISTS webhook_types (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE TABLE IF NOT EXISTS registrations (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		webhook_type_id TEXT NOT NULL REFERENCES webhook_types (id),
		target_url TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS registrations_active_idx ON registrations (is_active);
`

type Repository struct {
	DB *sql.DB
}

// NewRepository opens a repository with the default pool (25, 5, 5 min)
func NewRepository(connectionString string) (*Repository, error) {
	return NewRepositoryWithPoolConfig(connectionString, 25, 5, 5)
}

// NewRepositoryWithPoolConfig opens a repository with a custom pool
// maxOpenConns: maximum simultaneous connections (0 = unlimited)
// maxIdleConns: maximum idle connections kept in the pool
// maxLifeMinutes: maximum minutes a connection may be reused
func NewRepositoryWithPoolConfig(connectionString string, maxOpenConns, maxIdleConns, maxLifeMinutes int) (*Repository, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if maxIdleConns > 0 {
		db.SetMaxIdleConns(maxIdleConns)
	}
	if maxLifeMinutes > 0 {
		db.SetConnMaxLifetime(time.Duration(maxLifeMinutes) * time.Minute)
	}

	return &Repository{
		DB: db,
	}, nil
}

// SelectRegistration finds a registration by id
func (r *Repository) SelectRegistration(ctx context.Context, id string) (webhook.Registration, error) {
	reg, err := scanRegistration(r.DB.QueryRowContext(ctx, selectRegistrationQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return webhook.Registration{}, webhook.ErrNotFound
	}
	if err != nil {
		return webhook.Registration{}, fmt.Errorf("selecting registration: %w", err)
	}
	return reg, nil
}

// SelectRegistrations returns every registration, active or not
func (r *Repository) SelectRegistrations(ctx context.Context) ([]webhook.Registration, error) {
	return r.selectRegistrations(ctx, selectRegistrationsQuery)
}

// SelectActiveRegistrations returns the registrations a trigger delivers to
func (r *Repository) SelectActiveRegistrations(ctx context.Context) ([]webhook.Registration, error) {
	return r.selectRegistrations(ctx, selectActiveRegistrationsQuery)
}

func (r *Repository) selectRegistrations(ctx context.Context, query string) ([]webhook.Registration, error) {
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("selecting registrations: %w", err)
	}
	defer rows.Close()

	registrations := []webhook.Registration{}
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning registration: %w", err)
		}
		registrations = append(registrations, reg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating registrations: %w", err)
	}

	return registrations, nil
}

// InsertRegistration stores a new registration
func (r *Repository) InsertRegistration(ctx context.Context, reg webhook.Registration) error {
	if err := reg.Validate(); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx, insertRegistrationQuery,
		reg.ID,
		reg.OwnerID,
		reg.WebhookTypeID,
		reg.TargetURL,
		reg.IsActive,
		reg.CreatedAt,
		reg.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return webhook.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("inserting registration: %w", err)
	}
	return nil
}

// UpdateTargetURL changes the target URL of a registration and returns the updated row
func (r *Repository) UpdateTargetURL(ctx context.Context, id, targetURL string, updatedAt time.Time) (webhook.Registration, error) {
	reg, err := scanRegistration(r.DB.QueryRowContext(ctx, updateTargetURLQuery, targetURL, updatedAt, id))
	if errors.Is(err, sql.ErrNoRows) {
		return webhook.Registration{}, webhook.ErrNotFound
	}
	if err != nil {
		return webhook.Registration{}, fmt.Errorf("updating registration: %w", err)
	}
	return reg, nil
}

// InsertWebhookType stores a catalog entry; a duplicate slug is webhook.ErrConflict
func (r *Repository) InsertWebhookType(ctx context.Context, t webhook.WebhookType) error {
	_, err := r.DB.ExecContext(ctx, insertWebhookTypeQuery, t.ID, t.Slug, t.Description, t.CreatedAt)
	if isUniqueViolation(err) {
		return webhook.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("inserting webhook type: %w", err)
	}
	return nil
}

// WebhookTypeExists reports whether a catalog entry with id exists
func (r *Repository) WebhookTypeExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := r.DB.QueryRowContext(ctx, webhookTypeExistsQuery, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking webhook type: %w", err)
	}
	return exists, nil
}

// SelectWebhookTypes returns the catalog ordered by slug
func (r *Repository) SelectWebhookTypes(ctx context.Context) ([]webhook.WebhookType, error) {
	rows, err := r.DB.QueryContext(ctx, selectWebhookTypesQuery)
	if err != nil {
		return nil, fmt.Errorf("selecting webhook types: %w", err)
	}
	defer rows.Close()

	types := []webhook.WebhookType{}
	for rows.Next() {
		var t webhook.WebhookType
		if err := rows.Scan(&t.ID, &t.Slug, &t.Description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning webhook type: %w", err)
		}
		types = append(types, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating webhook types: %w", err)
	}

	return types, nil
}

// Close closes the database connection
func (r *Repository) Close(ctx context.Context) error {
	if r.DB != nil {
		return r.DB.Close()
	}
	return nil
}

// CreateTables creates the schema if it does not exist
func (r *Repository) CreateTables(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	return nil
}

// DropTables removes the schema (useful for tests)
func (r *Repository) DropTables(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, "DROP TABLE IF EXISTS registrations, webhook_types CASCADE")
	if err != nil {
		return fmt.Errorf("dropping tables: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRegistration(s scanner) (webhook.Registration, error) {
	var reg webhook.Registration
	err := s.Scan(
		&reg.ID,
		&reg.OwnerID,
		&reg.WebhookTypeID,
		&reg.TargetURL,
		&reg.IsActive,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	)
	return reg, err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
