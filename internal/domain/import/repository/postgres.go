package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of *pgxpool.Pool used by the repository
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db DBTX
}

// NewPostgresRepository creates a new PostgreSQL import repository
func NewPostgresRepository(db DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListReferenceEntities returns every sector of a tenant ordered by code
func (r *PostgresRepository) ListReferenceEntities(ctx context.Context, tenantID uuid.UUID) ([]ReferenceEntity, error) {
	query := `
		SELECT id, tenant_id, code, name, created_at
		FROM sectors
		WHERE tenant_id = $1
		ORDER BY code ASC`

	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sectors: %w", err)
	}
	defer rows.Close()

	var sectors []ReferenceEntity
	for rows.Next() {
		var s ReferenceEntity
		if err := rows.Scan(&s.ID, &s.TenantID, &s.Code, &s.Name, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sector: %w", err)
		}
		sectors = append(sectors, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list sectors: %w", err)
	}
	return sectors, nil
}

// CreateReferenceEntity inserts a sector. An existing (tenant, code) pair is returned
// unchanged, which keeps creation idempotent across retries and concurrent imports.
func (r *PostgresRepository) CreateReferenceEntity(ctx context.Context, tenantID uuid.UUID, code, name string) (*ReferenceEntity, error) {
	query := `
		INSERT INTO sectors (id, tenant_id, code, name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tenant_id, upper(code)) DO UPDATE SET
			code = sectors.code
		RETURNING id, tenant_id, code, name, created_at`

	var s ReferenceEntity
	err := r.db.QueryRow(ctx, query, uuid.New(), tenantID, code, name).Scan(
		&s.ID, &s.TenantID, &s.Code, &s.Name, &s.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sector %s: %w", code, err)
	}
	return &s, nil
}

// CreateRecord inserts one environmental assessment and returns its id
func (r *PostgresRepository) CreateRecord(ctx context.Context, rec Record) (uuid.UUID, error) {
	query := `
		INSERT INTO laia_assessments (
			id, tenant_id, scope_id, sector_id, source_row, activity, aspect, impact,
			category, significance, condition, incidence, frequency, severity,
			controls, legal_requirement, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id`

	row := rec.Row
	var id uuid.UUID
	err := r.db.QueryRow(ctx, query,
		uuid.New(),
		rec.TenantID,
		nullUUID(rec.ScopeID),
		rec.ReferenceID,
		row.RowNumber,
		nullString(row.Activity),
		row.EnvironmentalAspect,
		row.EnvironmentalImpact,
		nullString(string(row.Category)),
		nullString(string(row.Significance)),
		nullString(string(row.Condition)),
		nullString(string(row.Incidence)),
		row.Frequency,
		row.Severity,
		nullString(row.Controls),
		nullString(row.LegalRequirement),
		nullString(row.Notes),
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert assessment: %w", err)
	}
	return id, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
