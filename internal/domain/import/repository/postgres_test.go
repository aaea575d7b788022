package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresRepository_ListReferenceEntities(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	tenantID := uuid.New()
	now := time.Now()
	idA, idB := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT id, tenant_id, code, name, created_at\s+FROM sectors`).
		WithArgs(tenantID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "tenant_id", "code", "name", "created_at"}).
			AddRow(idA, tenantID, "ADM", "Administrativo", now).
			AddRow(idB, tenantID, "PRD", "Produção", now))

	repo := NewPostgresRepository(mock)
	sectors, err := repo.ListReferenceEntities(context.Background(), tenantID)

	require.NoError(t, err)
	require.Len(t, sectors, 2)
	assert.Equal(t, idA, sectors[0].ID)
	assert.Equal(t, "ADM", sectors[0].Code)
	assert.Equal(t, "Produção", sectors[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_ListReferenceEntities_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM sectors`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnError(errors.New("connection refused"))

	repo := NewPostgresRepository(mock)
	_, err = repo.ListReferenceEntities(context.Background(), uuid.New())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list sectors")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestPostgresRepository_CreateReferenceEntity(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	tenantID := uuid.New()
	sectorID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO sectors`).
		WithArgs(pgxmock.AnyArg(), tenantID, "SEC-99", "Setor SEC-99").
		WillReturnRows(pgxmock.NewRows([]string{"id", "tenant_id", "code", "name", "created_at"}).
			AddRow(sectorID, tenantID, "SEC-99", "Setor SEC-99", now))

	repo := NewPostgresRepository(mock)
	sector, err := repo.CreateReferenceEntity(context.Background(), tenantID, "SEC-99", "Setor SEC-99")

	require.NoError(t, err)
	assert.Equal(t, sectorID, sector.ID)
	assert.Equal(t, tenantID, sector.TenantID)
	assert.Equal(t, "SEC-99", sector.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_CreateReferenceEntity_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO sectors`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "SEC-1", "Setor SEC-1").
		WillReturnError(errors.New("permission denied"))

	repo := NewPostgresRepository(mock)
	sector, err := repo.CreateReferenceEntity(context.Background(), uuid.New(), "SEC-1", "Setor SEC-1")

	assert.Nil(t, sector)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SEC-1")
}

func TestPostgresRepository_CreateRecord(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	recordID := uuid.New()
	tenantID := uuid.New()
	sectorID := uuid.New()
	freq := 3

	mock.ExpectQuery(`INSERT INTO laia_assessments`).
		WithArgs(
			pgxmock.AnyArg(), tenantID, pgxmock.AnyArg(), sectorID, 4,
			pgxmock.AnyArg(), "Consumo de energia", "Esgotamento de recursos",
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(recordID))

	repo := NewPostgresRepository(mock)
	id, err := repo.CreateRecord(context.Background(), Record{
		TenantID:    tenantID,
		ReferenceID: sectorID,
		Row: ParsedRow{
			RowNumber:           4,
			SectorCode:          "ADM",
			EnvironmentalAspect: "Consumo de energia",
			EnvironmentalImpact: "Esgotamento de recursos",
			Category:            CategoryModerate,
			Frequency:           &freq,
		},
	})

	require.NoError(t, err)
	assert.Equal(t, recordID, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_CreateRecord_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO laia_assessments`).
		WithArgs(anyArgs(17)...).
		WillReturnError(errors.New("violates foreign key constraint"))

	repo := NewPostgresRepository(mock)
	id, err := repo.CreateRecord(context.Background(), Record{TenantID: uuid.New()})

	assert.Equal(t, uuid.Nil, id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert assessment")
}

func TestNullHelpers(t *testing.T) {
	assert.Nil(t, nullString(""))
	require.NotNil(t, nullString("x"))
	assert.Equal(t, "x", *nullString("x"))

	assert.Nil(t, nullUUID(uuid.Nil))
	id := uuid.New()
	require.NotNil(t, nullUUID(id))
	assert.Equal(t, id, *nullUUID(id))
}

func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}
