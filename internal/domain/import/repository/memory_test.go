package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_CreateReferenceEntityIsIdempotent(t *testing.T) {
	repo := NewMemoryRepository()
	tenantID := uuid.New()
	ctx := context.Background()

	first, err := repo.CreateReferenceEntity(ctx, tenantID, "SEC-99", "Setor SEC-99")
	require.NoError(t, err)

	second, err := repo.CreateReferenceEntity(ctx, tenantID, " sec-99 ", "other")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, repo.SectorCount(tenantID))
}

func TestMemoryRepository_TenantsAreIsolated(t *testing.T) {
	repo := NewMemoryRepository()
	a, b := uuid.New(), uuid.New()
	repo.Seed(a, "PRD", "ADM")

	listA, err := repo.ListReferenceEntities(context.Background(), a)
	require.NoError(t, err)
	listB, err := repo.ListReferenceEntities(context.Background(), b)
	require.NoError(t, err)

	require.Len(t, listA, 2)
	assert.Equal(t, "ADM", listA[0].Code)
	assert.Empty(t, listB)
}

func TestMemoryRepository_FailureHooks(t *testing.T) {
	repo := NewMemoryRepository()
	boom := errors.New("boom")
	repo.ListErr = func(uuid.UUID) error { return boom }
	repo.CreateRefErr = func(code string) error {
		if code == "BAD" {
			return boom
		}
		return nil
	}
	repo.CreateRecErr = func(row ParsedRow) error {
		if row.RowNumber == 3 {
			return boom
		}
		return nil
	}
	ctx := context.Background()
	tenantID := uuid.New()

	_, err := repo.ListReferenceEntities(ctx, tenantID)
	assert.ErrorIs(t, err, boom)

	_, err = repo.CreateReferenceEntity(ctx, tenantID, "BAD", "")
	assert.ErrorIs(t, err, boom)
	_, err = repo.CreateReferenceEntity(ctx, tenantID, "OK", "")
	assert.NoError(t, err)

	_, err = repo.CreateRecord(ctx, Record{Row: ParsedRow{RowNumber: 3}})
	assert.ErrorIs(t, err, boom)
	_, err = repo.CreateRecord(ctx, Record{Row: ParsedRow{RowNumber: 4}})
	assert.NoError(t, err)
	assert.Len(t, repo.Records(), 1)
}

func TestIndexByCode(t *testing.T) {
	first := ReferenceEntity{ID: uuid.New(), Code: "adm"}
	second := ReferenceEntity{ID: uuid.New(), Code: "ADM "}

	index := IndexByCode([]ReferenceEntity{first, second})

	require.Len(t, index, 1)
	assert.Equal(t, first.ID, index["ADM"].ID)
	assert.Equal(t, "SEC-1", CodeKey("  sec-1 "))
}
