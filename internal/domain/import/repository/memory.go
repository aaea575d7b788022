package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-process Repository used for dry runs and tests.
// Failure hooks let callers simulate persistence errors.
type MemoryRepository struct {
	mu      sync.Mutex
	sectors map[uuid.UUID][]ReferenceEntity
	records []Record

	// Optional failure hooks; a non-nil error aborts the call.
	ListErr      func(tenantID uuid.UUID) error
	CreateRefErr func(code string) error
	CreateRecErr func(row ParsedRow) error
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sectors: make(map[uuid.UUID][]ReferenceEntity)}
}

// Seed adds existing sectors for a tenant
func (m *MemoryRepository) Seed(tenantID uuid.UUID, codes ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, code := range codes {
		m.sectors[tenantID] = append(m.sectors[tenantID], ReferenceEntity{
			ID:        uuid.New(),
			TenantID:  tenantID,
			Code:      code,
			Name:      code,
			CreatedAt: time.Now(),
		})
	}
}

// ListReferenceEntities returns the tenant's sectors ordered by code
func (m *MemoryRepository) ListReferenceEntities(_ context.Context, tenantID uuid.UUID) ([]ReferenceEntity, error) {
	if m.ListErr != nil {
		if err := m.ListErr(tenantID); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]ReferenceEntity, len(m.sectors[tenantID]))
	copy(out, m.sectors[tenantID])
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// CreateReferenceEntity adds a sector or returns the existing one with the same code
func (m *MemoryRepository) CreateReferenceEntity(_ context.Context, tenantID uuid.UUID, code, name string) (*ReferenceEntity, error) {
	if m.CreateRefErr != nil {
		if err := m.CreateRefErr(code); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := CodeKey(code)
	for _, s := range m.sectors[tenantID] {
		if CodeKey(s.Code) == key {
			existing := s
			return &existing, nil
		}
	}

	s := ReferenceEntity{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Code:      code,
		Name:      name,
		CreatedAt: time.Now(),
	}
	m.sectors[tenantID] = append(m.sectors[tenantID], s)
	return &s, nil
}

// CreateRecord stores an assessment
func (m *MemoryRepository) CreateRecord(_ context.Context, rec Record) (uuid.UUID, error) {
	if m.CreateRecErr != nil {
		if err := m.CreateRecErr(rec.Row); err != nil {
			return uuid.Nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return uuid.New(), nil
}

// Records returns a copy of every stored assessment in insertion order
func (m *MemoryRepository) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}

// SectorCount returns the number of sectors stored for a tenant
func (m *MemoryRepository) SectorCount(tenantID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sectors[tenantID])
}
