// Package repository defines the LAIA import data model and the narrow persistence
// contract consumed by the import pipeline.
package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category classifies an environmental aspect
type Category string

const (
	CategoryCritical Category = "critical"
	CategoryModerate Category = "moderate"
	CategoryLow      Category = "low"
)

// Significance flags whether an impact is significant
type Significance string

const (
	SignificanceSignificant    Significance = "significant"
	SignificanceNonSignificant Significance = "non_significant"
)

// Condition is the operational situation under which the aspect occurs
type Condition string

const (
	ConditionNormal    Condition = "normal"
	ConditionAbnormal  Condition = "abnormal"
	ConditionEmergency Condition = "emergency"
)

// Incidence tells whether the organisation controls the aspect directly
type Incidence string

const (
	IncidenceDirect   Incidence = "direct"
	IncidenceIndirect Incidence = "indirect"
)

// ParsedRow is one candidate assessment record extracted from an uploaded file.
// Rows are created once by the parser and never mutated afterwards.
type ParsedRow struct {
	RowNumber  int `json:"rowNumber"`  // 1-based, header excluded
	SourceLine int `json:"sourceLine"` // visual line in the spreadsheet

	SectorCode          string `json:"sectorCode" validate:"required"`
	SectorName          string `json:"sectorName,omitempty"`
	Activity            string `json:"activity,omitempty"`
	EnvironmentalAspect string `json:"environmentalAspect" validate:"required"`
	EnvironmentalImpact string `json:"environmentalImpact" validate:"required"`

	Category     Category     `json:"category,omitempty" validate:"omitempty,oneof=critical moderate low"`
	Significance Significance `json:"significance,omitempty" validate:"omitempty,oneof=significant non_significant"`
	Condition    Condition    `json:"condition,omitempty" validate:"omitempty,oneof=normal abnormal emergency"`
	Incidence    Incidence    `json:"incidence,omitempty" validate:"omitempty,oneof=direct indirect"`
	Frequency    *int         `json:"frequency,omitempty" validate:"omitempty,min=1,max=5"`
	Severity     *int         `json:"severity,omitempty" validate:"omitempty,min=1,max=5"`

	Controls         string `json:"controls,omitempty"`
	LegalRequirement string `json:"legalRequirement,omitempty"`
	Notes            string `json:"notes,omitempty"`

	// Malformed lists JSON field names whose cell could not be decoded
	Malformed []string `json:"malformed,omitempty"`
}

// ReferenceEntity is a lookup record rows refer to by code (an organisational sector).
// Identity is (TenantID, code), codes compare case-insensitively.
type ReferenceEntity struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Target is the organisational scope imported records are attached to
type Target struct {
	TenantID  uuid.UUID
	ScopeID   uuid.UUID // branch; uuid.Nil means company-wide
	ScopeName string
}

// Record is one assessment ready to be persisted
type Record struct {
	TenantID    uuid.UUID
	ScopeID     uuid.UUID
	ReferenceID uuid.UUID
	Row         ParsedRow
}

// Repository is the persistence contract used by the import pipeline
type Repository interface {
	ListReferenceEntities(ctx context.Context, tenantID uuid.UUID) ([]ReferenceEntity, error)
	CreateReferenceEntity(ctx context.Context, tenantID uuid.UUID, code, name string) (*ReferenceEntity, error)
	CreateRecord(ctx context.Context, rec Record) (uuid.UUID, error)
}

// CodeKey returns the comparison key for a reference code
func CodeKey(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IndexByCode maps reference entities by CodeKey. The first entity wins on collisions.
func IndexByCode(entities []ReferenceEntity) map[string]ReferenceEntity {
	index := make(map[string]ReferenceEntity, len(entities))
	for _, e := range entities {
		key := CodeKey(e.Code)
		if _, exists := index[key]; !exists {
			index[key] = e
		}
	}
	return index
}
