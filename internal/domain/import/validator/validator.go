// Package validator checks parsed LAIA rows against the business schema and the
// tenant's existing sectors. Validation is pure and deterministic: the same rows and
// snapshot always produce the same result.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	playground "github.com/go-playground/validator/v10"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/normalizer"
	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/repository"
	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/sniffer"
)

// Severity of a validation issue
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// maxHintDistance is the largest edit distance for which a closest existing sector is suggested
const maxHintDistance = 2

// ValidationIssue is a row-scoped problem. Errors exclude the row from import, warnings do not.
type ValidationIssue struct {
	Row      int      `json:"row"`
	Field    string   `json:"field,omitempty"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Stats summarises a validation run
type Stats struct {
	Total                int      `json:"total"`
	Valid                int      `json:"valid"`
	Invalid              int      `json:"invalid"`
	NewReferenceEntities []string `json:"newReferenceEntities"`
}

// ValidationResult is the outcome of validating a batch of rows
type ValidationResult struct {
	ValidRows []repository.ParsedRow `json:"validRows"`
	Errors    []ValidationIssue      `json:"errors"`
	Warnings  []ValidationIssue      `json:"warnings"`
	Stats     Stats                  `json:"stats"`
}

var (
	requiredFields = []string{"SectorCode", "EnvironmentalAspect", "EnvironmentalImpact"}
	schemaFields   = []string{"Category", "Significance", "Condition", "Incidence", "Frequency", "Severity"}
)

// RowValidator validates ParsedRow batches. It is safe for concurrent use.
type RowValidator struct {
	validate         *playground.Validate
	detectDuplicates bool
	columnOrder      map[string]int
}

// Option configures a RowValidator
type Option func(*RowValidator)

// WithDuplicateDetection toggles the duplicate-row warning (enabled by default)
func WithDuplicateDetection(enabled bool) Option {
	return func(v *RowValidator) {
		v.detectDuplicates = enabled
	}
}

// New creates a row validator
func New(opts ...Option) *RowValidator {
	validate := playground.New(playground.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v := &RowValidator{
		validate:         validate,
		detectDuplicates: true,
		columnOrder:      make(map[string]int, len(sniffer.Columns)),
	}
	for i, c := range sniffer.Columns {
		v.columnOrder[c.Field] = i
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate runs, per row and in order: required fields, schema (enums, score ranges,
// unreadable cells), unknown-sector detection and duplicate detection. A row failing
// either of the first two checks is invalid and skips the rest.
func (v *RowValidator) Validate(rows []repository.ParsedRow, existing []repository.ReferenceEntity) *ValidationResult {
	result := &ValidationResult{
		ValidRows: make([]repository.ParsedRow, 0, len(rows)),
		Errors:    []ValidationIssue{},
		Warnings:  []ValidationIssue{},
		Stats: Stats{
			Total:                len(rows),
			NewReferenceEntities: []string{},
		},
	}

	index := repository.IndexByCode(existing)
	existingKeys := make([]string, 0, len(index))
	for k := range index {
		existingKeys = append(existingKeys, k)
	}
	sort.Strings(existingKeys)

	newCodes := make(map[string]bool)
	firstSeen := make(map[string]int)

	for _, row := range rows {
		if issues := v.checkRequired(row); len(issues) > 0 {
			result.Errors = append(result.Errors, issues...)
			continue
		}
		if issues := v.checkSchema(row); len(issues) > 0 {
			result.Errors = append(result.Errors, issues...)
			continue
		}
		result.ValidRows = append(result.ValidRows, row)

		key := repository.CodeKey(row.SectorCode)
		if _, ok := index[key]; !ok {
			if !newCodes[key] {
				newCodes[key] = true
				result.Stats.NewReferenceEntities = append(result.Stats.NewReferenceEntities, strings.TrimSpace(row.SectorCode))
			}
			result.Warnings = append(result.Warnings, ValidationIssue{
				Row:      row.RowNumber,
				Field:    sniffer.FieldSectorCode,
				Message:  newSectorMessage(row.SectorCode, key, existingKeys, index),
				Severity: SeverityWarning,
			})
		}

		if v.detectDuplicates {
			dupKey := key + "\x00" + normalizer.Fold(row.EnvironmentalAspect) + "\x00" + normalizer.Fold(row.EnvironmentalImpact)
			if first, ok := firstSeen[dupKey]; ok {
				result.Warnings = append(result.Warnings, ValidationIssue{
					Row:      row.RowNumber,
					Message:  fmt.Sprintf("duplicates row %d (same sector, aspect and impact)", first),
					Severity: SeverityWarning,
				})
			} else {
				firstSeen[dupKey] = row.RowNumber
			}
		}
	}

	result.Stats.Valid = len(result.ValidRows)
	result.Stats.Invalid = result.Stats.Total - result.Stats.Valid
	return result
}

func (v *RowValidator) checkRequired(row repository.ParsedRow) []ValidationIssue {
	trimmed := row
	trimmed.SectorCode = strings.TrimSpace(row.SectorCode)
	trimmed.EnvironmentalAspect = strings.TrimSpace(row.EnvironmentalAspect)
	trimmed.EnvironmentalImpact = strings.TrimSpace(row.EnvironmentalImpact)

	return v.issuesFrom(row, v.validate.StructPartial(trimmed, requiredFields...))
}

func (v *RowValidator) checkSchema(row repository.ParsedRow) []ValidationIssue {
	issues := v.issuesFrom(row, v.validate.StructPartial(row, schemaFields...))
	for _, field := range row.Malformed {
		issues = append(issues, ValidationIssue{
			Row:      row.RowNumber,
			Field:    field,
			Message:  fmt.Sprintf("%s could not be read as a whole number", field),
			Severity: SeverityError,
		})
	}

	sort.SliceStable(issues, func(i, j int) bool {
		return v.columnOrder[issues[i].Field] < v.columnOrder[issues[j].Field]
	})
	return issues
}

func (v *RowValidator) issuesFrom(row repository.ParsedRow, err error) []ValidationIssue {
	if err == nil {
		return nil
	}

	var fieldErrs playground.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []ValidationIssue{{Row: row.RowNumber, Message: err.Error(), Severity: SeverityError}}
	}

	issues := make([]ValidationIssue, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		issues = append(issues, ValidationIssue{
			Row:      row.RowNumber,
			Field:    fe.Field(),
			Message:  fieldMessage(fe),
			Severity: SeverityError,
		})
	}
	return issues
}

// fieldMessage builds a user-facing message without leaking Go struct names
func fieldMessage(fe playground.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s %q is not recognised (expected one of: %s)",
			field, fmt.Sprint(fe.Value()), strings.Join(strings.Fields(fe.Param()), ", "))
	case "min", "max":
		return fmt.Sprintf("%s must be between 1 and 5, got %v", field, deref(fe.Value()))
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func deref(v interface{}) interface{} {
	if p, ok := v.(*int); ok && p != nil {
		return *p
	}
	return v
}

func newSectorMessage(code, key string, existingKeys []string, index map[string]repository.ReferenceEntity) string {
	msg := fmt.Sprintf("sector %q does not exist and will be created", strings.TrimSpace(code))

	best, bestDist := "", maxHintDistance+1
	for _, candidate := range existingKeys {
		d := fuzzy.LevenshteinDistance(key, candidate)
		if d < bestDist {
			best, bestDist = candidate, d
		}
	}
	if best != "" {
		msg += fmt.Sprintf("; did you mean %q?", index[best].Code)
	}
	return msg
}
