package normalizer

import (
	"regexp"

	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/repository"
)

// EnumPattern maps folded spellings onto one canonical enum value
type EnumPattern struct {
	Pattern *regexp.Regexp
	Value   string
}

// EnumTable resolves free-text cells against an ordered list of patterns.
// The first matching pattern wins, so more specific spellings come first.
type EnumTable struct {
	patterns []EnumPattern
}

// NewEnumTable builds a table from pattern/value pairs
func NewEnumTable(patterns ...EnumPattern) *EnumTable {
	return &EnumTable{patterns: patterns}
}

// AddPattern appends a custom spelling
func (t *EnumTable) AddPattern(pattern, value string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	t.patterns = append(t.patterns, EnumPattern{Pattern: re, Value: value})
	return nil
}

// Lookup returns the canonical value for raw. Blank input yields "" and ok=true.
// Unrecognised input is returned cleaned but otherwise verbatim with ok=false.
func (t *EnumTable) Lookup(raw string) (string, bool) {
	cleaned := CleanText(raw)
	if cleaned == "" {
		return "", true
	}
	folded := Fold(cleaned)
	for _, p := range t.patterns {
		if p.Pattern.MatchString(folded) {
			return p.Value, true
		}
	}
	return cleaned, false
}

var (
	categoryTable = NewEnumTable(
		EnumPattern{regexp.MustCompile(`^(critic[oa]?|critical|alt[oa]|high|c)$`), string(repository.CategoryCritical)},
		EnumPattern{regexp.MustCompile(`^(moderad[oa]|moderate|media|medium|m)$`), string(repository.CategoryModerate)},
		EnumPattern{regexp.MustCompile(`^(baix[oa]|low|b|l)$`), string(repository.CategoryLow)},
	)

	significanceTable = NewEnumTable(
		EnumPattern{regexp.MustCompile(`^(nao significativ[oa]|non[ _-]?significant|not significant|ns|nao|no|n)$`), string(repository.SignificanceNonSignificant)},
		EnumPattern{regexp.MustCompile(`^(significativ[oa]|significant|s|sim|yes|y)$`), string(repository.SignificanceSignificant)},
	)

	conditionTable = NewEnumTable(
		EnumPattern{regexp.MustCompile(`^(normal|n)$`), string(repository.ConditionNormal)},
		EnumPattern{regexp.MustCompile(`^(anormal|abnormal|a)$`), string(repository.ConditionAbnormal)},
		EnumPattern{regexp.MustCompile(`^(emergencia|emergency|e)$`), string(repository.ConditionEmergency)},
	)

	incidenceTable = NewEnumTable(
		EnumPattern{regexp.MustCompile(`^(direta|direto|direct|d)$`), string(repository.IncidenceDirect)},
		EnumPattern{regexp.MustCompile(`^(indireta|indireto|indirect|i)$`), string(repository.IncidenceIndirect)},
	)
)

// ParseCategory maps critico/moderado/baixo (and English spellings) onto Category
func ParseCategory(raw string) repository.Category {
	v, _ := categoryTable.Lookup(raw)
	return repository.Category(v)
}

// ParseSignificance maps significativo/não significativo onto Significance
func ParseSignificance(raw string) repository.Significance {
	v, _ := significanceTable.Lookup(raw)
	return repository.Significance(v)
}

// ParseCondition maps normal/anormal/emergência onto Condition
func ParseCondition(raw string) repository.Condition {
	v, _ := conditionTable.Lookup(raw)
	return repository.Condition(v)
}

// ParseIncidence maps direta/indireta onto Incidence
func ParseIncidence(raw string) repository.Incidence {
	v, _ := incidenceTable.Lookup(raw)
	return repository.Incidence(v)
}
