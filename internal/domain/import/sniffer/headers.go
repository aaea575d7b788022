package sniffer

import (
	"github.com/cloudflare/ahocorasick"

	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/normalizer"
)

// Column describes one LAIA worksheet column
type Column struct {
	Field    string   // canonical field name, matches the ParsedRow json tag
	Header   string   // header written to templates
	Aliases  []string // folded spellings accepted in uploads
	Required bool
}

// Field names shared by the parser and validator
const (
	FieldSectorCode          = "sectorCode"
	FieldSectorName          = "sectorName"
	FieldActivity            = "activity"
	FieldEnvironmentalAspect = "environmentalAspect"
	FieldEnvironmentalImpact = "environmentalImpact"
	FieldCategory            = "category"
	FieldSignificance        = "significance"
	FieldCondition           = "condition"
	FieldIncidence           = "incidence"
	FieldFrequency           = "frequency"
	FieldSeverity            = "severity"
	FieldControls            = "controls"
	FieldLegalRequirement    = "legalRequirement"
	FieldNotes               = "notes"
)

// Columns lists the worksheet layout in template order
var Columns = []Column{
	{FieldSectorCode, "Setor", []string{"setor", "sector", "codigo do setor", "cod setor", "sector code", "sectorcode"}, true},
	{FieldSectorName, "Nome do setor", []string{"nome do setor", "sector name", "sectorname"}, false},
	{FieldActivity, "Atividade", []string{"atividade", "activity", "processo"}, false},
	{FieldEnvironmentalAspect, "Aspecto", []string{"aspecto", "aspect", "aspecto ambiental", "environmental aspect", "environmentalaspect"}, true},
	{FieldEnvironmentalImpact, "Impacto", []string{"impacto", "impact", "impacto ambiental", "environmental impact", "environmentalimpact"}, true},
	{FieldCategory, "Categoria", []string{"categoria", "category"}, false},
	{FieldSignificance, "Significância", []string{"significancia", "significance"}, false},
	{FieldCondition, "Situação", []string{"situacao", "condicao", "condition", "situacao operacional"}, false},
	{FieldIncidence, "Incidência", []string{"incidencia", "incidence"}, false},
	{FieldFrequency, "Frequência", []string{"frequencia", "probabilidade", "frequency"}, false},
	{FieldSeverity, "Severidade", []string{"severidade", "gravidade", "severity"}, false},
	{FieldControls, "Controles", []string{"controle", "controles", "controlos", "controls", "medidas de controle"}, false},
	{FieldLegalRequirement, "Requisito legal", []string{"requisito legal", "requisitos legais", "legislacao", "legal requirement", "legalrequirement"}, false},
	{FieldNotes, "Observações", []string{"observacao", "observacoes", "notes", "notas"}, false},
}

// HeaderMatcher maps header cells onto canonical fields. Every alias is loaded into
// one Aho-Corasick automaton; when a cell contains several aliases the longest one
// decides, so "Nome do setor" maps to sectorName rather than sectorCode. A cell equal
// to an alias outranks cells that only contain one.
type HeaderMatcher struct {
	matcher  *ahocorasick.Matcher
	aliases  []string
	fields   []string
	exact    map[string]string
	required []string
}

// NewHeaderMatcher builds a matcher over the given columns
func NewHeaderMatcher(columns []Column) *HeaderMatcher {
	m := &HeaderMatcher{exact: make(map[string]string)}
	for _, c := range columns {
		for _, a := range c.Aliases {
			folded := normalizer.Fold(a)
			m.aliases = append(m.aliases, folded)
			m.fields = append(m.fields, c.Field)
			if _, ok := m.exact[folded]; !ok {
				m.exact[folded] = c.Field
			}
		}
		if c.Required {
			m.required = append(m.required, c.Field)
		}
	}
	m.matcher = ahocorasick.NewStringMatcher(m.aliases)
	return m
}

// DefaultHeaderMatcher matches the standard LAIA columns
func DefaultHeaderMatcher() *HeaderMatcher {
	return NewHeaderMatcher(Columns)
}

// Required returns the required field names in column order
func (m *HeaderMatcher) Required() []string {
	return append([]string(nil), m.required...)
}

// MatchCell returns the field a header cell refers to
func (m *HeaderMatcher) MatchCell(cell string) (string, bool) {
	field, _, ok := m.match(cell)
	return field, ok
}

// match also reports whether the cell is exactly one of the field's aliases
func (m *HeaderMatcher) match(cell string) (field string, exact bool, ok bool) {
	folded := normalizer.Fold(cell)
	if folded == "" {
		return "", false, false
	}
	if field, ok := m.exact[folded]; ok {
		return field, true, true
	}

	hits := m.matcher.MatchThreadSafe([]byte(folded))
	best := -1
	for _, idx := range hits {
		if best == -1 || len(m.aliases[idx]) > len(m.aliases[best]) ||
			(len(m.aliases[idx]) == len(m.aliases[best]) && idx < best) {
			best = idx
		}
	}
	if best == -1 {
		return "", false, false
	}
	return m.fields[best], false, true
}

// MapHeaders maps each cell of a header row to its field. Each field goes to the first
// cell naming it exactly, or failing that to the first cell containing one of its
// aliases, so "Subsetor;Setor" maps the second column. Other cells map to "".
func (m *HeaderMatcher) MapHeaders(cells []string) []string {
	type claim struct {
		index int
		exact bool
	}
	out := make([]string, len(cells))
	claims := make(map[string]claim, len(cells))
	for i, cell := range cells {
		field, exact, ok := m.match(cell)
		if !ok {
			continue
		}
		if prev, taken := claims[field]; taken {
			if prev.exact || !exact {
				continue
			}
			out[prev.index] = ""
		}
		claims[field] = claim{index: i, exact: exact}
		out[i] = field
	}
	return out
}

// HasRequired reports whether the cells contain every required column
func (m *HeaderMatcher) HasRequired(cells []string) bool {
	return m.covers(m.MapHeaders(cells))
}

// Missing returns the required fields absent from a mapped header row
func (m *HeaderMatcher) Missing(fields []string) []string {
	present := make(map[string]bool, len(fields))
	for _, f := range fields {
		present[f] = true
	}
	var missing []string
	for _, r := range m.required {
		if !present[r] {
			missing = append(missing, r)
		}
	}
	return missing
}

func (m *HeaderMatcher) covers(fields []string) bool {
	return len(m.Missing(fields)) == 0
}
