package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/repository"
)

func TestFold(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"accents and case", "Significância", "significancia"},
		{"cedilla and tilde", "SITUAÇÃO", "situacao"},
		{"punctuation becomes space", "Cód. Setor", "cod setor"},
		{"collapses whitespace", "  Requisito   legal\t", "requisito legal"},
		{"keeps separators", "non_significant", "non_significant"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Fold(tt.input))
		})
	}
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Consumo de água", CleanText("  Consumo  de   água "))
	assert.Equal(t, "ADM", CleanText("\ufeffADM"))
	assert.Equal(t, "", CleanText(" \t "))
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input    string
		expected repository.Category
	}{
		{"Crítico", repository.CategoryCritical},
		{"CRITICO", repository.CategoryCritical},
		{"critical", repository.CategoryCritical},
		{"Moderado", repository.CategoryModerate},
		{"moderate", repository.CategoryModerate},
		{"Baixo", repository.CategoryLow},
		{"low", repository.CategoryLow},
		{"", ""},
		{"Urgente", "Urgente"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseCategory(tt.input))
		})
	}
}

func TestParseSignificance(t *testing.T) {
	tests := []struct {
		input    string
		expected repository.Significance
	}{
		{"Significativo", repository.SignificanceSignificant},
		{"Não significativo", repository.SignificanceNonSignificant},
		{"NAO SIGNIFICATIVO", repository.SignificanceNonSignificant},
		{"non-significant", repository.SignificanceNonSignificant},
		{"non_significant", repository.SignificanceNonSignificant},
		{"Sim", repository.SignificanceSignificant},
		{"talvez", "talvez"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseSignificance(tt.input))
		})
	}
}

func TestParseConditionAndIncidence(t *testing.T) {
	assert.Equal(t, repository.ConditionNormal, ParseCondition("Normal"))
	assert.Equal(t, repository.ConditionAbnormal, ParseCondition("Anormal"))
	assert.Equal(t, repository.ConditionEmergency, ParseCondition("Emergência"))
	assert.Equal(t, repository.Condition("Rotina"), ParseCondition("Rotina"))

	assert.Equal(t, repository.IncidenceDirect, ParseIncidence("Direta"))
	assert.Equal(t, repository.IncidenceIndirect, ParseIncidence("INDIRETO"))
	assert.Equal(t, repository.Incidence(""), ParseIncidence("  "))
}

func TestEnumTable_AddPattern(t *testing.T) {
	table := NewEnumTable()
	require.NoError(t, table.AddPattern(`^(grave)$`, "critical"))
	assert.Error(t, table.AddPattern(`([`, "x"))

	v, ok := table.Lookup("GRAVE")
	assert.True(t, ok)
	assert.Equal(t, "critical", v)

	v, ok = table.Lookup(" leve ")
	assert.False(t, ok)
	assert.Equal(t, "leve", v)
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected *int
		wantErr  bool
	}{
		{"integer", "3", intPtr(3), false},
		{"decimal point", "4.0", intPtr(4), false},
		{"decimal comma", "2,0", intPtr(2), false},
		{"out of range kept for validator", "7", intPtr(7), false},
		{"blank", "  ", nil, false},
		{"fraction", "2,5", nil, true},
		{"text", "alto", nil, true},
		{"negative kept for validator", "-2", intPtr(-2), false},
		{"exponent", "5e0", intPtr(5), false},
		{"beyond int64", "18446744073709551619", nil, true},
		{"large exponent", "1e19", nil, true},
		{"beyond int32", "2147483648", nil, true},
		{"large negative", "-1e12", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScore(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidScore)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func intPtr(v int) *int { return &v }
