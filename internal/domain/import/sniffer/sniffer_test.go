package sniffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		data     []byte
		expected Format
	}{
		{"xlsx zip magic", "laia.xlsx", []byte("PK\x03\x04rest-of-zip"), FormatXLSX},
		{"xlsx magic wins over extension", "laia.csv", []byte("PK\x03\x04"), FormatXLSX},
		{"legacy xls", "laia.xls", []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1, 0x00}, FormatXLS},
		{"semicolon csv", "laia.csv", []byte("Setor;Aspecto;Impacto\nADM;Papel;Resíduo\n"), FormatCSV},
		{"latin1 csv", "laia.csv", []byte("Setor;Aspecto\nADM;Emiss\xe3o\n"), FormatCSV},
		{"binary garbage", "laia.csv", []byte{0x00, 0x01, 0x02, 0xFF, 0x00}, FormatUnknown},
		{"text renamed to xlsx", "laia.xlsx", []byte("Setor;Aspecto;Impacto\n"), FormatUnknown},
		{"empty", "laia.csv", nil, FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectFormat(tt.fileName, tt.data))
		})
	}
}

func TestFormat_String(t *testing.T) {
	assert.Equal(t, "csv", FormatCSV.String())
	assert.Equal(t, "xlsx", FormatXLSX.String())
	assert.Equal(t, "xls", FormatXLS.String())
	assert.Equal(t, "unknown", FormatUnknown.String())
}

func TestDetectConfig_SkipsMetadataLines(t *testing.T) {
	data := []byte("Empresa Exemplo Lda\n" +
		"Levantamento 2024\n" +
		"\n" +
		"Setor;Atividade;Aspecto;Impacto;Categoria\n" +
		"ADM;Escritório;Consumo de papel;Esgotamento de recursos;Baixo\n")

	cfg, err := DetectConfig(data, DefaultHeaderMatcher())

	require.NoError(t, err)
	assert.Equal(t, ';', cfg.Delimiter)
	assert.Equal(t, 3, cfg.HeaderIndex)
	assert.NotEmpty(t, cfg.Fingerprint)
}

func TestDetectConfig_Delimiters(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		delimiter rune
	}{
		{"comma", "Setor,Aspecto,Impacto\nADM,a,b\n", ','},
		{"tab", "Setor\tAspecto\tImpacto\nADM\ta\tb\n", '\t'},
		{"pipe", "Setor|Aspecto|Impacto\nADM|a|b\n", '|'},
		{"bom and crlf", "\uFEFFSetor;Aspecto;Impacto\r\nADM;a;b\r\n", ';'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := DetectConfig([]byte(tt.data), DefaultHeaderMatcher())
			require.NoError(t, err)
			assert.Equal(t, tt.delimiter, cfg.Delimiter)
			assert.Equal(t, 0, cfg.HeaderIndex)
		})
	}
}

func TestDetectConfig_Errors(t *testing.T) {
	_, err := DetectConfig([]byte("  \n\n"), DefaultHeaderMatcher())
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = DetectConfig([]byte("just one line of prose\n"), DefaultHeaderMatcher())
	assert.ErrorIs(t, err, ErrInvalidDelimiter)
}

func TestDetectConfig_FallsBackToWidestLine(t *testing.T) {
	data := []byte("Setor;Atividade;Observações\nADM;Escritório;-\n")

	cfg, err := DetectConfig(data, DefaultHeaderMatcher())

	require.NoError(t, err)
	assert.Equal(t, ';', cfg.Delimiter)
	assert.Equal(t, 0, cfg.HeaderIndex)
}

func TestHeaderMatcher_MatchCell(t *testing.T) {
	m := DefaultHeaderMatcher()

	tests := []struct {
		cell  string
		field string
		ok    bool
	}{
		{"Setor", FieldSectorCode, true},
		{"CÓDIGO DO SETOR", FieldSectorCode, true},
		{"Cód. Setor", FieldSectorCode, true},
		{"Nome do setor", FieldSectorName, true},
		{"Aspecto Ambiental", FieldEnvironmentalAspect, true},
		{"environmentalImpact", FieldEnvironmentalImpact, true},
		{"Significância do impacto", FieldSignificance, true},
		{"Categoria", FieldCategory, true},
		{"Situação", FieldCondition, true},
		{"Incidência", FieldIncidence, true},
		{"Probabilidade", FieldFrequency, true},
		{"Gravidade", FieldSeverity, true},
		{"Medidas de controle", FieldControls, true},
		{"Requisito Legal", FieldLegalRequirement, true},
		{"Observações", FieldNotes, true},
		{"Responsável", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			field, ok := m.MatchCell(tt.cell)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.field, field)
		})
	}
}

func TestHeaderMatcher_MapHeadersKeepsFirstDuplicate(t *testing.T) {
	m := DefaultHeaderMatcher()

	fields := m.MapHeaders([]string{"Setor", "Aspecto", "Setor", "Responsável", "Impacto"})

	assert.Equal(t, []string{FieldSectorCode, FieldEnvironmentalAspect, "", "", FieldEnvironmentalImpact}, fields)
	assert.Empty(t, m.Missing(fields))
}

func TestHeaderMatcher_MapHeadersPrefersExactAlias(t *testing.T) {
	m := DefaultHeaderMatcher()

	tests := []struct {
		name  string
		cells []string
		want  []string
	}{
		{
			"exact after substring",
			[]string{"Subsetor", "Setor", "Aspecto", "Impacto"},
			[]string{"", FieldSectorCode, FieldEnvironmentalAspect, FieldEnvironmentalImpact},
		},
		{
			"exact before substring",
			[]string{"Setor", "Subsetor", "Aspecto", "Impacto"},
			[]string{FieldSectorCode, "", FieldEnvironmentalAspect, FieldEnvironmentalImpact},
		},
		{
			"substring only",
			[]string{"Subsetor", "Aspecto", "Impacto"},
			[]string{FieldSectorCode, FieldEnvironmentalAspect, FieldEnvironmentalImpact},
		},
		{
			"two substrings keep the first",
			[]string{"Subsetor", "Setor produtivo", "Aspecto", "Impacto"},
			[]string{FieldSectorCode, "", FieldEnvironmentalAspect, FieldEnvironmentalImpact},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.MapHeaders(tt.cells))
		})
	}
}

func TestHeaderMatcher_Missing(t *testing.T) {
	m := DefaultHeaderMatcher()

	missing := m.Missing(m.MapHeaders([]string{"Setor", "Atividade"}))

	assert.Equal(t, []string{FieldEnvironmentalAspect, FieldEnvironmentalImpact}, missing)
	assert.Equal(t, []string{FieldSectorCode, FieldEnvironmentalAspect, FieldEnvironmentalImpact}, m.Required())
}

func TestFindHeaderRow(t *testing.T) {
	m := DefaultHeaderMatcher()
	rows := [][]string{
		{"Levantamento de Aspectos e Impactos Ambientais"},
		{"Unidade:", "Fábrica Norte"},
		{"Setor", "Aspecto", "Impacto", "Categoria"},
		{"PRD", "Ruído", "Incómodo", "Moderado"},
	}

	idx, fields, err := FindHeaderRow(rows, m)

	require.NoError(t, err)
	assert.Equal(t, 2, idx)
	assert.Equal(t, FieldCategory, fields[3])
}

func TestFindHeaderRow_NotWithinScanWindow(t *testing.T) {
	m := DefaultHeaderMatcher()
	rows := make([][]string, MaxHeaderScan)
	for i := range rows {
		rows[i] = []string{"nota"}
	}
	rows = append(rows, []string{"Setor", "Aspecto", "Impacto"})

	_, _, err := FindHeaderRow(rows, m)

	assert.ErrorIs(t, err, ErrNoHeadersFound)
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]string{"Setor", "Aspecto", "Impacto"})
	b := Fingerprint([]string{" SETOR ", "aspecto", "Impacto!"})
	c := Fingerprint([]string{"Setor", "Impacto", "Aspecto"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestIsUTF8(t *testing.T) {
	assert.True(t, IsUTF8([]byte("\xEF\xBB\xBFSetor;Emissão")))
	assert.False(t, IsUTF8([]byte("Setor;Emiss\xe3o")))
}
