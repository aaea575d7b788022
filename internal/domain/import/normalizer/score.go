package normalizer

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidScore is returned when a score cell is not a whole number in int32 range
var ErrInvalidScore = errors.New("score must be a whole number")

var (
	minScore = decimal.NewFromInt(math.MinInt32)
	maxScore = decimal.NewFromInt(math.MaxInt32)
)

// ParseScore reads a 1..5 style score cell. Spreadsheets often store integers as
// "3.0" or, in Portuguese locales, "3,0"; both are accepted. A blank cell yields nil.
// Range checks are left to the validator.
func ParseScore(raw string) (*int, error) {
	s := CleanText(raw)
	if s == "" {
		return nil, nil
	}
	s = strings.ReplaceAll(s, ",", ".")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, ErrInvalidScore
	}
	if !d.Equal(d.Truncate(0)) || d.LessThan(minScore) || d.GreaterThan(maxScore) {
		return nil, ErrInvalidScore
	}
	v := int(d.IntPart())
	return &v, nil
}
