package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// missingTokens are cell values treated as "no data".
var missingTokens = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"nan":  true,
	"null": true,
	"-":    true,
}

// ParseIndicator parses a numeric cell. It returns nil for missing values and
// an error for text that is neither a number nor a missing token. A trailing
// "%" divides the value by 100, so "3.0%" reads as 0.03.
func ParseIndicator(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if missingTokens[strings.ToLower(s)] {
		return nil, nil
	}

	scale := 1.0
	if strings.HasSuffix(s, "%") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
		scale = 100
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("not a number: %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("not a finite number: %q", s)
	}
	v /= scale
	return &v, nil
}

// ParseYear parses a year cell, accepting integral floats such as "2010.0".
func ParseYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	if y, err := strconv.Atoi(s); err == nil {
		return y, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("not a year: %q", s)
	}
	return int(f), nil
}

// ValidYear reports whether y lies within [MinYear, MaxYear].
func ValidYear(y int) bool {
	return y >= MinYear && y <= MaxYear
}

// Float returns a pointer to v. Handy for building RawRows.
func Float(v float64) *float64 {
	return &v
}
