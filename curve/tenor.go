package curve

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseTenor converts tenor strings like "1W", "3M", "10Y" to years.
// Days and weeks use a 365-day year; a bare number is read as years.
func ParseTenor(tenor string) (float64, error) {
	s := strings.TrimSpace(strings.ToUpper(tenor))
	if s == "" {
		return 0, fmt.Errorf("ParseTenor: empty tenor: %w", ErrInvalidCurveInput)
	}
	var per float64
	switch s[len(s)-1] {
	case 'D':
		per = 1.0 / 365.0
	case 'W':
		per = 7.0 / 365.0
	case 'M':
		per = 1.0 / 12.0
	case 'Y':
		per = 1
	default:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v < 0 || !finite(v) {
			return 0, fmt.Errorf("ParseTenor: %q: %w", tenor, ErrInvalidCurveInput)
		}
		return v, nil
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("ParseTenor: %q: %w", tenor, ErrInvalidCurveInput)
	}
	return float64(n) * per, nil
}
