// Package parse handles the duration and size grammars accepted on the
// command line. These are deliberately not time.ParseDuration: bare numbers
// mean seconds ("10"), single-letter suffixes include days ("1d"), and sizes
// use 1024-based K/M/G.
package parse

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidDuration = errors.New("invalid duration")
	ErrInvalidSize     = errors.New("invalid size")
)

// Duration parses "10", "1.5s", "2m", "3h" or "1d" into a time.Duration.
// Bare numbers are seconds. Negative values are rejected; "0" is a valid
// zero deadline.
func Duration(input string) (time.Duration, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidDuration)
	}

	mult := time.Second
	if last := s[len(s)-1]; last < '0' || last > '9' {
		switch last {
		case 's':
			mult = time.Second
		case 'm':
			mult = time.Minute
		case 'h':
			mult = time.Hour
		case 'd':
			mult = 24 * time.Hour
		default:
			return 0, fmt.Errorf("%w %q: invalid time suffix %q", ErrInvalidDuration, input, string(last))
		}
		s = s[:len(s)-1]
	}

	value, err := strconv.ParseFloat(s, 64)
	// ParseFloat accepts "nan" and "inf" spellings; neither is a duration.
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w %q: invalid numeric value %q", ErrInvalidDuration, input, s)
	}
	if value < 0 {
		return 0, fmt.Errorf("%w %q: duration cannot be negative", ErrInvalidDuration, input)
	}

	ns := value * float64(mult)
	// Conversion of a float at or beyond MaxInt64 is undefined and can go
	// negative, which would fire the deadline instantly.
	if ns >= float64(math.MaxInt64) {
		return 0, fmt.Errorf("%w %q: duration too large", ErrInvalidDuration, input)
	}

	return time.Duration(ns), nil
}

// Size parses "1024", "512K", "100M" or "1G" into bytes. Suffixes are
// case-insensitive and 1024-based.
func Size(input string) (uint64, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidSize)
	}

	var mult uint64 = 1
	if last := s[len(s)-1]; last < '0' || last > '9' {
		switch strings.ToUpper(string(last)) {
		case "K":
			mult = 1024
		case "M":
			mult = 1024 * 1024
		case "G":
			mult = 1024 * 1024 * 1024
		default:
			return 0, fmt.Errorf("%w %q: invalid size suffix %q (use K, M, or G)", ErrInvalidSize, input, string(last))
		}
		s = s[:len(s)-1]
	}

	value, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w %q: invalid numeric value %q", ErrInvalidSize, input, s)
	}

	return value * mult, nil
}
