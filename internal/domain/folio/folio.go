// Package folio defines the year-scoped ticket code attached to every license.
package folio

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrConflict         = errors.New("folio conflict")
	ErrAllocationFailed = errors.New("folio allocation failed")
	ErrMalformed        = errors.New("malformed folio")
)

// Folio has the form F-<year>-<sequence>, the sequence zero-padded to three digits.
type Folio string

func New(year, seq int) Folio {
	return Folio(fmt.Sprintf("F-%d-%03d", year, seq))
}

// Prefix is the LIKE-style prefix shared by every folio of year.
func Prefix(year int) string {
	return fmt.Sprintf("F-%d-", year)
}

// Parse splits f into year and sequence.
func Parse(f string) (year, seq int, err error) {
	parts := strings.Split(f, "-")
	if len(parts) != 3 || parts[0] != "F" || len(parts[1]) != 4 || len(parts[2]) < 3 {
		return 0, 0, ErrMalformed
	}
	year, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, ErrMalformed
	}
	seq, err = strconv.Atoi(parts[2])
	if err != nil || seq <= 0 {
		return 0, 0, ErrMalformed
	}
	return year, seq, nil
}

// HighestSequence returns the largest sequence among folios of year, or 0.
// Entries that do not parse or belong to another year are ignored.
func HighestSequence(year int, folios []string) int {
	high := 0
	for _, f := range folios {
		y, s, err := Parse(f)
		if err != nil || y != year {
			continue
		}
		if s > high {
			high = s
		}
	}
	return high
}

func (f Folio) String() string { return string(f) }
