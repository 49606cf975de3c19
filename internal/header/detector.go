// Package header locates header rows in spreadsheets whose layout is not
// fixed, by pattern-matching rows against an expected column-label
// signature.
package header

import (
	"strings"

	"bankfeed/internal/errors"
)

// Signature is the ordered set of column labels expected for one (bank,
// file kind), with the match threshold that qualifies a row as the header.
type Signature struct {
	Labels        []string
	MinMatches    int // rows matching at least this many labels qualify
	MaxSearchRows int
}

// DefaultSearchRows bounds the header scan when a signature does not set
// its own window.
const DefaultSearchRows = 15

// FindHeaderRow scans rows headerless and returns the index of the first
// row in the search window on which at least sig.MinMatches labels occur as
// case-insensitive substrings of some cell. Each label counts at most once
// per row.
func FindHeaderRow(rows [][]string, sig Signature, bank, file string) (int, error) {
	window := sig.MaxSearchRows
	if window <= 0 {
		window = DefaultSearchRows
	}
	if window > len(rows) {
		window = len(rows)
	}

	for i := 0; i < window; i++ {
		if countMatches(rows[i], sig.Labels) >= sig.MinMatches {
			return i, nil
		}
	}
	return 0, errors.HeaderNotFound(bank, file, window)
}

// ValidateColumns re-checks a fully-read header against the signature's
// labels; used to sanity-check downstream tables, not to gate them.
func ValidateColumns(columns []string, labels []string, minRatio float64) bool {
	if len(labels) == 0 {
		return true
	}
	matches := countMatches(columns, labels)
	return float64(matches)/float64(len(labels)) >= minRatio
}

func countMatches(cells []string, labels []string) int {
	matches := 0
	for _, label := range labels {
		want := strings.ToLower(label)
		for _, cell := range cells {
			if strings.Contains(strings.ToLower(cell), want) {
				matches++
				break
			}
		}
	}
	return matches
}
