// Package enrich joins auxiliary tables (unit cost, cash movements) onto a
// bank's combined securities table through a tiered fallback: exact
// identifier match, then normalized description match, then a per-row
// default. Precedence is strict; a lower tier never overwrites a higher one.
package enrich

import (
	"log/slog"
	"strings"

	"bankfeed/internal/sheets"
)

// Spec describes one enrichment join.
type Spec struct {
	// Key columns for the exact-match tier, base side and aux side.
	BaseKey string
	AuxKey  string
	// Description columns for the fallback tier; "" disables the tier.
	BaseDescription string
	AuxDescription  string
	// Column copied from aux into base.
	AuxValue   string
	TargetName string // column created on base
	// DefaultFrom, when non-empty, names a base column whose value fills
	// rows that matched no tier.
	DefaultFrom string
}

// TierCounts reports how many base rows each tier resolved.
type TierCounts struct {
	KeyMatch         int
	DescriptionMatch int
	Defaulted        int
	Unresolved       int
}

// Join enriches base in place and returns per-tier counts. Aux rows with an
// empty key on a tier never participate in that tier, so blank identifiers
// cannot alias each other.
func Join(base, aux *sheets.Table, spec Spec, logger *slog.Logger) TierCounts {
	target := base.Col(spec.TargetName)
	if target < 0 {
		target = base.AddColumn(spec.TargetName)
	}

	byKey := indexAux(aux, spec.AuxKey, spec.AuxValue, nil)
	byDesc := indexAux(aux, spec.AuxDescription, spec.AuxValue, NormalizeDescription)

	var counts TierCounts
	for _, row := range base.Rows {
		if key := base.Get(row, spec.BaseKey); key != "" {
			if v, ok := byKey[key]; ok {
				row[target] = v
				counts.KeyMatch++
				continue
			}
		}
		if spec.BaseDescription != "" {
			if desc := NormalizeDescription(base.Get(row, spec.BaseDescription)); desc != "" {
				if v, ok := byDesc[desc]; ok {
					row[target] = v
					counts.DescriptionMatch++
					continue
				}
			}
		}
		if spec.DefaultFrom != "" {
			row[target] = base.Get(row, spec.DefaultFrom)
			counts.Defaulted++
			continue
		}
		counts.Unresolved++
	}

	logger.Debug("enrichment join",
		slog.String("target", spec.TargetName),
		slog.Int("key_match", counts.KeyMatch),
		slog.Int("description_match", counts.DescriptionMatch),
		slog.Int("defaulted", counts.Defaulted),
		slog.Int("unresolved", counts.Unresolved))
	return counts
}

// indexAux builds key -> value from the aux table. On duplicate keys the
// first occurrence wins, matching the source file's row order.
func indexAux(aux *sheets.Table, keyCol, valueCol string, normalize func(string) string) map[string]string {
	idx := map[string]string{}
	if aux == nil || keyCol == "" {
		return idx
	}
	for _, row := range aux.Rows {
		key := aux.Get(row, keyCol)
		if normalize != nil {
			key = normalize(key)
		}
		if key == "" {
			continue
		}
		if _, seen := idx[key]; !seen {
			idx[key] = aux.Get(row, valueCol)
		}
	}
	return idx
}

// NormalizeDescription uppercases and collapses runs of whitespace so that
// free-text security names from two files of the same bank compare equal.
func NormalizeDescription(s string) string {
	return strings.Join(strings.Fields(strings.ToUpper(s)), " ")
}
