package enrich

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankfeed/internal/sheets"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func baseTable() *sheets.Table {
	return sheets.NewTable([][]string{
		{"Security ID", "Description", "Market Value"},
		{"ABC123", "ACME CORP 4.5% NOTE", "1000"},
		{"", "Beta  Industries   Common", "2000"},
		{"ZZZ999", "UNLISTED HOLDING", "3000"},
	}, 0)
}

func auxTable() *sheets.Table {
	return sheets.NewTable([][]string{
		{"Security", "Description", "Total Cost"},
		{"ABC123", "ACME CORP 4.5% NOTE", "900"},
		{"DEF456", "BETA INDUSTRIES COMMON", "1800"},
	}, 0)
}

func spec() Spec {
	return Spec{
		BaseKey:         "Security ID",
		AuxKey:          "Security",
		BaseDescription: "Description",
		AuxDescription:  "Description",
		AuxValue:        "Total Cost",
		TargetName:      "enriched_total_cost",
		DefaultFrom:     "Market Value",
	}
}

func TestJoinTierPrecedence(t *testing.T) {
	base := baseTable()
	counts := Join(base, auxTable(), spec(), testLogger())

	assert.Equal(t, 1, counts.KeyMatch)
	assert.Equal(t, 1, counts.DescriptionMatch)
	assert.Equal(t, 1, counts.Defaulted)
	assert.Equal(t, 0, counts.Unresolved)

	assert.Equal(t, "900", base.Get(base.Rows[0], "enriched_total_cost"), "exact key match")
	assert.Equal(t, "1800", base.Get(base.Rows[1], "enriched_total_cost"), "normalized description fallback")
	assert.Equal(t, "3000", base.Get(base.Rows[2], "enriched_total_cost"), "defaults to market value")
}

func TestJoinWithoutDefaultLeavesUnresolved(t *testing.T) {
	base := baseTable()
	s := spec()
	s.DefaultFrom = ""
	counts := Join(base, auxTable(), s, testLogger())

	assert.Equal(t, 1, counts.Unresolved)
	assert.Equal(t, "", base.Get(base.Rows[2], "enriched_total_cost"))
}

func TestJoinNilAux(t *testing.T) {
	base := baseTable()
	counts := Join(base, nil, spec(), testLogger())
	assert.Equal(t, 3, counts.Defaulted, "every row falls through to the default")
	assert.Equal(t, "1000", base.Get(base.Rows[0], "enriched_total_cost"))
}

func TestJoinBlankAuxKeysDoNotAlias(t *testing.T) {
	base := sheets.NewTable([][]string{
		{"Security ID", "Description", "Market Value"},
		{"", "", "500"},
	}, 0)
	aux := sheets.NewTable([][]string{
		{"Security", "Description", "Total Cost"},
		{"", "", "999"},
	}, 0)
	counts := Join(base, aux, spec(), testLogger())
	assert.Equal(t, 0, counts.KeyMatch)
	assert.Equal(t, 0, counts.DescriptionMatch)
	assert.Equal(t, "500", base.Get(base.Rows[0], "enriched_total_cost"))
}

func TestJoinDuplicateAuxKeysFirstWins(t *testing.T) {
	base := sheets.NewTable([][]string{
		{"Security ID", "Description", "Market Value"},
		{"DUP", "X", "1"},
	}, 0)
	aux := sheets.NewTable([][]string{
		{"Security", "Description", "Total Cost"},
		{"DUP", "X", "first"},
		{"DUP", "X", "second"},
	}, 0)
	Join(base, aux, spec(), testLogger())
	assert.Equal(t, "first", base.Get(base.Rows[0], "enriched_total_cost"))
}

func TestNormalizeDescription(t *testing.T) {
	require.Equal(t, "ACME CORP NOTE", NormalizeDescription("  acme   Corp \t note "))
	require.Equal(t, "", NormalizeDescription("   "))
}
