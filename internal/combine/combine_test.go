package combine

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankfeed/internal/discovery"
	"bankfeed/internal/errors"
	"bankfeed/internal/header"
	"bankfeed/internal/sheets"
	"bankfeed/pkg/contracts/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func writeFile(t *testing.T, dir, name string, tbl *sheets.Table) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, sheets.WriteTable(path, tbl))
	return path
}

func group(client, account string, path string) *discovery.Group {
	return &discovery.Group{
		Client:  client,
		Account: account,
		Files: map[domain.FileKind]*domain.RawBankFile{
			domain.KindSecurities: {
				Bank: "CS", Client: client, Account: account,
				Date: "25_04_2025", Kind: domain.KindSecurities, Path: path,
			},
		},
	}
}

func testConfig() Config {
	return Config{
		Bank: "CS", Kind: domain.KindSecurities, FixedHeaderRow: 0,
		RequiredColumns: []string{"Description", "Value"},
	}
}

func TestCombineTagsAndConcatenates(t *testing.T) {
	dir := t.TempDir()
	p1 := writeFile(t, dir, "a1.xlsx", &sheets.Table{
		Columns: []string{"Description", "Value"},
		Rows:    [][]string{{"APPLE INC", "100"}},
	})
	p2 := writeFile(t, dir, "a2.xlsx", &sheets.Table{
		Columns: []string{"Value", "Description"}, // different column order
		Rows:    [][]string{{"200", "MSFT CORP"}},
	})

	res, err := Combine([]*discovery.Group{
		group("ACME", "A1", p1),
		group("ACME", "A2", p2),
	}, testConfig(), testLogger())
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 2, res.FilesUsed)

	tbl := res.Table
	assert.Equal(t, []string{"bank", "client", "account", "Description", "Value"}, tbl.Columns)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []string{"CS", "ACME", "A1", "APPLE INC", "100"}, tbl.Rows[0])
	assert.Equal(t, []string{"CS", "ACME", "A2", "MSFT CORP", "200"}, tbl.Rows[1],
		"second file aligns to the first file's column order")
}

func TestCombineDetectsHeaderBelowPreamble(t *testing.T) {
	dir := t.TempDir()
	// Raw layout with a preamble: write it as a headerless table.
	p := writeFile(t, dir, "a1.xlsx", &sheets.Table{
		Columns: []string{"Portfolio Statement", "", ""},
		Rows: [][]string{
			{"Client: ACME", "", ""},
			{"Description", "Value", "Extra"},
			{"APPLE INC", "100", ""},
		},
	})

	cfg := testConfig()
	cfg.FixedHeaderRow = -1
	cfg.HeaderSig = header.Signature{Labels: []string{"Description", "Value"}, MinMatches: 2}

	res, err := Combine([]*discovery.Group{group("ACME", "A1", p)}, cfg, testLogger())
	require.NoError(t, err)
	require.Len(t, res.Table.Rows, 1)
	assert.Equal(t, "APPLE INC", res.Table.Get(res.Table.Rows[0], "Description"))
}

func TestCombineSkipsCorruptFileKeepsRest(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.xlsx", &sheets.Table{
		Columns: []string{"Description", "Value"},
		Rows:    [][]string{{"APPLE INC", "100"}},
	})
	corrupt := filepath.Join(dir, "corrupt.xlsx")
	require.NoError(t, os.WriteFile(corrupt, []byte("not a workbook"), 0o644))

	res, err := Combine([]*discovery.Group{
		group("ACME", "A1", good),
		group("ACME", "A2", corrupt),
	}, testConfig(), testLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, res.FilesUsed)
	assert.Equal(t, 1, res.FilesSkipped)
	assert.Len(t, res.Table.Rows, 1)
}

func TestCombineFailsWhenNothingUsable(t *testing.T) {
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "corrupt.xlsx")
	require.NoError(t, os.WriteFile(corrupt, []byte("not a workbook"), 0o644))

	_, err := Combine([]*discovery.Group{group("ACME", "A1", corrupt)}, testConfig(), testLogger())
	require.Error(t, err)
	assert.Equal(t, errors.CodeBankPipeline, errors.CodeOf(err))
}

func TestCombineNilWhenKindAbsent(t *testing.T) {
	res, err := Combine([]*discovery.Group{{Client: "ACME", Account: "A1",
		Files: map[domain.FileKind]*domain.RawBankFile{}}}, testConfig(), testLogger())
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestCombineSchemaValidation(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "bad.xlsx", &sheets.Table{
		Columns: []string{"Unrelated", "Columns"},
		Rows:    [][]string{{"x", "y"}},
	})
	_, err := Combine([]*discovery.Group{group("ACME", "A1", p)}, testConfig(), testLogger())
	require.Error(t, err)
}

func TestRowFilters(t *testing.T) {
	tbl := sheets.NewTable([][]string{
		{"Description", "Value"},
		{"Account Total", "500"},
		{"Cash & Cash Investments", "100"},
		{"(*) footnote row", "1"},
		{"APPLE INC", "100"},
	}, 0)

	keepTotal := DropAccountTotal("Description")
	star := DropStarPrefixed("Description")

	tbl.Filter(func(row []string) bool { return keepTotal(tbl, row) })
	tbl.Filter(func(row []string) bool { return star(tbl, row) })

	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "Cash & Cash Investments", tbl.Rows[0][0])
	assert.Equal(t, "APPLE INC", tbl.Rows[1][0])
}

func TestRequireNonEmpty(t *testing.T) {
	tbl := sheets.NewTable([][]string{
		{"Description", "Value"},
		{"", "500"},
		{"APPLE INC", "100"},
	}, 0)
	f := RequireNonEmpty("Description")
	tbl.Filter(func(row []string) bool { return f(tbl, row) })
	require.Len(t, tbl.Rows, 1)
}
