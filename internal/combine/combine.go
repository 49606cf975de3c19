// Package combine concatenates the per-client export files of one bank into
// a single tagged table per file kind, so downstream stages see one table
// per (bank, kind) regardless of how many accounts the bank exported.
package combine

import (
	"log/slog"
	"strings"

	"bankfeed/internal/discovery"
	"bankfeed/internal/errors"
	"bankfeed/internal/header"
	"bankfeed/internal/sheets"
	"bankfeed/pkg/contracts/domain"
)

// TagColumns are prepended to every combined row so provenance survives
// concatenation.
var TagColumns = []string{"bank", "client", "account"}

// RowFilter decides whether a data row survives combination. Filters run
// after header detection and footer truncation.
type RowFilter func(t *sheets.Table, row []string) bool

// Config describes how one (bank, kind) is combined.
type Config struct {
	Bank             string
	Kind             domain.FileKind
	Sheet            string           // "" selects the first sheet
	HeaderSig        header.Signature // ignored when FixedHeaderRow >= 0
	FixedHeaderRow   int              // -1 means detect
	RequiredColumns  []string
	Filters          []RowFilter
	TruncateAtFooter bool
}

// Result is one bank's combined table for one kind, with per-file notes.
type Result struct {
	Table        *sheets.Table
	FilesUsed    int
	FilesSkipped int
}

// Combine reads every file of cfg.Kind across the groups, tags each row with
// bank/client/account, and concatenates. Unreadable files and files whose
// header cannot be found are skipped with a warning; the bank fails only
// when no file was usable.
func Combine(groups []*discovery.Group, cfg Config, logger *slog.Logger) (*Result, error) {
	res := &Result{Table: &sheets.Table{}}
	var lastErr error

	for _, g := range groups {
		f := g.Files[cfg.Kind]
		if f == nil {
			continue
		}
		t, err := readOne(f, cfg, logger)
		if err != nil {
			logger.Warn("skipping unusable file",
				slog.String("bank", cfg.Bank),
				slog.String("file", f.Path),
				slog.String("error", err.Error()))
			res.FilesSkipped++
			lastErr = err
			continue
		}
		t.PrependColumns(TagColumns, []string{f.Bank, f.Client, f.Account})
		res.Table.Append(t)
		res.FilesUsed++
	}

	if res.FilesUsed == 0 {
		if lastErr != nil {
			return nil, errors.BankPipeline(cfg.Bank, "combine", lastErr)
		}
		return nil, nil // nothing discovered for this kind
	}
	logger.Info("combined files",
		slog.String("bank", cfg.Bank),
		slog.String("kind", string(cfg.Kind)),
		slog.Int("files", res.FilesUsed),
		slog.Int("skipped", res.FilesSkipped),
		slog.Int("rows", len(res.Table.Rows)))
	return res, nil
}

func readOne(f *domain.RawBankFile, cfg Config, logger *slog.Logger) (*sheets.Table, error) {
	rows, err := sheets.ReadRows(f.Path, cfg.Sheet)
	if err != nil {
		return nil, errors.FileCorrupt(cfg.Bank, f.Path, err)
	}

	headerRow := cfg.FixedHeaderRow
	if headerRow < 0 {
		headerRow, err = header.FindHeaderRow(rows, cfg.HeaderSig, cfg.Bank, f.Path)
		if err != nil {
			return nil, err
		}
	}

	t := sheets.NewTable(rows, headerRow)
	if missing := t.MissingColumns(cfg.RequiredColumns...); len(missing) > 0 {
		return nil, errors.SchemaValidation(cfg.Bank, f.Path, missing)
	}
	if cfg.TruncateAtFooter {
		t.TruncateAtFooter()
	}
	t.DropEmptyRows()
	for _, filter := range cfg.Filters {
		t.Filter(func(row []string) bool { return filter(t, row) })
	}
	return t, nil
}

// DropAccountTotal removes per-account subtotal rows while keeping the
// "Cash & Cash Investments" summary row, which is a real cash position.
func DropAccountTotal(nameColumn string) RowFilter {
	return func(t *sheets.Table, row []string) bool {
		v := strings.ToLower(t.Get(row, nameColumn))
		if strings.Contains(v, "cash & cash investments") ||
			strings.Contains(v, "cash and cash investments") {
			return true
		}
		return !strings.Contains(v, "account total") && !strings.Contains(v, "total account")
	}
}

// DropDisclaimers removes legal boilerplate rows, recognized by long prose
// in the name column with no value in the amount column.
func DropDisclaimers(nameColumn, valueColumn string) RowFilter {
	return func(t *sheets.Table, row []string) bool {
		name := t.Get(row, nameColumn)
		if len(name) > 120 && t.Get(row, valueColumn) == "" {
			return false
		}
		return true
	}
}

// DropStarPrefixed removes rows whose name cell starts with "(*)", the
// footnote marker some banks attach to non-position rows.
func DropStarPrefixed(nameColumn string) RowFilter {
	return func(t *sheets.Table, row []string) bool {
		return !strings.HasPrefix(strings.TrimSpace(t.Get(row, nameColumn)), "(*)")
	}
}

// RequireNonEmpty removes rows with an empty cell in the named column.
func RequireNonEmpty(column string) RowFilter {
	return func(t *sheets.Table, row []string) bool {
		return t.Get(row, column) != ""
	}
}
