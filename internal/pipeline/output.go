package pipeline

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"bankfeed/internal/sheets"
	"bankfeed/pkg/contracts/domain"
)

// securitiesTable renders records into the canonical column order.
func securitiesTable(records []domain.SecurityRecord) *sheets.Table {
	t := &sheets.Table{Columns: append([]string{}, domain.SecurityColumns...)}
	for _, r := range records {
		t.Rows = append(t.Rows, r.Row())
	}
	return t
}

func transactionsTable(records []domain.TransactionRecord) *sheets.Table {
	t := &sheets.Table{Columns: append([]string{}, domain.TransactionColumns...)}
	for _, r := range records {
		t.Rows = append(t.Rows, r.Row())
	}
	return t
}

// readSecurities loads an existing canonical securities file. A missing
// file is an empty dataset, not an error.
func readSecurities(path string) ([]domain.SecurityRecord, error) {
	rows, err := sheets.ReadRows(path, "")
	if err != nil {
		if isMissingFile(err) {
			return nil, nil
		}
		return nil, err
	}
	t := sheets.NewTable(rows, 0)
	var records []domain.SecurityRecord
	for _, row := range t.Rows {
		records = append(records, domain.SecurityRecord{
			Bank:         t.Get(row, "bank"),
			Client:       t.Get(row, "client"),
			Account:      t.Get(row, "account"),
			AssetType:    domain.AssetType(t.Get(row, "asset_type")),
			Name:         t.Get(row, "name"),
			Ticker:       t.Get(row, "ticker"),
			CUSIP:        t.Get(row, "cusip"),
			Quantity:     t.Get(row, "quantity"),
			Price:        t.Get(row, "price"),
			MarketValue:  t.Get(row, "market_value"),
			CostBasis:    t.Get(row, "cost_basis"),
			MaturityDate: t.Get(row, "maturity_date"),
			CouponRate:   t.Get(row, "coupon_rate"),
		})
	}
	return records, nil
}

func readTransactions(path string) ([]domain.TransactionRecord, error) {
	rows, err := sheets.ReadRows(path, "")
	if err != nil {
		if isMissingFile(err) {
			return nil, nil
		}
		return nil, err
	}
	t := sheets.NewTable(rows, 0)
	var records []domain.TransactionRecord
	for _, row := range t.Rows {
		records = append(records, domain.TransactionRecord{
			Bank:            t.Get(row, "bank"),
			Client:          t.Get(row, "client"),
			Account:         t.Get(row, "account"),
			Date:            t.Get(row, "date"),
			TransactionType: t.Get(row, "transaction_type"),
			CUSIP:           t.Get(row, "cusip"),
			Price:           t.Get(row, "price"),
			Quantity:        t.Get(row, "quantity"),
			Amount:          t.Get(row, "amount"),
		})
	}
	return records, nil
}

// backupFile copies an existing output into outputDir/backups with a
// timestamp suffix before it is overwritten. A missing source is a no-op.
func backupFile(path string) error {
	src, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer src.Close()

	backupDir := filepath.Join(filepath.Dir(path), "backups")
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stamp := time.Now().Format("20060102_150405")
	dstPath := filepath.Join(backupDir, base[:len(base)-len(ext)]+"_"+stamp+ext)

	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	return nil
}

// isMissingFile catches wrapped not-exist errors from the spreadsheet layer.
func isMissingFile(err error) bool {
	return stderrors.Is(err, os.ErrNotExist)
}
