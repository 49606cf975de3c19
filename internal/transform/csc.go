package transform

import (
	"context"
	"strings"

	"bankfeed/internal/sheets"
	"bankfeed/pkg/contracts/domain"
)

// cscTransformer handles Charles Schwab exports. Accounts are embedded in
// the combined tags; transactions already carry a signed amount column.
type cscTransformer struct {
	deps Deps
}

func newCSC(deps Deps) *cscTransformer { return &cscTransformer{deps: deps} }

func (t *cscTransformer) Bank() string { return "CSC" }

func (t *cscTransformer) Transform(ctx context.Context, in *Input) (*Output, error) {
	out := &Output{}
	if in.Securities != nil {
		out.Securities = t.securities(in.Securities)
	}
	if in.Transactions != nil {
		out.Transactions = t.transactions(in.Transactions)
	}
	return out, nil
}

func (t *cscTransformer) securities(tbl *sheets.Table) []domain.SecurityRecord {
	var records []domain.SecurityRecord
	for _, row := range tbl.Rows {
		records = append(records, domain.SecurityRecord{
			Bank:        tbl.Get(row, "bank"),
			Client:      tbl.Get(row, "client"),
			Account:     tbl.Get(row, "account"),
			AssetType:   cscAssetType(tbl.Get(row, "Security Type")),
			Name:        tbl.Get(row, "Description"),
			Ticker:      tbl.Get(row, "Symbol"),
			Quantity:    ToEuropean(tbl.Get(row, "Qty (Quantity)"), LocaleAmerican),
			Price:       ToEuropean(tbl.Get(row, "Price"), LocaleAmerican),
			MarketValue: ToEuropean(tbl.Get(row, "Mkt Val (Market Value)"), LocaleAmerican),
			CostBasis:   ToEuropean(tbl.Get(row, "Cost Basis"), LocaleAmerican),
		})
	}
	return records
}

func (t *cscTransformer) transactions(tbl *sheets.Table) []domain.TransactionRecord {
	var records []domain.TransactionRecord
	for _, row := range tbl.Rows {
		records = append(records, domain.TransactionRecord{
			Bank:            tbl.Get(row, "bank"),
			Client:          tbl.Get(row, "client"),
			Account:         tbl.Get(row, "account"),
			Date:            americanDate(tbl.Get(row, "Date")),
			TransactionType: tbl.Get(row, "Action"),
			CUSIP:           tbl.Get(row, "Symbol"),
			Price:           ToEuropean(tbl.Get(row, "Price"), LocaleAmerican),
			Quantity:        ToEuropean(tbl.Get(row, "Quantity"), LocaleAmerican),
			Amount:          ToEuropean(tbl.Get(row, "Amount"), LocaleAmerican),
		})
	}
	return records
}

func cscAssetType(securityType string) domain.AssetType {
	switch {
	case strings.Contains(securityType, "Equity"), strings.Contains(securityType, "ETF"):
		return domain.AssetEquity
	case strings.Contains(securityType, "Fixed Income"), strings.Contains(securityType, "Bond"):
		return domain.AssetFixedIncome
	case strings.Contains(securityType, "Money Market"):
		return domain.AssetMoneyMarket
	case strings.Contains(securityType, "Cash"):
		return domain.AssetCash
	case securityType == "":
		return domain.AssetUnknown
	default:
		return domain.AssetUnknown
	}
}

// americanDate normalizes an already MM/DD/YYYY-shaped cell, padding
// single-digit month and day.
func americanDate(value string) string {
	parts := strings.Split(strings.TrimSpace(value), "/")
	if len(parts) != 3 {
		return strings.TrimSpace(value)
	}
	year := parts[2]
	if len(year) == 2 {
		year = "20" + year
	}
	return pad2(parts[0]) + "/" + pad2(parts[1]) + "/" + year
}
