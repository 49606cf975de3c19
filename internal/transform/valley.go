package transform

import (
	"context"
	"strings"

	"bankfeed/internal/openfigi"
	"bankfeed/internal/sheets"
	"bankfeed/pkg/contracts/domain"
)

// valleyTransformer handles Valley Bank exports, which carry no asset type
// or ticker of their own. Identifiers go through OpenFIGI in one batch;
// positions the API cannot resolve fall back to structural detection. Rows
// with an empty description are discarded outright, since they produce
// unidentifiable positions downstream.
type valleyTransformer struct {
	deps Deps
}

func newValley(deps Deps) *valleyTransformer { return &valleyTransformer{deps: deps} }

func (t *valleyTransformer) Bank() string { return "Valley" }

func (t *valleyTransformer) Transform(ctx context.Context, in *Input) (*Output, error) {
	out := &Output{}
	if in.Securities != nil {
		secs, err := t.securities(ctx, in.Securities)
		if err != nil {
			return nil, err
		}
		out.Securities = secs
	}
	if in.Transactions != nil {
		out.Transactions = t.transactions(in.Transactions)
	}
	return out, nil
}

func (t *valleyTransformer) securities(ctx context.Context, tbl *sheets.Table) ([]domain.SecurityRecord, error) {
	tbl.Filter(func(row []string) bool { return tbl.Get(row, "Description") != "" })

	results, err := t.lookupAll(ctx, tbl)
	if err != nil {
		return nil, err
	}

	var records []domain.SecurityRecord
	for i, row := range tbl.Rows {
		figi := results[i]
		assetType, isBond := valleyAsset(figi, tbl, row)

		rec := domain.SecurityRecord{
			Bank:        tbl.Get(row, "bank"),
			Client:      tbl.Get(row, "client"),
			Account:     tbl.Get(row, "account"),
			AssetType:   assetType,
			Name:        tbl.Get(row, "Description"),
			CUSIP:       tbl.Get(row, "CUSIP"),
			Quantity:    ToEuropean(tbl.Get(row, "Quantity"), LocaleAmerican),
			MarketValue: ToEuropean(tbl.Get(row, "Market Value"), LocaleAmerican),
			CostBasis:   ToEuropean(tbl.Get(row, "Adj Cost Basis"), LocaleAmerican),
		}
		if figi != nil {
			rec.Ticker = figi.Ticker
		}
		if isBond {
			rec.Price = BondPrice(tbl.Get(row, "Mkt Price Ccy"), LocaleAmerican)
			rec.MaturityDate = MaturityFromDescription(tbl.Get(row, "Description"))
			rec.CouponRate = CouponAnywhere(tbl.Get(row, "Description"))
		} else {
			rec.Price = ToEuropean(tbl.Get(row, "Mkt Price Ccy"), LocaleAmerican)
		}
		records = append(records, rec)
	}
	return records, nil
}

// lookupAll resolves every row's CUSIP in one batched call, positionally
// aligned with tbl.Rows. Without a client configured every row misses.
func (t *valleyTransformer) lookupAll(ctx context.Context, tbl *sheets.Table) ([]*openfigi.Result, error) {
	if t.deps.OpenFIGI == nil {
		return make([]*openfigi.Result, len(tbl.Rows)), nil
	}
	jobs := make([]openfigi.Job, len(tbl.Rows))
	for i, row := range tbl.Rows {
		jobs[i] = openfigi.Job{IDType: "ID_CUSIP", IDValue: tbl.Get(row, "CUSIP")}
	}
	return t.deps.OpenFIGI.Map(ctx, jobs)
}

func (t *valleyTransformer) transactions(tbl *sheets.Table) []domain.TransactionRecord {
	var records []domain.TransactionRecord
	for _, row := range tbl.Rows {
		records = append(records, domain.TransactionRecord{
			Bank:            tbl.Get(row, "bank"),
			Client:          tbl.Get(row, "client"),
			Account:         tbl.Get(row, "account"),
			Date:            americanDate(tbl.Get(row, "Post Date")),
			TransactionType: tbl.Get(row, "Description"),
			CUSIP:           tbl.Get(row, "CUSIP"),
			Quantity:        ToEuropean(tbl.Get(row, "Cantidad"), LocaleAmerican),
			Amount:          SignedAmount(tbl.Get(row, "Debit"), tbl.Get(row, "Credit"), LocaleAmerican),
		})
	}
	return records
}

// valleyAsset classifies from the API result when available, else from the
// row's own structure: an amount with no quantity or identifier is cash, a
// description full of short dates is a bond.
func valleyAsset(figi *openfigi.Result, tbl *sheets.Table, row []string) (domain.AssetType, bool) {
	if figi != nil {
		switch {
		case isBondSecurityType(figi.SecurityType), figi.MarketSector == "Govt", figi.MarketSector == "Corp":
			return domain.AssetFixedIncome, true
		case figi.MarketSector == "Equity":
			return domain.AssetEquity, false
		}
	}
	if tbl.Get(row, "CUSIP") == "" && tbl.Get(row, "Quantity") == "" {
		return domain.AssetCash, false
	}
	if MaturityFromDescription(tbl.Get(row, "Description")) != "" {
		return domain.AssetFixedIncome, true
	}
	return domain.AssetUnknown, false
}

func isBondSecurityType(securityType string) bool {
	s := strings.ToUpper(securityType)
	return strings.Contains(s, "BOND") || strings.Contains(s, "NOTE") ||
		strings.Contains(s, "BILL") || strings.Contains(s, "MTN")
}
