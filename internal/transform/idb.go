package transform

import (
	"context"
	"strings"

	"bankfeed/internal/openfigi"
	"bankfeed/internal/sheets"
	"bankfeed/pkg/contracts/domain"
)

// idbTransformer handles IDB exports. The files carry no asset type;
// classification goes through OpenFIGI by CUSIP with a keyword fallback on
// the name. Unmapped accounts are dropped.
type idbTransformer struct {
	deps     Deps
	resolver *Resolver
}

func newIDB(deps Deps) *idbTransformer {
	return &idbTransformer{
		deps:     deps,
		resolver: NewResolver("IDB", deps.Mappings, PolicyDrop, deps.Logger),
	}
}

func (t *idbTransformer) Bank() string { return "IDB" }

func (t *idbTransformer) Transform(ctx context.Context, in *Input) (*Output, error) {
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

func (t *idbTransformer) securities(ctx context.Context, tbl *sheets.Table) ([]domain.SecurityRecord, error) {
	var results []*openfigi.Result
	if t.deps.OpenFIGI != nil {
		jobs := make([]openfigi.Job, len(tbl.Rows))
		for i, row := range tbl.Rows {
			jobs[i] = openfigi.Job{IDType: "ID_CUSIP", IDValue: tbl.Get(row, "CUSIP")}
		}
		var err error
		results, err = t.deps.OpenFIGI.Map(ctx, jobs)
		if err != nil {
			return nil, err
		}
	} else {
		results = make([]*openfigi.Result, len(tbl.Rows))
	}

	var records []domain.SecurityRecord
	for i, row := range tbl.Rows {
		entry, keep := t.resolver.Resolve(tbl.Get(row, "account"))
		if !keep {
			continue
		}
		name := tbl.Get(row, "Name")
		assetType, isBond := idbAsset(results[i], name)

		rec := domain.SecurityRecord{
			Bank:         tbl.Get(row, "bank"),
			Client:       entry.Client,
			Account:      entry.Account,
			AssetType:    assetType,
			Name:         name,
			Ticker:       tbl.Get(row, "Ticker"),
			CUSIP:        tbl.Get(row, "CUSIP"),
			Quantity:     ToEuropean(tbl.Get(row, "Quantity"), LocaleAmerican),
			MarketValue:  ToEuropean(tbl.Get(row, "Market Value"), LocaleAmerican),
			CostBasis:    ToEuropean(tbl.Get(row, "Original Cost"), LocaleAmerican),
			MaturityDate: dashedDate(tbl.Get(row, "Maturity")),
			CouponRate:   strings.ReplaceAll(tbl.Get(row, "Rate"), ".", ","),
		}
		if isBond {
			rec.Price = BondPrice(tbl.Get(row, "Price"), LocaleAmerican)
		} else {
			rec.Price = ToEuropean(tbl.Get(row, "Price"), LocaleAmerican)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (t *idbTransformer) transactions(tbl *sheets.Table) []domain.TransactionRecord {
	var records []domain.TransactionRecord
	for _, row := range tbl.Rows {
		entry, keep := t.resolver.Resolve(tbl.Get(row, "account"))
		if !keep {
			continue
		}
		records = append(records, domain.TransactionRecord{
			Bank:            tbl.Get(row, "bank"),
			Client:          entry.Client,
			Account:         entry.Account,
			Date:            dashedDate(tbl.Get(row, "Fecha")),
			TransactionType: tbl.Get(row, "Description"),
			CUSIP:           tbl.Get(row, "CUSIP"),
			Price:           ToEuropean(tbl.Get(row, "Unit cost"), LocaleAmerican),
			Quantity:        ToEuropean(tbl.Get(row, "Quantity"), LocaleAmerican),
			Amount:          ToEuropean(tbl.Get(row, "Amount"), LocaleAmerican),
		})
	}
	return records
}

func idbAsset(figi *openfigi.Result, name string) (domain.AssetType, bool) {
	if figi != nil {
		switch {
		case isBondSecurityType(figi.SecurityType):
			return domain.AssetFixedIncome, true
		case figi.MarketSector == "Equity":
			return domain.AssetEquity, false
		}
	}
	upper := strings.ToUpper(name)
	switch {
	case strings.Contains(upper, "BOND"), strings.Contains(upper, "TREASURY"),
		strings.Contains(upper, "NOTE"), strings.Contains(upper, "%"):
		return domain.AssetFixedIncome, true
	case strings.Contains(upper, "CASH"), strings.Contains(upper, "DEPOSIT"):
		return domain.AssetCash, false
	case strings.Contains(upper, "FUND"), strings.Contains(upper, "ETF"):
		return domain.AssetEquity, false
	default:
		return domain.AssetUnknown, false
	}
}
