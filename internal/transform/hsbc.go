package transform

import (
	"context"

	"bankfeed/internal/enrich"
	"bankfeed/internal/sheets"
	"bankfeed/pkg/contracts/domain"
)

// hsbcTransformer handles HSBC exports. The layout mirrors Pershing with a
// unit-cost join for cost basis; maturity dates come out of the bond
// descriptions.
type hsbcTransformer struct {
	deps     Deps
	resolver *Resolver
}

func newHSBC(deps Deps) *hsbcTransformer {
	return &hsbcTransformer{
		deps:     deps,
		resolver: NewResolver("HSBC", deps.Mappings, PolicyMark, deps.Logger),
	}
}

func (t *hsbcTransformer) Bank() string { return "HSBC" }

func (t *hsbcTransformer) Transform(ctx context.Context, in *Input) (*Output, error) {
	out := &Output{}
	if in.Securities != nil {
		enrich.Join(in.Securities, in.UnitCost, enrich.Spec{
			BaseKey:         "Security ID",
			AuxKey:          "Security",
			BaseDescription: "Description",
			AuxDescription:  "Description",
			AuxValue:        "Total Cost",
			TargetName:      "enriched_total_cost",
			DefaultFrom:     "Market Value",
		}, t.deps.Logger)
		out.Securities = t.securities(in.Securities)
	}
	if in.Transactions != nil {
		out.Transactions = t.transactions(in.Transactions)
	}
	return out, nil
}

func (t *hsbcTransformer) securities(tbl *sheets.Table) []domain.SecurityRecord {
	var records []domain.SecurityRecord
	for _, row := range tbl.Rows {
		entry, keep := t.resolver.Resolve(tbl.Get(row, "account"))
		if !keep {
			continue
		}
		description := tbl.Get(row, "Description")
		assetType := hsbcAsset(tbl.Get(row, "Asset Classification"))
		isBond := assetType == domain.AssetFixedIncome

		rec := domain.SecurityRecord{
			Bank:        tbl.Get(row, "bank"),
			Client:      entry.Client,
			Account:     entry.Account,
			AssetType:   assetType,
			Name:        description,
			Ticker:      tbl.Get(row, "Security ID"),
			CUSIP:       tbl.Get(row, "CUSIP"),
			Quantity:    tbl.Get(row, "Quantity"),
			MarketValue: tbl.Get(row, "Market Value"),
			CostBasis:   ToEuropean(tbl.Get(row, "enriched_total_cost"), LocaleAmerican),
		}
		if isBond {
			rec.Price = BondPrice(tbl.Get(row, "Price"), LocaleAmerican)
			rec.MaturityDate = MaturityFromDescription(description)
			rec.CouponRate = CouponAnywhere(description)
		} else {
			rec.Price = ToEuropean(tbl.Get(row, "Price"), LocaleAmerican)
		}
		records = append(records, rec)
	}
	return records
}

func (t *hsbcTransformer) transactions(tbl *sheets.Table) []domain.TransactionRecord {
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
			Date:            americanDate(tbl.Get(row, "Settlement Date")),
			TransactionType: tbl.Get(row, "Activity Description"),
			CUSIP:           tbl.Get(row, "Cusip"),
			Price:           tbl.Get(row, "Price"),
			Quantity:        tbl.Get(row, "Quantity"),
			Amount:          tbl.Get(row, "Net Amount"),
		})
	}
	return records
}

func hsbcAsset(classification string) domain.AssetType {
	switch classification {
	case "Equities", "Equity":
		return domain.AssetEquity
	case "Fixed Income", "Bonds":
		return domain.AssetFixedIncome
	case "Cash", "Cash and Cash Equivalents":
		return domain.AssetCash
	case "Money Market":
		return domain.AssetMoneyMarket
	case "Alternative Investments", "Alternatives":
		return domain.AssetAlternatives
	default:
		return domain.AssetUnknown
	}
}
