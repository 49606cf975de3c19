package transform

import (
	"context"

	"bankfeed/internal/enrich"
	"bankfeed/internal/sheets"
	"bankfeed/pkg/contracts/domain"
)

// pershingTransformer handles Pershing exports. Securities lack a cost
// basis of their own; it is joined in from the unit-cost file, falling back
// to market value for positions the unit-cost file does not cover. Accounts
// resolve through the mapping store; misses are kept and marked.
type pershingTransformer struct {
	deps     Deps
	resolver *Resolver
}

func newPershing(deps Deps) *pershingTransformer {
	return &pershingTransformer{
		deps:     deps,
		resolver: NewResolver("Pershing", deps.Mappings, PolicyMark, deps.Logger),
	}
}

func (t *pershingTransformer) Bank() string { return "Pershing" }

var pershingBondTypes = map[string]bool{
	"Corporate Bonds":          true,
	"Sovereign Debt":           true,
	"U.S. Treasury Securities": true,
}

func (t *pershingTransformer) Transform(ctx context.Context, in *Input) (*Output, error) {
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

func (t *pershingTransformer) securities(tbl *sheets.Table) []domain.SecurityRecord {
	var records []domain.SecurityRecord
	for _, row := range tbl.Rows {
		entry, keep := t.resolver.Resolve(tbl.Get(row, "account"))
		if !keep {
			continue
		}
		description := tbl.Get(row, "Description")
		isBond := pershingBondTypes[tbl.Get(row, "Sub-Asset Classification")]

		rec := domain.SecurityRecord{
			Bank:        tbl.Get(row, "bank"),
			Client:      entry.Client,
			Account:     entry.Account,
			AssetType:   pershingAsset(tbl.Get(row, "Asset Classification")),
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

func (t *pershingTransformer) transactions(tbl *sheets.Table) []domain.TransactionRecord {
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

func pershingAsset(classification string) domain.AssetType {
	switch classification {
	case "Equities", "Equity", "Mutual Funds":
		return domain.AssetEquity
	case "Fixed Income":
		return domain.AssetFixedIncome
	case "Cash and Cash Equivalents", "Cash":
		return domain.AssetCash
	case "Money Market", "Money Market Funds":
		return domain.AssetMoneyMarket
	case "Alternative Investments":
		return domain.AssetAlternatives
	default:
		return domain.AssetUnknown
	}
}
