package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankfeed/internal/mappings"
	"bankfeed/internal/sheets"
	"bankfeed/pkg/contracts/domain"
)

func pershingDeps(t *testing.T) Deps {
	t.Helper()
	deps := testDeps()
	deps.Mappings = mappings.NewStatic(map[string]map[string]domain.AccountEntry{
		"PERSHING": {"PER001": {Client: "ACME", Account: "A1"}},
	}, deps.Logger)
	return deps
}

func pershingSecuritiesTable(rows ...[]string) *sheets.Table {
	all := [][]string{{
		"bank", "client", "account",
		"Asset Classification", "Sub-Asset Classification", "Description",
		"Security ID", "CUSIP", "Quantity", "Price", "Market Value",
	}}
	all = append(all, rows...)
	return sheets.NewTable(all, 0)
}

func TestPershingUnitCostEnrichment(t *testing.T) {
	securities := pershingSecuritiesTable(
		[]string{"Pershing", "", "PER001", "Fixed Income", "Corporate Bonds",
			"ACME HLDG 4.5% 06/15/21 06/15/31", "ACM31", "037833AB1",
			"200,000", "98.75", "197,500.00"},
		[]string{"Pershing", "", "PER001", "Equities", "Common Stock",
			"BETA INDUSTRIES COMMON", "BETA", "123456789",
			"100", "50.00", "5,000.00"},
	)
	unitcost := sheets.NewTable([][]string{
		{"Security", "Description", "Total Cost"},
		{"ACM31", "ACME HLDG 4.5% 06/15/21 06/15/31", "195,000.00"},
	}, 0)

	tr, err := New("Pershing", pershingDeps(t))
	require.NoError(t, err)
	out, err := tr.Transform(context.Background(), &Input{Securities: securities, UnitCost: unitcost})
	require.NoError(t, err)
	require.Len(t, out.Securities, 2)

	bond := out.Securities[0]
	assert.Equal(t, "195.000,00", bond.CostBasis, "cost joined from the unit-cost file")
	assert.Equal(t, "0,9875", bond.Price)
	assert.Equal(t, "06/15/2031", bond.MaturityDate, "furthest date in the description wins")
	assert.Equal(t, "4,5", bond.CouponRate)
	assert.Equal(t, domain.AssetFixedIncome, bond.AssetType)

	equity := out.Securities[1]
	assert.Equal(t, "5.000,00", equity.CostBasis, "uncovered positions default to market value")
	assert.Equal(t, "50,00", equity.Price)
	assert.Equal(t, domain.AssetEquity, equity.AssetType)
}

func TestPershingMarksUnmappedAccounts(t *testing.T) {
	securities := pershingSecuritiesTable(
		[]string{"Pershing", "", "NOPE99", "Equities", "Common Stock",
			"GAMMA CORP", "GAM", "999999999", "10", "1.00", "10.00"},
	)

	tr, _ := New("Pershing", pershingDeps(t))
	out, err := tr.Transform(context.Background(), &Input{Securities: securities})
	require.NoError(t, err)
	require.Len(t, out.Securities, 1, "unmapped rows are kept, not dropped")
	assert.Equal(t, UnmappedLabel, out.Securities[0].Client)
	assert.Equal(t, UnmappedLabel, out.Securities[0].Account)
}

func TestPershingTransactions(t *testing.T) {
	tbl := sheets.NewTable([][]string{
		{"bank", "client", "account", "Settlement Date", "Activity Description", "Cusip", "Price", "Quantity", "Net Amount"},
		{"Pershing", "", "PER001", "4/25/2025", "CASH DIVIDEND", "037833100", "", "", "125.50"},
	}, 0)

	tr, _ := New("Pershing", pershingDeps(t))
	out, err := tr.Transform(context.Background(), &Input{Transactions: tbl})
	require.NoError(t, err)
	require.Len(t, out.Transactions, 1)

	rec := out.Transactions[0]
	assert.Equal(t, "ACME", rec.Client)
	assert.Equal(t, "04/25/2025", rec.Date)
	assert.Equal(t, "CASH DIVIDEND", rec.TransactionType)
	assert.Equal(t, "125.50", rec.Amount, "pass-through column, no locale conversion")
}
