package transform

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankfeed/internal/sheets"
	"bankfeed/pkg/contracts/domain"
)

func testDeps() Deps {
	return Deps{
		Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})),
	}
}

func csSecuritiesTable(rows ...[]string) *sheets.Table {
	all := [][]string{{
		"bank", "client", "account",
		"Asset Category", "Asset Subcategory", "Description", "Valor",
		"Nominal/Number", "Price", "Purchase Price", "Value in USD", "Maturity",
	}}
	all = append(all, rows...)
	return sheets.NewTable(all, 0)
}

func TestCSBondSecurity(t *testing.T) {
	tbl := csSecuritiesTable([]string{
		"CS", "ACME", "A1",
		"Fixed Income & Similar", "Bonds / USD", "4.25% ACME HOLDINGS NT", "XS1234567890",
		"200,000", "98.50", "97.25", "195,100.00", "15.06.27",
	})

	tr, err := New("CS", testDeps())
	require.NoError(t, err)
	out, err := tr.Transform(context.Background(), &Input{Securities: tbl})
	require.NoError(t, err)
	require.Len(t, out.Securities, 1)

	rec := out.Securities[0]
	assert.Equal(t, "CS", rec.Bank)
	assert.Equal(t, "ACME", rec.Client)
	assert.Equal(t, domain.AssetFixedIncome, rec.AssetType)
	assert.Equal(t, "0,9850", rec.Price, "bond prices reposition the decimal")
	assert.Equal(t, "4,25", rec.CouponRate)
	assert.Equal(t, "06/15/2027", rec.MaturityDate)
	assert.Equal(t, "200.000", rec.Quantity, "American thousands become European periods")
	assert.Equal(t, "195.100,00", rec.MarketValue)
	assert.Equal(t, "19450000,00", rec.CostBasis)
}

func TestCSEquitySecurityKeepsPlainPrice(t *testing.T) {
	tbl := csSecuritiesTable([]string{
		"CS", "ACME", "A1",
		"Equities & Similar", "Equities / USD", "ACME CORP COMMON", "US0378331005",
		"150", "212.33", "180.00", "31,849.50", "",
	})

	tr, _ := New("CS", testDeps())
	out, err := tr.Transform(context.Background(), &Input{Securities: tbl})
	require.NoError(t, err)
	rec := out.Securities[0]
	assert.Equal(t, domain.AssetEquity, rec.AssetType)
	assert.Equal(t, "212,33", rec.Price)
	assert.Empty(t, rec.MaturityDate)
	assert.Empty(t, rec.CouponRate)
}

func TestCSAssetTypeTaxonomy(t *testing.T) {
	cases := []struct {
		category    string
		subcategory string
		want        domain.AssetType
	}{
		{"Liquidity & Similar", "Accounts", domain.AssetCash},
		{"Liquidity & Similar", "Money Market Papers / USD", domain.AssetFixedIncome},
		{"Liquidity & Similar", "Money Market Funds / USD", domain.AssetMoneyMarket},
		{"Liquidity & Similar", "Fiduciary Investments", domain.AssetMoneyMarket},
		{"Fixed Income & Similar", "Bonds / USD", domain.AssetFixedIncome},
		{"Mixed & Other Investments", "", domain.AssetFixedIncome},
		{"Equities & Similar", "", domain.AssetEquity},
		{"AI, Commodities & Real Estate", "", domain.AssetAlternatives},
		{"Something Novel", "", domain.AssetUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, csAssetType(tc.category, tc.subcategory),
			"category %q / %q", tc.category, tc.subcategory)
	}
}

func TestCSTransactions(t *testing.T) {
	longText := strings.Repeat("PURCHASE OF SECURITIES ", 5)
	tbl := sheets.NewTable([][]string{
		{"bank", "client", "account", "Booking Date", "Text", "ID", "Precio", "Cantidad", "Debit", "Credit"},
		{"CS", "ACME", "A1", "03.04.25", longText, "XS1234567890", "98.50", "100", "9,850.00", ""},
		{"CS", "ACME", "A1", "04.04.25", "COUPON PAYMENT", "XS1234567890", "", "", "", "2,125.00"},
	}, 0)

	tr, _ := New("CS", testDeps())
	out, err := tr.Transform(context.Background(), &Input{Transactions: tbl})
	require.NoError(t, err)
	require.Len(t, out.Transactions, 2)

	buy := out.Transactions[0]
	assert.Equal(t, "04/03/2025", buy.Date)
	assert.Len(t, buy.TransactionType, 56, "long narratives are truncated")
	assert.Equal(t, "-9.850,00", buy.Amount, "debits are negative")

	coupon := out.Transactions[1]
	assert.Equal(t, "2.125,00", coupon.Amount, "credits are positive")
}
