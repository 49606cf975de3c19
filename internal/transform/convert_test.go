package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToEuropean(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		locale Locale
		want   string
	}{
		{"both separators american", "7,802.30", LocaleAmerican, "7.802,30"},
		{"both separators large", "1,234,567.89", LocaleAmerican, "1.234.567,89"},
		{"comma only american thousands", "1,530", LocaleAmerican, "1.530"},
		{"period only american decimal", "36.60", LocaleAmerican, "36,60"},
		{"comma only european decimal", "36,60", LocaleEuropean, "36,60"},
		{"period only european thousands", "1.530", LocaleEuropean, "1.530"},
		{"plain integer", "1000", LocaleAmerican, "1000"},
		{"negative", "-42.5", LocaleAmerican, "-42,5"},
		{"dollar sign stripped", "$1,234.50", LocaleAmerican, "1.234,50"},
		{"percent sign stripped", "4.375%", LocaleAmerican, "4,375"},
		{"parenthesized negative", "(373.09)", LocaleAmerican, "-373,09"},
		{"parenthesized negative with thousands", "(1,234.56)", LocaleAmerican, "-1.234,56"},
		{"parenthesized negative european", "(36,60)", LocaleEuropean, "-36,60"},
		{"empty parentheses", "()", LocaleAmerican, ""},
		{"empty", "", LocaleAmerican, ""},
		{"whitespace only", "   ", LocaleAmerican, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToEuropean(tt.input, tt.locale))
		})
	}
}

func TestBondPrice(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"above par with percent", "100.483%", "1,00483"},
		{"above par plain", "100.224", "1,00224"},
		{"below par", "99.81", "0,9981"},
		{"below par no separator", "9981", "0,9981"},
		{"starts with one no separator", "100224", "1,00224"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BondPrice(tt.input, LocaleAmerican))
		})
	}
}

func TestCouponFromDescription(t *testing.T) {
	assert.Equal(t, "4,375", CouponFromDescription("4.375 % TREASURY NOTES DUE 2030"))
	assert.Equal(t, "5,5", CouponFromDescription("5.5% BONDS OF ACME"))
	assert.Equal(t, "6", CouponFromDescription("6 % NOTES"))
	assert.Equal(t, "", CouponFromDescription("TREASURY NOTES 4.375 %"), "rate must lead the description")
	assert.Equal(t, "", CouponFromDescription(""))
}

func TestCouponAnywhere(t *testing.T) {
	assert.Equal(t, "4,376", CouponAnywhere("ACME CORP 4.376% MAT 22JUL33"))
	assert.Equal(t, "0,5", CouponAnywhere("T 0.5% 2031"))
	assert.Equal(t, "", CouponAnywhere("COMMON STOCK"))
}

func TestMaturityFromDescription(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			"picks the furthest date",
			"US TREASURY 2.5% ISSUED 01/15/21 DUE 01/15/31",
			"01/15/2031",
		},
		{
			"single date",
			"CORP NOTE DUE 06/30/27",
			"06/30/2027",
		},
		{
			"pads single digit month and day",
			"NOTE 3/5/29",
			"03/05/2029",
		},
		{"no dates", "COMMON STOCK", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaturityFromDescription(tt.input))
		})
	}
}

func TestMaturityFromMAT(t *testing.T) {
	assert.Equal(t, "04/25/2030", MaturityFromMAT("ACME 4% MAT 25APR30"))
	assert.Equal(t, "07/22/2033", MaturityFromMAT("acme mat 22jul33"))
	assert.Equal(t, "", MaturityFromMAT("ACME COMMON STOCK"))
}

func TestConvertDottedDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"31.07.26", "07/31/2026"},
		{"01.04.2025", "04/01/2025"},
		{"5.4.2025", "04/05/2025"},
		{"garbage", ""},
		{"", ""},
		{"31.07", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ConvertDottedDate(tt.input), "input %q", tt.input)
	}
}

func TestSignedAmount(t *testing.T) {
	assert.Equal(t, "-7992,33", SignedAmount("7992.33", "", LocaleAmerican), "debit is negative")
	assert.Equal(t, "36,60", SignedAmount("", "36.60", LocaleAmerican), "credit is positive")
	assert.Equal(t, "10,00", SignedAmount("5.00", "10.00", LocaleAmerican), "credit wins when both set")
	assert.Equal(t, "", SignedAmount("", "", LocaleAmerican))
}

func TestCostBasis(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		quantity string
		want     string
	}{
		{"bond percent price", "100.8164%", "10000", "10081,64"},
		{"plain decimal", "1,530.55", "2", "3061,10"},
		{"simple", "10", "3", "30,00"},
		{"unparseable price", "n/a", "3", ""},
		{"empty quantity", "10", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CostBasis(tt.price, tt.quantity))
		})
	}
}

func TestParseAndFormatEuropean(t *testing.T) {
	d, err := ParseEuropean("7.802,30")
	require.NoError(t, err)
	assert.Equal(t, "7802.3", d.String())
	assert.Equal(t, "7802,30", FormatEuropean(d, 2))

	_, err = ParseEuropean("not a number")
	assert.Error(t, err)
}
