// Package transform turns each bank's combined tables into canonical
// securities and transaction records. Shared numeric, date, and text
// conversions live here; each bank's layout knowledge lives in its own file.
package transform

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Locale tags the number convention of a bank's raw files. It resolves the
// single-separator ambiguity: "1,234" is one thousand in an American file
// and one-and-a-fraction in a European one.
type Locale int

const (
	LocaleAmerican Locale = iota
	LocaleEuropean
)

var (
	couponPrefixPattern = regexp.MustCompile(`^(\d+\.?\d*)\s*%`)
	couponAnyPattern    = regexp.MustCompile(`(\d+\.?\d*)%`)
	shortDatePattern    = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{2}\b`)
	matDatePattern      = regexp.MustCompile(`MAT\s+(\d{1,2})([A-Z]{3})(\d{2})`)
)

var monthAbbrev = map[string]string{
	"JAN": "01", "FEB": "02", "MAR": "03", "APR": "04",
	"MAY": "05", "JUN": "06", "JUL": "07", "AUG": "08",
	"SEP": "09", "OCT": "10", "NOV": "11", "DEC": "12",
}

// ToEuropean converts a raw numeric string to the European convention
// (period thousands, comma decimal). Currency and percent symbols are
// stripped and accounting-style parentheses become a leading minus. With
// both separators present the input is unambiguously American. With a
// single separator, locale decides: American files use "," for thousands
// and "." for decimals; European files are already in the output
// convention.
func ToEuropean(value string, locale Locale) string {
	s := strings.TrimSpace(value)
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "%", "")

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	if s == "" {
		return ""
	}

	hasComma := strings.Contains(s, ",")
	hasPeriod := strings.Contains(s, ".")
	switch {
	case hasComma && hasPeriod:
		// American: swap the separators.
		lastPeriod := strings.LastIndex(s, ".")
		intPart := strings.ReplaceAll(s[:lastPeriod], ",", ".")
		s = intPart + "," + s[lastPeriod+1:]
	case hasComma && locale == LocaleAmerican:
		s = strings.ReplaceAll(s, ",", ".") // thousands separator
	case hasPeriod && locale == LocaleAmerican:
		s = strings.ReplaceAll(s, ".", ",") // decimal point
	}
	if negative && !strings.HasPrefix(s, "-") {
		s = "-" + s
	}
	return s
}

// BondPrice repositions a near-par bond price quoted in percent-of-face
// terms. The raw value is converted to European (which drops any percent
// sign), stripped of separators, and rescaled: digits starting with "1"
// become "1,<rest>", anything else "0,<digits>". "100.224" yields "1,00224"
// and "99.81" yields "0,9981".
func BondPrice(value string, locale Locale) string {
	european := ToEuropean(value, locale)
	if european == "" {
		return ""
	}

	digits := strings.ReplaceAll(european, ",", "")
	digits = strings.ReplaceAll(digits, ".", "")
	if digits == "" {
		return ""
	}
	if strings.HasPrefix(digits, "1") {
		return "1," + digits[1:]
	}
	return "0," + digits
}

// CouponFromDescription extracts a coupon rate from the start of a bond
// description ("4.375 % TREASURY NOTES" yields "4,375"). Returns "" when the
// description does not lead with a rate.
func CouponFromDescription(description string) string {
	m := couponPrefixPattern.FindStringSubmatch(strings.TrimSpace(description))
	if m == nil {
		return ""
	}
	return strings.ReplaceAll(m[1], ".", ",")
}

// CouponAnywhere extracts the first percentage anywhere in a description,
// for banks that embed the rate mid-name.
func CouponAnywhere(description string) string {
	m := couponAnyPattern.FindStringSubmatch(description)
	if m == nil {
		return ""
	}
	return strings.ReplaceAll(m[1], ".", ",")
}

// MaturityFromDescription finds every MM/DD/YY date in a bond description
// and returns the furthest one as MM/DD/YYYY, two-digit years read as 20YY.
// Issue and call dates appear alongside the maturity; the maximum is the
// maturity.
func MaturityFromDescription(description string) string {
	matches := shortDatePattern.FindAllString(description, -1)
	var best string
	var bestKey string
	for _, m := range matches {
		parts := strings.Split(m, "/")
		if len(parts) != 3 {
			continue
		}
		month, day, year := pad2(parts[0]), pad2(parts[1]), "20"+pad2(parts[2])
		key := year + month + day
		if key > bestKey {
			bestKey = key
			best = month + "/" + day + "/" + year
		}
	}
	return best
}

// MaturityFromMAT parses the "MAT 25APR30" token some banks embed in bond
// names, yielding "04/25/2030".
func MaturityFromMAT(description string) string {
	m := matDatePattern.FindStringSubmatch(strings.ToUpper(description))
	if m == nil {
		return ""
	}
	month, ok := monthAbbrev[m[2]]
	if !ok {
		return ""
	}
	return month + "/" + pad2(m[1]) + "/20" + m[3]
}

// ConvertDottedDate converts DD.MM.YY or DD.MM.YYYY into MM/DD/YYYY,
// two-digit years read as 20YY. Returns "" for anything unparseable.
func ConvertDottedDate(value string) string {
	parts := strings.Split(strings.TrimSpace(value), ".")
	if len(parts) != 3 {
		return ""
	}
	day, month, year := pad2(parts[0]), pad2(parts[1]), parts[2]
	if len(year) == 2 {
		year = "20" + year
	}
	if len(day) != 2 || len(month) != 2 || len(year) != 4 {
		return ""
	}
	return month + "/" + day + "/" + year
}

// SignedAmount folds separate Debit/Credit columns into one signed European
// amount: debits are outflows (negative), credits inflows (positive). When
// both are populated credit wins, matching the banks' own statements.
func SignedAmount(debit, credit string, locale Locale) string {
	debit = strings.TrimSpace(debit)
	credit = strings.TrimSpace(credit)
	if credit != "" {
		return ToEuropean(credit, locale)
	}
	if debit != "" {
		v := ToEuropean(debit, locale)
		if strings.HasPrefix(v, "-") {
			return v
		}
		return "-" + v
	}
	return ""
}

// CostBasis computes purchase price times quantity as a two-decimal
// European string. A percent-quoted price (bonds) is divided by 100 first.
// Returns "" when either input fails to parse.
func CostBasis(purchasePrice, quantity string) string {
	priceStr := strings.TrimSpace(purchasePrice)
	if priceStr == "" || strings.TrimSpace(quantity) == "" {
		return ""
	}

	percent := strings.Contains(priceStr, "%")
	priceStr = strings.ReplaceAll(priceStr, "%", "")
	priceStr = strings.ReplaceAll(priceStr, ",", "")
	price, err := decimal.NewFromString(strings.TrimSpace(priceStr))
	if err != nil {
		return ""
	}
	if percent {
		price = price.Div(decimal.NewFromInt(100))
	}

	qtyStr := strings.ReplaceAll(strings.TrimSpace(quantity), ",", "")
	qty, err := decimal.NewFromString(qtyStr)
	if err != nil {
		return ""
	}

	result := price.Mul(qty).StringFixed(2)
	return strings.ReplaceAll(result, ".", ",")
}

// ParseEuropean parses a European decimal string into a decimal value.
func ParseEuropean(value string) (decimal.Decimal, error) {
	s := strings.TrimSpace(value)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("unparseable european number %q: %w", value, err)
	}
	return d, nil
}

// FormatEuropean renders a decimal value as a European string with the
// given number of decimal places.
func FormatEuropean(d decimal.Decimal, places int32) string {
	return strings.ReplaceAll(d.StringFixed(places), ".", ",")
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
