package importer

import (
	"strings"

	"github.com/shopspring/decimal"
)

var currencyTokens = []string{"egp", "l.e.", "l.e", "le", "ج.م.", "ج.م", "جنيه", "usd", "$", "£", "€"}

var arabicDigits = strings.NewReplacer(
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
	"٫", ".", "٬", ",",
)

// ParseAmount parses a money or quantity cell permissively. Empty input is a
// valid zero; ok is false only when non-empty text could not be read as a
// number, in which case the value is zero.
func ParseAmount(raw string) (value decimal.Decimal, ok bool) {
	s := strings.ToLower(strings.TrimSpace(arabicDigits.Replace(raw)))
	if s == "" {
		return decimal.Zero, true
	}

	for _, tok := range currencyTokens {
		s = strings.ReplaceAll(s, tok, "")
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\t', '\'':
			return -1
		}
		return r
	}, s)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = normalizeSeparators(s)
	if s == "" {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// normalizeSeparators resolves thousands and decimal separators. When both
// "," and "." appear the right-most one is the decimal point; a lone ","
// is a thousands separator.
func normalizeSeparators(s string) string {
	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		return strings.Replace(s, ",", ".", 1)
	default:
		return strings.ReplaceAll(s, ",", "")
	}
}

// ParseQuantity parses a count, truncating any fractional part.
func ParseQuantity(raw string) (int64, bool) {
	d, ok := ParseAmount(raw)
	return d.IntPart(), ok
}
