package domain

import "fmt"

// FormatCents renders an integer amount of cents with two-decimal fixed
// precision, e.g. 15000 -> "150.00".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// FormatCentsOrZero renders cents when present and the "0.00" sentinel when
// the aggregate is absent, so callers never see a null amount.
func FormatCentsOrZero(cents *int64) string {
	if cents == nil {
		return "0.00"
	}
	return FormatCents(*cents)
}
