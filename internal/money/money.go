package money

import "fmt"

// Balances and transaction amounts are stored as integer minor units:
// 1 ® = 100 minor units.

func FormatMinor(value int64) string {
	negative := value < 0
	if negative {
		value = -value
	}
	whole := value / 100
	frac := value % 100
	formatted := fmt.Sprintf("%d.%02d", whole, frac)
	if negative {
		return "-" + formatted
	}
	return formatted
}

// FormatUnits renders an amount with the ® suffix for transaction descriptions.
func FormatUnits(value int64) string {
	return FormatMinor(value) + " ®"
}
