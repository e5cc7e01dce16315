package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultCurrencySymbol is shown when the receipt does not carry a symbol.
const DefaultCurrencySymbol = "$"

// FormatMoney renders amount with two decimal places, prefixed with symbol.
// Half-cents round away from zero, so 1.005 renders as 1.01.
func FormatMoney(symbol string, amount float64) string {
	if symbol == "" {
		symbol = DefaultCurrencySymbol
	}
	return symbol + decimal.NewFromFloat(amount).StringFixed(2)
}

// ChargeLabel is the display name of a charge: "Chai (×3)" for multi-unit
// items and "Surcharge (Additional)" for additional costs.
func ChargeLabel(c Charge) string {
	if c.Kind == KindAdditionalCost {
		return fmt.Sprintf("%s (Additional)", c.Name)
	}
	if c.Quantity > 1 {
		return fmt.Sprintf("%s (×%d)", c.Name, c.Quantity)
	}
	return c.Name
}
