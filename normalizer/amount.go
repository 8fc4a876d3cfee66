package normalizer

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ToDecimal shifts an integer amount of base units by precision decimal places.
func ToDecimal(amount string, precision int) (string, error) {
	amount = strings.TrimSpace(amount)
	if !isDigits(amount) {
		return "", fmt.Errorf("amount %q is not an unsigned integer", amount)
	}
	if precision < 0 {
		return "", fmt.Errorf("negative precision %d", precision)
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return "", fmt.Errorf("can't parse amount %q: %w", amount, err)
	}
	return d.Shift(int32(-precision)).String(), nil
}

// ToBaseUnits is the inverse of ToDecimal.
func ToBaseUnits(value string, precision int) (string, error) {
	value = strings.TrimSpace(value)
	if precision < 0 {
		return "", fmt.Errorf("negative precision %d", precision)
	}
	intPart, fracPart, _ := strings.Cut(value, ".")
	if intPart == "" {
		intPart = "0"
	}
	if !isDigits(intPart) || (fracPart != "" && !isDigits(fracPart)) {
		return "", fmt.Errorf("value %q is not an unsigned decimal", value)
	}
	if fracPart != "" {
		intPart += "." + fracPart
	}
	d, err := decimal.NewFromString(intPart)
	if err != nil {
		return "", fmt.Errorf("can't parse value %q: %w", value, err)
	}
	units := d.Shift(int32(precision))
	if !units.IsInteger() {
		return "", fmt.Errorf("value %q has more than %d fractional digits", value, precision)
	}
	return units.String(), nil
}
