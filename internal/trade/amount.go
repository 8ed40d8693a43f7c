package trade

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// ErrInvalidAmount covers amounts that are empty, negative, zero, not a
// decimal number, or carry more fractional digits than the token supports.
var ErrInvalidAmount = errors.New("invalid amount")

const (
	// NativeDecimals is the precision of outcome tokens and reward amounts.
	NativeDecimals = 18

	// CollateralDecimals is the precision of the USDC collateral token.
	CollateralDecimals = 6
)

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}

// ParseAmount converts a human decimal string like "12.5" into the token's
// base units. The amount must be strictly positive.
func ParseAmount(s string, decimals int) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalidAmount
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return nil, ErrInvalidAmount
	}

	if whole == "" {
		whole = "0"
	}

	if !isDigits(whole) || !isDigits(frac) {
		return nil, ErrInvalidAmount
	}

	if len(frac) > decimals {
		return nil, fmt.Errorf("%w: more than %d decimal places", ErrInvalidAmount, decimals)
	}

	if hasFrac {
		frac += strings.Repeat("0", decimals-len(frac))
	} else {
		frac = strings.Repeat("0", decimals)
	}

	value, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok || value.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	return value, nil
}

// FormatAmount renders base units back into a human decimal string, trimming
// trailing fractional zeros.
func FormatAmount(value *big.Int, decimals int) string {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)

	whole, frac := new(big.Int).QuoRem(new(big.Int).Abs(value), scale, new(big.Int))

	sign := ""
	if value.Sign() < 0 {
		sign = "-"
	}

	fracText := strings.TrimRight(fmt.Sprintf("%0*s", decimals, frac.String()), "0")
	if fracText == "" {
		return sign + whole.String()
	}

	return sign + whole.String() + "." + fracText
}
