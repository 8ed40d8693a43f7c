package types

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// Hex represents a hexadecimal-encoded quantity as a string (e.g., "0x1a"),
// the form used by Ethereum JSON-RPC for block numbers, balances, and
// transaction fields. It provides validation, JSON marshaling/unmarshaling,
// and conversion to big.Int for values that may exceed 64 bits.
type Hex string

// HexFromString validates the input string and returns a Hex value if valid.
func HexFromString(s string) (Hex, error) {
	if err := validateHex(s); err != nil {
		return "", err
	}
	return Hex(s), nil
}

// HexFromBig encodes a big.Int as a 0x-prefixed hexadecimal quantity.
func HexFromBig(v *big.Int) Hex {
	return Hex(fmt.Sprintf("0x%x", v))
}

// validateHex checks whether a string is a valid hexadecimal quantity
// starting with "0x" or "0X".
func validateHex(s string) error {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return fmt.Errorf("hex string must start with 0x")
	}

	// "0x" alone is how the RPC encodes empty output.
	if len(s) == 2 {
		return nil
	}

	if _, ok := new(big.Int).SetString(s[2:], 16); !ok {
		return fmt.Errorf("invalid hexadecimal value: %q", s)
	}

	return nil
}

// MarshalJSON encodes the Hex as a JSON string.
func (h Hex) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(h))
}

// UnmarshalJSON parses and validates a JSON-encoded hexadecimal string.
func (h *Hex) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid hex string: %w", err)
	}

	if err := validateHex(s); err != nil {
		return err
	}

	*h = Hex(s)
	return nil
}

// Big returns the decoded big.Int value of the hexadecimal string. If parsing
// fails, it returns zero.
func (h Hex) Big() *big.Int {
	if len(h) < 2 {
		return new(big.Int)
	}

	v, ok := new(big.Int).SetString(string(h)[2:], 16)
	if !ok {
		return new(big.Int)
	}
	return v
}

// Uint64 returns the decoded uint64 value of the hexadecimal string. Values
// that do not fit in 64 bits are truncated.
func (h Hex) Uint64() uint64 {
	return h.Big().Uint64()
}
