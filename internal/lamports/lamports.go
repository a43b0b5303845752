// Package lamports converts between the ledger's fixed-point integer
// quantities (lamports, 1e9 per SOL) and human-scale decimal amounts,
// and computes the yield estimate with the same integer truncation the
// on-chain program uses.
package lamports

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// SolDecimals is the number of decimal places in the native asset.
const SolDecimals = 9

// YieldPrecision is the fixed-point scale of yieldPerLamport.
const YieldPrecision = 1_000_000_000

var (
	ErrNotNumeric = errors.New("amount is not a valid decimal number")
	ErrNegative   = errors.New("amount must not be negative")
)

var pow10 = [SolDecimals + 1]uint64{
	1, 10, 100, 1_000, 10_000, 100_000, 1_000_000, 10_000_000, 100_000_000, 1_000_000_000,
}

// ToDisplay renders a raw fixed-point quantity as an exact decimal string
// with up to `decimals` fractional digits, trailing zeros trimmed.
// Integer division and remainder only, so no floating error is possible.
func ToDisplay(raw uint64, decimals int) string {
	if decimals <= 0 {
		return fmt.Sprintf("%d", raw)
	}
	if decimals > SolDecimals {
		decimals = SolDecimals
	}
	scale := pow10[decimals]
	whole := raw / scale
	frac := raw % scale
	if frac == 0 {
		return fmt.Sprintf("%d", whole)
	}
	s := fmt.Sprintf("%d.%0*d", whole, decimals, frac)
	return strings.TrimRight(s, "0")
}

// ToRaw parses a decimal display amount back to the raw fixed-point
// integer, floor-truncating any digits beyond `decimals` so the result
// never exceeds what the user typed. Non-numeric and negative input is
// rejected before it can reach a write path.
func ToRaw(display string, decimals int) (uint64, error) {
	s := strings.TrimSpace(display)
	if s == "" {
		return 0, ErrNotNumeric
	}
	if strings.HasPrefix(s, "-") {
		return 0, ErrNegative
	}
	if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	if decimals < 0 || decimals > SolDecimals {
		return 0, fmt.Errorf("unsupported decimals %d", decimals)
	}

	wholePart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		wholePart, fracPart = s[:i], s[i+1:]
	}
	if wholePart == "" && fracPart == "" {
		return 0, ErrNotNumeric
	}
	if wholePart == "" {
		wholePart = "0"
	}
	if !allDigits(wholePart) || (fracPart != "" && !allDigits(fracPart)) {
		return 0, ErrNotNumeric
	}

	var whole uint64
	for _, r := range wholePart {
		d := uint64(r - '0')
		if whole > (^uint64(0)-d)/10 {
			return 0, fmt.Errorf("amount overflows: %s", display)
		}
		whole = whole*10 + d
	}

	// Truncate, never round up: extra fractional digits are dropped.
	if len(fracPart) > decimals {
		fracPart = fracPart[:decimals]
	}
	var frac uint64
	for _, r := range fracPart {
		frac = frac*10 + uint64(r-'0')
	}
	frac *= pow10[decimals-len(fracPart)]

	scale := pow10[decimals]
	if whole > (^uint64(0)-frac)/scale {
		return 0, fmt.Errorf("amount overflows: %s", display)
	}
	return whole*scale + frac, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// EstimateYield computes floor(deposited * yieldPerLamport / 1e9). The
// product of two u64 values does not fit in 64 bits, so the math runs
// through big.Int; the floor division matches the on-chain truncation,
// keeping the preview within one lamport of the authoritative payout.
func EstimateYield(depositedRaw, yieldPerLamportRaw uint64) uint64 {
	if depositedRaw == 0 || yieldPerLamportRaw == 0 {
		return 0
	}
	product := new(big.Int).Mul(
		new(big.Int).SetUint64(depositedRaw),
		new(big.Int).SetUint64(yieldPerLamportRaw),
	)
	product.Quo(product, big.NewInt(YieldPrecision))
	return product.Uint64()
}
