package model

import "strings"

// Payment network parameters (USDC, bech32 addressing).
const (
	Bech32HRP     = "noble"
	AddressPrefix = Bech32HRP + "1"
	MinAddressLen = 39
	MaxAddressLen = 45

	// UnitScale is the number of decimal places in the smallest unit (uusdc).
	UnitScale = 6
)

// Fee model: gas grows linearly with the number of outputs, the flat fee
// uses a higher tier for multi-output sends.
const (
	GasPerOutput   = 100_000
	FeeSingleUnits = 20_000 // 0.02 USDC
	FeeBatchUnits  = 50_000 // 0.05 USDC
)

// ValidAddress reports whether addr looks like a payment-network address.
// Format heuristic only: prefix plus length range, no checksum verification.
func ValidAddress(addr string) bool {
	return strings.HasPrefix(addr, AddressPrefix) &&
		len(addr) >= MinAddressLen && len(addr) <= MaxAddressLen
}
