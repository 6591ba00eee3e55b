package utils

import (
	"github.com/btcsuite/btcd/btcutil/bech32"

	"github.com/usdc_batchpay/model"
)

// ExampleAddress returns a deterministic, well-formed bech32 address for the
// payment network, used for illustrative CSV template rows. The account bytes
// are synthetic; the address encodes and validates but belongs to nobody.
func ExampleAddress(seed byte) string {
	account := make([]byte, 20)
	for i := range account {
		account[i] = seed + byte(i)
	}
	grouped, err := bech32.ConvertBits(account, 8, 5, true)
	if err != nil {
		return ""
	}
	addr, err := bech32.Encode(model.Bech32HRP, grouped)
	if err != nil {
		return ""
	}
	return addr
}
