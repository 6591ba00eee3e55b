package service

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/usdc_batchpay/model"
)

var (
	ErrNoValidRecipients    = errors.New("no valid recipients to distribute to")
	ErrInvalidAmount        = errors.New("amount must be greater than zero")
	ErrInvalidListType      = errors.New("unknown list type")
	ErrInvalidAddressFormat = errors.New("address does not match the payment network format")
)

// PercentageMismatchError reports the actual sum found when recipient
// percentages do not add up to 100.00 within tolerance.
type PercentageMismatchError struct {
	Sum decimal.Decimal
}

func (e *PercentageMismatchError) Error() string {
	return fmt.Sprintf("recipient percentages must sum to 100.00, got %s", e.Sum.StringFixed(2))
}

var (
	smallestUnitFactor = decimal.New(1, model.UnitScale) // 10^6
	oneHundredth       = decimal.New(1, -2)              // 0.01, exact
	percentTolerance   = decimal.New(1, -2)              // ±0.01
	oneHundred         = decimal.NewFromInt(100)
)

// ToSmallestUnit converts a USDC amount to integer smallest units,
// truncating toward zero. Never rounds to nearest.
func ToSmallestUnit(d decimal.Decimal) int64 {
	return d.Mul(smallestUnitFactor).IntPart()
}

// FromSmallestUnit converts integer smallest units back to a USDC amount.
func FromSmallestUnit(units int64) decimal.Decimal {
	return decimal.New(units, -model.UnitScale)
}

// DistributionEntry is one recipient's computed transfer amount.
type DistributionEntry struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
	Units   int64  `json:"units"`
}

// Distribution is the calculator's output. RealizedUnits is the sum of the
// entry amounts; it can fall short of NominalUnits when percentage splits
// truncate (the remainder is deliberately not redistributed).
type Distribution struct {
	Entries       []DistributionEntry `json:"entries"`
	NominalUnits  int64               `json:"nominalUnits"`
	RealizedUnits int64               `json:"realizedUnits"`
}

// RealizedAmount returns the realized aggregate as a USDC decimal.
func (d *Distribution) RealizedAmount() decimal.Decimal {
	return FromSmallestUnit(d.RealizedUnits)
}

// CalculateDistribution turns (list type, recipients, amount input) into
// per-recipient integer transfer amounts. Pure: no I/O, no side effects.
//
// The amount input means amount-per-recipient for fixed lists and the total
// fund for percentage lists; variable lists ignore it because each recipient
// carries its own amount. Recipients failing the address heuristic are
// silently excluded from the computation.
func CalculateDistribution(listType string, recipients []model.SavedRecipient, amount decimal.Decimal) (*Distribution, error) {
	if !model.ValidListType(listType) {
		return nil, ErrInvalidListType
	}

	if listType == model.ListTypePercentage {
		// Gate on the sum over the whole supplied set before anything else.
		sum := decimal.Zero
		for _, r := range recipients {
			if r.Percentage.Valid {
				sum = sum.Add(r.Percentage.Decimal)
			}
		}
		if sum.Sub(oneHundred).Abs().GreaterThan(percentTolerance) {
			return nil, &PercentageMismatchError{Sum: sum}
		}
	}

	valid := make([]model.SavedRecipient, 0, len(recipients))
	for _, r := range recipients {
		if model.ValidAddress(r.Address) {
			valid = append(valid, r)
		}
	}
	if len(valid) == 0 {
		return nil, ErrNoValidRecipients
	}

	if listType != model.ListTypeVariable && !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	dist := &Distribution{Entries: make([]DistributionEntry, 0, len(valid))}

	switch listType {
	case model.ListTypeFixed:
		// One uniform conversion, so no per-recipient rounding loss.
		per := ToSmallestUnit(amount)
		for _, r := range valid {
			dist.Entries = append(dist.Entries, DistributionEntry{Address: r.Address, Name: r.Name, Units: per})
		}
		dist.NominalUnits = per * int64(len(valid))

	case model.ListTypePercentage:
		total := ToSmallestUnit(amount)
		for _, r := range valid {
			pct := decimal.Zero
			if r.Percentage.Valid {
				pct = r.Percentage.Decimal
			}
			// floor(total * pct / 100); flooring keeps the output sum <= total.
			units := decimal.NewFromInt(total).Mul(pct).Mul(oneHundredth).Floor().IntPart()
			dist.Entries = append(dist.Entries, DistributionEntry{Address: r.Address, Name: r.Name, Units: units})
		}
		dist.NominalUnits = total

	case model.ListTypeVariable:
		for _, r := range valid {
			var units int64
			if r.Amount.Valid {
				units = ToSmallestUnit(r.Amount.Decimal)
			}
			dist.Entries = append(dist.Entries, DistributionEntry{Address: r.Address, Name: r.Name, Units: units})
		}
	}

	for _, e := range dist.Entries {
		dist.RealizedUnits += e.Units
	}
	if listType == model.ListTypeVariable {
		dist.NominalUnits = dist.RealizedUnits
	}
	return dist, nil
}
