package common

import (
	"fmt"
	"math"
)

// amountTolerance is how far a gateway amount may sit from an exact multiple
// of the unit price before it is rejected as ambiguous. Historical data mixed
// floor and round across entry points; round-with-epsilon is the single rule
// going forward, and fee-adjusted amounts are deliberately NOT absorbed here.
const amountTolerance = 0.5

// InferQuantity derives the purchased unit count from a captured amount.
// It never silently floors: an amount that does not sit on a multiple of the
// unit price within tolerance is rejected for manual review.
func InferQuantity(amount float64, unitPrice float64) (uint, error) {
	if unitPrice <= 0 {
		return 0, fmt.Errorf("unit price must be positive, got %v", unitPrice)
	}
	if amount <= 0 {
		return 0, ErrAmbiguousAmount
	}
	qty := math.Round(amount / unitPrice)
	if qty < 1 {
		return 0, ErrAmbiguousAmount
	}
	if math.Abs(amount-qty*unitPrice) > amountTolerance {
		return 0, ErrAmbiguousAmount
	}
	return uint(qty), nil
}
