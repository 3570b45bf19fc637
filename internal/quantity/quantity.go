// Package quantity does stock arithmetic in decimal so repeated merges and
// usages of fractional amounts do not accumulate float error.
package quantity

import (
	"github.com/shopspring/decimal"
)

func Add(a, b float64) float64 {
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).InexactFloat64()
}

func Sub(a, b float64) float64 {
	return decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).InexactFloat64()
}

// Delta returns the magnitude of the change from old to updated and whether
// it was an increase.
func Delta(old, updated float64) (float64, bool) {
	diff := decimal.NewFromFloat(updated).Sub(decimal.NewFromFloat(old))
	return diff.Abs().InexactFloat64(), diff.IsPositive()
}

func Format(q float64) string {
	return decimal.NewFromFloat(q).String()
}
