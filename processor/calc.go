package processor

import "derivflow/models"

// derivedValueScale converts price×volume into crores of traded value.
const derivedValueScale = 1e7

// DerivedValue computes the value-traded metric from the volume-weighted
// average price and the traded volume. Inputs are post-coalescing, so an
// unknown volume yields exactly zero.
func DerivedValue(avgPrice float64, volume int64) float64 {
	return avgPrice * float64(volume) / derivedValueScale
}

// ApplyDerivedValue fills the derived value field on every row in place.
func ApplyDerivedValue(rows []models.Row) {
	for i := range rows {
		rows[i].DerivedValue = DerivedValue(rows[i].AvgPrice, rows[i].TotalVolume)
	}
}
