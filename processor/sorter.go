package processor

import (
	"sort"

	"derivflow/models"
)

// SortForSnapshot orders rows by strike price, then option type, so snapshot
// partitions are stable across cycles regardless of payload ordering.
func SortForSnapshot(rows []models.Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].StrikePrice != rows[j].StrikePrice {
			return rows[i].StrikePrice < rows[j].StrikePrice
		}
		return rows[i].OptionType < rows[j].OptionType
	})
}
