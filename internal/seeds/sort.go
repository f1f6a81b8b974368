package seeds

import (
	"sort"

	"github.com/cintamani/seedgen/internal/models"
)

// SortByReputation returns a copy of records ordered by descending
// (uptime, last success, address string). The input is left untouched.
func SortByReputation(records []models.PeerRecord) []models.PeerRecord {
	sorted := make([]models.PeerRecord, len(records))
	copy(sorted, records)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Uptime30d != b.Uptime30d {
			return a.Uptime30d > b.Uptime30d
		}
		if a.LastSuccess != b.LastSuccess {
			return a.LastSuccess > b.LastSuccess
		}
		return a.Address > b.Address
	})

	return sorted
}

// DedupeByAddress keeps the first record seen for each address and
// returns the number of dropped duplicates
func DedupeByAddress(records []models.PeerRecord) ([]models.PeerRecord, int) {
	seen := make(map[uint32]struct{}, len(records))
	out := make([]models.PeerRecord, 0, len(records))

	for _, rec := range records {
		if _, dup := seen[rec.AddressValue]; dup {
			continue
		}
		seen[rec.AddressValue] = struct{}{}
		out = append(out, rec)
	}

	return out, len(records) - len(out)
}

// SortByAddress returns a copy of seeds ordered by ascending address value
func SortByAddress(seeds []models.Seed) []models.Seed {
	sorted := make([]models.Seed, len(seeds))
	copy(sorted, seeds)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].AddressValue < sorted[j].AddressValue
	})

	return sorted
}
