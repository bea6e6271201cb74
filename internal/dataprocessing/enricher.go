package dataprocessing

import (
	"housepulse/internal/geo"
	"housepulse/pkg/contracts/domain"
)

// Enrich attaches coordinates to every record whose locality is in table.
// Records with an unknown locality are left out; survivors keep their order.
func Enrich(records domain.Dataset, table *geo.CoordinateTable) []domain.EnrichedRecord {
	enriched, _ := enrich(records, table)
	return enriched
}

// enrich is Enrich that also reports the localities it could not place, each
// name once in order of first appearance.
func enrich(records domain.Dataset, table *geo.CoordinateTable) ([]domain.EnrichedRecord, []string) {
	out := make([]domain.EnrichedRecord, 0, len(records))
	var unmapped []string
	seen := make(map[string]bool)

	for _, rec := range records {
		c, ok := table.Lookup(rec.Locality)
		if !ok {
			if !seen[rec.Locality] {
				seen[rec.Locality] = true
				unmapped = append(unmapped, rec.Locality)
			}
			continue
		}
		out = append(out, domain.EnrichedRecord{
			Record:    rec,
			Latitude:  c.Latitude,
			Longitude: c.Longitude,
			Geohash:   c.Geohash(),
		})
	}
	return out, unmapped
}
