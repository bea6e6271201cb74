package dataprocessing

import (
	"sort"

	"housepulse/pkg/contracts/domain"
)

// MeanPriceByType groups dataset by exact HouseType and returns the mean price
// of each group, highest mean first. Groups with equal means keep the order in
// which their house type first appeared.
func MeanPriceByType(dataset domain.Dataset) []domain.AggregateRow {
	type group struct {
		sum   float64
		count int
	}

	order := make([]string, 0)
	groups := make(map[string]*group)
	for _, rec := range dataset {
		g, ok := groups[rec.HouseType]
		if !ok {
			g = &group{}
			groups[rec.HouseType] = g
			order = append(order, rec.HouseType)
		}
		g.sum += rec.Price
		g.count++
	}

	rows := make([]domain.AggregateRow, 0, len(order))
	for _, houseType := range order {
		g := groups[houseType]
		rows = append(rows, domain.AggregateRow{
			HouseType: houseType,
			MeanPrice: g.sum / float64(g.count),
			Count:     g.count,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].MeanPrice > rows[j].MeanPrice
	})
	return rows
}
