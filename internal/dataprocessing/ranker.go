package dataprocessing

import "housepulse/pkg/contracts/domain"

// DefaultTopN is the number of listings placed on the map.
const DefaultTopN = 10

// TopN returns the n most expensive records of dataset, highest price first.
// Equal prices keep their input order. Fewer than n records are returned when
// the dataset is smaller; n <= 0 yields an empty result.
func TopN(dataset domain.Dataset, n int) domain.Dataset {
	if n <= 0 || len(dataset) == 0 {
		return domain.Dataset{}
	}

	ranked := dataset.Clone()
	sortByPriceDesc(ranked)

	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}
