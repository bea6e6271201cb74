package dataprocessing

import (
	"sort"

	"github.com/go-playground/validator/v10"

	"housepulse/pkg/contracts/domain"
)

// DefaultOutlierTrim is the number of most expensive listings removed by Clean.
const DefaultOutlierTrim = 5

var recordValidator = validator.New()

// Cleaner removes incomplete listings and the most expensive outliers.
type Cleaner struct {
	trim int
}

// NewCleaner creates a cleaner that trims the given number of top-priced
// listings. Negative values are treated as zero.
func NewCleaner(trim int) *Cleaner {
	if trim < 0 {
		trim = 0
	}
	return &Cleaner{trim: trim}
}

// Clean applies the cleaner's policy to dataset.
func (c *Cleaner) Clean(dataset domain.Dataset) domain.Dataset {
	return Clean(dataset, c.trim)
}

// Trim returns the configured outlier trim.
func (c *Cleaner) Trim() int {
	return c.trim
}

// Clean keeps the valid records of dataset, orders them by price descending
// and drops the trim most expensive ones. The result is empty when trim is
// not smaller than the number of valid records. dataset is not modified.
func Clean(dataset domain.Dataset, trim int) domain.Dataset {
	valid := FilterValid(dataset)
	sortByPriceDesc(valid)

	if trim < 0 {
		trim = 0
	}
	if trim >= len(valid) {
		return domain.Dataset{}
	}
	return valid[trim:]
}

// FilterValid returns the records that have every field present and pass
// struct validation, in their original order.
func FilterValid(dataset domain.Dataset) domain.Dataset {
	out := make(domain.Dataset, 0, len(dataset))
	for _, rec := range dataset {
		if Valid(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// Valid reports whether rec is complete and holds usable values.
func Valid(rec domain.Record) bool {
	if !rec.Complete() {
		return false
	}
	return recordValidator.Struct(rec) == nil
}

// sortByPriceDesc orders records by price, highest first. Equal prices keep
// their relative order.
func sortByPriceDesc(records domain.Dataset) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Price > records[j].Price
	})
}
