package domain

import "strings"

// Field identifies one column of a listing. Fields combine into a bit set that
// the loader uses to record which cells were empty or unparsable.
type Field uint8

const (
	FieldPrice Field = 1 << iota
	FieldHouseType
	FieldLivingSpace
	FieldLocality
	FieldPostalCode
	FieldNumberRooms
)

// RequiredFields lists every column a listing must carry to survive cleaning.
const RequiredFields = FieldPrice | FieldHouseType | FieldLivingSpace | FieldLocality | FieldPostalCode | FieldNumberRooms

var fieldNames = []struct {
	field Field
	name  string
}{
	{FieldPrice, "Price"},
	{FieldHouseType, "HouseType"},
	{FieldLivingSpace, "LivingSpace"},
	{FieldLocality, "Locality"},
	{FieldPostalCode, "PostalCode"},
	{FieldNumberRooms, "NumberRooms"},
}

// Has reports whether every bit of other is set in f.
func (f Field) Has(other Field) bool {
	return f&other == other
}

// Names returns the column names contained in the set, in header order.
func (f Field) Names() []string {
	names := make([]string, 0, len(fieldNames))
	for _, fn := range fieldNames {
		if f&fn.field != 0 {
			names = append(names, fn.name)
		}
	}
	return names
}

// String joins the column names of the set.
func (f Field) String() string {
	if f == 0 {
		return "none"
	}
	return strings.Join(f.Names(), ",")
}

// ColumnNames returns the header names of every required column.
func ColumnNames() []string {
	return RequiredFields.Names()
}

// Record is a single property listing as read from the source dataset.
type Record struct {
	Row         int     `json:"row"`
	Price       float64 `json:"price" validate:"gt=0"`
	HouseType   string  `json:"house_type" validate:"required"`
	LivingSpace float64 `json:"living_space" validate:"gt=0"`
	Locality    string  `json:"locality" validate:"required"`
	PostalCode  string  `json:"postal_code" validate:"required"`
	NumberRooms float64 `json:"number_rooms" validate:"gte=0"`

	// Missing holds the columns that were empty or unparsable in the source row.
	Missing Field `json:"-"`
}

// Complete reports whether no column of the record was missing in the source.
func (r Record) Complete() bool {
	return r.Missing&RequiredFields == 0
}

// Dataset is an ordered collection of listings. Pipeline stages never modify a
// Dataset they receive; they return a new one.
type Dataset []Record

// Clone returns a shallow copy that can be reordered without touching d.
func (d Dataset) Clone() Dataset {
	out := make(Dataset, len(d))
	copy(out, d)
	return out
}

// AggregateRow is the mean listing price of one house type.
type AggregateRow struct {
	HouseType string  `json:"house_type"`
	MeanPrice float64 `json:"mean_price"`
	Count     int     `json:"count"`
}

// EnrichedRecord is a listing whose locality resolved to known coordinates.
type EnrichedRecord struct {
	Record
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Geohash   string  `json:"geohash"`
}
