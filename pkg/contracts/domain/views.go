package domain

import "time"

// BarChartPoint is one bar of the mean-price-by-type chart.
type BarChartPoint struct {
	HouseType string  `json:"house_type"`
	MeanPrice float64 `json:"mean_price"`
}

// ScatterPoint is one dot of the price versus living space chart.
type ScatterPoint struct {
	LivingSpace float64 `json:"living_space"`
	Price       float64 `json:"price"`
	HouseType   string  `json:"house_type"`
	Locality    string  `json:"locality"`
	PostalCode  string  `json:"postal_code"`
}

// MapPoint is one marker of the most-expensive-listings map.
type MapPoint struct {
	Locality    string  `json:"locality"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Price       float64 `json:"price"`
	LivingSpace float64 `json:"living_space"`
	NumberRooms float64 `json:"number_rooms"`
	Geohash     string  `json:"geohash"`
}

// PipelineStats counts records as they move through the pipeline stages.
type PipelineStats struct {
	Loaded     int `json:"loaded"`
	Incomplete int `json:"incomplete"`
	Trimmed    int `json:"trimmed"`
	Cleaned    int `json:"cleaned"`
	HouseTypes int `json:"house_types"`
	TopN       int `json:"top_n"`
	Mapped     int `json:"mapped"`
	Unmapped   int `json:"unmapped"`
}

// Views bundles the three ready-to-render tables produced by one pipeline run.
// A Views value is never modified after the pipeline returns it.
type Views struct {
	BarChart    []BarChartPoint `json:"bar_chart"`
	Scatter     []ScatterPoint  `json:"scatter"`
	Map         []MapPoint      `json:"map"`
	Stats       PipelineStats   `json:"stats"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// NewBarChart projects aggregate rows into bar chart points.
func NewBarChart(rows []AggregateRow) []BarChartPoint {
	points := make([]BarChartPoint, len(rows))
	for i, row := range rows {
		points[i] = BarChartPoint{HouseType: row.HouseType, MeanPrice: row.MeanPrice}
	}
	return points
}

// NewScatter projects cleaned listings into scatter points.
func NewScatter(records Dataset) []ScatterPoint {
	points := make([]ScatterPoint, len(records))
	for i, r := range records {
		points[i] = ScatterPoint{
			LivingSpace: r.LivingSpace,
			Price:       r.Price,
			HouseType:   r.HouseType,
			Locality:    r.Locality,
			PostalCode:  r.PostalCode,
		}
	}
	return points
}

// NewMap projects enriched listings into map markers.
func NewMap(records []EnrichedRecord) []MapPoint {
	points := make([]MapPoint, len(records))
	for i, r := range records {
		points[i] = MapPoint{
			Locality:    r.Locality,
			Latitude:    r.Latitude,
			Longitude:   r.Longitude,
			Price:       r.Price,
			LivingSpace: r.LivingSpace,
			NumberRooms: r.NumberRooms,
			Geohash:     r.Geohash,
		}
	}
	return points
}
