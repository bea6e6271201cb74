// Package geo holds the static locality lookup used to place listings on a map.
//
// There is no geocoding service behind it: a CoordinateTable is a closed set of
// known place names, built once and passed explicitly to whoever needs it.
package geo

import (
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/mmcloughlin/geohash"
	"gopkg.in/yaml.v2"
)

// GeohashPrecision is the number of characters used when encoding coordinates.
// Seven characters resolve to roughly 150m, enough to group listings per village.
const GeohashPrecision = 7

// Coordinates is a WGS84 point.
type Coordinates struct {
	Latitude  float64 `yaml:"latitude" json:"latitude"`
	Longitude float64 `yaml:"longitude" json:"longitude"`
}

// Valid reports whether the point lies inside the WGS84 range.
func (c Coordinates) Valid() bool {
	return !math.IsNaN(c.Latitude) && !math.IsNaN(c.Longitude) &&
		c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// Geohash encodes the point at GeohashPrecision.
func (c Coordinates) Geohash() string {
	return geohash.EncodeWithPrecision(c.Latitude, c.Longitude, GeohashPrecision)
}

// CoordinateTable maps a locality name (exact, case-sensitive) to its
// coordinates. It is immutable once built and safe for concurrent use.
type CoordinateTable struct {
	entries map[string]Coordinates
}

// NewCoordinateTable copies entries into a new table. Entries with coordinates
// outside the WGS84 range are rejected.
func NewCoordinateTable(entries map[string]Coordinates) (*CoordinateTable, error) {
	table := &CoordinateTable{entries: make(map[string]Coordinates, len(entries))}
	for locality, c := range entries {
		if locality == "" {
			return nil, fmt.Errorf("coordinate table: empty locality name")
		}
		if !c.Valid() {
			return nil, fmt.Errorf("coordinate table: invalid coordinates for %q: %v,%v", locality, c.Latitude, c.Longitude)
		}
		table.entries[locality] = c
	}
	return table, nil
}

// MustCoordinateTable is like NewCoordinateTable but panics on invalid input.
func MustCoordinateTable(entries map[string]Coordinates) *CoordinateTable {
	table, err := NewCoordinateTable(entries)
	if err != nil {
		panic(err)
	}
	return table
}

// LoadCoordinateTable reads a YAML mapping of locality to {latitude, longitude}.
func LoadCoordinateTable(path string) (*CoordinateTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read coordinate table: %w", err)
	}

	var entries map[string]Coordinates
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse coordinate table %s: %w", path, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("coordinate table %s has no entries", path)
	}
	return NewCoordinateTable(entries)
}

// Lookup returns the coordinates of locality, if known.
func (t *CoordinateTable) Lookup(locality string) (Coordinates, bool) {
	if t == nil {
		return Coordinates{}, false
	}
	c, ok := t.entries[locality]
	return c, ok
}

// Len returns the number of known localities.
func (t *CoordinateTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Localities returns the known locality names in sorted order.
func (t *CoordinateTable) Localities() []string {
	if t == nil {
		return nil
	}
	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
