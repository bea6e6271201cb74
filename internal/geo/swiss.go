package geo

// SwissLocalities returns the built-in table of localities whose listings are
// known to appear among the most expensive Swiss houses.
func SwissLocalities() *CoordinateTable {
	return MustCoordinateTable(map[string]Coordinates{
		"Grimentz":             {Latitude: 46.1806, Longitude: 7.5761},
		"Lugano":               {Latitude: 46.0037, Longitude: 8.9511},
		"Jouxtens-Mézery":      {Latitude: 46.5527, Longitude: 6.6007},
		"Pfeffingen":           {Latitude: 47.4882, Longitude: 7.5898},
		"Brione sopra Minusio": {Latitude: 46.1858, Longitude: 8.8088},
		"Ronco sopra Ascona":   {Latitude: 46.1442, Longitude: 8.7318},
		"Grindelwald":          {Latitude: 46.6242, Longitude: 8.0365},
		"Blonay":               {Latitude: 46.4677, Longitude: 6.8942},
		"Stettfurt":            {Latitude: 47.5278, Longitude: 8.9731},
		"Uitikon Waldegg":      {Latitude: 47.3679, Longitude: 8.4661},
	})
}
