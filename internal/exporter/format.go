package exporter

import (
	"fmt"
	"strconv"
)

// formatFloat formats a float64 value for CSV output with exactly 2 decimal places
func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

// formatDecimal prints the shortest exact representation, used for
// coordinates and room counts such as 4.5
func formatDecimal(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
