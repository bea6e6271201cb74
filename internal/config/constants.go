package config

// Application constants
const (
	AppName = "HousePulse"

	DefaultPort      = 8080
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	DefaultDataDir    = "data"
	DefaultReportsDir = "data/reports"
	DefaultLogsDir    = "logs"
	DefaultInputFile  = "data/house_prices_switzerland.csv"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// DefaultTopN is the number of listings placed on the map view
	DefaultTopN = 10

	// DefaultOutlierTrim is the fixed count of most expensive listings dropped
	// after cleaning. It is a count, not a percentile.
	DefaultOutlierTrim = 5

	// Export file names written under the reports directory
	BarChartCSV   = "bar_chart.csv"
	ScatterCSV    = "scatter_chart.csv"
	MapCSV        = "map.csv"
	ViewsJSON     = "views.json"
	ViewsWorkbook = "views.xlsx"
)
