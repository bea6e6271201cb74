// Package dataprocessing turns a raw listing dataset into the views of the
// house price dashboard.
//
// # Architecture
//
// The package is organized as a chain of stages, each a plain function that
// returns a new slice and leaves its input untouched:
//
// 1. Loader: reads CSV, TSV or Excel files into a domain.Dataset
// 2. Cleaner: drops incomplete listings, sorts by price and trims outliers
// 3. Aggregator: mean price per house type
// 4. Ranker: the N most expensive listings
// 5. Enricher: attaches coordinates from a geo.CoordinateTable
//
// Pipeline wires the stages together and adds tracing, metrics and logging.
//
// # Usage
//
// Running the whole pipeline:
//
//	pipeline := dataprocessing.NewPipeline(dataprocessing.DefaultOptions(), geo.SwissLocalities(), logger)
//	views, err := pipeline.Run(ctx, "data/house_prices_switzerland.csv")
//	if err != nil {
//	    return err
//	}
//
// Using a single stage:
//
//	cleaned := dataprocessing.Clean(dataset, dataprocessing.DefaultOutlierTrim)
//	bars := dataprocessing.MeanPriceByType(cleaned)
//
// # Data Flow
//
//	File → Loader → Dataset → Cleaner → {Aggregator, Scatter, Ranker → Enricher} → Views
//
// # Error Handling
//
// Only loading can fail. Load errors are *errors.AppError values of type LOAD
// and abort the run. Incomplete rows and unknown localities are not errors:
// they are dropped and counted in domain.PipelineStats.
package dataprocessing
