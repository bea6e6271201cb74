// Package exporter writes pipeline views to disk for offline use.
//
// Three writers cover the supported formats:
//
// CSVWriter: Core CSV writing with headers, streaming and a UTF-8 BOM so
// spreadsheet applications detect the encoding.
//
// WriteWorkbook: A single xlsx file with one sheet per view (BarChart,
// Scatter, Map) and numeric cells.
//
// ViewExporter: Dispatches a Views value to the requested formats ("csv",
// "json", "xlsx") under the reports directory.
//
// Example usage:
//
//	exp := exporter.NewViewExporter(paths, logger)
//	files, err := exp.Export(ctx, views, []string{"csv", "xlsx"})
package exporter
