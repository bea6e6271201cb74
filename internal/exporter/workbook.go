package exporter

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"housepulse/pkg/contracts/domain"
)

// Workbook sheet names, one per view
const (
	SheetBarChart = "BarChart"
	SheetScatter  = "Scatter"
	SheetMap      = "Map"
)

type sheetData struct {
	name    string
	headers []string
	rows    [][]interface{}
}

// WriteWorkbook saves all three views into a single xlsx file. Numbers are
// written as numeric cells so spreadsheet charts work without conversion.
func WriteWorkbook(path string, views *domain.Views) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, sheet := range workbookSheets(views) {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet.name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet.name); err != nil {
			return fmt.Errorf("create sheet %s: %w", sheet.name, err)
		}
		if err := writeSheet(f, sheet, headerStyle); err != nil {
			return fmt.Errorf("sheet %s: %w", sheet.name, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet sheetData, headerStyle int) error {
	sw, err := f.NewStreamWriter(sheet.name)
	if err != nil {
		return err
	}
	if err := sw.SetColWidth(1, len(sheet.headers), 16); err != nil {
		return err
	}

	header := make([]interface{}, len(sheet.headers))
	for i, h := range sheet.headers {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: h}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for i, row := range sheet.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}
	return sw.Flush()
}

func workbookSheets(views *domain.Views) []sheetData {
	bar := make([][]interface{}, len(views.BarChart))
	for i, p := range views.BarChart {
		bar[i] = []interface{}{p.HouseType, p.MeanPrice}
	}

	scatter := make([][]interface{}, len(views.Scatter))
	for i, p := range views.Scatter {
		scatter[i] = []interface{}{p.LivingSpace, p.Price, p.HouseType, p.Locality, p.PostalCode}
	}

	points := make([][]interface{}, len(views.Map))
	for i, p := range views.Map {
		points[i] = []interface{}{p.Locality, p.Latitude, p.Longitude, p.Price, p.LivingSpace, p.NumberRooms, p.Geohash}
	}

	return []sheetData{
		{name: SheetBarChart, headers: barChartHeaders, rows: bar},
		{name: SheetScatter, headers: scatterHeaders, rows: scatter},
		{name: SheetMap, headers: mapHeaders, rows: points},
	}
}
