// Package export renders record lists as tab-separated text (pasted into
// spreadsheets by DCs) and as XLSX workbooks
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"irtracker/lib/models"
	"irtracker/lib/records"

	"github.com/xuri/excelize/v2"
)

// Formats
const (
	FormatTSV  = "tsv"
	FormatXLSX = "xlsx"
)

// Content types served for each format
const (
	ContentTypeTSV  = "text/tab-separated-values; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// SheetName is the worksheet XLSX exports are written to
const SheetName = "Records"

// Columns is the header row of every export
var Columns = []string{
	"Number", "Short Number", "Type", "Project", "Department", "Engineer",
	"Description", "Location", "Floor", "Status", "Sent", "Downloaded By", "Downloaded At",
}

// Row renders one record in column order
func Row(r models.Record) []string {
	desc := r.Desc
	if desc == "" {
		desc = r.RevNote
	}
	return []string{
		r.ID,
		r.DisplayNumber,
		records.ItemTypeText(r),
		r.Project,
		r.Department,
		r.User,
		desc,
		r.Location,
		r.Floor,
		string(r.Status),
		r.SentAt,
		r.DownloadedBy,
		r.DownloadedAt,
	}
}

// Summary is the one-line text an engineer copies for a record
func Summary(r models.Record) string {
	desc := r.Desc
	if desc == "" {
		desc = r.RevNote
	}
	return fmt.Sprintf("%s - %s - %s", r.ID, desc, r.Project)
}

// TSV renders records with a header row. Fields containing tabs, quotes or
// newlines are quoted.
func TSV(list []models.Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = '\t'

	if err := w.Write(Columns); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range list {
		if err := w.Write(Row(r)); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", r.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush rows: %w", err)
	}
	return buf.Bytes(), nil
}

// XLSX renders records into a single-sheet workbook with a frozen header row
func XLSX(list []models.Record) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to open stream writer: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	if err := sw.SetPanes(&excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, fmt.Errorf("failed to freeze header: %w", err)
	}

	header := make([]interface{}, len(Columns))
	for i, title := range Columns {
		header[i] = excelize.Cell{StyleID: bold, Value: title}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range list {
		fields := Row(r)
		row := make([]interface{}, len(fields))
		for j, value := range fields {
			row[j] = value
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", r.ID, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Render dispatches on format and returns the body with its content type
func Render(format string, list []models.Record) ([]byte, string, error) {
	switch format {
	case "", FormatTSV:
		body, err := TSV(list)
		return body, ContentTypeTSV, err
	case FormatXLSX:
		body, err := XLSX(list)
		return body, ContentTypeXLSX, err
	default:
		return nil, "", fmt.Errorf("unsupported export format %q", format)
	}
}
