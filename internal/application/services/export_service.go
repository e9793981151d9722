package services

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/tealeg/xlsx/v3"

	"github.com/CametIO/camet-analytics-go/internal/domain/entities/detections"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/logging"
)

const exportTimeLayout = "2006-01-02 15:04:05"

// ExportService serializes enriched detection sets into downloadable
// formats. No business logic and no DB access; it writes exactly the
// master columns in order.
type ExportService struct {
	logger *logging.ChanneledLogger
}

// NewExportService creates the export service.
func NewExportService(logger *logging.ChanneledLogger) *ExportService {
	return &ExportService{logger: logger}
}

// WriteCSV streams the set as CSV with a header row.
func (s *ExportService) WriteCSV(w io.Writer, set *detections.EnrichedSet) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(set.Columns()); err != nil {
		return err
	}
	for _, row := range set.Rows() {
		if err := writer.Write(exportRecord(row)); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteXLSX writes the set as a single-sheet Excel workbook.
func (s *ExportService) WriteXLSX(w io.Writer, set *detections.EnrichedSet) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Detecciones")
	if err != nil {
		return err
	}

	header := sheet.AddRow()
	for _, col := range set.Columns() {
		header.AddCell().SetString(col)
	}

	for _, row := range set.Rows() {
		out := sheet.AddRow()
		out.AddCell().SetInt64(row.DetectionID)
		out.AddCell().SetString(row.DetectedAt.Format(exportTimeLayout))
		out.AddCell().SetInt(row.AreaID)
		if row.ProductID != nil {
			out.AddCell().SetInt(*row.ProductID)
		} else {
			out.AddCell().SetString("")
		}
		out.AddCell().SetInt(row.LineID)
		out.AddCell().SetString(row.AreaName)
		out.AddCell().SetString(row.AreaType)
		out.AddCell().SetString(row.LineName)
		out.AddCell().SetString(row.LineCode)
		out.AddCell().SetString(row.ProductName)
		out.AddCell().SetString(row.ProductCode)
		out.AddCell().SetFloat(row.ProductWeight)
		out.AddCell().SetString(row.ProductColor)
	}

	return file.Write(w)
}

// exportRecord flattens one enriched row into CSV fields in master
// column order.
func exportRecord(row detections.EnrichedDetection) []string {
	productID := ""
	if row.ProductID != nil {
		productID = strconv.Itoa(*row.ProductID)
	}
	return []string{
		strconv.FormatInt(row.DetectionID, 10),
		row.DetectedAt.Format(exportTimeLayout),
		strconv.Itoa(row.AreaID),
		productID,
		strconv.Itoa(row.LineID),
		row.AreaName,
		row.AreaType,
		row.LineName,
		row.LineCode,
		row.ProductName,
		row.ProductCode,
		strconv.FormatFloat(row.ProductWeight, 'f', -1, 64),
		row.ProductColor,
	}
}
