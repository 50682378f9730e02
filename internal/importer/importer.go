// Package importer reads company lists from Excel workbooks and CSV files.
// Both formats share one header contract: required columns "Firmenname*"
// and "Website*", optional address and classification columns. Rows missing
// a required cell are skipped and reported, never fatal.
package importer

import (
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/tphakala/radar-go/internal/conf"
	"github.com/tphakala/radar-go/internal/errors"
	"github.com/tphakala/radar-go/internal/logging"
)

var importerLogger *slog.Logger

func init() {
	var err error
	importerLogger, _, err = logging.NewFileLogger("logs/importer.log", "importer", slog.LevelInfo)
	if err != nil {
		importerLogger = logging.DiscardLogger("importer")
	}
}

const (
	columnName      = "Firmenname*"
	columnWebsite   = "Website*"
	columnStreet    = "Straße"
	columnPostal    = "PLZ"
	columnCity      = "Stadt"
	columnIndustry  = "Branche"
	columnEmployees = "Mitarbeiter"
)

var requiredColumns = []string{columnName, columnWebsite}

// Record is one imported company row.
type Record struct {
	Name          string
	Website       string
	Street        string
	PostalCode    string
	City          string
	Industry      string
	EmployeeCount string
}

// SkippedRow describes a row that could not be imported.
type SkippedRow struct {
	Row    int // 1-based, including the header row
	Reason string
}

// ImportResult is the outcome of one file import.
type ImportResult struct {
	Records []Record
	Skipped []SkippedRow
}

// Importer parses company spreadsheets.
type Importer struct {
	settings *conf.Settings
}

// New creates an importer.
func New(settings *conf.Settings) *Importer {
	return &Importer{settings: settings}
}

// ImportFile dispatches on the file extension: .xlsx goes through excelize,
// everything else is treated as CSV.
func (im *Importer) ImportFile(path string) (*ImportResult, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return im.ImportExcel(path)
	default:
		return im.ImportCSV(path)
	}
}

// ImportExcel reads the configured sheet of an Excel workbook.
func (im *Importer) ImportExcel(path string) (*ImportResult, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.New(err).
			Component("importer").
			Category(errors.CategoryImport).
			Context("file", path).
			Build()
	}
	defer f.Close()

	sheet := im.settings.Radar.Import.SheetName
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Newf("reading sheet %q: %v", sheet, err).
			Component("importer").
			Category(errors.CategoryImport).
			Context("file", path).
			Context("sheet", sheet).
			Build()
	}
	return im.parseRows(rows, path)
}

// ImportCSV reads a comma- or semicolon-separated file with the same header
// contract as the Excel sheet.
func (im *Importer) ImportCSV(path string) (*ImportResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.New(err).
			Component("importer").
			Category(errors.CategoryImport).
			Context("file", path).
			Build()
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.Comma = detectDelimiter(file)

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.New(err).
				Component("importer").
				Category(errors.CategoryImport).
				Context("file", path).
				Build()
		}
		rows = append(rows, record)
	}
	return im.parseRows(rows, path)
}

// detectDelimiter peeks at the first line and rewinds. German spreadsheet
// exports commonly use semicolons.
func detectDelimiter(file *os.File) rune {
	buf := make([]byte, 4096)
	n, _ := file.Read(buf)
	_, _ = file.Seek(0, io.SeekStart)

	line := string(buf[:n])
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	if strings.Count(line, ";") > strings.Count(line, ",") {
		return ';'
	}
	return ','
}

// parseRows turns a header row plus data rows into records. A missing
// required column is a typed error; a missing required cell skips the row.
func (im *Importer) parseRows(rows [][]string, source string) (*ImportResult, error) {
	if len(rows) == 0 {
		return nil, errors.Newf("file contains no rows").
			Component("importer").
			Category(errors.CategoryImport).
			Context("file", source).
			Build()
	}

	index := headerIndex(rows[0])
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, errors.Newf("required column %q is missing", col).
				Component("importer").
				Category(errors.CategoryImport).
				Context("file", source).
				Build()
		}
	}

	result := &ImportResult{}
	for i, row := range rows[1:] {
		rowNum := i + 2
		name := cell(row, index, columnName)
		website := cell(row, index, columnWebsite)
		if name == "" && website == "" {
			continue // blank filler row
		}
		if name == "" || website == "" {
			missing := columnName
			if name != "" {
				missing = columnWebsite
			}
			result.Skipped = append(result.Skipped, SkippedRow{
				Row:    rowNum,
				Reason: "missing " + missing,
			})
			continue
		}

		result.Records = append(result.Records, Record{
			Name:          name,
			Website:       website,
			Street:        cell(row, index, columnStreet),
			PostalCode:    cell(row, index, columnPostal),
			City:          cell(row, index, columnCity),
			Industry:      cell(row, index, columnIndustry),
			EmployeeCount: cell(row, index, columnEmployees),
		})
	}

	importerLogger.Info("import parsed",
		"file", source, "records", len(result.Records), "skipped", len(result.Skipped))
	return result, nil
}

func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	return index
}

func cell(row []string, index map[string]int, column string) string {
	i, ok := index[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
