// Package ingest turns one uploaded spreadsheet or delimited-text file into an
// in-memory record table. The format selects the parser; the resulting table
// shape is identical afterwards.
package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/fielddata/visitdedupe/internal/table"
)

var (
	// ErrUnsupportedFormat is returned when an uploaded file is not supported.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrNoHeader is returned when no non-empty header row can be found.
	ErrNoHeader = errors.New("no header row detected")

	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}
)

// Parse reads the payload into a record table. The first non-empty row is the
// header row; rows after it, blank or not, become data rows (blank and
// artifact rows are the sanitizer's concern, not the parser's).
func Parse(fileName string, payload []byte) (*table.Table, error) {
	if len(payload) == 0 {
		return nil, errors.New("file is empty")
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv":
		return parseDelimited(payload, ',')
	case ".tsv":
		return parseDelimited(payload, '\t')
	case ".xlsx", ".xlsm":
		return parseExcel(payload)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func parseDelimited(payload []byte, delimiter rune) (*table.Table, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read delimited file: %w", err)
	}

	return buildTable(records)
}

func parseExcel(payload []byte) (*table.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from workbook: %w", err)
	}

	return buildTable(rows)
}

func buildTable(records [][]string) (*table.Table, error) {
	if len(records) == 0 {
		return nil, errors.New("no rows found in file")
	}

	headerIndex := -1
	for idx, record := range records {
		if !rowIsBlank(record) {
			headerIndex = idx
			break
		}
	}
	if headerIndex == -1 {
		return nil, ErrNoHeader
	}

	headers := headerNames(records[headerIndex])
	t := table.New(headers)

	for _, record := range records[headerIndex+1:] {
		record = padRecord(record, len(headers))
		row := make(table.Row, len(headers))
		for i, header := range headers {
			row[header] = table.Text(record[i])
		}
		t.Append(row)
	}

	return t, nil
}

// headerNames trims header cells, names blank ones positionally, and suffixes
// repeats so every column name is unique.
func headerNames(raw []string) []string {
	headers := make([]string, len(raw))
	seen := make(map[string]int)

	for idx, value := range raw {
		name := strings.TrimSpace(value)
		if name == "" {
			name = fmt.Sprintf("Column %d", idx+1)
		}

		base := name
		count := seen[base]
		if count > 0 {
			name = fmt.Sprintf("%s (%d)", base, count+1)
		}
		seen[base] = count + 1

		headers[idx] = name
	}

	return headers
}

func padRecord(record []string, length int) []string {
	if len(record) >= length {
		return record[:length]
	}
	padded := make([]string, length)
	copy(padded, record)
	return padded
}

func rowIsBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
