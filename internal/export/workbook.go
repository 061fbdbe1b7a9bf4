// Package export packages the two pipeline partitions into downloadable
// artifacts: a deduped workbook, a removed-rows workbook, and a zip bundle
// holding both under their derived names.
package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/fielddata/visitdedupe/internal/dedupe"
	"github.com/fielddata/visitdedupe/internal/table"
)

const (
	// SheetDeduped and friends name the workbook sheets consumers rely on.
	SheetDeduped    = "Deduped"
	SheetDuplicates = "Duplicates_Only"
	SheetRemoved    = "Removed"

	MimeWorkbook = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MimeZip      = "application/zip"
)

// Artifact is one named downloadable file produced by a run.
type Artifact struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Data     []byte `json:"-"`
}

// BaseName strips the final extension from an uploaded file name; artifact
// names derive from it.
func BaseName(fileName string) string {
	if idx := strings.LastIndex(fileName, "."); idx > 0 {
		return fileName[:idx]
	}
	return fileName
}

// Package serializes a pipeline result into its three artifacts. Packaging is
// pure serialization and naming; any failure here aborts the run with no
// partial bundle.
func Package(fileName string, result dedupe.Result) ([]Artifact, error) {
	base := BaseName(fileName)
	dedupName := base + "__dedup.xlsx"
	removedName := base + "_dupl_remove.xlsx"
	zipName := base + "_dedupe_bundle.zip"

	mainBook, err := writeWorkbook(sheetSpec{
		{name: SheetDeduped, data: result.Deduped},
		{name: SheetDuplicates, data: result.Removed},
	})
	if err != nil {
		return nil, fmt.Errorf("write deduped workbook: %w", err)
	}

	removedBook, err := writeWorkbook(sheetSpec{
		{name: SheetRemoved, data: result.Removed},
	})
	if err != nil {
		return nil, fmt.Errorf("write removed workbook: %w", err)
	}

	bundle, err := writeBundle(map[string][]byte{
		dedupName:   mainBook,
		removedName: removedBook,
	}, []string{dedupName, removedName})
	if err != nil {
		return nil, fmt.Errorf("write zip bundle: %w", err)
	}

	return []Artifact{
		{Name: dedupName, MimeType: MimeWorkbook, Data: mainBook},
		{Name: removedName, MimeType: MimeWorkbook, Data: removedBook},
		{Name: zipName, MimeType: MimeZip, Data: bundle},
	}, nil
}

type sheetSpec []struct {
	name string
	data *table.Table
}

func writeWorkbook(sheets sheetSpec) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for idx, sheet := range sheets {
		if idx == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet.name); err != nil {
				return nil, fmt.Errorf("name sheet %s: %w", sheet.name, err)
			}
		} else {
			if _, err := f.NewSheet(sheet.name); err != nil {
				return nil, fmt.Errorf("add sheet %s: %w", sheet.name, err)
			}
		}
		if err := writeSheet(f, sheet.name, sheet.data); err != nil {
			return nil, err
		}
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buffer.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, t *table.Table) error {
	header := make([]interface{}, len(t.Columns))
	for i, column := range t.Columns {
		header[i] = column
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header on %s: %w", sheet, err)
	}

	cells := make([]interface{}, len(t.Columns))
	for rowIdx, row := range t.Rows {
		for i, column := range t.Columns {
			cells[i] = row.Get(column).String()
		}
		ref, err := excelize.CoordinatesToCellName(1, rowIdx+2)
		if err != nil {
			return fmt.Errorf("cell reference on %s: %w", sheet, err)
		}
		if err := f.SetSheetRow(sheet, ref, &cells); err != nil {
			return fmt.Errorf("write row %d on %s: %w", rowIdx+2, sheet, err)
		}
	}
	return nil
}

func writeBundle(files map[string][]byte, order []string) ([]byte, error) {
	var buffer bytes.Buffer
	writer := zip.NewWriter(&buffer)
	for _, name := range order {
		entry, err := writer.Create(name)
		if err != nil {
			return nil, fmt.Errorf("create zip entry %s: %w", name, err)
		}
		if _, err := entry.Write(files[name]); err != nil {
			return nil, fmt.Errorf("write zip entry %s: %w", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize zip: %w", err)
	}
	return buffer.Bytes(), nil
}
