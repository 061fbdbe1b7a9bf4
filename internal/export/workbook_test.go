package export

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/fielddata/visitdedupe/internal/dedupe"
	"github.com/fielddata/visitdedupe/internal/table"
)

func sampleResult() dedupe.Result {
	columns := []string{"CHILD ID", "TMO Name"}
	deduped := table.New(columns)
	deduped.Append(table.Row{"CHILD ID": table.Text("101"), "TMO Name": table.Text("Priya")})
	deduped.Append(table.Row{"CHILD ID": table.Text("102"), "TMO Name": table.Text("Sunil")})
	removed := table.New(columns)
	removed.Append(table.Row{"CHILD ID": table.Text("101"), "TMO Name": table.Text("Priya")})
	return dedupe.Result{
		Deduped: deduped,
		Removed: removed,
		Stats:   dedupe.Stats{RowsBefore: 3, RowsAfter: 2, Removed: 1},
	}
}

func TestPackageArtifactNames(t *testing.T) {
	artifacts, err := Package("march visits.xlsx", sampleResult())
	if err != nil {
		t.Fatalf("package returned error: %v", err)
	}
	if len(artifacts) != 3 {
		t.Fatalf("expected 3 artifacts, got %d", len(artifacts))
	}

	want := []string{
		"march visits__dedup.xlsx",
		"march visits_dupl_remove.xlsx",
		"march visits_dedupe_bundle.zip",
	}
	for i, name := range want {
		if artifacts[i].Name != name {
			t.Fatalf("artifact %d named %q, want %q", i, artifacts[i].Name, name)
		}
	}
	if artifacts[0].MimeType != MimeWorkbook || artifacts[2].MimeType != MimeZip {
		t.Fatalf("unexpected mime types: %+v", artifacts)
	}
}

func TestPackageWorkbookContents(t *testing.T) {
	artifacts, err := Package("visits.xlsx", sampleResult())
	if err != nil {
		t.Fatalf("package returned error: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(artifacts[0].Data))
	if err != nil {
		t.Fatalf("open deduped workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != SheetDeduped || sheets[1] != SheetDuplicates {
		t.Fatalf("unexpected sheets %v", sheets)
	}

	rows, err := f.GetRows(SheetDeduped)
	if err != nil {
		t.Fatalf("read deduped sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "CHILD ID" || rows[0][1] != "TMO Name" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	if rows[1][0] != "101" || rows[2][1] != "Sunil" {
		t.Fatalf("unexpected data rows %v", rows[1:])
	}

	dupRows, err := f.GetRows(SheetDuplicates)
	if err != nil {
		t.Fatalf("read duplicates sheet: %v", err)
	}
	if len(dupRows) != 2 || dupRows[1][0] != "101" {
		t.Fatalf("unexpected duplicates sheet %v", dupRows)
	}

	removedBook, err := excelize.OpenReader(bytes.NewReader(artifacts[1].Data))
	if err != nil {
		t.Fatalf("open removed workbook: %v", err)
	}
	defer removedBook.Close()
	if sheets := removedBook.GetSheetList(); len(sheets) != 1 || sheets[0] != SheetRemoved {
		t.Fatalf("unexpected removed workbook sheets %v", sheets)
	}
}

func TestPackageBundleHoldsBothWorkbooks(t *testing.T) {
	artifacts, err := Package("visits.xlsx", sampleResult())
	if err != nil {
		t.Fatalf("package returned error: %v", err)
	}

	bundle := artifacts[2]
	reader, err := zip.NewReader(bytes.NewReader(bundle.Data), int64(len(bundle.Data)))
	if err != nil {
		t.Fatalf("open bundle: %v", err)
	}
	if len(reader.File) != 2 {
		t.Fatalf("expected 2 bundle entries, got %d", len(reader.File))
	}
	names := map[string]bool{}
	for _, file := range reader.File {
		names[file.Name] = true
	}
	if !names["visits__dedup.xlsx"] || !names["visits_dupl_remove.xlsx"] {
		t.Fatalf("unexpected bundle entries %v", names)
	}
}

func TestPackageEmptyPartitions(t *testing.T) {
	empty := dedupe.Result{
		Deduped: table.New([]string{"CHILD ID"}),
		Removed: table.New([]string{"CHILD ID"}),
	}
	artifacts, err := Package("visits.csv", empty)
	if err != nil {
		t.Fatalf("package returned error: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(artifacts[0].Data))
	if err != nil {
		t.Fatalf("empty workbook not well-formed: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(SheetDeduped)
	if err != nil {
		t.Fatalf("read empty sheet: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected header only, got %d rows", len(rows))
	}
}

func TestBaseName(t *testing.T) {
	cases := map[string]string{
		"visits.xlsx":      "visits",
		"march.visits.csv": "march.visits",
		"noextension":      "noextension",
		".hidden":          ".hidden",
	}
	for input, want := range cases {
		if got := BaseName(input); got != want {
			t.Fatalf("BaseName(%q) = %q, want %q", input, got, want)
		}
	}
}
