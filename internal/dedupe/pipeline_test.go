package dedupe

import (
	"testing"

	"github.com/fielddata/visitdedupe/internal/schema"
	"github.com/fielddata/visitdedupe/internal/table"
)

func visitRow(childID, date, group, tmo string) table.Row {
	return table.Row{
		"CHILD ID":         table.Text(childID),
		"HOUSE VISIT DATE": table.Text(date),
		"GROUP ID":         table.Text(group),
		"TMO Name":         table.Text(tmo),
	}
}

func TestRunEndToEnd(t *testing.T) {
	sc := schema.Current()
	tab := table.New([]string{"CHILD ID", "HOUSE VISIT DATE", "GROUP ID", "TMO Name"})
	tab.Append(visitRow("101", "31/01/2024", "G1", "Priya"))       // A
	tab.Append(visitRow("102", "31/01/2024", "G1", "Priya"))       // B
	tab.Append(visitRow("101.0", "31/01/2024", "G1", "Priya  "))   // C, duplicate of A after normalization
	tab.Append(visitRow("103", "01/02/2024", "G2", "Sunil"))       // D
	tab.Append(visitRow("", "", "", ""))                           // blank, sanitized away
	tab.Append(visitRow("", "", "", "Applied filters: TMO = all")) // footer, sanitized away

	result := Run(tab, sc)

	if result.Stats.RowsBefore != 4 {
		t.Fatalf("sanitizer should leave 4 rows, stats %+v", result.Stats)
	}
	if result.Stats.RowsAfter != 3 || result.Stats.Removed != 1 {
		t.Fatalf("unexpected stats %+v", result.Stats)
	}

	wantOrder := []string{"101", "102", "103"}
	for i, want := range wantOrder {
		if got := result.Deduped.Rows[i].Get("CHILD ID").String(); got != want {
			t.Fatalf("deduped row %d = %q, want %q", i, got, want)
		}
	}
	if got := result.Removed.Rows[0].Get("CHILD ID").String(); got != "101" {
		t.Fatalf("removed partition holds %q, want the later 101 occurrence", got)
	}

	// Full schema present in both partitions.
	for _, column := range sc.Columns {
		if !result.Deduped.HasColumn(column.Name) || !result.Removed.HasColumn(column.Name) {
			t.Fatalf("column %q missing from output", column.Name)
		}
	}
}

func TestRunDedupedOutputIsStable(t *testing.T) {
	sc := schema.Current()
	tab := table.New([]string{"CHILD ID"})
	tab.Append(table.Row{"CHILD ID": table.Text("1")})
	tab.Append(table.Row{"CHILD ID": table.Text("1.0")})
	tab.Append(table.Row{"CHILD ID": table.Text("2")})

	first := Run(tab, sc)
	if first.Stats.Removed != 1 {
		t.Fatalf("expected one duplicate removed, stats %+v", first.Stats)
	}

	second := Run(first.Deduped, sc)
	if second.Stats.Removed != 0 {
		t.Fatalf("pipeline not idempotent over its own output: %+v", second.Stats)
	}
	if second.Stats.RowsAfter != first.Stats.RowsAfter {
		t.Fatalf("row count changed on second run")
	}
}

func TestRunEmptyInput(t *testing.T) {
	sc := schema.Current()
	tab := table.New([]string{"CHILD ID"})
	tab.Append(table.Row{"CHILD ID": table.Text("")})

	result := Run(tab, sc)

	if result.Stats.RowsBefore != 0 || result.Stats.RowsAfter != 0 || result.Stats.Removed != 0 {
		t.Fatalf("unexpected stats %+v", result.Stats)
	}
	if result.Deduped.Len() != 0 || result.Removed.Len() != 0 {
		t.Fatalf("expected empty partitions")
	}
}

func TestRunLegacyKeyDistinguishesVisitDate(t *testing.T) {
	sc := schema.Legacy()
	columns := []string{"CHILD ID", "HOUSE VISIT DATE", "VISIT DATE", "GROUP ID"}
	tab := table.New(columns)
	tab.Append(table.Row{
		"CHILD ID":         table.Text("1"),
		"HOUSE VISIT DATE": table.Text("05/01/2024"),
		"VISIT DATE":       table.Text("05/01/2024"),
		"GROUP ID":         table.Text("G1"),
	})
	tab.Append(table.Row{
		"CHILD ID":         table.Text("1"),
		"HOUSE VISIT DATE": table.Text("05/01/2024"),
		"VISIT DATE":       table.Text("06/01/2024"),
		"GROUP ID":         table.Text("G1"),
	})

	result := Run(tab, sc)
	if result.Stats.Removed != 0 {
		t.Fatalf("rows differing on VISIT DATE must survive under the legacy key: %+v", result.Stats)
	}
}
