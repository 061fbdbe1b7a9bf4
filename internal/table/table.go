package table

import "time"

// DateLayout is the canonical render of a calendar date everywhere a cell is
// turned back into text: composite keys, exports, summaries.
const DateLayout = "2006-01-02"

// Cell holds one table value. A cell is either free text or a calendar date;
// a date cell with a zero time is a blank date (unparseable or missing input).
type Cell struct {
	Text   string
	Date   time.Time
	IsDate bool
}

// Text returns a text cell.
func Text(value string) Cell {
	return Cell{Text: value}
}

// Date returns a date cell truncated to day precision.
func Date(value time.Time) Cell {
	if value.IsZero() {
		return BlankDate()
	}
	return Cell{
		Date:   time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC),
		IsDate: true,
	}
}

// BlankDate returns the null date marker.
func BlankDate() Cell {
	return Cell{IsDate: true}
}

// IsEmpty reports whether the cell carries no value.
func (c Cell) IsEmpty() bool {
	if c.IsDate {
		return c.Date.IsZero()
	}
	return c.Text == ""
}

// String renders the cell for keys and exports. Dates render as DateLayout,
// blank dates as the empty string.
func (c Cell) String() string {
	if c.IsDate {
		if c.Date.IsZero() {
			return ""
		}
		return c.Date.Format(DateLayout)
	}
	return c.Text
}

// Row maps a column name to its cell. Absent columns read as empty text.
type Row map[string]Cell

// Get returns the cell for a column, or an empty text cell when absent.
func (r Row) Get(column string) Cell {
	if cell, ok := r[column]; ok {
		return cell
	}
	return Cell{}
}

// Table is an ordered sequence of rows over an ordered column set. Row order
// is significant and preserved through every pipeline stage; column order is
// only presentation order for exports.
type Table struct {
	Columns []string
	Rows    []Row
}

// New returns an empty table over the given columns.
func New(columns []string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

// HasColumn reports whether the table declares the column.
func (t *Table) HasColumn(name string) bool {
	for _, column := range t.Columns {
		if column == name {
			return true
		}
	}
	return false
}

// AddColumn appends a column filled with empty text for every existing row.
// Adding an already present column is a no-op.
func (t *Table) AddColumn(name string) {
	if t.HasColumn(name) {
		return
	}
	t.Columns = append(t.Columns, name)
	for _, row := range t.Rows {
		row[name] = Cell{}
	}
}

// Append adds a row in table order.
func (t *Table) Append(row Row) {
	if row == nil {
		row = Row{}
	}
	t.Rows = append(t.Rows, row)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}
