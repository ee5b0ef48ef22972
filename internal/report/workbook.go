// Package report assembles exportable workbooks as plain data: sheets of
// rows, styled cells, merges and anchored images. XLSXRenderer turns that
// description into spreadsheet bytes.
package report

// Ref addresses a cell. Col and Row are 1-based.
type Ref struct {
	Col int
	Row int
}

// Style is a comparable cell style. Colors are RGB hex without '#'.
type Style struct {
	Font   string
	Size   float64
	Bold   bool
	Italic bool
	Color  string
	Fill   string
	HAlign string
	VAlign string
	Wrap   bool
	Border bool
}

// Cell is one value with its style.
type Cell struct {
	Col   int
	Value any
	Style Style
}

// Row is a sheet row. A zero Height keeps the default.
type Row struct {
	Number int
	Height float64
	Cells  []Cell
}

// Merge joins the rectangle From..To into one cell.
type Merge struct {
	From Ref
	To   Ref
}

// Image is a PNG anchored at a cell's top-left corner.
type Image struct {
	At  Ref
	PNG []byte
}

// Sheet is one worksheet. Widths[i] is the width of column i+1.
type Sheet struct {
	Name   string
	Widths []float64
	Rows   []Row
	Merges []Merge
	Images []Image
}

// Workbook is a complete export with its suggested file name.
type Workbook struct {
	FileName string
	Sheets   []Sheet
}

// Cell returns the cell at ref, if any.
func (s Sheet) Cell(ref Ref) (Cell, bool) {
	for _, r := range s.Rows {
		if r.Number != ref.Row {
			continue
		}
		for _, c := range r.Cells {
			if c.Col == ref.Col {
				return c, true
			}
		}
	}
	return Cell{}, false
}

// Row returns the row with the given number, if any.
func (s Sheet) Row(n int) (Row, bool) {
	for _, r := range s.Rows {
		if r.Number == n {
			return r, true
		}
	}
	return Row{}, false
}
