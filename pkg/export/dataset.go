package export

// Dataset is a titled table split into labelled sections.
type Dataset struct {
	Title    string
	Headers  []string
	Sections []Section
}

// Section is a run of rows under one label. The label may be empty.
type Section struct {
	Label string
	Rows  []Row
}

// Row holds one value per header. Accent is an optional hex color drawn
// beside the row in rendered documents.
type Row struct {
	Values []string
	Accent string
}

// RowCount returns the number of rows across all sections.
func (d Dataset) RowCount() int {
	n := 0
	for _, s := range d.Sections {
		n += len(s.Rows)
	}
	return n
}

func (r Row) value(i int) string {
	if i < len(r.Values) {
		return r.Values[i]
	}
	return ""
}
