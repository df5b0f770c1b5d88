package listview

import "github.com/abelbrown/datasources/internal/observe"

// RowSource supplies the widget's rows in widget coordinates. The widget
// asks for a row only when it inserts or reloads it, so rows it has not
// been told about keep their cached text.
type RowSource interface {
	NumSections() int
	NumRows(section int) int
	Row(p observe.IndexPath) string
}

// SectionTitler is implemented by sources that label their sections.
type SectionTitler interface {
	SectionTitle(section int) string
}

// FlatSource is a single-section RowSource over a length and a renderer.
type FlatSource struct {
	Len    func() int
	Render func(i int) string
}

func (f FlatSource) NumSections() int { return 1 }

func (f FlatSource) NumRows(section int) int {
	if section != 0 {
		return 0
	}
	return f.Len()
}

func (f FlatSource) Row(p observe.IndexPath) string { return f.Render(p.Item()) }
