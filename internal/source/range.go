package source

import "sort"

// SourceRange is a block of lines starting at StartLine. EndLine is
// StartLine+LineCount and is treated as part of the range.
type SourceRange struct {
	StartLine int `json:"start_line"`
	LineCount int `json:"line_count"`
}

// NewRange builds the range covering the begin and end lines of a declaration.
func NewRange(beginLine, endLine int) SourceRange {
	if endLine < beginLine {
		endLine = beginLine
	}
	return SourceRange{StartLine: beginLine, LineCount: endLine - beginLine}
}

func (r SourceRange) EndLine() int {
	return r.StartLine + r.LineCount
}

// Intersects reports whether the inclusive intervals [start, end] of r and o
// share at least one line. Adjacent ranges touching on a boundary line
// intersect.
func (r SourceRange) Intersects(o SourceRange) bool {
	return r.StartLine <= o.EndLine() && o.StartLine <= r.EndLine()
}

// DeclarationIndex maps a class or method name to every range it is declared
// at. Names repeat for overloads and same-named nested types.
type DeclarationIndex map[string][]SourceRange

func (d DeclarationIndex) Add(name string, r SourceRange) {
	d[name] = append(d[name], r)
}

// Intersecting returns the sorted names having at least one range that
// intersects r.
func (d DeclarationIndex) Intersecting(r SourceRange) []string {
	var names []string
	for name, ranges := range d {
		for _, dr := range ranges {
			if dr.Intersects(r) {
				names = append(names, name)
				break
			}
		}
	}
	sort.Strings(names)
	return names
}
