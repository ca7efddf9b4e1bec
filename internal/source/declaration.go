// Package source extracts class and method declarations, with their line
// ranges, from parsed source files. Parsing itself is delegated to a Parser;
// this package owns the range bookkeeping used to intersect diff hunks with
// declarations.
package source

import (
	"context"
	"strings"
)

// Class is a class, interface, enum or record declaration.
type Class struct {
	Name     string
	Range    SourceRange
	RangeErr error
}

// Method is a method declaration. Class is the innermost enclosing type.
type Method struct {
	Name        string
	Class       string
	Parameters  []string
	Annotations []string
	DocComment  string
	Statements  []string
	Range       SourceRange
	RangeErr    error
}

// Signature is the comma-joined parameter type list, in declaration order.
func (m Method) Signature() string {
	return strings.Join(m.Parameters, ",")
}

// HasAnnotation reports whether any of names annotates the method.
func (m Method) HasAnnotation(names ...string) bool {
	for _, a := range m.Annotations {
		for _, n := range names {
			if a == n {
				return true
			}
		}
	}
	return false
}

// File is one parsed source file. Path is relative to the project root.
type File struct {
	Path    string
	Classes []Class
	Methods []Method
}

// ClassIndex maps class names to their ranges, skipping declarations whose
// range is unavailable.
func (f *File) ClassIndex() DeclarationIndex {
	idx := make(DeclarationIndex, len(f.Classes))
	for _, c := range f.Classes {
		if c.RangeErr == nil {
			idx.Add(c.Name, c.Range)
		}
	}
	return idx
}

// MethodIndex maps method names to their ranges, skipping declarations whose
// range is unavailable.
func (f *File) MethodIndex() DeclarationIndex {
	idx := make(DeclarationIndex, len(f.Methods))
	for _, m := range f.Methods {
		if m.RangeErr == nil {
			idx.Add(m.Name, m.Range)
		}
	}
	return idx
}

// Markers names the annotations that mark a method as a test case and as
// skipped. Names are matched against the annotation's simple name.
type Markers struct {
	Test   []string
	Ignore []string
}

func (mk Markers) IsTest(m Method) bool {
	return m.HasAnnotation(mk.Test...)
}

func (mk Markers) IsIgnored(m Method) bool {
	return m.HasAnnotation(mk.Ignore...)
}

// Parser turns file content into declarations.
type Parser interface {
	Parse(ctx context.Context, path string, content []byte) (*File, error)
	Extensions() []string
}
