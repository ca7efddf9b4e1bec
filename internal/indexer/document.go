// Package indexer is the durable document index of test methods. Writes are
// staged and become visible to Search only after Refresh commits them and
// swaps in a new read snapshot.
package indexer

import "fmt"

// TestDocument is the indexed representation of one test method. Parameters
// is the comma-joined parameter type list. SourcePath is the project-relative
// file the method was last indexed from.
type TestDocument struct {
	ClassName  string `json:"className"`
	MethodName string `json:"methodName"`
	Parameters string `json:"parameters"`
	SourcePath string `json:"sourcePath,omitempty"`
	Content    string `json:"content"`
}

// Key is the identity key of a document. Overloads differ in parameters.
func Key(className, methodName, parameters string) string {
	return fmt.Sprintf("%s#%s(%s)", className, methodName, parameters)
}

func (d TestDocument) Key() string {
	return Key(d.ClassName, d.MethodName, d.Parameters)
}

// TestID is the "Class.method" identifier reported to callers.
func (d TestDocument) TestID() string {
	return d.ClassName + "." + d.MethodName
}

// Hit is one search result.
type Hit struct {
	Doc   TestDocument `json:"doc"`
	Score float64      `json:"score"`
}
