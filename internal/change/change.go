// Package change models the diffs the selector consumes and converts unified
// diff text into them.
package change

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/source"
)

// LineType tags a hunk line. The set is closed: every consumer switches over
// all three values.
type LineType int

const (
	Context LineType = iota
	Added
	Removed
)

func (t LineType) String() string {
	switch t {
	case Added:
		return "ADDED"
	case Removed:
		return "REMOVED"
	case Context:
		return "CONTEXT"
	default:
		return fmt.Sprintf("LineType(%d)", int(t))
	}
}

// Line is one line of a hunk without its diff prefix.
type Line struct {
	Type LineType
	Text string
}

// Hunk is one contiguous change region. Target is the line range it occupies
// in the new version of the file.
type Hunk struct {
	Target source.SourceRange
	Lines  []Line
}

// Diff is every hunk for one file. TargetFile is relative to the project root
// and empty when the file was deleted.
type Diff struct {
	TargetFile string
	Hunks      []Hunk
}

// ChangedFiles returns the set of target files ending in ext.
func ChangedFiles(diffs []Diff, ext string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, d := range diffs {
		if d.TargetFile != "" && strings.HasSuffix(d.TargetFile, ext) {
			out[d.TargetFile] = struct{}{}
		}
	}
	return out
}

// SortedPaths returns the keys of a path set in lexical order.
func SortedPaths(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
