package change

import (
	"bytes"
	"fmt"
	"strings"

	difflib "github.com/pmezard/go-difflib/difflib"
	godiff "github.com/sourcegraph/go-diff/diff"

	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/source"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/pkg/errors"
)

const devNull = "/dev/null"

// ParseUnified converts multi-file unified diff text (as produced by
// git diff) into Diffs, in input order.
func ParseUnified(data []byte) ([]Diff, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	fileDiffs, err := godiff.ParseMultiFileDiff(data)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing unified diff: %v", errors.ErrInvalidInput, err)
	}
	diffs := make([]Diff, 0, len(fileDiffs))
	for _, fd := range fileDiffs {
		d := Diff{TargetFile: targetName(fd.NewName)}
		for _, h := range fd.Hunks {
			d.Hunks = append(d.Hunks, Hunk{
				Target: source.SourceRange{
					StartLine: int(h.NewStartLine),
					LineCount: int(h.NewLines),
				},
				Lines: parseBody(h.Body),
			})
		}
		diffs = append(diffs, d)
	}
	return diffs, nil
}

func targetName(name string) string {
	if name == "" || name == devNull {
		return ""
	}
	// git may quote or timestamp the header; keep only the path.
	if tab := strings.IndexByte(name, '\t'); tab >= 0 {
		name = name[:tab]
	}
	name = strings.Trim(name, `"`)
	if strings.HasPrefix(name, "b/") || strings.HasPrefix(name, "a/") {
		name = name[2:]
	}
	return name
}

func parseBody(body []byte) []Line {
	raw := strings.Split(strings.TrimSuffix(string(body), "\n"), "\n")
	lines := make([]Line, 0, len(raw))
	for _, l := range raw {
		if l == "" {
			lines = append(lines, Line{Type: Context})
			continue
		}
		switch l[0] {
		case '+':
			lines = append(lines, Line{Type: Added, Text: l[1:]})
		case '-':
			lines = append(lines, Line{Type: Removed, Text: l[1:]})
		case ' ':
			lines = append(lines, Line{Type: Context, Text: l[1:]})
		case '\\':
			// "\ No newline at end of file"
		default:
			lines = append(lines, Line{Type: Context, Text: l})
		}
	}
	return lines
}

// Compare renders the unified diff between two versions of path and parses
// it back into a Diff. Identical content yields a Diff without hunks. A
// negative contextLines uses three lines of context.
func Compare(path string, original, updated []byte, contextLines int) (Diff, error) {
	if contextLines < 0 {
		contextLines = 3
	}
	u := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(original)),
		B:        difflib.SplitLines(string(updated)),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  contextLines,
	}
	text, err := difflib.GetUnifiedDiffString(u)
	if err != nil {
		return Diff{}, fmt.Errorf("rendering diff for %s: %w", path, err)
	}
	if text == "" {
		return Diff{TargetFile: path}, nil
	}
	diffs, err := ParseUnified([]byte(text))
	if err != nil {
		return Diff{}, err
	}
	if len(diffs) != 1 {
		return Diff{}, fmt.Errorf("%w: expected one file diff for %s, got %d", errors.ErrInternal, path, len(diffs))
	}
	return diffs[0], nil
}
