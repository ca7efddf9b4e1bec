package maintainer

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/source"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/vocab"
)

// BuildDocument derives the indexed document of a test method. Content is
// one line each for the class name, the method name and the parameter types,
// then the doc comment and one line per body statement. Empty lines are
// omitted, so an unchanged declaration always yields the same bytes. relPath
// is recorded as the document's source file.
func BuildDocument(v *vocab.Vocabulary, relPath string, m source.Method) indexer.TestDocument {
	var params []string
	for _, p := range m.Parameters {
		params = append(params, v.NormalizeName(vocab.StripNonLetters(p))...)
	}

	lines := []string{
		join(v.NormalizeName(m.Class)),
		join(v.NormalizeName(m.Name)),
		join(params),
		join(v.NormalizeCode(m.DocComment)),
	}
	for _, stmt := range m.Statements {
		lines = append(lines, join(v.NormalizeCode(stmt)))
	}

	kept := lines[:0]
	for _, l := range lines {
		if l != "" {
			kept = append(kept, l)
		}
	}

	return indexer.TestDocument{
		ClassName:  m.Class,
		MethodName: m.Name,
		Parameters: m.Signature(),
		SourcePath: relPath,
		Content:    strings.Join(kept, "\n"),
	}
}

func join(tokens []string) string {
	return strings.Join(tokens, " ")
}
