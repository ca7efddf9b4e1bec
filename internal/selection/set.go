package selection

import (
	"sort"
	"strings"
)

// Set is a set of "Class.method" test identifiers.
type Set map[string]struct{}

func (s Set) Add(id string) {
	s[id] = struct{}{}
}

func (s Set) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the identifiers in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// GroupByClass maps each class to its selected methods, both sorted.
func GroupByClass(s Set) map[string][]string {
	groups := make(map[string][]string)
	for _, id := range s.Sorted() {
		i := strings.LastIndex(id, ".")
		if i < 0 {
			groups[id] = append(groups[id], "")
			continue
		}
		groups[id[:i]] = append(groups[id[:i]], id[i+1:])
	}
	return groups
}

// SurefireFilter renders s in the Maven Surefire -Dtest syntax, for example
// "CalcTest#add+subtract,ParserTest#parse". An empty set renders as "".
func SurefireFilter(s Set) string {
	groups := GroupByClass(s)
	classes := make([]string, 0, len(groups))
	for c := range groups {
		classes = append(classes, c)
	}
	sort.Strings(classes)

	parts := make([]string, 0, len(classes))
	for _, c := range classes {
		methods := groups[c]
		if len(methods) == 1 && methods[0] == "" {
			parts = append(parts, c)
			continue
		}
		parts = append(parts, c+"#"+strings.Join(methods, "+"))
	}
	return strings.Join(parts, ",")
}
