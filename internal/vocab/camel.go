package vocab

import (
	"strings"
	"unicode"
)

// SplitCamelCase splits s on whitespace and on camel-case boundaries. A
// boundary sits before an upper-case letter whose predecessor is not upper
// case, and before an upper-case letter that starts an Upper+lower pair:
// "HTTPServer" gives [HTTP Server], "getUserId" gives [get User Id].
func SplitCamelCase(s string) []string {
	var tokens []string
	for _, word := range strings.Fields(s) {
		tokens = appendCamelParts(tokens, []rune(word))
	}
	return tokens
}

func appendCamelParts(tokens []string, r []rune) []string {
	start := 0
	for i := 1; i < len(r); i++ {
		if !unicode.IsUpper(r[i]) {
			continue
		}
		prevUpper := unicode.IsUpper(r[i-1])
		nextLower := i+1 < len(r) && unicode.IsLower(r[i+1])
		if !prevUpper || nextLower {
			tokens = append(tokens, string(r[start:i]))
			start = i
		}
	}
	return append(tokens, string(r[start:]))
}

// StripNonLetters replaces every rune that is not a letter with a space.
func StripNonLetters(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return r
		}
		return ' '
	}, s)
}

func lower(tokens []string) []string {
	for i, t := range tokens {
		tokens[i] = strings.ToLower(t)
	}
	return tokens
}
