package repository

import (
	"regexp"
	"strings"
	"unicode"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern builds a LIKE/ILIKE pattern matching s literally anywhere in a value.
// The pattern uses backslash as its escape character.
func ContainsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// FoldPattern builds a regular expression matching s literally in any letter case.
// Every cased rune becomes a bracket of its case variants, so the match does not
// depend on the engine's Unicode case tables or the database locale.
func FoldPattern(s string) string {
	var b strings.Builder
	for _, r := range s {
		variants := []rune{r}
		for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
			variants = append(variants, f)
		}
		if len(variants) == 1 {
			b.WriteString(regexp.QuoteMeta(string(r)))
			continue
		}
		b.WriteByte('[')
		b.WriteString(string(variants))
		b.WriteByte(']')
	}
	return b.String()
}
