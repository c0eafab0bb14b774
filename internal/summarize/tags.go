package summarize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var tagCaser = cases.Title(language.Und)

// normalizeTags rewrites a backend-produced tag string into the canonical
// "#Tag1 #Tag2" form: one leading hash per tag, title-cased, deduplicated,
// commas and stray punctuation dropped.
func normalizeTags(raw string) string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ' ' || r == ',' || r == ';' || r == '\n' || r == '\t'
	})

	seen := make(map[string]struct{}, len(fields))
	tags := make([]string, 0, len(fields))
	for _, field := range fields {
		word := strings.Trim(field, "#.")
		if word == "" {
			continue
		}
		tag := "#" + tagCaser.String(word)
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		tags = append(tags, tag)
	}
	return strings.Join(tags, " ")
}
