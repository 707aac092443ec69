// Package queryutil builds plain-text site search queries from reference titles.
package queryutil

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(
	norm.NFKD,
	runes.Remove(runes.In(unicode.Mn)),
)

// Clean folds a title to a plain ASCII search string: NFKD decomposition with
// combining marks stripped, transliteration of remaining non-ASCII runes
// (ß→ss, Æ→AE, œ→oe), colons removed, whitespace collapsed. Hyphens and
// apostrophes survive. Clean is idempotent over its own output.
func Clean(title string) string {
	folded, _, err := transform.String(foldTransformer, title)
	if err != nil {
		folded = title
	}
	folded = unidecode.Unidecode(folded)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r == ':':
			b.WriteRune(' ')
		case r <= unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '-' || r == '\'':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Build produces the ordered query list for a title: the cleaned full title
// first, and when the original contained a colon, the cleaned substring
// before the first colon as a fallback. Duplicates collapse to one entry.
func Build(title string) []string {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}

	queries := []string{Clean(title)}
	if idx := strings.Index(title, ":"); idx > 0 {
		fallback := Clean(title[:idx])
		if fallback != "" && fallback != queries[0] {
			queries = append(queries, fallback)
		}
	}
	if queries[0] == "" {
		return queries[1:]
	}
	return queries
}
