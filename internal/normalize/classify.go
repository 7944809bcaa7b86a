package normalize

import (
	"regexp"
	"strings"

	"github.com/lombahub/lomba-events/internal/record"
)

// Classifier maps event text to taxonomy category ids by whole-word
// keyword matching. The keyword tables are configuration keyed by
// taxonomy slug; the classifier never invents categories, it only
// associates ids the catalog already owns.
type Classifier struct {
	patterns map[string][]*regexp.Regexp
}

// NewClassifier compiles the slug-to-keywords tables into matchers.
// Keywords match case-insensitively and only at word boundaries, so
// "ui/ux" matches "Lomba UI/UX Design" but "art" does not match "start".
func NewClassifier(keywords map[string][]string) *Classifier {
	patterns := make(map[string][]*regexp.Regexp, len(keywords))
	for slug, kws := range keywords {
		compiled := make([]*regexp.Regexp, 0, len(kws))
		for _, kw := range kws {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			// Explicit non-alphanumeric guards instead of \b: keywords may
			// begin or end with symbols, where \b would not anchor.
			p := regexp.MustCompile(`(?:^|[^a-z0-9])` + regexp.QuoteMeta(kw) + `(?:$|[^a-z0-9])`)
			compiled = append(compiled, p)
		}
		patterns[slug] = compiled
	}
	return &Classifier{patterns: patterns}
}

// Classify returns the ids of every taxonomy entry whose keyword list
// matches the concatenated title and description. Order follows the
// taxonomy; no match at all yields an empty result, not an error.
func (c *Classifier) Classify(title, description string, taxonomy record.Taxonomy) []string {
	text := strings.ToLower(title + " " + description)

	var ids []string
	for _, cat := range taxonomy {
		for _, p := range c.patterns[cat.Slug] {
			if p.MatchString(text) {
				ids = append(ids, cat.ID)
				break
			}
		}
	}
	return ids
}
