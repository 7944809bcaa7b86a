package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/lombahub/lomba-events/internal/config"
	"github.com/lombahub/lomba-events/internal/record"
)

var (
	urlPattern = regexp.MustCompile(`https?://[^\s"'<>)]+`)

	// handlePattern matches a social handle not preceded by a word
	// character, so the domain part of an email address never matches.
	handlePattern = regexp.MustCompile(`(?:^|[^0-9A-Za-z_.@])@([A-Za-z0-9][A-Za-z0-9._]*)`)
)

// contextWindow is how far around a URL the registration keywords are
// looked for, in bytes.
const contextWindow = 50

// RegistrationEnhancer fills missing registration-URL and organizer
// fields from link and mention heuristics over the description.
type RegistrationEnhancer struct {
	rules *config.Rules
}

// NewRegistrationEnhancer builds an enhancer over the given lexicon.
func NewRegistrationEnhancer(rules *config.Rules) *RegistrationEnhancer {
	return &RegistrationEnhancer{rules: rules}
}

// Enhance returns a copy of raw with registration URL and organizer
// filled in where they were missing or no better than the generic source
// URL. The original record is not mutated.
func (e *RegistrationEnhancer) Enhance(raw record.RawEvent) record.RawEvent {
	desc := raw.Description

	if desc != "" && (raw.RegistrationURL == "" || raw.RegistrationURL == raw.URL) {
		if u := e.findRegistrationURL(desc); u != "" {
			raw.RegistrationURL = u
		}
	}

	if raw.Organizer == "" || strings.EqualFold(raw.Organizer, raw.SourceName) {
		if handle := findHandle(desc); handle != "" {
			raw.Organizer = humanizeHandle(handle)
			if raw.RegistrationURL == "" {
				raw.RegistrationURL = "https://www.instagram.com/" + handle + "/"
			}
		}
	}

	return raw
}

// findRegistrationURL picks the most registration-like URL in the text:
// first one whose surrounding context mentions registering or a known
// shortener, then the first URL not pointing at a social network.
func (e *RegistrationEnhancer) findRegistrationURL(text string) string {
	matches := urlPattern.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return ""
	}

	for _, m := range matches {
		url := trimURL(text[m[0]:m[1]])
		lo := m[0] - contextWindow
		if lo < 0 {
			lo = 0
		}
		hi := m[1] + contextWindow
		if hi > len(text) {
			hi = len(text)
		}
		context := strings.ToLower(text[lo:hi])

		if containsAny(context, e.rules.RegistrationKeywords) ||
			containsAny(strings.ToLower(url), e.rules.ShortenerDomains) {
			return url
		}
	}

	for _, m := range matches {
		url := trimURL(text[m[0]:m[1]])
		if !containsAny(strings.ToLower(url), e.rules.SocialDomains) {
			return url
		}
	}
	return ""
}

// trimURL drops trailing punctuation the URL regex drags along.
func trimURL(url string) string {
	return strings.TrimRightFunc(url, func(r rune) bool {
		return unicode.IsPunct(r) && r != '/'
	})
}

// findHandle returns the first social handle mentioned in the text,
// without its @ prefix.
func findHandle(text string) string {
	m := handlePattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimRight(m[1], ".")
}

// humanizeHandle turns "himpunan.mhs_if" into "Himpunan Mhs If".
func humanizeHandle(handle string) string {
	words := strings.FieldsFunc(handle, func(r rune) bool {
		return r == '.' || r == '_'
	})
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
