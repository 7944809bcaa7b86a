package normalize

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lombahub/lomba-events/internal/config"
)

var (
	// announcementPrefixPattern strips leading announcement phrasing like
	// "Dibuka, Pendaftaran ..." from a title.
	announcementPrefixPattern = regexp.MustCompile(`(?i)^(?:dibuka[,!:]?\s+)?(?:pendaftaran[,!:]?\s+)?`)

	// bracketTagPattern strips a leading bracketed tag like "[GRATIS]".
	bracketTagPattern = regexp.MustCompile(`^\[[^\]]*\]\s*`)

	// duplicateYearPattern finds year pairs like "2025/2025".
	duplicateYearPattern = regexp.MustCompile(`(\d{4})/(\d{4})`)

	// bracketSpanPattern finds bracketed spans inside a caption line.
	bracketSpanPattern = regexp.MustCompile(`\[([^\]]+)\]`)

	// leadingJunkPattern marks lines starting with a URL, hashtag,
	// mention, or WhatsApp link.
	leadingJunkPattern = regexp.MustCompile(`^(?:https?://|#|@|wa\.me)`)
)

// CleanTitle normalizes an explicit title: announcement prefixes and
// bracketed tags are stripped, duplicated year ranges like "2025/2025"
// collapse to a single year.
func CleanTitle(title string) string {
	s := strings.TrimSpace(title)
	if s == "" {
		return ""
	}
	s = announcementPrefixPattern.ReplaceAllString(s, "")
	s = bracketTagPattern.ReplaceAllString(s, "")
	s = duplicateYearPattern.ReplaceAllStringFunc(s, func(m string) string {
		years := strings.SplitN(m, "/", 2)
		if years[0] == years[1] {
			return years[0]
		}
		return m
	})
	return strings.TrimSpace(s)
}

// TitleExtractor derives a clean title from a free-form caption when no
// structured title field exists.
type TitleExtractor struct {
	rules *config.Rules
}

// NewTitleExtractor builds a TitleExtractor over the given lexicon.
func NewTitleExtractor(rules *config.Rules) *TitleExtractor {
	return &TitleExtractor{rules: rules}
}

// ExtractFromCaption picks the most title-like line of a caption.
//
// A bracketed span of 15-120 characters whose content scores positively
// is the strongest signal and wins immediately. Otherwise every line is
// scored and the best positively-scoring line is cleaned and returned.
// Returns "" when nothing qualifies.
func (t *TitleExtractor) ExtractFromCaption(caption string) string {
	var lines []string
	for _, line := range strings.Split(caption, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	for _, line := range lines {
		for _, m := range bracketSpanPattern.FindAllStringSubmatch(line, -1) {
			content := strings.TrimSpace(m[1])
			n := utf8.RuneCountInString(content)
			if n >= 15 && n <= 120 && t.ScoreLine(content) > 0 {
				return content
			}
		}
	}

	type scored struct {
		line  string
		score int
	}
	var candidates []scored
	for _, line := range lines {
		if s := t.ScoreLine(line); s > 0 {
			candidates = append(candidates, scored{line, s})
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	return CleanTitle(candidates[0].line)
}

// ScoreLine rates how title-like a single line is. Positive scores are
// title candidates; announcement noise, link lines, and very short or
// very long lines score negative.
func (t *TitleExtractor) ScoreLine(line string) int {
	score := 0
	lower := strings.ToLower(line)

	for _, phrase := range t.rules.NoisePhrases {
		if strings.Contains(lower, phrase) {
			score -= 100
			break
		}
	}
	if leadingJunkPattern.MatchString(lower) {
		score -= 50
	}

	words := strings.Fields(line)
	if len(words) < 3 {
		score -= 20
	}

	length := utf8.RuneCountInString(line)
	if length > 150 {
		score -= 20
	}
	if length >= 15 && length <= 120 {
		score += 30
	}

	if len(words) > 2 && isTitleCase(words) {
		score += 50
	}

	for _, kw := range t.rules.TitleKeywords {
		if strings.Contains(lower, kw) {
			score += 40
			break
		}
	}

	for _, w := range words {
		if utf8.RuneCountInString(w) > 3 && isAllUpper(w) {
			score += 20
			break
		}
	}

	return score
}

// isTitleCase reports whether every significant word (longer than three
// runes) starts with an uppercase letter.
func isTitleCase(words []string) bool {
	significant := false
	for _, w := range words {
		r, _ := utf8.DecodeRuneInString(strings.TrimLeft(w, `"'([{`))
		if !unicode.IsLetter(r) || utf8.RuneCountInString(w) <= 3 {
			continue
		}
		significant = true
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return significant
}

// isAllUpper reports whether a word is fully uppercase and contains at
// least one letter, an acronym or proper-noun signal.
func isAllUpper(word string) bool {
	hasLetter := false
	for _, r := range word {
		if !unicode.IsLetter(r) {
			continue
		}
		hasLetter = true
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return hasLetter
}
