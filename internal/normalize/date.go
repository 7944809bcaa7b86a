package normalize

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lombahub/lomba-events/internal/config"
	"github.com/lombahub/lomba-events/internal/record"
)

const monthAlternation = `january|february|march|april|may|june|july|august|september|october|november|december`

var (
	// dayRangeMonthPattern matches compact day ranges like "15-20 feb 2025"
	// and yields both endpoints.
	dayRangeMonthPattern = regexp.MustCompile(`\b(\d{1,2})\s*[-–]\s*(\d{1,2})\s+(` + monthAlternation + `)(?:\s+(\d{4}))?\b`)

	// dayMonthPattern matches "10 january" or "10 january 2025".
	dayMonthPattern = regexp.MustCompile(`\b(\d{1,2})\s+(` + monthAlternation + `)(?:\s+(\d{4}))?\b`)

	// monthDayPattern matches "january 10, 2025" and "january 10".
	monthDayPattern = regexp.MustCompile(`\b(` + monthAlternation + `)\s+(\d{1,2})(?:,?\s+(\d{4}))?\b`)

	// numericDatePattern matches day-first numeric dates like "10/01/2025"
	// or "10-1-25".
	numericDatePattern = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})\b`)

	bareDayPattern   = regexp.MustCompile(`^\d{1,2}$`)
	explicitYearPattern = regexp.MustCompile(`\b\d{4}\b`)
)

var monthIndex = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

// Resolver extracts calendar dates from free text and assigns each to one
// of three roles: registration deadline, event start, event end.
//
// Resolution is a layered strategy chain: keyword-scoped clause analysis
// first, then direct " - " range parsing, then a positional search over
// the whole text as the terminal fallback. Each strategy only fills roles
// the previous ones left open.
type Resolver struct {
	rules *config.Rules

	// Now supplies the reference moment for resolving yearless dates.
	// Overridable in tests.
	Now func() time.Time

	monthPattern *regexp.Regexp
}

// NewResolver builds a Resolver over the given lexicon.
func NewResolver(rules *config.Rules) *Resolver {
	names := make([]string, 0, len(rules.Months))
	for name := range rules.Months {
		names = append(names, regexp.QuoteMeta(name))
	}
	// Stable alternation order keeps the compiled pattern deterministic.
	sort.Strings(names)

	return &Resolver{
		rules:        rules,
		Now:          time.Now,
		monthPattern: regexp.MustCompile(`\b(` + strings.Join(names, "|") + `)\b`),
	}
}

type dateStrategy func(text string, cur record.DateTriple) (record.DateTriple, bool)

// Resolve parses all dates it can find in text and assigns them to roles.
// A trimmed text of exactly "-" is the explicit no-date sentinel. The
// result is not yet repaired for cross-field consistency; callers apply
// RepairDates after merging in collector-supplied dates.
func (r *Resolver) Resolve(text string) record.DateTriple {
	var triple record.DateTriple

	trimmed := strings.TrimSpace(text)
	if trimmed == "" || trimmed == "-" {
		return triple
	}

	norm := r.normalizeText(text)
	strategies := []dateStrategy{
		r.resolveByClause,
		r.resolveRange,
		r.resolveBySearch,
	}
	for _, strat := range strategies {
		next, ok := strat(norm, triple)
		if !ok {
			continue
		}
		triple = next
		if triple.Deadline != nil && triple.EventStart != nil && triple.EventEnd != nil {
			break
		}
	}
	return triple
}

// normalizeText lowercases and maps Indonesian month names to English so
// the date patterns recognize them.
func (r *Resolver) normalizeText(text string) string {
	lower := strings.ToLower(text)
	return r.monthPattern.ReplaceAllStringFunc(lower, func(m string) string {
		if full, ok := r.rules.Months[m]; ok {
			return full
		}
		return m
	})
}

var clauseSplitPattern = regexp.MustCompile(`[.,;\n]`)

// resolveByClause splits the text into clauses and uses deadline/event
// keywords to assign the dates found inside each clause to a role.
// Free text frequently has no role keywords at all, in which case this
// strategy contributes nothing.
func (r *Resolver) resolveByClause(text string, cur record.DateTriple) (record.DateTriple, bool) {
	changed := false
	for _, clause := range clauseSplitPattern.Split(text, -1) {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		dates := r.searchDates(clause)
		if len(dates) == 0 {
			continue
		}

		switch {
		case containsAny(clause, r.rules.DeadlineKeywords):
			if cur.Deadline == nil {
				d := dates[len(dates)-1]
				cur.Deadline = &d
				changed = true
			}
		case containsAny(clause, r.rules.EventKeywords):
			if cur.EventStart == nil {
				d := dates[0]
				cur.EventStart = &d
				changed = true
			}
			if len(dates) > 1 && cur.EventEnd == nil {
				d := dates[len(dates)-1]
				cur.EventEnd = &d
				changed = true
			}
		}
	}
	return cur, changed
}

// resolveRange handles texts shaped like "10 Jan - 20 Feb 2025": the span
// after " - " is parsed as a full date, and the span before it borrows
// the end date's month or year where its own is missing.
func (r *Resolver) resolveRange(text string, cur record.DateTriple) (record.DateTriple, bool) {
	idx := strings.Index(text, " - ")
	if idx < 0 {
		return cur, false
	}

	startSpan := strings.TrimSpace(text[:idx])
	endSpan := strings.TrimSpace(text[idx+3:])

	endDates := r.searchDates(endSpan)
	if len(endDates) == 0 {
		return cur, false
	}
	end := endDates[0]

	var start time.Time
	if bareDayPattern.MatchString(startSpan) {
		day, _ := strconv.Atoi(startSpan)
		d, ok := makeDate(day, end.Month(), end.Year())
		if !ok {
			return cur, false
		}
		start = d
	} else {
		span := startSpan
		if !explicitYearPattern.MatchString(span) {
			span += " " + strconv.Itoa(end.Year())
		}
		startDates := r.searchDates(span)
		if len(startDates) == 0 {
			return cur, false
		}
		start = startDates[0]
	}

	// A start after the end means the span crossed a year boundary,
	// e.g. "20 Des - 5 Jan 2026".
	if start.After(end) {
		start = start.AddDate(-1, 0, 0)
	}

	if cur.EventStart == nil {
		cur.EventStart = &start
	}
	if cur.EventEnd == nil {
		cur.EventEnd = &end
	}
	if cur.Deadline == nil {
		// First approximation; the repair step may still swap roles.
		cur.Deadline = &end
	}
	return cur, true
}

// resolveBySearch is the terminal positional fallback: every date-like
// substring in the whole text, latest as deadline, earliest as start.
// A lone date serves as deadline and event date simultaneously.
func (r *Resolver) resolveBySearch(text string, cur record.DateTriple) (record.DateTriple, bool) {
	dates := r.searchDates(text)
	if len(dates) == 0 {
		return cur, false
	}

	if cur.Deadline == nil {
		d := dates[len(dates)-1]
		cur.Deadline = &d
	}
	if cur.EventStart == nil {
		s := dates[0]
		cur.EventStart = &s
	}
	if cur.EventEnd == nil {
		e := dates[len(dates)-1]
		cur.EventEnd = &e
	}
	return cur, true
}

// searchDates finds every date-like substring carrying at least a day and
// a month, returned deduplicated in ascending order. Yearless dates
// resolve to the soonest occurrence at or after the current moment.
func (r *Resolver) searchDates(text string) []time.Time {
	var (
		found   []time.Time
		claimed [][2]int
	)

	overlaps := func(start, end int) bool {
		for _, c := range claimed {
			if start < c[1] && end > c[0] {
				return true
			}
		}
		return false
	}
	claim := func(start, end int) {
		claimed = append(claimed, [2]int{start, end})
	}

	for _, m := range dayRangeMonthPattern.FindAllStringSubmatchIndex(text, -1) {
		day1, _ := strconv.Atoi(text[m[2]:m[3]])
		day2, _ := strconv.Atoi(text[m[4]:m[5]])
		month := monthIndex[text[m[6]:m[7]]]
		year := r.resolveYear(text, m[8], m[9], day2, month)
		d1, ok1 := makeDate(day1, month, year)
		d2, ok2 := makeDate(day2, month, year)
		if !ok1 || !ok2 {
			continue
		}
		found = append(found, d1, d2)
		claim(m[0], m[1])
	}

	for _, m := range dayMonthPattern.FindAllStringSubmatchIndex(text, -1) {
		if overlaps(m[0], m[1]) {
			continue
		}
		day, _ := strconv.Atoi(text[m[2]:m[3]])
		month := monthIndex[text[m[4]:m[5]]]
		year := r.resolveYear(text, m[6], m[7], day, month)
		if d, ok := makeDate(day, month, year); ok {
			found = append(found, d)
			claim(m[0], m[1])
		}
	}

	for _, m := range monthDayPattern.FindAllStringSubmatchIndex(text, -1) {
		if overlaps(m[0], m[1]) {
			continue
		}
		month := monthIndex[text[m[2]:m[3]]]
		day, _ := strconv.Atoi(text[m[4]:m[5]])
		year := r.resolveYear(text, m[6], m[7], day, month)
		if d, ok := makeDate(day, month, year); ok {
			found = append(found, d)
			claim(m[0], m[1])
		}
	}

	for _, m := range numericDatePattern.FindAllStringSubmatchIndex(text, -1) {
		if overlaps(m[0], m[1]) {
			continue
		}
		day, _ := strconv.Atoi(text[m[2]:m[3]])
		monthNum, _ := strconv.Atoi(text[m[4]:m[5]])
		year, _ := strconv.Atoi(text[m[6]:m[7]])
		if monthNum < 1 || monthNum > 12 {
			continue
		}
		if year < 100 {
			year += 2000
		}
		if d, ok := makeDate(day, time.Month(monthNum), year); ok {
			found = append(found, d)
			claim(m[0], m[1])
		}
	}

	return dedupeSorted(found)
}

// resolveYear reads an explicit year capture, or picks the soonest year
// placing the date at or after today.
func (r *Resolver) resolveYear(text string, start, end, day int, month time.Month) int {
	if start >= 0 && end > start {
		y, _ := strconv.Atoi(text[start:end])
		return y
	}
	now := r.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if d, ok := makeDate(day, month, now.Year()); ok && !d.Before(today) {
		return now.Year()
	}
	return now.Year() + 1
}

// makeDate builds a midnight-UTC date, rejecting impossible combinations
// like February 31st.
func makeDate(day int, month time.Month, year int) (time.Time, bool) {
	if day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || d.Month() != month {
		return time.Time{}, false
	}
	return d, true
}

func dedupeSorted(dates []time.Time) []time.Time {
	if len(dates) == 0 {
		return nil
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	out := dates[:1]
	for _, d := range dates[1:] {
		if !d.Equal(out[len(out)-1]) {
			out = append(out, d)
		}
	}
	return out
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
