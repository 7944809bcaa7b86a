package normalize

import (
	"errors"
	"strings"
	"time"

	"github.com/lombahub/lomba-events/internal/config"
	"github.com/lombahub/lomba-events/internal/record"
)

// ErrNoTitle marks a record that produced no usable title after cleaning
// and caption extraction. Such records are invalid and must be excluded
// before persistence; the error is a per-record outcome, not a batch
// failure.
var ErrNoTitle = errors.New("no usable title after cleaning")

// Normalizer composes the engine components into one pass over a raw
// record. It is stateless across invocations and safe for concurrent use.
type Normalizer struct {
	dates        *Resolver
	titles       *TitleExtractor
	registration *RegistrationEnhancer
	classifier   *Classifier
}

// New builds a Normalizer over the given lexicon.
func New(rules *config.Rules) *Normalizer {
	return &Normalizer{
		dates:        NewResolver(rules),
		titles:       NewTitleExtractor(rules),
		registration: NewRegistrationEnhancer(rules),
		classifier:   NewClassifier(rules.CategoryKeywords),
	}
}

// Resolver exposes the date resolver, mainly so callers can pin its clock
// in tests.
func (n *Normalizer) Resolver() *Resolver {
	return n.dates
}

// Normalize turns one raw record into a canonical one.
//
// Sequence: registration/organizer enhancement first (its output feeds
// the fields used elsewhere), then title, price, and date resolution,
// then categorization over the finalized text, then the date consistency
// repairs. Text-derived dates take precedence over collector-supplied
// ones, but a collector-supplied start date is kept as fallback deadline:
// every canonical record ends up with a non-nil deadline if any date
// information existed at all.
//
// Returns the record together with ErrNoTitle when no title could be
// produced; every other malformed field degrades to its unknown value.
func (n *Normalizer) Normalize(raw record.RawEvent, taxonomy record.Taxonomy) (record.CanonicalEvent, error) {
	raw = n.registration.Enhance(raw)

	title := CleanTitle(raw.TitleRaw)
	if title == "" && raw.Description != "" {
		title = n.titles.ExtractFromCaption(raw.Description)
	}

	dates := n.dates.Resolve(raw.DateText)
	if dates.EventStart == nil && raw.EventStart != nil {
		s := midnightUTC(*raw.EventStart)
		dates.EventStart = &s
	}
	if dates.Deadline == nil {
		switch {
		case raw.EventStart != nil:
			d := midnightUTC(*raw.EventStart)
			dates.Deadline = &d
		case dates.EventEnd != nil:
			dates.Deadline = dates.EventEnd
		case dates.EventStart != nil:
			dates.Deadline = dates.EventStart
		}
	}
	dates = RepairDates(dates)

	description := strings.TrimSpace(raw.Description)

	ev := record.CanonicalEvent{
		StableKey:       record.StableKey(raw.SourceName, title),
		Title:           title,
		Description:     description,
		URL:             raw.URL,
		PosterURL:       raw.PosterURL,
		RegistrationURL: raw.RegistrationURL,
		Organizer:       raw.Organizer,
		Location:        raw.Location,
		Participant:     raw.Participant,
		SourceName:      raw.SourceName,
		Price:           ParsePrice(raw.PriceText),
		Dates:           dates,
		CategoryIDs:     n.classifier.Classify(title, description, taxonomy),
		FirstSeen:       time.Now().UTC(),
	}

	if title == "" {
		return ev, ErrNoTitle
	}
	return ev, nil
}

func midnightUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
