package record

import (
	"crypto/sha1"
	"fmt"
	"strings"
	"time"
)

// RawEvent is a collector's view of a single event. Any field may be
// missing, empty, or malformed; the normalization engine never trusts it.
type RawEvent struct {
	TitleRaw        string `json:"title_raw,omitempty"`
	Description     string `json:"description,omitempty"`
	PriceText       string `json:"price_text,omitempty"`
	DateText        string `json:"date_text,omitempty"`
	RegistrationURL string `json:"registration_url,omitempty"`
	Organizer       string `json:"organizer,omitempty"`
	URL             string `json:"url,omitempty"`
	PosterURL       string `json:"poster_url,omitempty"`
	Location        string `json:"location,omitempty"`
	Participant     string `json:"participant,omitempty"`
	SourceName      string `json:"source_name,omitempty"`

	// EventStart is a collector-supplied start date, e.g. a social post
	// timestamp. Dates parsed from text take precedence over it.
	EventStart *time.Time `json:"event_start,omitempty"`
}

// PriceRange is a parsed price span. Both nil means the price is unknown;
// both pointing at zero means the event is explicitly free.
type PriceRange struct {
	Min *int `json:"price_min"`
	Max *int `json:"price_max"`
}

// Free reports whether the price was explicitly marked free.
func (p PriceRange) Free() bool {
	return p.Min != nil && p.Max != nil && *p.Min == 0 && *p.Max == 0
}

// Unknown reports whether no price information was found.
func (p PriceRange) Unknown() bool {
	return p.Min == nil && p.Max == nil
}

// DateTriple holds the three date roles of an event, all normalized to
// midnight UTC. Any role may be nil when the source text did not yield it.
type DateTriple struct {
	Deadline   *time.Time `json:"deadline"`
	EventStart *time.Time `json:"event_start"`
	EventEnd   *time.Time `json:"event_end"`
}

// Empty reports whether no date role was resolved.
func (d DateTriple) Empty() bool {
	return d.Deadline == nil && d.EventStart == nil && d.EventEnd == nil
}

// Category is one entry of the externally owned taxonomy.
type Category struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name,omitempty"`
}

// Taxonomy is the ordered category list loaded once per run from the
// catalog. The engine only ever associates existing ids with records.
type Taxonomy []Category

// CanonicalEvent is the fully normalized output of the engine, ready for
// persistence. Constructed once per raw record; immutable afterward.
type CanonicalEvent struct {
	ID              string     `json:"id,omitempty"`
	StableKey       string     `json:"stable_key"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	URL             string     `json:"url,omitempty"`
	PosterURL       string     `json:"poster_url,omitempty"`
	RegistrationURL string     `json:"registration_url,omitempty"`
	Organizer       string     `json:"organizer,omitempty"`
	Location        string     `json:"location,omitempty"`
	Participant     string     `json:"participant,omitempty"`
	SourceName      string     `json:"source_name,omitempty"`
	Price           PriceRange `json:"price"`
	Dates           DateTriple `json:"dates"`
	CategoryIDs     []string   `json:"category_ids,omitempty"`
	FirstSeen       time.Time  `json:"first_seen,omitempty"`
}

// Expired reports whether the registration deadline has passed.
// Events without a deadline never expire.
func (e *CanonicalEvent) Expired(now time.Time) bool {
	return e.Dates.Deadline != nil && e.Dates.Deadline.Before(now)
}

// StableKey creates a stable identifier from the source name and the
// normalized title. The key survives re-scrapes where dates or prices
// changed, so upserts land on the same row.
func StableKey(source, title string) string {
	normalized := strings.ToLower(strings.TrimSpace(title))
	h := sha1.New()
	h.Write([]byte(source + "|" + normalized))
	return fmt.Sprintf("%x", h.Sum(nil))
}
