// Package scraper collects raw event records from competition listing
// sites.
//
// The scraper fetches a listing page with retry, extracts one RawEvent
// per post container, and optionally deep-scrapes each detail page for
// the deadline line and a registration link. It performs no cleaning
// beyond whitespace trimming; everything it emits is untrusted input for
// the normalization engine.
package scraper
