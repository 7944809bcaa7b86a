// Package storage persists canonical events in SQLite.
//
// The store owns the schema and the upsert semantics: events are keyed
// by their stable key so re-scrapes update the existing row instead of
// duplicating it, and category links are replaced wholesale on every
// upsert. The category taxonomy itself is seed data the store only
// reads back.
package storage
