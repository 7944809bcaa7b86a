// Package record defines the data model shared by collectors, the
// normalization engine, and persistence.
//
// A RawEvent is whatever a collector managed to extract from a source:
// every field is optional and untrusted. The normalization engine turns it
// into a CanonicalEvent, which is internally consistent (price range
// ordered, dates repaired, deadline present whenever any date information
// exists) and immutable once produced.
package record
