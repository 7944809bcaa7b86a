// Package normalize turns loosely structured, multilingual event text
// into canonical records.
//
// The engine is a set of pure functions over in-memory values: price
// parsing, date-role resolution, title extraction, registration and
// organizer inference, and keyword categorization, composed by
// Normalizer. Malformed input yields the unknown value for that field
// rather than an error; cross-field date inconsistencies are repaired,
// not rejected, because upstream text is inherently noisy. Everything is
// stateless and safe to run once per record in parallel.
package normalize
