package normalize

import "github.com/lombahub/lomba-events/internal/record"

// RepairDates enforces the cross-field ordering invariants on a merged
// date triple:
//
//   - an event end before the event start is discarded
//   - a missing event end is backfilled from the start
//   - a deadline earlier than the event start is assumed mislabeled and
//     the two are swapped
//
// The swap is a policy decision, not a proof of correctness: in typical
// source phrasing a registration deadline does not postdate the event it
// gates, so an inverted pair is treated as mutually mislabeled. Kept as a
// separate step so the policy stays independently testable.
func RepairDates(t record.DateTriple) record.DateTriple {
	if t.EventStart != nil && t.EventEnd != nil && t.EventEnd.Before(*t.EventStart) {
		t.EventEnd = nil
	}
	if t.EventStart != nil && t.EventEnd == nil {
		t.EventEnd = t.EventStart
	}
	if t.Deadline != nil && t.EventStart != nil && t.Deadline.Before(*t.EventStart) {
		t.Deadline, t.EventStart = t.EventStart, t.Deadline
	}
	return t
}
