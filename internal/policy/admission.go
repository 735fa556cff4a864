/**
 * @description
 * Package policy holds the pure decision logic for workshop admission and
 * refund eligibility. Nothing in this package performs I/O: callers read the
 * relevant snapshot (counts, statuses, dates) from the store and hand it in,
 * and the returned decision is valid only for that snapshot.
 */
package policy

// Admit decides whether a new attendee registration is accepted into a
// workshop. Priority registrations always admit: capacity bounds only the
// non-priority headcount, so coordinators can guarantee seats for VIP or
// beginner-priority cases even on a full workshop. A capacity of 0 therefore
// never admits a non-priority attendee.
//
// The currentNonPriorityCount must be read under the same transaction that
// will insert the registration; two concurrent requests reading a stale count
// would otherwise both be admitted under capacity.
func Admit(currentNonPriorityCount, capacity int, isPriority bool) bool {
	if isPriority {
		return true
	}
	return currentNonPriorityCount < capacity
}
