/**
 * @description
 * Refund eligibility decision for per-registration cancellations. The first
 * matching rule wins; the reason strings surface verbatim in API error
 * responses, so they are written for humans.
 */
package policy

import (
	"time"

	"github.com/alessandrojcm/dhc-dashboard-sub005/internal/domain"
)

// Ineligibility reasons returned to callers.
const (
	ReasonWorkshopFinished  = "workshop has already finished"
	ReasonWorkshopCancelled = "workshop was cancelled"
	ReasonAlreadyProcessed  = "registration already processed"
	ReasonNoRefundWindow    = "no refund window configured for this workshop"
	ReasonDeadlinePassed    = "refund deadline has passed"
)

// RefundDecision is the outcome of a refund eligibility check. When Eligible
// is false, Reason explains why. When Eligible is true, DaysUntilDeadline is
// the number of whole days between now and the refund deadline, floored and
// never negative.
type RefundDecision struct {
	Eligible          bool   `json:"is_eligible"`
	Reason            string `json:"reason,omitempty"`
	DaysUntilDeadline int    `json:"days_until_deadline,omitempty"`
}

// RefundEligibility decides whether cancelling a registration qualifies for a
// monetary refund. now is passed explicitly so the function stays pure; the
// result holds only for the instant it was computed and must be recomputed at
// the moment a refund is actually issued.
//
// refundWindowDays is nil when the workshop has no refund window configured,
// which makes the registration categorically non-refundable via this path.
// A cancelled workshop is likewise non-refundable here: cancellation refunds
// are issued in bulk by a separate flow.
func RefundEligibility(now, workshopStartDate time.Time, refundWindowDays *int, workshopStatus, registrationStatus string) RefundDecision {
	if workshopStatus == domain.WorkshopFinished {
		return RefundDecision{Reason: ReasonWorkshopFinished}
	}
	if workshopStatus == domain.WorkshopCancelled {
		return RefundDecision{Reason: ReasonWorkshopCancelled}
	}
	if registrationStatus == domain.RegistrationRefunded || registrationStatus == domain.RegistrationCancelled {
		return RefundDecision{Reason: ReasonAlreadyProcessed}
	}
	if refundWindowDays == nil {
		return RefundDecision{Reason: ReasonNoRefundWindow}
	}

	deadline := workshopStartDate.AddDate(0, 0, -*refundWindowDays)
	if !now.Before(deadline) {
		return RefundDecision{Reason: ReasonDeadlinePassed}
	}

	days := int(deadline.Sub(now).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return RefundDecision{Eligible: true, DaysUntilDeadline: days}
}
