package claims

import (
	"strings"
	"time"

	"github.com/claimease/claimease/internal/platform/apperr"
)

// transitions lists the statuses reachable from each status. Rejected and
// Settled are terminal.
var transitions = map[Status][]Status{
	StatusPending:     {StatusUnderReview},
	StatusUnderReview: {StatusApproved, StatusRejected},
	StatusApproved:    {StatusSettled},
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusUnderReview, StatusApproved, StatusRejected, StatusSettled:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusSettled
}

// ParseStatus accepts the canonical names and the compact "UnderReview".
func ParseStatus(s string) (Status, error) {
	st := Status(strings.TrimSpace(s))
	if strings.EqualFold(string(st), "UnderReview") {
		st = StatusUnderReview
	}
	if !st.Valid() {
		return "", apperr.Validation("to", "unknown claim status "+s)
	}
	return st, nil
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition is an adjudication step requested by the back office.
type Transition struct {
	To             Status
	ApprovedAmount *float64
	Reason         string
}

// Apply moves c to t.To if the step is allowed and the result satisfies
// CheckInvariants. c is left untouched on error.
func (t Transition) Apply(c *Claim, coverage float64, now time.Time) error {
	if !CanTransition(c.Status, t.To) {
		return apperr.Validation("to", "claim cannot move from "+string(c.Status)+" to "+string(t.To))
	}

	next := *c
	next.Status = t.To
	switch t.To {
	case StatusApproved:
		if t.ApprovedAmount == nil {
			return apperr.Required("approved_amount")
		}
		amt := roundAmount(*t.ApprovedAmount)
		next.ApprovedAmount = &amt
	case StatusRejected:
		reason := strings.TrimSpace(t.Reason)
		if reason == "" {
			return apperr.Required("reason")
		}
		next.RejectedReason = &reason
	case StatusSettled:
		settled := now.UTC()
		next.SettlementDate = &settled
	}
	if t.To != StatusApproved && t.ApprovedAmount != nil {
		return apperr.Validation("approved_amount", "approved_amount is only accepted when approving")
	}

	if err := CheckInvariants(&next, coverage); err != nil {
		return err
	}
	next.UpdatedAt = now.UTC()
	*c = next
	return nil
}

// CheckInvariants verifies the amount and reason rules for c's status.
// approved_amount is present exactly when the claim is Approved or Settled
// and is bounded by both claim_amount and the policy coverage; a
// rejected_reason is present exactly when the claim is Rejected.
func CheckInvariants(c *Claim, coverage float64) error {
	decided := c.Status == StatusApproved || c.Status == StatusSettled
	switch {
	case decided && c.ApprovedAmount == nil:
		return apperr.Required("approved_amount")
	case !decided && c.ApprovedAmount != nil:
		return apperr.Validation("approved_amount", "approved_amount is only set on approved or settled claims")
	}
	if c.ApprovedAmount != nil {
		amt := *c.ApprovedAmount
		if amt <= 0 {
			return apperr.Validation("approved_amount", "approved_amount must be greater than zero")
		}
		if amt > c.ClaimAmount {
			return apperr.Validation("approved_amount", "approved_amount cannot exceed claim_amount")
		}
		if amt > coverage {
			return apperr.Validation("approved_amount", "approved_amount cannot exceed the policy coverage")
		}
	}

	rejected := c.Status == StatusRejected
	if rejected != (c.RejectedReason != nil) {
		if rejected {
			return apperr.Required("reason")
		}
		return apperr.Validation("reason", "rejected_reason is only set on rejected claims")
	}
	if (c.Status == StatusSettled) != (c.SettlementDate != nil) {
		return apperr.Validation("settlement_date", "settlement_date is set exactly when a claim is settled")
	}
	return nil
}
