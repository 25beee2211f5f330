package claims

import (
	"testing"
	"time"

	"github.com/claimease/claimease/internal/platform/apperr"
)

func amount(v float64) *float64 { return &v }

func TestCanTransition(t *testing.T) {
	all := []Status{StatusPending, StatusUnderReview, StatusApproved, StatusRejected, StatusSettled}
	allowed := map[[2]Status]bool{
		{StatusPending, StatusUnderReview}:  true,
		{StatusUnderReview, StatusApproved}: true,
		{StatusUnderReview, StatusRejected}: true,
		{StatusApproved, StatusSettled}:     true,
	}
	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]Status{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%q, %q) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestStatus_Terminal(t *testing.T) {
	for _, s := range []Status{StatusRejected, StatusSettled} {
		if !s.Terminal() {
			t.Errorf("%q should be terminal", s)
		}
		if len(transitions[s]) != 0 {
			t.Errorf("%q must have no outgoing transitions", s)
		}
	}
	if StatusPending.Terminal() {
		t.Error("Pending is not terminal")
	}
}

func TestParseStatus(t *testing.T) {
	if s, err := ParseStatus("UnderReview"); err != nil || s != StatusUnderReview {
		t.Errorf("expected Under Review, got %q (%v)", s, err)
	}
	if s, err := ParseStatus("Approved"); err != nil || s != StatusApproved {
		t.Errorf("expected Approved, got %q (%v)", s, err)
	}
	if _, err := ParseStatus("Paid"); !apperr.HasKind(err, apperr.KindValidation) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestTransition_FullApprovalPath(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	c := &Claim{Status: StatusPending, ClaimAmount: 50000}

	if err := (Transition{To: StatusUnderReview}).Apply(c, 300000, now); err != nil {
		t.Fatalf("to Under Review: %v", err)
	}
	if err := (Transition{To: StatusApproved, ApprovedAmount: amount(42000.456)}).Apply(c, 300000, now); err != nil {
		t.Fatalf("to Approved: %v", err)
	}
	if c.ApprovedAmount == nil || *c.ApprovedAmount != 42000.46 {
		t.Errorf("expected approved amount rounded to 42000.46, got %v", c.ApprovedAmount)
	}
	if err := (Transition{To: StatusSettled}).Apply(c, 300000, now); err != nil {
		t.Fatalf("to Settled: %v", err)
	}
	if c.SettlementDate == nil || !c.SettlementDate.Equal(now) {
		t.Errorf("expected settlement date %v, got %v", now, c.SettlementDate)
	}
	if !c.UpdatedAt.Equal(now) {
		t.Errorf("expected updated_at %v, got %v", now, c.UpdatedAt)
	}
}

func TestTransition_Reject(t *testing.T) {
	c := &Claim{Status: StatusUnderReview, ClaimAmount: 1000}

	if err := (Transition{To: StatusRejected}).Apply(c, 5000, time.Now()); !apperr.HasKind(err, apperr.KindValidation) {
		t.Errorf("expected reason to be required, got %v", err)
	}
	if c.Status != StatusUnderReview {
		t.Error("claim must be unchanged after a failed transition")
	}

	if err := (Transition{To: StatusRejected, Reason: "  pre-existing condition  "}).Apply(c, 5000, time.Now()); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if c.RejectedReason == nil || *c.RejectedReason != "pre-existing condition" {
		t.Errorf("unexpected reason %v", c.RejectedReason)
	}
	if err := (Transition{To: StatusSettled}).Apply(c, 5000, time.Now()); err == nil {
		t.Error("rejected claims are terminal")
	}
}

func TestTransition_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		claim    Claim
		tr       Transition
		coverage float64
		field    string
	}{
		{"skip review", Claim{Status: StatusPending, ClaimAmount: 100}, Transition{To: StatusApproved, ApprovedAmount: amount(50)}, 1000, "to"},
		{"settle pending", Claim{Status: StatusPending, ClaimAmount: 100}, Transition{To: StatusSettled}, 1000, "to"},
		{"approve without amount", Claim{Status: StatusUnderReview, ClaimAmount: 100}, Transition{To: StatusApproved}, 1000, "approved_amount"},
		{"approve above claim", Claim{Status: StatusUnderReview, ClaimAmount: 100}, Transition{To: StatusApproved, ApprovedAmount: amount(101)}, 1000, "approved_amount"},
		{"approve above coverage", Claim{Status: StatusUnderReview, ClaimAmount: 900000}, Transition{To: StatusApproved, ApprovedAmount: amount(600000)}, 500000, "approved_amount"},
		{"approve zero", Claim{Status: StatusUnderReview, ClaimAmount: 100}, Transition{To: StatusApproved, ApprovedAmount: amount(0)}, 1000, "approved_amount"},
		{"amount on review", Claim{Status: StatusPending, ClaimAmount: 100}, Transition{To: StatusUnderReview, ApprovedAmount: amount(10)}, 1000, "approved_amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.claim
			err := tt.tr.Apply(&c, tt.coverage, time.Now())
			ae, ok := err.(*apperr.Error)
			if !ok || ae.Kind != apperr.KindValidation {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ae.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, ae.Field)
			}
			if c != tt.claim {
				t.Error("claim must be unchanged after a failed transition")
			}
		})
	}
}

func TestCheckInvariants(t *testing.T) {
	reason := "duplicate"
	settled := time.Now()
	tests := []struct {
		name  string
		claim Claim
		ok    bool
	}{
		{"pending", Claim{Status: StatusPending, ClaimAmount: 10}, true},
		{"pending with approval", Claim{Status: StatusPending, ClaimAmount: 10, ApprovedAmount: amount(5)}, false},
		{"approved", Claim{Status: StatusApproved, ClaimAmount: 10, ApprovedAmount: amount(10)}, true},
		{"approved missing amount", Claim{Status: StatusApproved, ClaimAmount: 10}, false},
		{"rejected", Claim{Status: StatusRejected, ClaimAmount: 10, RejectedReason: &reason}, true},
		{"rejected without reason", Claim{Status: StatusRejected, ClaimAmount: 10}, false},
		{"reason on review", Claim{Status: StatusUnderReview, ClaimAmount: 10, RejectedReason: &reason}, false},
		{"settled", Claim{Status: StatusSettled, ClaimAmount: 10, ApprovedAmount: amount(8), SettlementDate: &settled}, true},
		{"settled without date", Claim{Status: StatusSettled, ClaimAmount: 10, ApprovedAmount: amount(8)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckInvariants(&tt.claim, 100)
			if (err == nil) != tt.ok {
				t.Errorf("CheckInvariants = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}
