package claims

import (
	"strings"
	"time"

	"github.com/claimease/claimease/internal/platform/apperr"
	"github.com/claimease/claimease/pkg/civil"
)

type Status string

const (
	StatusPending     Status = "Pending"
	StatusUnderReview Status = "Under Review"
	StatusApproved    Status = "Approved"
	StatusRejected    Status = "Rejected"
	StatusSettled     Status = "Settled"
)

type ClaimType string

const (
	ClaimTypeCashless      ClaimType = "Cashless"
	ClaimTypeReimbursement ClaimType = "Reimbursement"
)

func (t ClaimType) Valid() bool {
	return t == ClaimTypeCashless || t == ClaimTypeReimbursement
}

// Claim is a request for cashless settlement or reimbursement. PolicyID is
// the claimant's policy at submission time and does not follow later
// policy changes.
type Claim struct {
	ClaimID          int64       `json:"claim_id"`
	ClaimNumber      string      `json:"claim_number"`
	UserID           int64       `json:"user_id"`
	HospitalID       int64       `json:"hospital_id"`
	PolicyID         int64       `json:"policy_id"`
	ClaimType        ClaimType   `json:"claim_type"`
	TreatmentType    string      `json:"treatment_type"`
	AdmissionDate    *civil.Date `json:"admission_date"`
	DischargeDate    *civil.Date `json:"discharge_date"`
	ClaimDate        time.Time   `json:"claim_date"`
	Status           Status      `json:"claim_status"`
	ClaimAmount      float64     `json:"claim_amount"`
	ApprovedAmount   *float64    `json:"approved_amount"`
	RejectedReason   *string     `json:"rejected_reason"`
	SettlementDate   *time.Time  `json:"settlement_date"`
	Diagnosis        string      `json:"diagnosis"`
	TreatmentDetails string      `json:"treatment_details"`
	DoctorName       string      `json:"doctor_name"`
	RoomType         string      `json:"room_type"`
	IsEmergency      bool        `json:"is_emergency"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// ClaimSummary is a claim list row.
type ClaimSummary struct {
	Claim
	HospitalName string `json:"hospital_name"`
	PolicyName   string `json:"policy_name"`
	CompanyName  string `json:"company_name"`
}

// ClaimDetail is a single claim with its hospital, policy, insurer and
// documents.
type ClaimDetail struct {
	Claim
	HospitalName   string      `json:"hospital_name"`
	HospitalPhone  *string     `json:"hospital_phone"`
	PolicyName     string      `json:"policy_name"`
	CoverageAmount float64     `json:"coverage_amount"`
	CompanyName    string      `json:"company_name"`
	Helpline       *string     `json:"helpline"`
	Documents      []*Document `json:"documents"`
}

// Document is a file attached to a claim. FilePath is the blob-store
// reference and is not rendered to callers.
type Document struct {
	DocumentID   int64     `json:"document_id"`
	ClaimID      int64     `json:"claim_id"`
	DocumentType string    `json:"document_type"`
	DocumentName string    `json:"document_name"`
	FilePath     string    `json:"-"`
	FileSize     int64     `json:"file_size"`
	MimeType     string    `json:"mime_type"`
	UploadedBy   int64     `json:"uploaded_by"`
	UploadDate   time.Time `json:"upload_date"`
	IsVerified   bool      `json:"is_verified"`
}

// SubmitRequest is the claim submission payload.
type SubmitRequest struct {
	HospitalID       *int64      `json:"hospital_id"`
	ClaimType        string      `json:"claim_type"`
	TreatmentType    string      `json:"treatment_type"`
	ClaimAmount      *float64    `json:"claim_amount"`
	Diagnosis        string      `json:"diagnosis"`
	AdmissionDate    *civil.Date `json:"admission_date"`
	DischargeDate    *civil.Date `json:"discharge_date"`
	TreatmentDetails string      `json:"treatment_details"`
	DoctorName       string      `json:"doctor_name"`
	RoomType         string      `json:"room_type"`
	IsEmergency      bool        `json:"is_emergency"`
}

// Validate checks required fields in the order hospital_id, claim_type,
// treatment_type, claim_amount, diagnosis and reports the first one missing,
// then checks values.
func (r *SubmitRequest) Validate() error {
	switch {
	case r.HospitalID == nil:
		return apperr.Required("hospital_id")
	case strings.TrimSpace(r.ClaimType) == "":
		return apperr.Required("claim_type")
	case strings.TrimSpace(r.TreatmentType) == "":
		return apperr.Required("treatment_type")
	case r.ClaimAmount == nil:
		return apperr.Required("claim_amount")
	case strings.TrimSpace(r.Diagnosis) == "":
		return apperr.Required("diagnosis")
	}

	if *r.HospitalID <= 0 {
		return apperr.Validation("hospital_id", "hospital_id must be a positive integer")
	}
	if !ClaimType(r.ClaimType).Valid() {
		return apperr.Validation("claim_type", "claim_type must be Cashless or Reimbursement")
	}
	if *r.ClaimAmount <= 0 {
		return apperr.Validation("claim_amount", "claim_amount must be greater than zero")
	}
	if r.AdmissionDate != nil && r.AdmissionDate.IsZero() {
		r.AdmissionDate = nil
	}
	if r.DischargeDate != nil && r.DischargeDate.IsZero() {
		r.DischargeDate = nil
	}
	if r.AdmissionDate != nil && r.DischargeDate != nil && r.DischargeDate.Before(*r.AdmissionDate) {
		return apperr.Validation("discharge_date", "discharge_date cannot be before admission_date")
	}
	return nil
}

// UploadInput is a document upload after multipart decoding.
type UploadInput struct {
	ClaimID      string
	DocumentType string
	FileName     string
	Content      []byte
}
