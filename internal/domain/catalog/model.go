package catalog

import "time"

// SourceFallback tags rows served from the built-in snapshot.
const SourceFallback = "fallback_data"

type Hospital struct {
	HospitalID         int64      `json:"hospital_id"`
	HospitalName       string     `json:"hospital_name"`
	HospitalType       string     `json:"hospital_type"`
	RegistrationNumber string     `json:"registration_number,omitempty"`
	Address            string     `json:"address,omitempty"`
	City               string     `json:"city"`
	State              string     `json:"state"`
	Pincode            *string    `json:"pincode,omitempty"`
	ContactNumber      *string    `json:"contact_number,omitempty"`
	Email              *string    `json:"email,omitempty"`
	Website            *string    `json:"website,omitempty"`
	Specializations    []string   `json:"specializations,omitempty"`
	BedCapacity        *int       `json:"bed_capacity,omitempty"`
	Accreditation      *string    `json:"accreditation,omitempty"`
	IsActive           bool       `json:"is_active"`
	CreatedAt          *time.Time `json:"created_at,omitempty"`
	Source             string     `json:"source,omitempty"`
}

type InsuranceCompany struct {
	CompanyID     int64   `json:"company_id"`
	CompanyName   string  `json:"company_name"`
	CompanyCode   string  `json:"company_code,omitempty"`
	ContactNumber *string `json:"contact_number,omitempty"`
	Helpline      *string `json:"helpline,omitempty"`
	Email         *string `json:"email,omitempty"`
	Website       *string `json:"website,omitempty"`
	IsActive      bool    `json:"is_active"`
	Source        string  `json:"source,omitempty"`
}

type Policy struct {
	PolicyID            int64   `json:"policy_id"`
	CompanyID           int64   `json:"company_id"`
	CompanyName         string  `json:"company_name"`
	PolicyName          string  `json:"policy_name"`
	PolicyType          string  `json:"policy_type"`
	CoverageAmount      float64 `json:"coverage_amount"`
	PremiumAmount       float64 `json:"premium_amount"`
	WaitingPeriodMonths int     `json:"waiting_period_months"`
	IsActive            bool    `json:"is_active"`
}

// HospitalFilter narrows a hospital listing. City and State match as
// case-insensitive substrings, Type matches exactly. Empty fields are ignored.
type HospitalFilter struct {
	City  string
	State string
	Type  string
}
