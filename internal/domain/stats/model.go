package stats

import "github.com/claimease/claimease/internal/domain/claims"

// SourceFallback tags responses built from the built-in snapshot.
const SourceFallback = "fallback_data"

// StateStat is the per-state hospital rollup. Amounts are in crore rupees.
type StateStat struct {
	StateName              string  `json:"state_name"`
	PublicHospitalsCount   int64   `json:"public_hospitals_count"`
	PrivateHospitalsCount  int64   `json:"private_hospitals_count"`
	PublicHospitalsAmount  float64 `json:"public_hospitals_amount"`
	PrivateHospitalsAmount float64 `json:"private_hospitals_amount"`
	TotalHospitals         int64   `json:"total_hospitals"`
	TotalAmount            float64 `json:"total_amount"`
	Source                 string  `json:"source,omitempty"`
}

type StatusCount struct {
	Status claims.Status `json:"claim_status"`
	Count  int64         `json:"count"`
}

type Dashboard struct {
	TotalHospitals          int64         `json:"total_hospitals"`
	TotalInsuranceCompanies int64         `json:"total_insurance_companies"`
	TotalPolicies           int64         `json:"total_policies"`
	TotalUsers              int64         `json:"total_users"`
	ClaimsByStatus          []StatusCount `json:"claims_by_status"`
	TopStatesByHospitals    []*StateStat  `json:"top_states_by_hospitals"`
	Source                  string        `json:"source,omitempty"`
}
