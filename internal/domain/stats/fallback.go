package stats

import (
	"math"
	"sort"

	"github.com/claimease/claimease/internal/domain/catalog"
)

// fallbackStates mirrors the seeded hospital_states table:
// name, public count, private count, public amount, private amount.
var fallbackStates = []struct {
	name                        string
	public, private             int64
	publicAmount, privateAmount float64
}{
	{"Andaman and Nicobar Islands", 8, 2, 0.01, 0.00},
	{"Andhra Pradesh", 660094, 305840, 693.57, 404.17},
	{"Arunachal Pradesh", 957, 9, 1.30, 0.01},
	{"Assam", 82154, 5866, 97.84, 7.30},
	{"Bihar", 33699, 1268, 34.92, 0.99},
	{"Chandigarh", 105, 13, 0.11, 0.02},
	{"Chhattisgarh", 214498, 92219, 281.48, 142.70},
	{"Dadra and Nagar Haveli and Daman and Diu", 3035, 22, 3.04, 0.02},
	{"Gujarat", 36898, 72465, 40.04, 83.71},
	{"Haryana", 41722, 2308, 34.39, 3.10},
	{"Himachal Pradesh", 428, 488, 0.43, 0.46},
	{"Jammu and Kashmir", 44494, 325, 50.94, 0.33},
	{"Jharkhand", 150277, 1546, 94.06, 1.14},
	{"Karnataka", 903417, 22361, 337.77, 20.49},
	{"Kerala", 85627, 78834, 78.37, 83.53},
	{"Ladakh", 1337, 0, 1.40, 0.00},
	{"Lakshadweep", 49, 1, 0.05, 0.00},
	{"Madhya Pradesh", 299232, 11755, 301.53, 13.23},
	{"Maharashtra", 4366, 7594, 5.39, 11.22},
	{"Manipur", 3365, 5440, 4.98, 8.08},
	{"Meghalaya", 9377, 6507, 6.11, 5.42},
	{"Mizoram", 4810, 35, 4.64, 0.02},
	{"Nagaland", 2200, 2564, 4.12, 4.94},
	{"Puducherry", 3940, 33, 4.50, 0.04},
	{"Punjab", 60260, 1491, 66.34, 1.81},
	{"Rajasthan", 538364, 28401, 471.55, 33.17},
	{"Sikkim", 193, 56, 0.23, 0.06},
	{"Tamil Nadu", 35389, 6436, 58.22, 12.61},
	{"Telangana", 62669, 6990, 93.60, 16.77},
	{"Tripura", 9568, 45, 11.41, 0.05},
	{"Uttar Pradesh", 60742, 11987, 67.62, 13.13},
	{"Uttarakhand", 6319, 10101, 7.40, 14.63},
}

// FallbackHospitalStates returns the snapshot ordered like the database
// listing, truncated to limit when limit is positive.
func FallbackHospitalStates(limit int) []*StateStat {
	out := make([]*StateStat, 0, len(fallbackStates))
	for _, s := range fallbackStates {
		out = append(out, &StateStat{
			StateName:              s.name,
			PublicHospitalsCount:   s.public,
			PrivateHospitalsCount:  s.private,
			PublicHospitalsAmount:  s.publicAmount,
			PrivateHospitalsAmount: s.privateAmount,
			TotalHospitals:         s.public + s.private,
			TotalAmount:            math.Round((s.publicAmount+s.privateAmount)*100) / 100,
			Source:                 SourceFallback,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalHospitals != out[j].TotalHospitals {
			return out[i].TotalHospitals > out[j].TotalHospitals
		}
		return out[i].StateName < out[j].StateName
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

// FallbackDashboard counts what the reference snapshots contain. Policy, user
// and claim figures are not part of any snapshot and stay empty.
func FallbackDashboard(topN int) *Dashboard {
	return &Dashboard{
		TotalHospitals:          int64(len(catalog.FallbackHospitals(catalog.HospitalFilter{}))),
		TotalInsuranceCompanies: int64(len(catalog.FallbackInsuranceCompanies())),
		ClaimsByStatus:          []StatusCount{},
		TopStatesByHospitals:    FallbackHospitalStates(topN),
		Source:                  SourceFallback,
	}
}
