package catalog

import (
	"sort"
	"strings"
)

func strp(s string) *string { return &s }
func intp(i int) *int { return &i }

// fallbackHospitals mirrors the seeded hospitals.
var fallbackHospitals = []Hospital{
	{HospitalID: 1, HospitalName: "Apollo Hospital Delhi", HospitalType: "Private", City: "New Delhi", State: "Delhi",
		ContactNumber: strp("011-26925858"), BedCapacity: intp(500), IsActive: true},
	{HospitalID: 2, HospitalName: "AIIMS New Delhi", HospitalType: "Public", City: "New Delhi", State: "Delhi",
		ContactNumber: strp("011-26588500"), BedCapacity: intp(2500), IsActive: true},
	{HospitalID: 3, HospitalName: "Fortis Hospital Mumbai", HospitalType: "Private", City: "Mumbai", State: "Maharashtra",
		ContactNumber: strp("022-61769999"), BedCapacity: intp(400), IsActive: true},
	{HospitalID: 4, HospitalName: "KEM Hospital Mumbai", HospitalType: "Public", City: "Mumbai", State: "Maharashtra",
		ContactNumber: strp("022-24136051"), BedCapacity: intp(1800), IsActive: true},
	{HospitalID: 5, HospitalName: "Manipal Hospital Bangalore", HospitalType: "Private", City: "Bangalore", State: "Karnataka",
		ContactNumber: strp("080-25023030"), BedCapacity: intp(650), IsActive: true},
}

var fallbackCompanies = []InsuranceCompany{
	{CompanyID: 1, CompanyName: "HDFC ERGO Health Insurance", Helpline: strp("1800-266-0625"),
		Email: strp("info@hdfcergo.com"), Website: strp("www.hdfcergo.com"), IsActive: true},
	{CompanyID: 2, CompanyName: "ICICI Lombard General Insurance", Helpline: strp("1800-266-7766"),
		Email: strp("care@icicilombard.com"), Website: strp("www.icicilombard.com"), IsActive: true},
}

// FallbackHospitals applies f to the snapshot with the same semantics as the
// database query.
func FallbackHospitals(f HospitalFilter) []*Hospital {
	city, state := strings.ToLower(f.City), strings.ToLower(f.State)
	out := make([]*Hospital, 0, len(fallbackHospitals))
	for _, h := range fallbackHospitals {
		if city != "" && !strings.Contains(strings.ToLower(h.City), city) {
			continue
		}
		if state != "" && !strings.Contains(strings.ToLower(h.State), state) {
			continue
		}
		if f.Type != "" && h.HospitalType != f.Type {
			continue
		}
		cp := h
		cp.Source = SourceFallback
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].HospitalName < out[j].HospitalName })
	return out
}

func FallbackInsuranceCompanies() []*InsuranceCompany {
	out := make([]*InsuranceCompany, 0, len(fallbackCompanies))
	for _, c := range fallbackCompanies {
		cp := c
		cp.Source = SourceFallback
		out = append(out, &cp)
	}
	return out
}
