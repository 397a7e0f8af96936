package testutil

import (
	"github.com/google/uuid"
)

// Fixed identities for deterministic testing.
var (
	TestApplicantID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	TestBankUserID  = uuid.MustParse("00000000-0000-0000-0000-000000000002")
	TestAdminID     = uuid.MustParse("00000000-0000-0000-0000-000000000003")
)

// SampleUploadCSV is a small bulk upload that mixes canonical headers with
// their synonyms, carries one extra column, and includes a city that was
// never seen in training.
const SampleUploadCSV = `Income,Age,Experience,Married/Single,House_Ownership,Car_Ownership,Profession,CITY,STATE,CURRENT_JOB_YRS,CURRENT_HOUSE_YRS,Requested Loan Amount,Branch
1303834,23,3,single,rented,no,Mechanical_engineer,Rewa,Madhya_Pradesh,3,13,250000,North
7574516,40,10,married,owned,yes,Software_Developer,Atlantis,Maharashtra,9,13,500000,South
3991815,66,4,single,rented,no,Technical_writer,Alappuzha,Kerala,4,10,abc,East
`

// SampleVocabulary returns training-time labels covering SampleUploadCSV,
// except the city "Atlantis".
func SampleVocabulary() map[string][]string {
	return map[string][]string{
		"marital_status":  {"married", "single"},
		"House_Ownership": {"norent_noown", "owned", "rented"},
		"Car_Ownership":   {"no", "yes"},
		"Profession":      {"Mechanical_engineer", "Software_Developer", "Technical_writer"},
		"CITY":            {"Alappuzha", "Pune", "Rewa"},
		"STATE":           {"Kerala", "Madhya_Pradesh", "Maharashtra"},
	}
}

// SampleFeatureNames is the classifier feature order used across tests.
var SampleFeatureNames = []string{
	"Income", "Age", "Experience", "marital_status", "House_Ownership", "Car_Ownership",
	"Profession", "CITY", "STATE", "job_years", "house_years",
}
