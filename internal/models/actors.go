// internal/models/actors.go
package models

// Student is a policy holder, not a state machine: its year of study and
// major feed the eligibility checks at application time.
type Student struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	YearOfStudy int    `json:"yearOfStudy"`
	Major       string `json:"major"`
}

// CompanyRep posts internships on behalf of a company. CompanyName is the
// ownership identity checked on every posting mutation.
type CompanyRep struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CompanyName string `json:"companyName"`
}

// Staff adjudicates internship approvals and withdrawal requests.
type Staff struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
