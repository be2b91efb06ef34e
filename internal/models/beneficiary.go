package models

// Beneficiary is owned by the registration subsystem; the allocation engine
// only needs identity and the active flag.
type Beneficiary struct {
	ID         string `json:"id"`
	FullName   string `json:"fullName"`
	NationalID string `json:"nationalId"`
	Phone      string `json:"phone"`
	Active     bool   `json:"active"`
}

type BeneficiarySummary struct {
	ID         string `json:"id"`
	FullName   string `json:"fullName"`
	NationalID string `json:"nationalId"`
	Phone      string `json:"phone,omitempty"`
}
