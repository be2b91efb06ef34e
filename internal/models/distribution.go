package models

import "time"

// Distribution is an institution's campaign; its coupon template supplies the
// category code encoded into every coupon. Status is owned by the campaign
// subsystem and passed through untouched.
type Distribution struct {
	ID               string     `json:"id"`
	InstitutionID    string     `json:"institutionId"`
	CouponTemplateID string     `json:"couponTemplateId"`
	Title            string     `json:"title"`
	Status           string     `json:"status"`
	StartDate        *time.Time `json:"startDate,omitempty"`
	EndDate          *time.Time `json:"endDate,omitempty"`
}

type DistributionInfo struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type CouponTemplateInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}
