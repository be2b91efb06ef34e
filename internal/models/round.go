package models

import "time"

type RoundStatus string

const (
	RoundActive    RoundStatus = "ACTIVE"
	RoundCompleted RoundStatus = "COMPLETED"
)

func (s RoundStatus) Valid() bool {
	return s == RoundActive || s == RoundCompleted
}

// Round is a time-boxed slice of a distribution with a fixed coupon supply.
// RoundNumber is unique within its distribution; CouponCount caps how many
// allocations the round may ever hold.
type Round struct {
	ID             string      `json:"id"`
	DistributionID string      `json:"distributionId"`
	RoundNumber    int         `json:"roundNumber"`
	CouponCount    int         `json:"couponCount"`
	StartDate      *time.Time  `json:"startDate,omitempty"`
	EndDate        time.Time   `json:"endDate"`
	Status         RoundStatus `json:"status"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// RoundInfo is the subset of round fields embedded in receipts.
type RoundInfo struct {
	RoundNumber int         `json:"roundNumber"`
	CouponCount int         `json:"couponCount"`
	StartDate   *time.Time  `json:"startDate,omitempty"`
	EndDate     time.Time   `json:"endDate"`
	Status      RoundStatus `json:"status"`
}

// RoundContext is a round joined with its distribution, coupon template and
// owning institution. The template type feeds coupon code generation.
type RoundContext struct {
	Round
	Distribution DistributionInfo   `json:"distribution"`
	Template     CouponTemplateInfo `json:"couponTemplate"`
	Institution  string             `json:"institutionName,omitempty"`
}

// RoundSummary is a round plus its current allocation count, used by listings.
type RoundSummary struct {
	Round
	AllocationCount int `json:"allocationCount"`
}

type RoundStats struct {
	RoundNumber      int     `json:"roundNumber"`
	TotalAllocations int     `json:"totalAllocations"`
	Delivered        int     `json:"delivered"`
	Pending          int     `json:"pending"`
	UtilizationRate  float64 `json:"utilizationRate"`
	DeliveryRate     float64 `json:"deliveryRate"`
}
