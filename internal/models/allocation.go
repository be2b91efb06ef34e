package models

import "time"

// AllocationStatus is the closed set of states an allocation can be in.
// The only legal transition is PENDING -> DELIVERED.
type AllocationStatus string

const (
	AllocationPending   AllocationStatus = "PENDING"
	AllocationDelivered AllocationStatus = "DELIVERED"
)

// Allocation assigns one coupon to one beneficiary within a round.
// The coupon code is set exactly once at creation and never changes.
type Allocation struct {
	ID            string           `json:"id"`
	RoundID       string           `json:"roundId"`
	BeneficiaryID string           `json:"beneficiaryId"`
	CouponCode    string           `json:"couponCode"`
	Status        AllocationStatus `json:"status"`
	ExpiresAt     *time.Time       `json:"expiresAt,omitempty"`
	DeliveredAt   *time.Time       `json:"deliveredAt,omitempty"`
	DeliveredBy   *string          `json:"deliveredBy,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
}

type AllocationWithBeneficiary struct {
	Allocation
	Beneficiary BeneficiarySummary `json:"beneficiary"`
}

// AllocationBatchResult mirrors the count returned by a batch insert.
type AllocationBatchResult struct {
	Count int `json:"count"`
}

// DeliveryReceipt is an allocation enriched with the context a deliverer
// needs to hand over a coupon and print a receipt.
type DeliveryReceipt struct {
	Allocation
	Beneficiary  BeneficiarySummary `json:"beneficiary"`
	Round        RoundInfo          `json:"round"`
	Distribution DistributionInfo   `json:"distribution"`
	Template     CouponTemplateInfo `json:"couponTemplate"`
	Institution  string             `json:"institutionName"`
}

type DeliveryStats struct {
	Total        int     `json:"total"`
	Delivered    int     `json:"delivered"`
	Pending      int     `json:"pending"`
	DeliveryRate float64 `json:"deliveryRate"`
}
