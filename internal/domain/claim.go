package domain

import "time"

type ClaimStatus string

const (
	ClaimApproved ClaimStatus = "approved"
	ClaimPending  ClaimStatus = "pending"
	ClaimRejected ClaimStatus = "rejected"
	ClaimPaid     ClaimStatus = "paid"
)

// ValidClaimStatuses is the accepted set of claim status strings.
var ValidClaimStatuses = map[ClaimStatus]bool{
	ClaimApproved: true,
	ClaimPending:  true,
	ClaimRejected: true,
	ClaimPaid:     true,
}

// Claim is a historical claim record. Claims are replayed against a limit
// tree to find the limits they hit; they never change stored utilization.
type Claim struct {
	ClaimNumber string      `json:"claim_number"`
	MemberID    string      `json:"member_id"`
	PlanID      string      `json:"plan_id"`
	Date        time.Time   `json:"date"`
	Provider    string      `json:"provider"`
	ServiceType ServiceType `json:"service_type"`
	Amount      Cents       `json:"amount"`
	Status      ClaimStatus `json:"status"`
}
