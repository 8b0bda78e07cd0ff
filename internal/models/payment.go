package models

import "strings"

// PaymentBucket is the console's three-way view of the backend's payment states.
type PaymentBucket string

const (
	PaymentPending  PaymentBucket = "pending"
	PaymentApproved PaymentBucket = "approved"
	PaymentRejected PaymentBucket = "rejected"
)

var paymentLabels = map[PaymentBucket]Label{
	PaymentPending:  {Text: "승인대기", Color: "#f59e0b"},
	PaymentApproved: {Text: "승인완료", Color: "#10b981"},
	PaymentRejected: {Text: "반려", Color: "#ef4444"},
}

func (b PaymentBucket) Label() Label { return lookupLabel(paymentLabels, b) }

// BucketForPaymentStatus collapses a raw backend payment status into one of
// the three console buckets. Anything unrecognized counts as pending.
func BucketForPaymentStatus(status string) PaymentBucket {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "approved", "paid", "completed", "confirmed":
		return PaymentApproved
	case "rejected", "failed", "cancelled", "canceled", "refunded":
		return PaymentRejected
	default:
		return PaymentPending
	}
}

// Payment is a customer's deposit for a campaign awaiting admin approval.
type Payment struct {
	ID           ID     `json:"id"`
	CampaignID   ID     `json:"campaign_id,omitempty"`
	CampaignName string `json:"campaign_title,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
	Amount       Number `json:"amount"`
	Method       string `json:"payment_method,omitempty"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at,omitempty"`
	ApprovedAt   string `json:"approved_at,omitempty"`
}

// Bucket returns the console bucket of the payment's raw status.
func (p Payment) Bucket() PaymentBucket { return BucketForPaymentStatus(p.Status) }

func (p Payment) Key() string { return string(p.ID) }
func (p Payment) SearchText() []string {
	return []string{string(p.ID), p.CampaignName, p.CustomerName, p.Method}
}

// StatusKey filters on the bucket so "approved" also matches "paid".
func (p Payment) StatusKey() string { return string(p.Bucket()) }
func (p Payment) DateKey() string   { return p.CreatedAt }
