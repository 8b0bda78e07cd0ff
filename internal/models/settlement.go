package models

// SettlementStatus is the payout state of a settlement.
type SettlementStatus string

const (
	SettlementPending    SettlementStatus = "pending"
	SettlementProcessing SettlementStatus = "processing"
	SettlementCompleted  SettlementStatus = "completed"
)

var settlementLabels = map[SettlementStatus]Label{
	SettlementPending:    {Text: "정산대기", Color: "#f59e0b"},
	SettlementProcessing: {Text: "정산중", Color: "#3b82f6"},
	SettlementCompleted:  {Text: "정산완료", Color: "#10b981"},
}

func (s SettlementStatus) Label() Label { return lookupLabel(settlementLabels, s) }

// Settlement is a payout to a partner for reviews completed for a customer.
// Amount is filled in by the settlement package when the backend omits it.
type Settlement struct {
	ID           ID               `json:"id"`
	PartnerID    ID               `json:"partner_id,omitempty"`
	PartnerName  string           `json:"partner_name,omitempty"`
	CustomerID   ID               `json:"customer_id,omitempty"`
	CustomerName string           `json:"customer_name,omitempty"`
	CampaignID   ID               `json:"campaign_id,omitempty"`
	ReviewCount  Number           `json:"review_count"`
	UnitPrice    Number           `json:"unit_price,omitempty"`
	Amount       Number           `json:"amount"`
	Status       SettlementStatus `json:"status"`
	PeriodStart  string           `json:"period_start,omitempty"`
	PeriodEnd    string           `json:"period_end,omitempty"`
	CreatedAt    string           `json:"created_at,omitempty"`
	SettledAt    string           `json:"settled_at,omitempty"`
}

func (s Settlement) Key() string { return string(s.ID) }
func (s Settlement) SearchText() []string {
	return []string{string(s.ID), s.PartnerName, s.CustomerName}
}
func (s Settlement) StatusKey() string { return string(s.Status) }
func (s Settlement) DateKey() string {
	if s.CreatedAt != "" {
		return s.CreatedAt
	}
	return s.PeriodEnd
}
