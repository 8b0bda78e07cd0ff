package models

import "encoding/json"

// Record is implemented by every entity the console lists. It exposes the
// fields the shared filter/paginate/modal code needs without knowing the type.
type Record interface {
	// Key identifies the record inside a loaded list.
	Key() string
	// SearchText lists the fields a search substring is matched against.
	SearchText() []string
	// StatusKey is the raw status used for exact status filtering.
	StatusKey() string
	// DateKey is the date used for date-range filtering.
	DateKey() string
}

// CampaignStatus is the lifecycle state of a campaign as reported by the backend.
type CampaignStatus string

const (
	CampaignPending   CampaignStatus = "pending"
	CampaignApproved  CampaignStatus = "approved"
	CampaignActive    CampaignStatus = "active"
	CampaignCompleted CampaignStatus = "completed"
	CampaignRejected  CampaignStatus = "rejected"
	CampaignCancelled CampaignStatus = "cancelled"
)

var campaignStatusLabels = map[CampaignStatus]Label{
	CampaignPending:   {Text: "승인대기", Color: "#f59e0b"},
	CampaignApproved:  {Text: "승인완료", Color: "#3b82f6"},
	CampaignActive:    {Text: "진행중", Color: "#10b981"},
	CampaignCompleted: {Text: "완료", Color: "#6366f1"},
	CampaignRejected:  {Text: "반려", Color: "#ef4444"},
	CampaignCancelled: {Text: "취소", Color: "#9ca3af"},
}

// Label returns the display label for the status.
func (s CampaignStatus) Label() Label { return lookupLabel(campaignStatusLabels, s) }

// Campaign is a marketing task owned by an advertiser and executed by an
// agency or partner. Requirements is an opaque nested document.
type Campaign struct {
	ID           ID              `json:"id"`
	Code         string          `json:"code,omitempty"`
	Title        string          `json:"title"`
	Status       CampaignStatus  `json:"status"`
	Budget       Number          `json:"budget"`
	TargetCount  Number          `json:"target_count"`
	StartDate    string          `json:"start_date"`
	EndDate      string          `json:"end_date"`
	AdvertiserID ID              `json:"advertiser_id,omitempty"`
	CreatedBy    ID              `json:"created_by,omitempty"`
	CompanyName  string          `json:"company_name,omitempty"`
	Requirements json.RawMessage `json:"requirements,omitempty"`
	CreatedAt    string          `json:"created_at,omitempty"`
}

func (c Campaign) Key() string          { return string(c.ID) }
func (c Campaign) SearchText() []string { return []string{c.Title, c.Code, c.CompanyName} }
func (c Campaign) StatusKey() string    { return string(c.Status) }
func (c Campaign) DateKey() string {
	if c.StartDate != "" {
		return c.StartDate
	}
	return c.CreatedAt
}

// ProgressRecord is one row of the campaign progress view.
type ProgressRecord struct {
	ID                 ID             `json:"id"`
	CampaignID         ID             `json:"campaign_id,omitempty"`
	Title              string         `json:"title"`
	Status             CampaignStatus `json:"status"`
	ProgressPercentage Number         `json:"progress_percentage"`
	CompletedCount     Number         `json:"completed_count"`
	TargetCount        Number         `json:"target_count"`
	StartDate          string         `json:"start_date,omitempty"`
	EndDate            string         `json:"end_date,omitempty"`
	UpdatedAt          string         `json:"updated_at,omitempty"`
}

func (p ProgressRecord) Key() string          { return string(p.ID) }
func (p ProgressRecord) SearchText() []string { return []string{p.Title, string(p.CampaignID)} }
func (p ProgressRecord) StatusKey() string    { return string(p.Status) }
func (p ProgressRecord) DateKey() string      { return p.StartDate }

// CampaignRef returns the campaign the progress row belongs to.
func (p ProgressRecord) CampaignRef() ID {
	if p.CampaignID != "" {
		return p.CampaignID
	}
	return p.ID
}

// Inquiry is a question a customer attaches to one of their campaigns.
type Inquiry struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}
