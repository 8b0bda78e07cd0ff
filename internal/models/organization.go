package models

// OrgKind distinguishes the three kinds of organizations the console manages.
type OrgKind string

const (
	OrgPartner  OrgKind = "partner"
	OrgAgency   OrgKind = "agency"
	OrgCustomer OrgKind = "customer"
)

// Plural is the path segment the backend uses for the kind.
func (k OrgKind) Plural() string {
	switch k {
	case OrgAgency:
		return "agencies"
	case OrgCustomer:
		return "customers"
	default:
		return "partners"
	}
}

// ApprovalStatus gates whether an organization is active in the system.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

var approvalLabels = map[ApprovalStatus]Label{
	ApprovalPending:  {Text: "승인대기", Color: "#f59e0b"},
	ApprovalApproved: {Text: "승인", Color: "#10b981"},
	ApprovalRejected: {Text: "거절", Color: "#ef4444"},
}

func (s ApprovalStatus) Label() Label { return lookupLabel(approvalLabels, s) }

// Organization is a partner, agency or customer account.
type Organization struct {
	ID             ID             `json:"id"`
	Name           string         `json:"name,omitempty"`
	CompanyName    string         `json:"company_name,omitempty"`
	ManagerName    string         `json:"manager_name,omitempty"`
	Phone          string         `json:"phone,omitempty"`
	Email          string         `json:"email,omitempty"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
	CreatedAt      string         `json:"created_at,omitempty"`
}

// DisplayName prefers the company name and falls back to the account name.
func (o Organization) DisplayName() string {
	if o.CompanyName != "" {
		return o.CompanyName
	}
	return o.Name
}

func (o Organization) Key() string { return string(o.ID) }
func (o Organization) SearchText() []string {
	return []string{o.Name, o.CompanyName, o.ManagerName, o.Phone, o.Email}
}
func (o Organization) StatusKey() string { return string(o.ApprovalStatus) }
func (o Organization) DateKey() string   { return o.CreatedAt }
