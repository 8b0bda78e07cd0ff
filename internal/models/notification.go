package models

// NotificationType tags what a notification is about.
type NotificationType string

const (
	NotifyCampaignCreated     NotificationType = "campaign_created"
	NotifyCampaignApproved    NotificationType = "campaign_approved"
	NotifyCampaignRejected    NotificationType = "campaign_rejected"
	NotifyCampaignStarted     NotificationType = "campaign_started"
	NotifyCampaignCompleted   NotificationType = "campaign_completed"
	NotifyPaymentReceived     NotificationType = "payment_received"
	NotifyPaymentApproved     NotificationType = "payment_approved"
	NotifyPaymentRejected     NotificationType = "payment_rejected"
	NotifySettlementRequested NotificationType = "settlement_requested"
	NotifySettlementCompleted NotificationType = "settlement_completed"
	NotifyPartnerRegistered   NotificationType = "partner_registered"
	NotifyAgencyRegistered    NotificationType = "agency_registered"
	NotifyCustomerRegistered  NotificationType = "customer_registered"
	NotifyInquiryReceived     NotificationType = "inquiry_received"
	NotifySystem              NotificationType = "system"
)

// NotificationStyle is the label plus icon used to render a notification type.
type NotificationStyle struct {
	Label
	Icon string `json:"icon"`
}

var notificationStyles = map[NotificationType]NotificationStyle{
	NotifyCampaignCreated:     {Label{"캠페인 등록", "#3b82f6"}, "📝"},
	NotifyCampaignApproved:    {Label{"캠페인 승인", "#10b981"}, "✅"},
	NotifyCampaignRejected:    {Label{"캠페인 반려", "#ef4444"}, "⛔"},
	NotifyCampaignStarted:     {Label{"캠페인 시작", "#0ea5e9"}, "🚀"},
	NotifyCampaignCompleted:   {Label{"캠페인 완료", "#6366f1"}, "🏁"},
	NotifyPaymentReceived:     {Label{"입금 확인", "#14b8a6"}, "💳"},
	NotifyPaymentApproved:     {Label{"결제 승인", "#10b981"}, "💰"},
	NotifyPaymentRejected:     {Label{"결제 반려", "#ef4444"}, "❌"},
	NotifySettlementRequested: {Label{"정산 요청", "#f59e0b"}, "🧾"},
	NotifySettlementCompleted: {Label{"정산 완료", "#22c55e"}, "📦"},
	NotifyPartnerRegistered:   {Label{"파트너 가입", "#8b5cf6"}, "🤝"},
	NotifyAgencyRegistered:    {Label{"대행사 가입", "#a855f7"}, "🏢"},
	NotifyCustomerRegistered:  {Label{"고객 가입", "#ec4899"}, "👤"},
	NotifyInquiryReceived:     {Label{"문의 접수", "#f97316"}, "💬"},
	NotifySystem:              {Label{"시스템", "#6b7280"}, "🔔"},
}

// Style returns the rendering style for the type; unknown tags use the system style.
func (t NotificationType) Style() NotificationStyle {
	if s, ok := notificationStyles[t]; ok {
		return s
	}
	s := notificationStyles[NotifySystem]
	if t != "" {
		s.Text = string(t)
	}
	return s
}

// Notification is either fetched from the backend or synthesized by the
// console itself (Local) in response to an action.
type Notification struct {
	ID        ID               `json:"id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	IsRead    Flag             `json:"is_read"`
	Priority  string           `json:"priority,omitempty"`
	CreatedAt string           `json:"created_at"`
	Local     bool             `json:"local,omitempty"`
}

func (n Notification) Key() string          { return string(n.ID) }
func (n Notification) SearchText() []string { return []string{n.Title, n.Message} }
func (n Notification) StatusKey() string {
	if n.IsRead {
		return "read"
	}
	return "unread"
}
func (n Notification) DateKey() string { return n.CreatedAt }
