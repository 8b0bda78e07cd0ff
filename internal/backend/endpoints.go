package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/patrickwarner/troyconsole/internal/models"
	"github.com/patrickwarner/troyconsole/internal/session"
)

// ProgressStats is the server-side aggregate of the progress view.
type ProgressStats struct {
	Total     models.Number `json:"total_campaigns"`
	Active    models.Number `json:"active_campaigns"`
	Completed models.Number `json:"completed_campaigns"`
	Average   models.Number `json:"average_progress"`
}

// Campaigns lists campaigns for the admin, forwarding page/limit/filter values.
func (c *Client) Campaigns(ctx context.Context, sc session.Context, q url.Values) ([]models.Campaign, *Meta, error) {
	raw, err := c.GetJSON(ctx, sc, "campaigns.list", "/api/admin/campaigns", q)
	if err != nil {
		return nil, nil, err
	}
	return DecodeList[models.Campaign](raw)
}

// MyCampaigns lists the campaigns owned by the session's user.
func (c *Client) MyCampaigns(ctx context.Context, sc session.Context) ([]models.Campaign, *Meta, error) {
	raw, err := c.GetJSON(ctx, sc, "campaigns.mine", "/api/auth/my-campaigns", nil)
	if err != nil {
		return nil, nil, err
	}
	return DecodeList[models.Campaign](raw)
}

// CreateCampaign submits a new campaign. Admin sessions use the admin
// endpoint; every other role creates through the auth endpoint.
func (c *Client) CreateCampaign(ctx context.Context, sc session.Context, campaign models.Campaign) (models.Campaign, error) {
	path := "/api/auth/campaigns"
	if sc.Role == session.Admin {
		path = "/api/admin/campaigns"
	}
	raw, err := c.Send(ctx, sc, "campaigns.create", http.MethodPost, path, campaign)
	if err != nil {
		return models.Campaign{}, err
	}
	created, err := DecodeObject[models.Campaign](raw)
	if err != nil || (created.ID == "" && created.Title == "") {
		// some deployments answer with {"success": true} only
		return campaign, nil
	}
	if created.Code == "" {
		created.Code = campaign.Code
	}
	return created, nil
}

// CreateInquiry attaches an inquiry to a campaign.
func (c *Client) CreateInquiry(ctx context.Context, sc session.Context, campaignID string, inq models.Inquiry) error {
	_, err := c.Send(ctx, sc, "campaigns.inquiry", http.MethodPost, "/api/auth/campaigns/"+url.PathEscape(campaignID)+"/inquiries", inq)
	return err
}

// CampaignProgress lists progress rows.
func (c *Client) CampaignProgress(ctx context.Context, sc session.Context, q url.Values) ([]models.ProgressRecord, *Meta, error) {
	raw, err := c.GetJSON(ctx, sc, "progress.list", "/api/admin/campaign-progress", q)
	if err != nil {
		return nil, nil, err
	}
	return DecodeList[models.ProgressRecord](raw)
}

// CampaignProgressStats returns the server-computed progress aggregate.
func (c *Client) CampaignProgressStats(ctx context.Context, sc session.Context) (ProgressStats, error) {
	raw, err := c.GetJSON(ctx, sc, "progress.stats", "/api/admin/campaign-progress/stats", nil)
	if err != nil {
		return ProgressStats{}, err
	}
	return DecodeObject[ProgressStats](raw)
}

// Organizations lists partners, agencies or customers.
func (c *Client) Organizations(ctx context.Context, sc session.Context, kind models.OrgKind, q url.Values) ([]models.Organization, *Meta, error) {
	raw, err := c.GetJSON(ctx, sc, kind.Plural()+".list", "/api/admin/"+kind.Plural(), q)
	if err != nil {
		return nil, nil, err
	}
	return DecodeList[models.Organization](raw)
}

// Partner fetches one partner by id.
func (c *Client) Partner(ctx context.Context, sc session.Context, id string) (models.Organization, error) {
	raw, err := c.GetJSON(ctx, sc, "partners.get", "/api/admin/partners/"+url.PathEscape(id), nil)
	if err != nil {
		return models.Organization{}, err
	}
	return DecodeObject[models.Organization](raw)
}

// PartnerSettlements lists the settlements of one partner.
func (c *Client) PartnerSettlements(ctx context.Context, sc session.Context, id string) ([]models.Settlement, *Meta, error) {
	raw, err := c.GetJSON(ctx, sc, "partners.settlement", "/api/admin/partners/"+url.PathEscape(id)+"/settlement", nil)
	if err != nil {
		return nil, nil, err
	}
	return DecodeList[models.Settlement](raw)
}

// SetApproval approves or rejects a partner, agency or customer.
func (c *Client) SetApproval(ctx context.Context, sc session.Context, kind models.OrgKind, id string, approve bool, reason string) error {
	action := "reject"
	if approve {
		action = "approve"
	}
	var body any
	if reason != "" {
		body = map[string]string{"reason": reason}
	}
	_, err := c.Send(ctx, sc, kind.Plural()+"."+action, http.MethodPut,
		fmt.Sprintf("/api/admin/%s/%s/%s", kind.Plural(), url.PathEscape(id), action), body)
	return err
}

// Payments lists payments.
func (c *Client) Payments(ctx context.Context, sc session.Context, q url.Values) ([]models.Payment, *Meta, error) {
	raw, err := c.GetJSON(ctx, sc, "payments.list", "/api/admin/payments", q)
	if err != nil {
		return nil, nil, err
	}
	return DecodeList[models.Payment](raw)
}

// ApprovePayment approves one payment.
func (c *Client) ApprovePayment(ctx context.Context, sc session.Context, id string) error {
	_, err := c.Send(ctx, sc, "payments.approve", http.MethodPut, "/api/admin/payments/"+url.PathEscape(id)+"/approve", nil)
	return err
}

// RejectPayment rejects one payment with an optional reason.
func (c *Client) RejectPayment(ctx context.Context, sc session.Context, id, reason string) error {
	var body any
	if reason != "" {
		body = map[string]string{"reason": reason}
	}
	_, err := c.Send(ctx, sc, "payments.reject", http.MethodPut, "/api/admin/payments/"+url.PathEscape(id)+"/reject", body)
	return err
}

// BulkApprovePayments approves several payments in one call.
func (c *Client) BulkApprovePayments(ctx context.Context, sc session.Context, ids []string) error {
	_, err := c.Send(ctx, sc, "payments.bulk_approve", http.MethodPut, "/api/admin/payments/bulk-approve",
		map[string][]string{"payment_ids": ids})
	return err
}

// Notifications lists notifications for the session.
func (c *Client) Notifications(ctx context.Context, sc session.Context, q url.Values) ([]models.Notification, *Meta, error) {
	raw, err := c.GetJSON(ctx, sc, "notifications.list", "/api/admin/notifications", q)
	if err != nil {
		return nil, nil, err
	}
	return DecodeList[models.Notification](raw)
}

// MarkNotificationRead marks one notification read.
func (c *Client) MarkNotificationRead(ctx context.Context, sc session.Context, id string) error {
	_, err := c.Send(ctx, sc, "notifications.read", http.MethodPut, "/api/admin/notifications/"+url.PathEscape(id)+"/read", nil)
	return err
}

// MarkAllNotificationsRead marks every notification read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context, sc session.Context) error {
	_, err := c.Send(ctx, sc, "notifications.read_all", http.MethodPut, "/api/admin/notifications/read-all", nil)
	return err
}

// Settlements lists settlements.
func (c *Client) Settlements(ctx context.Context, sc session.Context, q url.Values) ([]models.Settlement, *Meta, error) {
	raw, err := c.GetJSON(ctx, sc, "settlements.list", "/api/admin/settlements", q)
	if err != nil {
		return nil, nil, err
	}
	return DecodeList[models.Settlement](raw)
}

// Settle marks a settlement paid out.
func (c *Client) Settle(ctx context.Context, sc session.Context, id string) error {
	_, err := c.Send(ctx, sc, "settlements.settle", http.MethodPut, "/api/admin/settlements/"+url.PathEscape(id)+"/settle", nil)
	return err
}
