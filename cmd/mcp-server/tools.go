package main

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/patrickwarner/troyconsole/internal/backend"
	"github.com/patrickwarner/troyconsole/internal/db"
	"github.com/patrickwarner/troyconsole/internal/listing"
	"github.com/patrickwarner/troyconsole/internal/models"
	"github.com/patrickwarner/troyconsole/internal/progress"
	"github.com/patrickwarner/troyconsole/internal/schedule"
	"github.com/patrickwarner/troyconsole/internal/session"
	"github.com/patrickwarner/troyconsole/internal/settlement"
)

type ListCampaignsInput struct {
	Search string `json:"search,omitempty"`
	Status string `json:"status,omitempty"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

type ListCampaignsOutput struct {
	Campaigns []models.Campaign `json:"campaigns"`
	Total     int               `json:"total"`
}

type ProgressStatsInput struct {
	Campaign string `json:"campaign,omitempty"`
	Range    string `json:"range,omitempty"` // 7d, 30d, 90d or all
}

type ProgressStatsOutput struct {
	progress.Stats
	Campaigns int `json:"campaigns"`
}

type SettlementSummaryInput struct {
	Status string `json:"status,omitempty"`
	Range  string `json:"range,omitempty"` // today, week, month or all
}

type SettlementSummaryOutput struct {
	Summary      settlement.Summary       `json:"summary"`
	PendingLabel string                   `json:"pending_label"`
	Months       []settlement.MonthBucket `json:"months"`
}

type ScheduleInput struct {
	Status string `json:"status,omitempty"` // upcoming, active or completed
}

type ScheduleOutput struct {
	Items   []schedule.Item `json:"items"`
	Skipped []string        `json:"skipped,omitempty"`
}

type RecentActionsInput struct {
	Entity string `json:"entity,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

type RecentActionsOutput struct {
	Actions []models.ConsoleAction `json:"actions"`
}

// ConsoleTools answers read-only questions about the campaign platform on
// behalf of one admin session.
type ConsoleTools struct {
	client    *backend.Client
	session   session.Context
	journal   db.Journal
	unitPrice int64
	loc       *time.Location
	now       func() time.Time
	logger    *zap.Logger
}

func (t *ConsoleTools) clock() time.Time {
	if t.now != nil {
		return t.now().In(t.loc)
	}
	return time.Now().In(t.loc)
}

// ListCampaigns implements the list_campaigns tool.
func (t *ConsoleTools) ListCampaigns(ctx context.Context, req *mcp.CallToolRequest, input ListCampaignsInput) (*mcp.CallToolResult, ListCampaignsOutput, error) {
	q := listing.Query{Page: 1, Limit: input.Limit, Status: input.Status, Search: input.Search, From: input.From, To: input.To}
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}
	items, _, err := t.client.Campaigns(ctx, t.session, url.Values{})
	if err != nil {
		return nil, ListCampaignsOutput{}, fmt.Errorf("load campaigns: %w", err)
	}
	filtered := listing.Filter(items, q, t.loc)
	page, _ := listing.Paginate(filtered, 1, q.Limit)
	t.logger.Info("list_campaigns", zap.Int("matched", len(filtered)), zap.String("search", input.Search))
	return nil, ListCampaignsOutput{Campaigns: page, Total: len(filtered)}, nil
}

// ProgressStats implements the progress_stats tool.
func (t *ConsoleTools) ProgressStats(ctx context.Context, req *mcp.CallToolRequest, input ProgressStatsInput) (*mcp.CallToolResult, ProgressStatsOutput, error) {
	items, _, err := t.client.CampaignProgress(ctx, t.session, nil)
	if err != nil {
		return nil, ProgressStatsOutput{}, fmt.Errorf("load progress: %w", err)
	}
	items = progress.FilterProgressData(items, progress.Filter{Campaign: input.Campaign, Range: input.Range}, t.clock())
	return nil, ProgressStatsOutput{Stats: progress.CalculateProgressStats(items), Campaigns: len(items)}, nil
}

// SettlementSummary implements the settlement_summary tool.
func (t *ConsoleTools) SettlementSummary(ctx context.Context, req *mcp.CallToolRequest, input SettlementSummaryInput) (*mcp.CallToolResult, SettlementSummaryOutput, error) {
	items, _, err := t.client.Settlements(ctx, t.session, nil)
	if err != nil {
		return nil, SettlementSummaryOutput{}, fmt.Errorf("load settlements: %w", err)
	}
	items = settlement.Fill(items, t.unitPrice)
	items = settlement.FilterByStatus(items, input.Status)
	if input.Range != "" {
		items = settlement.FilterByRange(items, input.Range, t.clock())
	}
	sum := settlement.Summarize(items)
	return nil, SettlementSummaryOutput{
		Summary:      sum,
		PendingLabel: settlement.FormatKRW(sum.PendingTotal),
		Months:       settlement.ByMonth(items, t.loc),
	}, nil
}

// CampaignSchedule implements the campaign_schedule tool.
func (t *ConsoleTools) CampaignSchedule(ctx context.Context, req *mcp.CallToolRequest, input ScheduleInput) (*mcp.CallToolResult, ScheduleOutput, error) {
	campaigns, _, err := t.client.Campaigns(ctx, t.session, url.Values{})
	if err != nil {
		return nil, ScheduleOutput{}, fmt.Errorf("load campaigns: %w", err)
	}
	items, skipped := schedule.FromCampaigns(campaigns, t.clock(), t.loc)
	out := ScheduleOutput{Items: []schedule.Item{}}
	for _, it := range schedule.Timeline(items) {
		if input.Status != "" && string(it.Status) != input.Status {
			continue
		}
		out.Items = append(out.Items, it)
	}
	for _, s := range skipped {
		out.Skipped = append(out.Skipped, fmt.Sprintf("%s: %v", s.ID, s.Err))
	}
	return nil, out, nil
}

// RecentActions implements the recent_actions tool.
func (t *ConsoleTools) RecentActions(ctx context.Context, req *mcp.CallToolRequest, input RecentActionsInput) (*mcp.CallToolResult, RecentActionsOutput, error) {
	if t.journal == nil {
		return nil, RecentActionsOutput{}, fmt.Errorf("action journal not configured")
	}
	limit := input.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	actions, err := t.journal.RecentActions(ctx, input.Entity, limit)
	if err != nil {
		return nil, RecentActionsOutput{}, fmt.Errorf("recent actions: %w", err)
	}
	if actions == nil {
		actions = []models.ConsoleAction{}
	}
	return nil, RecentActionsOutput{Actions: actions}, nil
}

// register adds the console tools to server.
func (t *ConsoleTools) register(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_campaigns",
		Description: "Search marketing campaigns by title, code or company, status and date range",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"search": map[string]interface{}{"type": "string", "description": "Case-insensitive text to match"},
				"status": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"pending", "approved", "active", "completed", "rejected", "cancelled"},
					"description": "Campaign status (optional)",
				},
				"from":  map[string]interface{}{"type": "string", "format": "date", "description": "Earliest start date (YYYY-MM-DD)"},
				"to":    map[string]interface{}{"type": "string", "format": "date", "description": "Latest start date, inclusive (YYYY-MM-DD)"},
				"limit": map[string]interface{}{"type": "integer", "minimum": 1, "maximum": 100, "description": "Maximum campaigns to return (default 20)"},
			},
		},
	}, t.ListCampaigns)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "progress_stats",
		Description: "Active, completed and average progress across campaigns",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"campaign": map[string]interface{}{"type": "string", "description": "Campaign id, or all"},
				"range":    map[string]interface{}{"type": "string", "enum": []string{"7d", "30d", "90d", "all"}},
			},
		},
	}, t.ProgressStats)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "settlement_summary",
		Description: "Partner settlement totals per status and per month, in KRW",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"status": map[string]interface{}{"type": "string", "enum": []string{"all", "pending", "processing", "completed"}},
				"range":  map[string]interface{}{"type": "string", "enum": []string{"today", "week", "month", "all"}},
			},
		},
	}, t.SettlementSummary)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "campaign_schedule",
		Description: "Campaign timeline ordered by start date with derived status and progress",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"status": map[string]interface{}{"type": "string", "enum": []string{"upcoming", "active", "completed"}},
			},
		},
	}, t.CampaignSchedule)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "recent_actions",
		Description: "Approvals, rejections, settlements and other mutations issued from the console",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"entity": map[string]interface{}{"type": "string", "description": "campaigns, payments, settlements, partners, ..."},
				"limit":  map[string]interface{}{"type": "integer", "minimum": 1, "maximum": 500},
			},
		},
	}, t.RecentActions)
}
