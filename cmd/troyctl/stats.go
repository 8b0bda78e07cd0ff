package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/patrickwarner/troyconsole/internal/models"
	"github.com/patrickwarner/troyconsole/internal/progress"
	"github.com/patrickwarner/troyconsole/internal/schedule"
	"github.com/patrickwarner/troyconsole/internal/settlement"
)

func newProgressCmd(o *options) *cobra.Command {
	var f progress.Filter
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Print active, completed and average campaign progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := o.session()
			if err != nil {
				return err
			}
			ctx, cancel := o.context(cmd)
			defer cancel()
			client := o.client()
			defer client.Close()

			items, _, err := client.CampaignProgress(ctx, sc, nil)
			if err != nil {
				return fmt.Errorf("load progress: %w", err)
			}
			items = progress.FilterProgressData(items, f, o.clock())
			stats := progress.CalculateProgressStats(items)
			if o.asJSON {
				return printJSON(cmd.OutOrStdout(), map[string]any{"campaigns": len(items), "stats": stats})
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Campaigns:  %d\n", len(items))
			fmt.Fprintf(w, "Active:     %d\n", stats.Active)
			fmt.Fprintf(w, "Completed:  %d\n", stats.Completed)
			fmt.Fprintf(w, "Average:    %d%%\n", stats.Average)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.Campaign, "campaign", "all", "Campaign id, or all")
	cmd.Flags().StringVar(&f.Range, "range", "all", "Start date window: 7d, 30d, 90d or all")
	return cmd
}

func newScheduleCmd(o *options) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print the campaign timeline with derived status and progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := o.session()
			if err != nil {
				return err
			}
			ctx, cancel := o.context(cmd)
			defer cancel()
			client := o.client()
			defer client.Close()

			campaigns, _, err := client.Campaigns(ctx, sc, url.Values{})
			if err != nil {
				return fmt.Errorf("load campaigns: %w", err)
			}
			items, skipped := schedule.FromCampaigns(campaigns, o.clock(), o.location())
			var timeline []schedule.Item
			for _, it := range schedule.Timeline(items) {
				if status == "" || string(it.Status) == status {
					timeline = append(timeline, it)
				}
			}
			if o.asJSON {
				return printJSON(cmd.OutOrStdout(), map[string]any{"items": timeline, "skipped": len(skipped)})
			}
			w := cmd.OutOrStdout()
			for _, it := range timeline {
				fmt.Fprintf(w, "%s  %s ~ %s  %-4s %5.1f%%  %s\n",
					it.ID, it.Start.Format("2006-01-02"), it.End.Format("2006-01-02"),
					it.Status.Label().Text, it.Progress, it.Title)
			}
			for _, s := range skipped {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %v\n", s.ID, s.Err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Only upcoming, active or completed campaigns")
	return cmd
}

func newSettlementsCmd(o *options) *cobra.Command {
	var status, rng string
	cmd := &cobra.Command{
		Use:   "settlements",
		Short: "Print settlement totals per status and per month",
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := o.session()
			if err != nil {
				return err
			}
			ctx, cancel := o.context(cmd)
			defer cancel()
			client := o.client()
			defer client.Close()

			items, _, err := client.Settlements(ctx, sc, nil)
			if err != nil {
				return fmt.Errorf("load settlements: %w", err)
			}
			items = settlement.Fill(items, o.unitPrice)
			items = settlement.FilterByStatus(items, status)
			if rng != "" {
				items = settlement.FilterByRange(items, rng, o.clock())
			}
			sum := settlement.Summarize(items)
			months := settlement.ByMonth(items, o.location())
			if o.asJSON {
				return printJSON(cmd.OutOrStdout(), map[string]any{"summary": sum, "months": months})
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Total:    %d settlements, %d reviews, %s\n", sum.Total.Count, sum.Reviews, settlement.FormatKRW(sum.Total.Amount))
			fmt.Fprintf(w, "Pending:  %s\n", settlement.FormatKRW(sum.PendingTotal))
			for _, st := range []models.SettlementStatus{models.SettlementPending, models.SettlementProcessing, models.SettlementCompleted} {
				t := sum.ByStatus[st]
				fmt.Fprintf(w, "  %-10s %3d  %s\n", st, t.Count, settlement.FormatKRW(t.Amount))
			}
			fmt.Fprintln(w, strings.Repeat("-", 32))
			for _, m := range months {
				fmt.Fprintf(w, "  %-10s %3d  %s\n", m.Month, m.Count, settlement.FormatKRW(m.Amount))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "all", "pending, processing, completed or all")
	cmd.Flags().StringVar(&rng, "range", "", "today, week, month or all")
	return cmd
}
