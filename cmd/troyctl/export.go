package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/patrickwarner/troyconsole/internal/backend"
	"github.com/patrickwarner/troyconsole/internal/listing"
	"github.com/patrickwarner/troyconsole/internal/models"
	"github.com/patrickwarner/troyconsole/internal/session"
	"github.com/patrickwarner/troyconsole/internal/settlement"
)

// exporter loads one list view and writes it as CSV.
type exporter func(ctx context.Context, c *backend.Client, sc session.Context, q listing.Query, o *options, w io.Writer) (int, error)

var exporters = map[string]exporter{
	"campaigns": func(ctx context.Context, c *backend.Client, sc session.Context, q listing.Query, o *options, w io.Writer) (int, error) {
		items, err := backend.FetchAll(nil, listing.MaxLimit, func(v url.Values) ([]models.Campaign, *backend.Meta, error) {
			if sc.Role == session.Admin {
				return c.Campaigns(ctx, sc, v)
			}
			return c.MyCampaigns(ctx, sc)
		})
		return writeFiltered(w, listing.CampaignColumns, items, err, q, o)
	},
	"progress": func(ctx context.Context, c *backend.Client, sc session.Context, q listing.Query, o *options, w io.Writer) (int, error) {
		items, err := backend.FetchAll(nil, listing.MaxLimit, func(v url.Values) ([]models.ProgressRecord, *backend.Meta, error) {
			return c.CampaignProgress(ctx, sc, v)
		})
		return writeFiltered(w, listing.ProgressColumns, items, err, q, o)
	},
	"partners":  organizations(models.OrgPartner),
	"agencies":  organizations(models.OrgAgency),
	"customers": organizations(models.OrgCustomer),
	"payments": func(ctx context.Context, c *backend.Client, sc session.Context, q listing.Query, o *options, w io.Writer) (int, error) {
		items, err := backend.FetchAll(nil, listing.MaxLimit, func(v url.Values) ([]models.Payment, *backend.Meta, error) {
			return c.Payments(ctx, sc, v)
		})
		return writeFiltered(w, listing.PaymentColumns, items, err, q, o)
	},
	"settlements": func(ctx context.Context, c *backend.Client, sc session.Context, q listing.Query, o *options, w io.Writer) (int, error) {
		items, err := backend.FetchAll(nil, listing.MaxLimit, func(v url.Values) ([]models.Settlement, *backend.Meta, error) {
			return c.Settlements(ctx, sc, v)
		})
		items = settlement.Fill(items, o.unitPrice)
		return writeFiltered(w, listing.SettlementColumns, items, err, q, o)
	},
	"notifications": func(ctx context.Context, c *backend.Client, sc session.Context, q listing.Query, o *options, w io.Writer) (int, error) {
		items, err := backend.FetchAll(nil, listing.MaxLimit, func(v url.Values) ([]models.Notification, *backend.Meta, error) {
			return c.Notifications(ctx, sc, v)
		})
		return writeFiltered(w, listing.NotificationColumns, items, err, q, o)
	},
}

func organizations(kind models.OrgKind) exporter {
	return func(ctx context.Context, c *backend.Client, sc session.Context, q listing.Query, o *options, w io.Writer) (int, error) {
		items, err := backend.FetchAll(nil, listing.MaxLimit, func(v url.Values) ([]models.Organization, *backend.Meta, error) {
			return c.Organizations(ctx, sc, kind, v)
		})
		return writeFiltered(w, listing.OrganizationColumns, items, err, q, o)
	}
}

func writeFiltered[T models.Record](w io.Writer, cols []listing.Column[T], items []T, loadErr error, q listing.Query, o *options) (int, error) {
	if loadErr != nil {
		return 0, loadErr
	}
	items = listing.Filter(items, q, o.location())
	return len(items), listing.WriteCSV(w, cols, items)
}

func exportViews() []string {
	return []string{"campaigns", "progress", "partners", "agencies", "customers", "payments", "settlements", "notifications"}
}

func newExportCmd(o *options) *cobra.Command {
	var (
		q      listing.Query
		output string
	)
	cmd := &cobra.Command{
		Use:       "export <view>",
		Short:     "Export a list view as CSV",
		Long:      "Export every record of a list view as CSV. Views: " + strings.Join(exportViews(), ", ") + ".",
		Args:      cobra.ExactArgs(1),
		ValidArgs: exportViews(),
		RunE: func(cmd *cobra.Command, args []string) error {
			export, ok := exporters[args[0]]
			if !ok {
				return fmt.Errorf("unknown view %q (want one of %s)", args[0], strings.Join(exportViews(), ", "))
			}
			sc, err := o.session()
			if err != nil {
				return err
			}
			ctx, cancel := o.context(cmd)
			defer cancel()
			client := o.client()
			defer client.Close()

			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			n, err := export(ctx, client, sc, q, o, w)
			if err != nil {
				return fmt.Errorf("export %s: %w", args[0], err)
			}
			if w != cmd.OutOrStdout() {
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d %s to %s\n", n, args[0], output)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	cmd.Flags().StringVar(&q.Status, "status", "", "Only records with this status")
	cmd.Flags().StringVar(&q.Search, "search", "", "Case-insensitive text match")
	cmd.Flags().StringVar(&q.From, "from", "", "Earliest date, YYYY-MM-DD")
	cmd.Flags().StringVar(&q.To, "to", "", "Latest date, inclusive, YYYY-MM-DD")
	return cmd
}
