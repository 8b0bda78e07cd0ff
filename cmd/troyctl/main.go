// Command troyctl exports console lists and prints campaign statistics
// straight from the platform backend, without a running console.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/patrickwarner/troyconsole/internal/backend"
	"github.com/patrickwarner/troyconsole/internal/config"
	"github.com/patrickwarner/troyconsole/internal/observability"
	"github.com/patrickwarner/troyconsole/internal/session"
)

// options are the persistent flags shared by every command.
type options struct {
	backendURL string
	token      string
	role       string
	timeout    time.Duration
	asJSON     bool
	unitPrice  int64
	timezone   string

	// set by tests
	now    func() time.Time
	logger *zap.Logger
}

func newRootCmd(opts *options) *cobra.Command {
	cfg := config.Load()

	root := &cobra.Command{
		Use:           "troyctl",
		Short:         "Query the campaign platform the admin console fronts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.backendURL, "backend", cfg.BackendURL, "Platform backend base URL (or BACKEND_URL)")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("CONSOLE_TOKEN"), "Bearer token (or CONSOLE_TOKEN)")
	root.PersistentFlags().StringVar(&opts.role, "role", string(session.Admin), "Role the token belongs to: admin, agency, partner or customer")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", cfg.BackendTimeout, "Backend request timeout")
	root.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "Print JSON instead of text")
	root.PersistentFlags().Int64Var(&opts.unitPrice, "unit-price", cfg.SettlementUnitPrice, "Settlement payout per review in KRW")
	root.PersistentFlags().StringVar(&opts.timezone, "tz", cfg.Timezone, "Timezone for date filters")

	root.AddCommand(newExportCmd(opts))
	root.AddCommand(newProgressCmd(opts))
	root.AddCommand(newScheduleCmd(opts))
	root.AddCommand(newSettlementsCmd(opts))
	return root
}

func main() {
	if err := newRootCmd(&options{}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "troyctl:", err)
		os.Exit(1)
	}
}

// session validates the role and token flags.
func (o *options) session() (session.Context, error) {
	role, err := session.ParseRole(o.role)
	if err != nil {
		return session.Context{}, err
	}
	if o.token == "" {
		return session.Context{}, fmt.Errorf("--token or CONSOLE_TOKEN is required")
	}
	return session.Context{Role: role, Token: o.token}, nil
}

func (o *options) client() *backend.Client {
	logger := o.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return backend.NewClient(o.backendURL, o.timeout, logger, observability.NewNoOpRegistry())
}

func (o *options) location() *time.Location {
	return config.Config{Timezone: o.timezone}.Location()
}

func (o *options) clock() time.Time {
	if o.now != nil {
		return o.now().In(o.location())
	}
	return time.Now().In(o.location())
}

// context bounds a whole command, not just a single request.
func (o *options) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, 3*o.timeout)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
