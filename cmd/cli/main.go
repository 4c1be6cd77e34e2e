package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/marcelsud/webhook-relay/catalog"
	"github.com/marcelsud/webhook-relay/config"
	"github.com/marcelsud/webhook-relay/metrics"
	"github.com/marcelsud/webhook-relay/webhook"
	"github.com/marcelsud/webhook-relay/webhook/delivery"
	"github.com/marcelsud/webhook-relay/webhook/postgres"
	"github.com/marcelsud/webhook-relay/webhook/redis"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

/* cli is the operator tool: it talks to the stores directly, without the api.
 * Usage:
 *   cli types
 *   cli list
 *   cli trigger 203.0.113.7
 *   cli notification <id>
 *   cli status [--list RETRY]
 *   cli seed [--apply] [webhook_types.yaml]
 */

type app struct {
	cfg   *config.Config
	pg    *postgres.Repository
	rdb   *redis.Repository
	queue *redis.Queue
}

func (a *app) loadConfig() error {
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func (a *app) openPostgres() error {
	pg, err := postgres.NewRepositoryWithPoolConfig(a.cfg.PostgresURL, 2, 1, a.cfg.PostgresConnMaxLife)
	if err != nil {
		return err
	}
	a.pg = pg
	return nil
}

func (a *app) open(ctx context.Context) error {
	if err := a.loadConfig(); err != nil {
		return err
	}
	if err := a.openPostgres(); err != nil {
		return err
	}
	rdb, err := redis.NewRepository(a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB)
	if err != nil {
		return err
	}
	a.rdb = rdb
	a.queue = redis.NewQueue(rdb.GetClient(), zerolog.Nop(), redis.QueueConfig{})
	return nil
}

func (a *app) close(ctx context.Context) {
	if a.pg != nil {
		a.pg.Close(ctx)
	}
	if a.rdb != nil {
		a.rdb.Close(ctx)
	}
}

func main() {
	a := &app{}
	root := &cobra.Command{
		Use:           "cli",
		Short:         "Inspect and drive the webhook relay",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close(cmd.Context())
		},
	}
	root.AddCommand(
		typesCommand(a),
		listCommand(a),
		triggerCommand(a),
		notificationCommand(a),
		statusCommand(a),
		seedCommand(a),
	)

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		a.close(context.Background())
		os.Exit(1)
	}
}

func typesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List webhook types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			types, err := a.pg.SelectWebhookTypes(cmd.Context())
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout(), table.Row{"ID", "Slug", "Description"})
			for _, t := range types {
				tw.AppendRow(table.Row{t.ID, t.Slug, t.Description})
			}
			tw.Render()
			return nil
		},
	}
}

func listCommand(a *app) *cobra.Command {
	var activeOnly bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				regs []webhook.Registration
				err  error
			)
			if activeOnly {
				regs, err = a.pg.SelectActiveRegistrations(cmd.Context())
			} else {
				regs, err = a.pg.SelectRegistrations(cmd.Context())
			}
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout(), table.Row{"ID", "Owner", "Type", "Active", "Target"})
			for _, r := range regs {
				tw.AppendRow(table.Row{r.ID, r.OwnerID, r.WebhookTypeID, r.IsActive, r.TargetURL})
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().BoolVar(&activeOnly, "active", false, "only active registrations")
	return cmd
}

func triggerCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "trigger <ip>",
		Short: "Run one dispatch wave for an IP address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.WarnLevel)
			d := webhook.NewDispatcher(
				a.pg,
				a.rdb,
				a.queue,
				delivery.NewClient(a.cfg.DeliveryTimeoutDuration()),
				logger,
				webhook.DispatcherConfig{
					ConcurrencyFactor: a.cfg.ConcurrencyFactor,
					FirstRetryDelay:   a.cfg.FirstRetryDelay(),
				},
			)
			outcomes, err := d.Trigger(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout(), table.Row{"Registration", "Notification", "Status", "Delivered", "Error"})
			for _, o := range outcomes {
				errText := ""
				if o.Err != nil {
					errText = o.Err.Error()
				}
				tw.AppendRow(table.Row{o.RegistrationID, o.NotificationID, o.StatusCode, o.Delivered, errText})
			}
			tw.Render()
			return nil
		},
	}
}

func notificationCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "notification <id>",
		Short: "Show one notification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.rdb.GetNotification(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("notification %s: %w", args[0], err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:           %s\n", n.ID)
			fmt.Fprintf(out, "Registration: %s\n", n.RegistrationID)
			fmt.Fprintf(out, "Owner:        %s\n", n.OwnerID)
			fmt.Fprintf(out, "Source IP:    %s\n", n.SourceIP)
			fmt.Fprintf(out, "Status:       %s\n", n.Status)
			fmt.Fprintf(out, "Retries:      %d/%d\n", n.RetryCount, webhook.MaxRetries)
			fmt.Fprintf(out, "Created:      %s\n", n.CreatedAt.Format(time.RFC3339))
			fmt.Fprintf(out, "Updated:      %s\n", n.UpdatedAt.Format(time.RFC3339))
			return nil
		},
	}
}

func statusCommand(a *app) *cobra.Command {
	var (
		listStatus string
		limit      int64
	)
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show queue depth, notification counts and active workers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if listStatus != "" {
				status := webhook.NewStatus(strings.ToUpper(listStatus))
				if err := status.Validate(); err != nil {
					return err
				}
				ns, err := a.rdb.ListByStatus(ctx, status, limit)
				if err != nil {
					return err
				}
				tw := newTable(out, table.Row{"ID", "Registration", "Retries", "Updated"})
				for _, n := range ns {
					tw.AppendRow(table.Row{n.ID, n.RegistrationID, n.RetryCount, n.UpdatedAt.Format(time.RFC3339)})
				}
				tw.Render()
				return nil
			}

			m, err := metrics.NewRedisCollector(a.rdb, a.queue).Collect(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Queue:    delayed=%d ready=%d pending=%d\n", m.Queue.Delayed, m.Queue.Ready, m.Queue.Pending)
			for _, s := range []webhook.Status{webhook.Retry, webhook.Completed, webhook.Failed} {
				fmt.Fprintf(out, "%-9s %d\n", s.String()+":", m.StatusCounts[s.String()])
			}
			fmt.Fprintf(out, "Completed last 1m/5m/15m: %d/%d/%d\n", m.Throughput.LastMinute, m.Throughput.LastFiveMinutes, m.Throughput.LastFifteenMinutes)
			fmt.Fprintf(out, "Workers:  %d\n", len(m.Workers))
			if len(m.Workers) == 0 {
				return nil
			}
			tw := newTable(out, table.Row{"Worker", "Status", "Processed", "Last Heartbeat"})
			for _, w := range m.Workers {
				tw.AppendRow(table.Row{w.WorkerID, w.Status, w.Processed, w.LastHeartbeat.Format(time.RFC3339)})
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&listStatus, "list", "", "list notifications in a status (RETRY, COMPLETED, FAILED)")
	cmd.Flags().Int64Var(&limit, "limit", 20, "maximum notifications to list")
	return cmd
}

func seedCommand(a *app) *cobra.Command {
	var apply bool
	cmd := &cobra.Command{
		Use:   "seed [webhook_types.yaml]",
		Short: "Validate the webhook type catalog and optionally create missing types",
		Args:  cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadConfig(); err != nil {
				return err
			}
			if !apply {
				return nil
			}
			return a.openPostgres()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			typesFile := a.cfg.WebhookTypesFile
			if len(args) > 0 {
				typesFile = args[0]
			}
			fmt.Fprintf(out, "Validating webhook types file: %s\n", typesFile)

			loader := catalog.NewLoader()
			if err := loader.Load(typesFile); err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}

			types := loader.List()
			fmt.Fprintf(out, "✓ VALIDATION PASSED, %d webhook type(s)\n", len(types))
			tw := newTable(out, table.Row{"#", "Slug", "Description"})
			for i, t := range types {
				tw.AppendRow(table.Row{i + 1, t.Slug, t.Description})
			}
			tw.Render()

			if !apply {
				return nil
			}
			if err := a.pg.CreateTables(ctx); err != nil {
				return err
			}
			created, err := loader.Seed(ctx, webhook.NewService(a.pg, a.pg, nil, nil, nil))
			for _, t := range created {
				fmt.Fprintf(out, "  + %s (%s)\n", t.Slug, t.ID)
			}
			if err != nil {
				return fmt.Errorf("apply failed: %w", err)
			}
			fmt.Fprintf(out, "✓ %d webhook type(s) created, %d already present\n", len(created), len(types)-len(created))
			return nil
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "create missing webhook types in the database")
	return cmd
}

// newTable writes to out on Render
func newTable(out io.Writer, header table.Row) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(header)
	return tw
}
