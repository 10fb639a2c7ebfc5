package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/claude/healthbridge/internal/client"
	"github.com/claude/healthbridge/internal/healthstore"
	"github.com/claude/healthbridge/internal/taxonomy"
)

// windowFlags binds --start and --end on cmd.
type windowFlags struct {
	start, end string
}

func (w *windowFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&w.start, "start", "", "window start: YYYY-MM-DD, RFC3339 or epoch ms (default 7 days before end)")
	cmd.Flags().StringVar(&w.end, "end", "", "window end, exclusive (default now)")
}

func (w *windowFlags) window() (healthstore.TimeRange, error) {
	end := time.Now()
	if w.end != "" {
		t, err := parseDate(w.end)
		if err != nil {
			return healthstore.TimeRange{}, fmt.Errorf("invalid --end: %w", err)
		}
		end = t
	}
	start := end.AddDate(0, 0, -7)
	if w.start != "" {
		t, err := parseDate(w.start)
		if err != nil {
			return healthstore.TimeRange{}, fmt.Errorf("invalid --start: %w", err)
		}
		start = t
	}
	window := healthstore.Between(start, end)
	return window, window.Validate()
}

func parseDate(s string) (time.Time, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func newDataCmd(o *options) *cobra.Command {
	var w windowFlags
	cmd := &cobra.Command{
		Use:   "data <metric>",
		Short: "List the records of one metric",
		Long:  "Lists records via getData. Metrics: " + strings.Join(metricNames(), ", ") + ".",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			window, err := w.window()
			if err != nil {
				return err
			}
			c := o.client()
			if err := o.prepare(cmd, c); err != nil {
				return err
			}
			records, err := c.GetData(cmd.Context(), taxonomy.MetricKey(strings.ToUpper(args[0])), window)
			if err != nil {
				return err
			}
			if o.asJSON || records == nil {
				return printJSON(cmd.OutOrStdout(), records)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FROM\tTO\tVALUE\tUNIT\tACTIVITY\tDISTANCE\tENERGY\tSOURCE")
			for _, r := range records {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					formatMillis(r.DateFrom), formatMillis(r.DateTo),
					formatFloat(r.Value), r.Unit, deref(r.WorkoutActivityType),
					formatFloat(r.TotalDistance), formatFloat(r.TotalEnergyBurned), r.SourceName)
			}
			return tw.Flush()
		},
	}
	w.bind(cmd)
	return cmd
}

func newStepsCmd(o *options) *cobra.Command {
	var w windowFlags
	cmd := &cobra.Command{
		Use:   "steps",
		Short: "Print the total step count of a window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			window, err := w.window()
			if err != nil {
				return err
			}
			c := o.client()
			if err := o.prepare(cmd, c); err != nil {
				return err
			}
			steps, err := c.GetTotalSteps(cmd.Context(), window)
			if err != nil {
				return err
			}
			if o.asJSON || steps == nil {
				return printJSON(cmd.OutOrStdout(), steps)
			}
			fmt.Fprintln(cmd.OutOrStdout(), *steps)
			return nil
		},
	}
	w.bind(cmd)
	return cmd
}

func newDailyCmd(o *options) *cobra.Command {
	var w windowFlags
	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Print steps and calories per day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			window, err := w.window()
			if err != nil {
				return err
			}
			c := o.client()
			if err := o.prepare(cmd, c); err != nil {
				return err
			}
			buckets, err := c.GetStepsAndCalories(cmd.Context(), window)
			if err != nil {
				return err
			}
			if o.asJSON || buckets == nil {
				return printJSON(cmd.OutOrStdout(), buckets)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DAY\tSTEPS\tCALORIES")
			for _, b := range buckets {
				fmt.Fprintf(tw, "%s\t%d\t%d\n", time.UnixMilli(b.DateFrom).UTC().Format("2006-01-02"), b.Steps, b.Calories)
			}
			return tw.Flush()
		},
	}
	w.bind(cmd)
	return cmd
}

func newAuthorizeCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "authorize",
		Short: "Run the permission request flow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := o.client()
			if err := o.prepare(cmd, c); err != nil {
				return err
			}
			granted, err := c.RequestAuthorization(cmd.Context())
			if err != nil {
				return err
			}
			if o.asJSON {
				return printJSON(cmd.OutOrStdout(), granted)
			}
			if granted {
				fmt.Fprintln(cmd.OutOrStdout(), "authorization granted")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "authorization not granted")
			}
			return nil
		},
	}
}

func newPermissionsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "permissions",
		Short: "Show store availability and per-scope permission state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := o.client().Permissions(cmd.Context())
			if err != nil {
				return err
			}
			if o.asJSON {
				return printJSON(cmd.OutOrStdout(), p)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Store: %s\n", p.Availability)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SCOPE\tSTATE")
			for _, s := range p.Permissions {
				fmt.Fprintf(tw, "%s\t%s\n", s.Scope, s.State)
			}
			return tw.Flush()
		},
	}
}

// prepare selects the Health Connect backend unless disabled.
func (o *options) prepare(cmd *cobra.Command, c *client.Client) error {
	if !o.selectHC {
		return nil
	}
	return c.UseHealthConnect(cmd.Context())
}

func metricNames() []string {
	var names []string
	for _, m := range taxonomy.SupportedMetrics() {
		names = append(names, string(m.Key))
	}
	return names
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

func formatFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
