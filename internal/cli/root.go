// Package cli implements healthbridgectl, a command-line client of a running
// healthbridge server.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/claude/healthbridge/internal/client"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	server   string
	apiKey   string
	timeout  time.Duration
	retries  uint64
	asJSON   bool
	selectHC bool
}

func (o *options) client() *client.Client {
	return client.New(o.server, o.apiKey, client.Options{Timeout: o.timeout, Retries: o.retries})
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:   "healthbridgectl",
		Short: "healthbridgectl - query a healthbridge server",
		Long: `healthbridgectl calls the method endpoint of a healthbridge server.

It reads steps, calories and workouts from the health store the server
bridges, and drives its permission flow.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&o.server, "server", envOr("HEALTHBRIDGE_URL", "http://localhost:8080"), "server base URL")
	root.PersistentFlags().StringVar(&o.apiKey, "api-key", os.Getenv("HEALTHBRIDGE_API_KEY"), "API key (default $HEALTHBRIDGE_API_KEY)")
	root.PersistentFlags().DurationVar(&o.timeout, "timeout", 60*time.Second, "per-request timeout")
	root.PersistentFlags().Uint64Var(&o.retries, "retries", 2, "retries on server errors")
	root.PersistentFlags().BoolVar(&o.asJSON, "json", false, "print raw JSON results")
	root.PersistentFlags().BoolVar(&o.selectHC, "use-health-connect", true, "select the Health Connect backend before reading")

	root.AddCommand(
		newDataCmd(o),
		newStepsCmd(o),
		newDailyCmd(o),
		newAuthorizeCmd(o),
		newPermissionsCmd(o),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
