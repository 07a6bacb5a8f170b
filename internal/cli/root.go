package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

// Global flags
var (
	cfgFile         string
	endpointFlag    string
	usernameFlag    string
	refreshFlag     time.Duration
	logFileFlag     string
	logLevelFlag    string
	metricsAddrFlag string
	noColorFlag     bool
)

// rootCmd starts the dashboard when run without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "esdbtop",
	Short: "Terminal dashboard for EventStoreDB",
	Long: `esdbtop watches an EventStoreDB node from the terminal.

Tabs show the internal work queues, recently written streams, projections,
persistent subscriptions and overall cluster health. Tab and Shift+Tab move
between them, ? lists the keys of the current screen and q quits.

Examples:
  esdbtop
  esdbtop --endpoint https://node1:2113 --username admin
  esdbtop --refresh 5s --metrics-addr 127.0.0.1:9464`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColorFlag || os.Getenv("NO_COLOR") != "" {
			lipgloss.SetColorProfile(termenv.Ascii)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return dashboardCommand(cmd.Context(), DashboardOptions{
			ConfigPath:  cfgFile,
			Overrides:   flagOverrides(),
			MetricsAddr: metricsAddrFlag,
		})
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ./.esdbtop.yaml, then ~/.config/esdbtop/config.yaml)")
	pf.BoolVar(&noColorFlag, "no-color", false, "disable colored output")

	f := rootCmd.Flags()
	f.StringVarP(&endpointFlag, "endpoint", "e", "", "node address, e.g. http://localhost:2113")
	f.StringVarP(&usernameFlag, "username", "u", "", "user for basic auth (password via ESDBTOP_PASSWORD)")
	f.DurationVarP(&refreshFlag, "refresh", "r", 0, "how often the active tab re-fetches (e.g. 2s)")
	f.StringVar(&logFileFlag, "log-file", "", "write diagnostic logs to this file")
	f.StringVar(&logLevelFlag, "log-level", "", "log level: debug, info, warn, error")
	f.StringVar(&metricsAddrFlag, "metrics-addr", "", "serve Prometheus metrics on this address while running")
}

// flagOverrides collects the config overrides given on the command line.
func flagOverrides() Overrides {
	return Overrides{
		Endpoint:        endpointFlag,
		Username:        usernameFlag,
		RefreshInterval: refreshFlag,
		LogFile:         logFileFlag,
		LogLevel:        logLevelFlag,
	}
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
