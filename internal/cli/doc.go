// Package cli implements the esdbtop command-line interface.
//
// The root command opens the dashboard; subcommands cover setup chores:
//
//	esdbtop            - Open the dashboard
//	esdbtop init       - Create .esdbtop.yaml
//	esdbtop version    - Print build information
//
// # Configuration
//
// Settings come from the config file found by config.Find, then ESDBTOP_*
// environment variables, then command-line flags. Flags only override
// values they are given, so an empty --endpoint keeps the file's endpoint.
//
// # Running the Dashboard
//
// dashboardCommand validates the merged config, sends logs to a file since
// the dashboard owns the terminal, then hands a tui.Session to Bubble Tea.
// With --metrics-addr the session also feeds a Prometheus endpoint.
package cli
