package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rileyhilliard/esdbtop/internal/client"
	"github.com/rileyhilliard/esdbtop/internal/config"
	"github.com/rileyhilliard/esdbtop/internal/errors"
	"github.com/rileyhilliard/esdbtop/internal/ui"
)

// checkTimeout bounds the connection check made before saving.
const checkTimeout = 5 * time.Second

const configHeader = `# esdbtop configuration
# Run 'esdbtop' in this directory to open the dashboard.
# Every key can also be set through the environment, e.g. ESDBTOP_PASSWORD.

`

// InitOptions holds options for the init command.
type InitOptions struct {
	Path           string // Where to write; empty means ./.esdbtop.yaml
	Endpoint       string // Pre-specified node address
	Username       string // Pre-specified basic auth user
	Overwrite      bool   // Overwrite existing config without asking
	NonInteractive bool   // Skip prompts, use flags and defaults
	SkipCheck      bool   // Do not try to reach the node before saving
	Out            io.Writer
}

// Init creates a new .esdbtop.yaml configuration file.
func Init(opts InitOptions) error {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	configPath := opts.Path
	if configPath == "" {
		configPath = filepath.Join(".", config.ConfigFileName)
	}

	// Check for existing config
	if _, err := os.Stat(configPath); err == nil && !opts.Overwrite {
		if opts.NonInteractive {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Config file already exists: %s", configPath),
				"Use --force to overwrite")
		}

		var overwrite bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Config file '%s' already exists. Overwrite?", configPath)).
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	cfg := config.DefaultConfig()
	if opts.Endpoint != "" {
		cfg.Endpoint = opts.Endpoint
	}
	cfg.Username = opts.Username

	if !opts.NonInteractive {
		if err := promptConfig(cfg); err != nil {
			return err
		}
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}

	if !opts.SkipCheck {
		v, err := checkConnection(cfg)
		if err != nil {
			fmt.Fprintln(out, ui.Failure(fmt.Sprintf("Could not reach %s: %v", cfg.Endpoint, err)))
			if opts.NonInteractive || !confirmSaveAnyway() {
				return errors.WrapWithCode(err, errors.ErrTransport,
					fmt.Sprintf("Connection to '%s' failed", cfg.Endpoint),
					"Check the address and credentials, or pass --skip-check")
			}
		} else {
			fmt.Fprintln(out, ui.Success(fmt.Sprintf("Connected to EventStoreDB %s", formatVersion(v))))
		}
	}

	content, err := renderConfig(cfg)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				fmt.Sprintf("Failed to create directory %s", dir),
				"Check directory permissions")
		}
	}
	// The file may hold a password.
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Failed to write config file: %s", configPath),
			"Check directory permissions")
	}

	fmt.Fprintln(out, ui.Success("Created "+configPath))
	if cfg.Password != "" {
		fmt.Fprintln(out, ui.Warning("The password is stored in plain text; ESDBTOP_PASSWORD keeps it out of the file"))
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  esdbtop          - Open the dashboard")
	fmt.Fprintln(out, "  esdbtop version  - Show build information")
	return nil
}

// promptConfig asks for the connection settings, starting from cfg's values.
func promptConfig(cfg *config.Config) error {
	pageSize := strconv.Itoa(cfg.StreamPageSize)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Node address").
				Description("HTTP(S) address of any node in the cluster").
				Placeholder("http://localhost:2113").
				Value(&cfg.Endpoint).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("node address is required")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Username (optional)").
				Description("Sent as basic auth; leave empty for insecure clusters").
				Placeholder("admin").
				Value(&cfg.Username),
			huh.NewInput().
				Title("Password (optional)").
				Description("Stored in the config file; ESDBTOP_PASSWORD works too").
				EchoMode(huh.EchoModePassword).
				Value(&cfg.Password),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Stream page size").
				Description("Events read per page in the stream browser").
				Value(&pageSize).
				Validate(validatePageSize),
			huh.NewConfirm().
				Title("Skip TLS certificate verification?").
				Value(&cfg.InsecureSkipVerify),
		),
	)

	if err := form.Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get user input",
			"Check terminal compatibility or use --non-interactive flag")
	}

	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	cfg.Username = strings.TrimSpace(cfg.Username)
	cfg.StreamPageSize, _ = strconv.Atoi(strings.TrimSpace(pageSize))
	return nil
}

func validatePageSize(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > config.MaxStreamPageSize {
		return fmt.Errorf("enter a number between 1 and %d", config.MaxStreamPageSize)
	}
	return nil
}

func confirmSaveAnyway() bool {
	var saveAnyway bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save config anyway? (You can fix the connection later)").
				Value(&saveAnyway),
		),
	)
	if err := form.Run(); err != nil {
		return false
	}
	return saveAnyway
}

// checkConnection asks the node for its version.
func checkConnection(cfg *config.Config) (string, error) {
	src, err := client.NewHTTPClient(client.Options{
		Endpoint:           cfg.Endpoint,
		Username:           cfg.Username,
		Password:           cfg.Password,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		Timeout:            cfg.Timeout,
	})
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()
	return src.ServerVersion(ctx)
}

// renderConfig turns cfg into the file contents, header included.
func renderConfig(cfg *config.Config) (string, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to generate config",
			"This shouldn't happen - please report this bug")
	}
	return configHeader + string(data), nil
}

// Init command flags
var (
	initEndpointFlag   string
	initUsernameFlag   string
	initForce          bool
	initNonInteractive bool
	initSkipCheck      bool
	initGlobal         bool
)

// initCmd writes a starter config file
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a .esdbtop.yaml config file",
	Long: `Create a config file describing how to reach the cluster.

The node is contacted once before saving to catch typos early.

Examples:
  esdbtop init
  esdbtop init --global
  esdbtop init --endpoint https://node1:2113 --username admin --non-interactive`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if initGlobal {
			p, err := config.GlobalPath()
			if err != nil {
				return err
			}
			path = p
		}
		return Init(InitOptions{
			Path:           path,
			Endpoint:       initEndpointFlag,
			Username:       initUsernameFlag,
			Overwrite:      initForce,
			NonInteractive: initNonInteractive,
			SkipCheck:      initSkipCheck,
			Out:            cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	f := initCmd.Flags()
	f.StringVar(&initEndpointFlag, "endpoint", "", "node address, e.g. http://localhost:2113")
	f.StringVar(&initUsernameFlag, "username", "", "user for basic auth")
	f.BoolVarP(&initForce, "force", "f", false, "overwrite an existing config file")
	f.BoolVar(&initNonInteractive, "non-interactive", false, "skip prompts, use flags and defaults")
	f.BoolVar(&initSkipCheck, "skip-check", false, "do not contact the node before saving")
	f.BoolVar(&initGlobal, "global", false, "write ~/.config/esdbtop/config.yaml instead")
}
