package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"tipjar/internal/app"
	"tipjar/internal/domain"
)

var (
	configPath string
	home       string
	serviceURL string
	passphrase string
	logLevel   string
	backend    string
	assumeYes  bool

	wire *app.Wire
)

func Execute() error {
	root := &cobra.Command{
		Use:          "tipjar",
		Short:        "Manage a tip-jar donor identity",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
				return err
			}
			wire, err = app.NewWire(cfg, app.Options{Approver: approve})
			if err != nil {
				return err
			}
			return wire.Session.Start(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if wire == nil {
				return nil
			}
			return wire.Close()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file (default <home>/config.yaml)")
	pf.StringVar(&home, "home", "", "state dir (default ~/.tipjar)")
	pf.StringVar(&serviceURL, "service", "", "tip-jar service base URL")
	pf.StringVarP(&passphrase, "passphrase", "p", "", "passphrase to protect keys")
	pf.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&backend, "store", "", "store backend (file or badger)")
	pf.BoolVarP(&assumeYes, "yes", "y", false, "approve logins without prompting")

	root.AddCommand(
		statusCmd(), loginCmd(), logoutCmd(), tempCmd(), importCmd(),
		aboutCmd(), allocateCmd(), balanceCmd(), statsCmd(), pingCmd(),
		topupAccountCmd(), topupCmd(), watchCmd(),
	)
	return root.ExecuteContext(context.Background())
}

// loadConfig reads the config file and applies the flags that were set.
func loadConfig(cmd *cobra.Command) (app.Config, error) {
	dir := home
	if dir == "" {
		dir = app.DefaultHome()
	}
	path := configPath
	if path == "" {
		path = filepath.Join(dir, "config.yaml")
	}
	cfg, err := app.LoadConfig(path)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("home") {
		cfg.Home = home
	}
	if flags.Changed("service") {
		cfg.ServiceURL = serviceURL
	}
	if flags.Changed("passphrase") {
		cfg.Passphrase = passphrase
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("store") {
		cfg.StoreBackend = backend
	}
	return cfg, cfg.Validate()
}

// approve asks on the terminal before the provider signs in.
func approve(_ context.Context, p domain.Principal) error {
	if assumeYes {
		return nil
	}
	fmt.Fprintf(os.Stderr, "Sign in as %s? [y/N] ", p.Text())
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return nil
	default:
		return errors.New("not approved")
	}
}
