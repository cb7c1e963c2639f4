package main

import (
	"context"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"aegis/internal/app"
	"aegis/internal/config"
)

var version = "dev"

// globalOptions are flags shared by every subcommand. Empty values leave the
// environment configuration untouched.
type globalOptions struct {
	driver    string
	dbURL     string
	rules     string
	blocklist string
	noColor   bool
}

func newRootCmd() *cobra.Command {
	var opts globalOptions

	root := &cobra.Command{
		Use:     "aegis",
		Short:   "Lexical URL phishing risk scanner",
		Version: version,
		Long: `aegis scores URLs for phishing risk from their text alone. No network
requests are made: each URL runs through six lexical detection layers and a
reputation blocklist, and every scan is appended to a history log.`,
		Example: `  aegis scan https://bit.ly/3xAbCz9
  aegis scan -f urls.txt --json
  aegis history -n 20
  aegis serve`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			color.NoColor = opts.noColor || !term.IsTerminal(int(os.Stdout.Fd()))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := root.PersistentFlags()
	f.StringVar(&opts.driver, "db-driver", "", "History store: sqlite, postgres or memory (env DATABASE_DRIVER)")
	f.StringVar(&opts.dbURL, "db-url", "", "History store DSN or file (env DATABASE_URL)")
	f.StringVar(&opts.rules, "rules", "", "YAML rules file overriding the built-in lists (env RULES_FILE)")
	f.StringVar(&opts.blocklist, "blocklist", "", "Blocklist file, plain text or .bloom (env BLOCKLIST_FILE)")
	f.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		newServeCmd(&opts),
		newScanCmd(&opts),
		newHistoryCmd(&opts),
		newStatsCmd(&opts),
		newBlocklistCmd(),
	)
	return root
}

// loadConfig reads the environment and applies flag overrides.
func (o *globalOptions) loadConfig() *config.Config {
	cfg := config.Load()
	if o.driver != "" {
		cfg.DatabaseDriver = o.driver
	}
	if o.dbURL != "" {
		cfg.DatabaseURL = o.dbURL
	}
	if o.rules != "" {
		cfg.RulesFile = o.rules
	}
	if o.blocklist != "" {
		cfg.BlocklistFile = o.blocklist
	}
	return cfg
}

func (o *globalOptions) open(ctx context.Context) (*app.App, error) {
	return app.Open(ctx, o.loadConfig())
}
