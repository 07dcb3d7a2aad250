// Package cli contains the khobor command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Adda-Baaj/khobor-dash/internal/config"
	"github.com/Adda-Baaj/khobor-dash/internal/keystore"
	"github.com/Adda-Baaj/khobor-dash/internal/logger"
)

// app carries state shared by subcommands once the root has loaded config.
type app struct {
	opts config.Options
	cfg  *config.Config
	log  logger.Logger
}

// NewRootCommand builds the khobor command tree. Output is written to out.
func NewRootCommand(out io.Writer) *cobra.Command {
	a := &app{log: logger.NopLogger{}}

	root := &cobra.Command{
		Use:   "khobor",
		Short: "Multi-source news retrieval",
		Long: `khobor retrieves news articles from one of three sources and normalizes them
into a single article shape.

Sources:
  fixture    built-in demo catalog
  headline   NewsAPI-compatible headline service
  scrape     news sites scraped through the scrape proxy

Example usage:
  khobor fetch --category technology      # Retrieve and print as JSON
  khobor fetch --query "election"         # Search the active source
  khobor proxy                            # Run the scrape proxy on :5000
  khobor key set headline <key>           # Store the NewsAPI key`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.log.Sync()
		},
	}
	root.SetOut(out)

	root.PersistentFlags().StringVar(&a.opts.ConfigFile, "config", "", "config file (default is ./khobor.yaml)")
	root.PersistentFlags().StringVar(&a.opts.EnvFile, "env-file", "", "dotenv file to load (default is ./.env)")

	root.AddCommand(
		newFetchCommand(a),
		newProxyCommand(a),
		newKeyCommand(a),
	)
	return root
}

// Execute runs the CLI with process arguments and exits non-zero on error.
func Execute() {
	if err := NewRootCommand(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (a *app) init() error {
	cfg, err := config.Load(a.opts)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}

	a.cfg = cfg
	a.log = log
	a.log.DebugObj("configuration loaded", "config_loaded", map[string]any{
		"source":   cfg.Source,
		"keystore": cfg.Keystore.Path,
	})
	return nil
}

// credentials returns the headline and scrape keys. Configured values win;
// missing ones are read from the keystore. An unavailable keystore is logged
// and treated as empty.
func (a *app) credentials() (headline, scrape string) {
	headline, scrape = a.cfg.Headline.APIKey, a.cfg.Scrape.APIKey
	if headline != "" && scrape != "" {
		return headline, scrape
	}

	store, err := keystore.Open(a.cfg.Keystore.Path)
	if err != nil {
		a.log.WarnObj("keystore unavailable", "keystore_open_error", map[string]any{
			"path":  a.cfg.Keystore.Path,
			"error": err.Error(),
		})
		return headline, scrape
	}
	defer store.Close()

	if headline == "" {
		headline = a.lookup(store, keystore.HeadlineAPIKey)
	}
	if scrape == "" {
		scrape = a.lookup(store, keystore.ScrapeAPIKey)
	}
	return headline, scrape
}

func (a *app) lookup(store *keystore.Store, name string) string {
	v, err := store.Lookup(name)
	if err != nil {
		a.log.WarnObj("keystore read failed", "keystore_read_error", map[string]any{
			"name":  name,
			"error": err.Error(),
		})
	}
	return v
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
