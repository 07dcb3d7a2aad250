package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adda-Baaj/khobor-dash/internal/keystore"
	"github.com/Adda-Baaj/khobor-dash/pkg/httpclient"
	"github.com/Adda-Baaj/khobor-dash/pkg/providers"
)

var errInvalidKey = errors.New("key rejected by the headline service")

// keyNames maps short service names to keystore entries.
var keyNames = map[string]string{
	"headline":              keystore.HeadlineAPIKey,
	"newsapi":               keystore.HeadlineAPIKey,
	keystore.HeadlineAPIKey: keystore.HeadlineAPIKey,
	"scrape":                keystore.ScrapeAPIKey,
	"firecrawl":             keystore.ScrapeAPIKey,
	keystore.ScrapeAPIKey:   keystore.ScrapeAPIKey,
}

func resolveKeyName(raw string) (string, error) {
	if name, ok := keyNames[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return name, nil
	}
	return "", fmt.Errorf("unknown key %q (expected headline or scrape)", raw)
}

func newKeyCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage stored API keys",
		Long: `Store and inspect the API keys used by the headline and scrape sources.

Keys live in a local file (keystore.path). Keys set in config or KHOBOR_*
environment variables take precedence over stored ones.`,
	}
	cmd.AddCommand(newKeySetCommand(a), newKeyGetCommand(a), newKeyVerifyCommand(a))
	return cmd
}

func (a *app) withStore(fn func(*keystore.Store) error) error {
	store, err := keystore.Open(a.cfg.Keystore.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newKeySetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <headline|scrape> <value>",
		Short: "Store a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := resolveKeyName(args[0])
			if err != nil {
				return err
			}
			return a.withStore(func(s *keystore.Store) error {
				if err := s.Save(name, args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", name)
				return nil
			})
		},
	}
}

func newKeyGetCommand(a *app) *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "get <headline|scrape>",
		Short: "Show a stored key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := resolveKeyName(args[0])
			if err != nil {
				return err
			}
			return a.withStore(func(s *keystore.Store) error {
				v, err := s.Get(name)
				if errors.Is(err, keystore.ErrNotFound) {
					return fmt.Errorf("%s is not set", name)
				}
				if err != nil {
					return err
				}
				if !reveal {
					v = mask(v)
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&reveal, "reveal", false, "print the full key")
	return cmd
}

func newKeyVerifyCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify [value]",
		Short: "Check a headline key against the headline service",
		Long: `Send a one-article request to the headline service. Without an argument the
configured or stored headline key is checked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			key := ""
			if len(args) == 1 {
				key = args[0]
			} else {
				key, _ = a.credentials()
			}
			if strings.TrimSpace(key) == "" {
				return errors.New("no headline key to verify")
			}

			f := providers.NewHeadlineFetcher(httpclient.NewRestyClient(a.cfg.Headline.Timeout), providers.HeadlineConfig{
				BaseURL: a.cfg.Headline.BaseURL,
				Country: a.cfg.Headline.Country,
			}, a.log)
			verifier, ok := f.(providers.KeyVerifier)
			if !ok {
				return errors.New("headline source cannot verify keys")
			}
			if !verifier.VerifyKey(ctx, key) {
				return errInvalidKey
			}
			fmt.Fprintln(cmd.OutOrStdout(), "key is valid")
			return nil
		},
	}
}

// mask keeps the first and last four characters of long keys.
func mask(v string) string {
	r := []rune(v)
	if len(r) <= 8 {
		return strings.Repeat("*", len(r))
	}
	return string(r[:4]) + strings.Repeat("*", len(r)-8) + string(r[len(r)-4:])
}
