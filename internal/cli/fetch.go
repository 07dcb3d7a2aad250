package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adda-Baaj/khobor-dash/internal/domain"
	"github.com/Adda-Baaj/khobor-dash/internal/retrieval"
	"github.com/Adda-Baaj/khobor-dash/pkg/httpclient"
	"github.com/Adda-Baaj/khobor-dash/pkg/providers"
	"github.com/Adda-Baaj/khobor-dash/pkg/publishers"
)

type fetchOptions struct {
	source   string
	category string
	query    string
	publish  bool
}

func newFetchCommand(a *app) *cobra.Command {
	var opts fetchOptions

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Retrieve articles from the active source",
		Long: `Run one retrieval against the configured source and print the resulting
view state as JSON.

Examples:
  khobor fetch                              # General headlines
  khobor fetch --category sports            # One category
  khobor fetch --source scrape --query ai   # Override the source, search
  khobor fetch --publish                    # Also send articles to sinks`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			return a.runFetch(ctx, cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.source, "source", "", "source to use (fixture, headline, scrape); overrides config")
	cmd.Flags().StringVarP(&opts.category, "category", "c", domain.CategoryGeneral, "category to retrieve")
	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "search text matched against title and description")
	cmd.Flags().BoolVar(&opts.publish, "publish", false, "send retrieved articles to the sinks in publishers_file")
	return cmd
}

// fetchers builds every source with credentials already resolved.
func (a *app) fetchers() providers.FetcherRegistry {
	headlineKey, scrapeKey := a.credentials()

	return providers.NewFetcherRegistry(
		providers.NewFixtureFetcher(a.cfg.Fixture.Delay, nil),
		providers.NewHeadlineFetcher(httpclient.NewRestyClient(a.cfg.Headline.Timeout), providers.HeadlineConfig{
			BaseURL:  a.cfg.Headline.BaseURL,
			APIKey:   headlineKey,
			PageSize: a.cfg.Headline.PageSize,
			Country:  a.cfg.Headline.Country,
		}, a.log),
		providers.NewScrapeFetcher(httpclient.NewRestyClient(a.cfg.Scrape.Timeout), providers.ScrapeConfig{
			Endpoint:   a.cfg.Scrape.Endpoint,
			APIKey:     scrapeKey,
			MaxTargets: a.cfg.Scrape.MaxTargets,
			Targets:    a.cfg.Scrape.Targets,
		}, a.log),
	)
}

func (a *app) runFetch(ctx context.Context, cmd *cobra.Command, opts fetchOptions) error {
	source := a.cfg.Source
	if opts.source != "" {
		source = opts.source
	}

	fetcher, err := a.fetchers().FetcherFor(source)
	if err != nil {
		return err
	}

	orch, err := retrieval.New(fetcher,
		retrieval.WithLogger(a.log),
		retrieval.WithOnChange(func(st retrieval.State) {
			a.log.DebugObj("state changed", "state_change", map[string]any{
				"generation": st.Generation,
				"loading":    st.Loading,
				"articles":   len(st.Articles),
				"error":      st.Error,
			})
		}),
	)
	if err != nil {
		return err
	}

	retrievedAt := time.Now()
	st, _ := orch.Retrieve(ctx, opts.category, opts.query)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(st); err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	if !opts.publish || len(st.Articles) == 0 {
		return nil
	}
	events := publishers.NewEvents(fetcher.ID(), opts.category, opts.query, retrievedAt, st.Articles)
	return a.publish(ctx, events)
}

func (a *app) publish(ctx context.Context, events []publishers.Event) error {
	if a.cfg.PublishersFile == "" {
		return errors.New("--publish needs publishers_file to be configured")
	}

	cfgs, err := publishers.LoadConfigs(a.cfg.PublishersFile)
	if err != nil {
		return err
	}
	d, err := publishers.DefaultRegistry().BuildDispatcher(ctx, cfgs, a.log)
	if err != nil {
		return err
	}

	pubErr := d.PublishAll(ctx, events)
	closeErr := d.Close()
	a.log.InfoObj("articles published", "publish_done", map[string]any{
		"publishers": d.Len(),
		"events":     len(events),
		"failed":     pubErr != nil,
	})
	return errors.Join(pubErr, closeErr)
}
