package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adda-Baaj/khobor-dash/internal/proxy"
	"github.com/Adda-Baaj/khobor-dash/pkg/httpclient"
)

const proxyShutdownTimeout = 10 * time.Second

func newProxyCommand(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Run the scrape proxy",
		Long: `Serve POST /scrape, forwarding {"url": ...} to the upstream scraping service.

When a scrape key is configured (or stored with "khobor key set scrape") it is
sent upstream; otherwise the caller's Authorization header is passed through.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			cfg := a.cfg.Proxy
			if addr != "" {
				cfg.Addr = addr
			}
			if cfg.APIKey == "" {
				_, cfg.APIKey = a.credentials()
			}

			srv := proxy.New(proxy.Config{
				Addr:        cfg.Addr,
				UpstreamURL: cfg.UpstreamURL,
				APIKey:      cfg.APIKey,
			}, httpclient.NewRestyClient(cfg.Timeout), a.log)

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, stop := context.WithTimeout(context.Background(), proxyShutdownTimeout)
			defer stop()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address; overrides proxy.addr")
	return cmd
}
