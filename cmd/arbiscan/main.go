// Command arbiscan is the scanner's single binary, exposing the five
// entry points of §6 as cobra subcommands: scanner (full pipeline),
// discovery (one-shot registry rebuild), price_monitor, alert_worker and
// notification_bot. Graceful shutdown follows the teacher's
// cmd/server/main.go idiom: SIGINT/SIGTERM triggers a 30s-bounded
// context.WithTimeout shutdown.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"arbiscan/internal/alert"
	"arbiscan/internal/api"
	"arbiscan/internal/collector"
	"arbiscan/internal/config"
	"arbiscan/internal/model"
	"arbiscan/internal/notify"
	"arbiscan/internal/opsfeed"
	"arbiscan/internal/orchestrator"
	"arbiscan/internal/orderbook"
	"arbiscan/internal/registry"
	"arbiscan/internal/venue"
)

var rootCmd = &cobra.Command{
	Use:   "arbiscan",
	Short: "Real-time cross-venue crypto arbitrage scanner",
	Long: `arbiscan watches CEX and DEX order books for executable spreads,
validates them against liquidity and slippage safeguards, and dispatches
alerts through a notification transport. It never places an order.`,
}

func init() {
	rootCmd.AddCommand(scannerCmd, discoveryCmd, priceMonitorCmd, alertWorkerCmd, notificationBotCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "arbiscan: %v\n", err)
		os.Exit(1)
	}
}

// runUntilSignal runs fn in a goroutine and blocks until SIGINT/SIGTERM,
// then gives fn up to 30s to observe ctx cancellation and return.
func runUntilSignal(fn func(ctx context.Context) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	go func() {
		fn(ctx)
		close(done)
	}()

	<-ctx.Done()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
	}
	return nil
}

// newWebhookTransport builds the alert dispatch transport from
// NOTIFY_WEBHOOK_URL; it falls back to a placeholder localhost URL otherwise
// so scanner/alert_worker still start in dev without a configured sink.
func newWebhookTransport() notify.Transport {
	url := os.Getenv("NOTIFY_WEBHOOK_URL")
	if url == "" {
		url = "http://localhost:1/notify-webhook-not-configured"
	}
	return notify.NewWebhookTransport(url, &http.Client{Timeout: 10 * time.Second})
}

func httpServer(handler http.Handler, cfg *config.Config) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// buildVenueAdapters constructs every supported CEX adapter plus the
// parallel futures/spot adapter slices Discovery needs.
func buildVenueAdapters() (adapters map[string]venue.Adapter, venues map[string]model.Venue,
	futuresAdapters, spotAdapters []venue.Adapter, err error) {

	httpClient := venue.NewHTTPClient(venue.DefaultHTTPClientConfig())
	adapters, venues, err = venueFleet(httpClient)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	for id, a := range adapters {
		if venues[id].Kind == model.KindCEXFutures {
			futuresAdapters = append(futuresAdapters, a)
		} else {
			spotAdapters = append(spotAdapters, a)
		}
	}
	return adapters, venues, futuresAdapters, spotAdapters, nil
}

// buildScanner wires collector, order-book fetcher, registry, discovery,
// pair source and the orchestrator's Scanner — the common core shared by
// scanner and alert_worker, which differ only in whether they also serve
// the HTTP/ops API.
func buildScanner(d *deps, hub *opsfeed.Hub, reloader *config.Reloader) (*orchestrator.Scanner, *registry.PairSource, *registry.Discovery, error) {
	adapters, venues, futuresAdapters, spotAdapters, err := buildVenueAdapters()
	if err != nil {
		return nil, nil, nil, err
	}

	coll := collector.New(d.kv, d.metrics, d.log)
	coll.SetTickInterval(collectorPollInterval(d.cfg))
	for id, a := range adapters {
		if venues[id].Kind == model.KindCEXFutures {
			coll.AddSource(a, model.MarketFutures)
		} else {
			coll.AddSource(a, model.MarketSpot)
		}
	}

	fetcher := orderbook.New(d.kv, d.metrics, d.log)

	reg := registry.New(d.kv)
	disc := registry.NewDiscovery(reg, futuresAdapters, spotAdapters, nil, map[string]string{},
		decimal.NewFromFloat(d.cfg.Scanner.MinDEXLiquidityUSD), d.log)

	pairSrc := registry.NewPairSource(reg, venues, d.log)

	sc := orchestrator.New(orchestrator.Config{
		Collector:      coll,
		Fetcher:        fetcher,
		Adapters:       adapters,
		Venues:         venues,
		Pairs:          pairSrc,
		KV:             d.kv,
		Transport:      newWebhookTransport(),
		Hub:            hub,
		Metrics:        d.metrics,
		Log:            d.log,
		ConfigReloader: reloader,
		ScanInterval:   time.Duration(d.cfg.Scanner.PriceUpdateIntervalSec) * time.Second,
		CooldownTTL:    time.Duration(d.cfg.Scanner.AlertCooldownSeconds) * time.Second,
		DefaultPosUSD:  decimal.NewFromFloat(d.cfg.Scanner.SuggestedPositionUSD),
	})

	return sc, pairSrc, disc, nil
}

// discoveryLoop re-runs discovery and refreshes the cached pair list on
// the configured interval (§4.2 default 24h), until ctx is cancelled.
func discoveryLoop(ctx context.Context, d *deps, disc *registry.Discovery, pairSrc *registry.PairSource) {
	hours := d.cfg.Scanner.TickerDiscoveryIntervalH
	if hours <= 0 {
		hours = 24
	}
	ticker := time.NewTicker(time.Duration(hours) * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := disc.Run(ctx); err != nil {
				d.log.Error().Err(err).Msg("arbiscan: periodic discovery failed")
				continue
			}
			if err := pairSrc.Refresh(ctx); err != nil {
				d.log.Error().Err(err).Msg("arbiscan: periodic pair refresh failed")
			}
		}
	}
}

var scannerCmd = &cobra.Command{
	Use:   "scanner",
	Short: "Run the full pipeline: discovery, collection, scan loop and the admin API",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := bootstrap()
		if err != nil {
			return err
		}

		hub := opsfeed.NewHub(d.log)
		go hub.Run()

		reloader := config.NewReloader(d.kv, d.cfg.Scanner, 5*time.Second, d.log)
		sc, pairSrc, disc, err := buildScanner(d, hub, reloader)
		if err != nil {
			return err
		}

		blacklist := alert.NewBlacklist(d.kv)

		router := api.SetupRoutes(&api.Dependencies{
			Blacklist: blacklist,
			Reloader:  reloader,
			KV:        d.kv,
			Hub:       hub,
			Log:       d.log,
		})
		server := httpServer(router, d.cfg)

		return runUntilSignal(func(ctx context.Context) error {
			if err := disc.Run(ctx); err != nil {
				d.log.Error().Err(err).Msg("arbiscan: initial discovery failed")
			}
			if err := pairSrc.Refresh(ctx); err != nil {
				d.log.Error().Err(err).Msg("arbiscan: initial pair refresh failed")
			}

			go discoveryLoop(ctx, d, disc, pairSrc)
			go reloader.Run(ctx)

			go func() {
				d.log.Info().Str("addr", server.Addr).Msg("arbiscan: serving admin API")
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					d.log.Error().Err(err).Msg("arbiscan: http server exited")
				}
			}()

			go func() {
				if err := sc.Run(ctx); err != nil && ctx.Err() == nil {
					d.log.Error().Err(err).Msg("arbiscan: scanner exited")
				}
			}()

			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				d.log.Error().Err(err).Msg("arbiscan: http server forced shutdown")
			}
			return ctx.Err()
		})
	},
}

var discoveryCmd = &cobra.Command{
	Use:   "discovery",
	Short: "Run one ticker-registry discovery pass and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := bootstrap()
		if err != nil {
			return err
		}
		_, pairSrc, disc, err := buildScanner(d, nil, nil)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := disc.Run(ctx); err != nil {
			return err
		}
		return pairSrc.Refresh(ctx)
	},
}

var priceMonitorCmd = &cobra.Command{
	Use:   "price_monitor",
	Short: "Run only the per-venue price collector, writing latest prices to the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := bootstrap()
		if err != nil {
			return err
		}
		adapters, venues, _, _, err := buildVenueAdapters()
		if err != nil {
			return err
		}
		coll := collector.New(d.kv, d.metrics, d.log)
		coll.SetTickInterval(collectorPollInterval(d.cfg))
		for id, a := range adapters {
			if venues[id].Kind == model.KindCEXFutures {
				coll.AddSource(a, model.MarketFutures)
			} else {
				coll.AddSource(a, model.MarketSpot)
			}
		}
		return runUntilSignal(coll.Run)
	},
}

// alert_worker runs the same scan/validate/signal/gate pipeline as
// scanner, without its own HTTP surface. The alert gate's cooldown and
// dedup primitives are KV-level create-if-absent operations (§4.8), so
// running this alongside a separate scanner process against the same
// Redis instance is safe: at most one of them wins the dispatch race for
// any given pair tick. This lets an operator split scan-and-alert load
// across processes without a second coordination mechanism.
var alertWorkerCmd = &cobra.Command{
	Use:   "alert_worker",
	Short: "Run the scan/validate/alert pipeline without serving the admin API",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := bootstrap()
		if err != nil {
			return err
		}
		reloader := config.NewReloader(d.kv, d.cfg.Scanner, 5*time.Second, d.log)
		sc, pairSrc, disc, err := buildScanner(d, nil, reloader)
		if err != nil {
			return err
		}
		return runUntilSignal(func(ctx context.Context) error {
			if err := disc.Run(ctx); err != nil {
				d.log.Error().Err(err).Msg("arbiscan: initial discovery failed")
			}
			if err := pairSrc.Refresh(ctx); err != nil {
				d.log.Error().Err(err).Msg("arbiscan: initial pair refresh failed")
			}
			go discoveryLoop(ctx, d, disc, pairSrc)
			go reloader.Run(ctx)
			return sc.Run(ctx)
		})
	},
}

// notification_bot serves the read-only admin/ops surface only: health,
// metrics, blacklist, settings and the /ws/ops dashboard feed. It runs no
// scan loop of its own; it exists so a dashboard or the Telegram bot
// (§1 Non-goals — external consumer, not built here) has something to
// poll/subscribe to without sharing a process with the scan loop.
var notificationBotCmd = &cobra.Command{
	Use:   "notification_bot",
	Short: "Serve the admin API and ops WebSocket feed only",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := bootstrap()
		if err != nil {
			return err
		}
		hub := opsfeed.NewHub(d.log)
		go hub.Run()

		blacklist := alert.NewBlacklist(d.kv)
		reloader := config.NewReloader(d.kv, d.cfg.Scanner, 5*time.Second, d.log)

		router := api.SetupRoutes(&api.Dependencies{
			Blacklist: blacklist,
			Reloader:  reloader,
			KV:        d.kv,
			Hub:       hub,
			Log:       d.log,
		})
		server := httpServer(router, d.cfg)

		return runUntilSignal(func(ctx context.Context) error {
			go reloader.Run(ctx)
			go func() {
				d.log.Info().Str("addr", server.Addr).Msg("arbiscan: serving admin API")
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					d.log.Error().Err(err).Msg("arbiscan: http server exited")
				}
			}()
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	},
}
