// pricefeed — live PGM market data and catalytic converter payout engine
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ecotrade/pricefeed/api"
	"github.com/ecotrade/pricefeed/internal/alert"
	"github.com/ecotrade/pricefeed/internal/config"
	"github.com/ecotrade/pricefeed/internal/logger"
	"github.com/ecotrade/pricefeed/internal/market"
	"github.com/ecotrade/pricefeed/internal/source"
	"github.com/ecotrade/pricefeed/internal/storage"
	"github.com/ecotrade/pricefeed/pkg/models"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pricefeed",
	Short: "pricefeed — live PGM rates and converter payout calculation",
	Long: `pricefeed serves live platinum, palladium and rhodium spot prices
alongside a broader metals/energy/forex board, computes catalytic
converter payouts from the live rates, and raises alerts on large
price moves.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ratesCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pricefeed %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Serve Command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the market engine, alert evaluator and HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		level := cfg.Logging.Level
		if override, _ := cmd.Flags().GetString("log-level"); override != "" {
			level = override
		}
		log, err := logger.New(level, cfg.Logging.Format)
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		defer log.Sync()

		db, err := storage.Open(cfg.Storage.Path)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		store := market.NewStore(map[models.Metal]float64{
			models.MetalPlatinum:  cfg.Market.FallbackPt,
			models.MetalPalladium: cfg.Market.FallbackPd,
			models.MetalRhodium:   cfg.Market.FallbackRh,
		}, cfg.Market.FallbackUSDRate)

		batchTimeout := time.Duration(cfg.Market.BatchTimeout) * time.Second
		scraper := source.NewScraper(cfg.Market, log)
		exchange := source.NewExchangeClient(batchTimeout, log)
		quotes := source.NewQuoteClient(batchTimeout, log)
		news := source.NewNews(cfg.News.Feeds, time.Duration(cfg.News.CacheTTL)*time.Second, log)

		srv := api.NewServer(cfg, store, db, news, log)

		engine, err := market.NewEngine(market.EngineConfig{
			Store:     store,
			Scraper:   scraper,
			Exchange:  exchange,
			Quotes:    quotes,
			Universe:  source.Universe,
			Market:    cfg.Market,
			Logger:    log,
			OnPublish: srv.SnapshotHook(),
		})
		if err != nil {
			return fmt.Errorf("failed to build market engine: %w", err)
		}

		var notifier alert.Notifier
		if cfg.Alerts.WebhookURL != "" {
			notifier = alert.NewWebhookNotifier(cfg.Alerts.WebhookURL)
		} else {
			notifier = alert.NewLogNotifier(log)
		}
		evaluator := alert.NewEvaluator(store, notifier,
			cfg.Alerts.ThresholdPct,
			time.Duration(cfg.Alerts.Cooldown)*time.Second, log)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go engine.Run(ctx)
		go evaluator.Run(ctx, time.Duration(cfg.Alerts.Interval)*time.Second)

		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		fmt.Printf("🌐 Starting pricefeed API server on %s\n", addr)
		return srv.ListenAndServe(addr)
	},
}

// --- Rates Command ---

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Fetch the three PGM spot prices once and print them",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := logger.New("warn", cfg.Logging.Format)
		if err != nil {
			return err
		}
		defer log.Sync()

		scraper := source.NewScraper(cfg.Market, log)
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		fmt.Println("💰 PGM Spot Prices (USD/oz)")
		for _, metal := range []models.Metal{models.MetalPlatinum, models.MetalPalladium, models.MetalRhodium} {
			price, ok := scraper.Price(ctx, metal)
			if !ok {
				fmt.Printf("  %-10s fetch failed\n", metal.DisplayName()+":")
				continue
			}
			fmt.Printf("  %-10s $%.2f\n", metal.DisplayName()+":", price)
		}
		return nil
	},
}
