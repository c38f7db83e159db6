package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/expawatch/internal/adapter"
	"github.com/amishk599/expawatch/internal/classify"
	"github.com/amishk599/expawatch/internal/config"
	"github.com/amishk599/expawatch/internal/model"
	"github.com/amishk599/expawatch/internal/notifier"
	"github.com/amishk599/expawatch/internal/poller"
	"github.com/amishk599/expawatch/internal/ratelimit"
	"github.com/amishk599/expawatch/internal/retry"
	"github.com/amishk599/expawatch/internal/store"
)

// upstreamName keys the shared rate limiter; both kinds hit the same API.
const upstreamName = "expa"

const retryBaseDelay = 5 * time.Second

var (
	cfgPath   string
	debug     bool
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "expawatch",
	Short: "EXPA signup and application alerts",
	Long:  "expawatch polls the EXPA GraphQL API for new signups and applications and posts each new one to the matching chat channel.",
	// Default to `start` so that `expawatch` with no args runs the daemon.
	RunE:         runStart,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: "+config.EnvPath+" env var or ./"+config.DefaultPath+")")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")
}

// loadConfig resolves the config path and parses it.
// Priority: --config flag > EXPAWATCH_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	return config.Load(config.ResolvePath(path))
}

// mustLoadConfig loads the config or exits; a bad config is fatal before any poll.
func mustLoadConfig(logger *slog.Logger) *config.Config {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	return cfg
}

func setupLogger(dbg bool, format string) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: logLevel}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	formatter := notifier.NewFormatter(cfg.Routing.Location)
	switch cfg.Notification.Type {
	case "chat":
		logger.Info("using chat notifier", "channels", len(cfg.Notification.Channels), "rate_per_minute", cfg.Notification.RatePerMinute)
		return notifier.NewChatNotifier(cfg.Notification.Channels, cfg.Notification.RatePerMinute, formatter, httpClient, logger)
	default:
		return notifier.NewLogNotifier(formatter, logger)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (model.RecordStore, error) {
	return store.Open(ctx, store.Options{
		Driver: cfg.Store.Driver,
		Path:   cfg.Store.Path,
		DSN:    cfg.Store.DSN,
		Redis: store.RedisOptions{
			Address:  cfg.Store.Redis.Address,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
			Prefix:   cfg.Store.Redis.Prefix,
		},
	})
}

func newClassifier(cfg *config.Config) *classify.Classifier {
	return classify.NewClassifier(cfg.Routing.TargetProgramme, cfg.Routing.HomeLocation)
}

// createFetcher builds the fetcher chain for kind: adapter → rate limit → retry.
func createFetcher(kind model.Kind, client *adapter.GraphQLClient, limiter *ratelimit.UpstreamLimiter, retries int, logger *slog.Logger) model.RecordFetcher {
	var fetcher model.RecordFetcher
	switch kind {
	case model.KindSignup:
		fetcher = adapter.NewSignupFetcher(client)
	default:
		fetcher = adapter.NewApplicationFetcher(client)
	}
	fetcher = ratelimit.NewRateLimitedFetcher(fetcher, limiter, upstreamName)
	policy := retry.Policy{MaxRetries: retries, BaseDelay: retryBaseDelay}
	return retry.NewFetcher(fetcher, policy, logger.With("kind", string(kind)))
}

func buildPollers(cfg *config.Config, recordStore model.RecordStore, n model.Notifier, logger *slog.Logger) []*poller.KindPoller {
	httpClient := &http.Client{Timeout: cfg.Upstream.Timeout}
	client := adapter.NewGraphQLClient(cfg.Upstream.URL, cfg.Upstream.Token, httpClient)
	limiter := ratelimit.NewUpstreamLimiter(cfg.Upstream.MinDelay)
	classifier := newClassifier(cfg)
	logger.Info("rate limiter configured", "min_delay", cfg.Upstream.MinDelay.String())

	var pollers []*poller.KindPoller
	for _, kind := range cfg.EnabledKinds() {
		pc := cfg.Pollers[kind]
		p := poller.NewKindPoller(
			kind,
			createFetcher(kind, client, limiter, cfg.Upstream.Retries, logger),
			recordStore,
			classifier,
			n,
			poller.Options{
				Params: model.PageParams{
					Page:    1,
					PerPage: pc.PageSize,
					Filters: pc.Filters,
					Query:   pc.Query,
				},
				Interval:     pc.Interval,
				StartDelay:   pc.StartDelay,
				UseWatermark: pc.Watermark,
			},
			logger,
		)
		pollers = append(pollers, p)
		logger.Info("registered poller", "kind", string(kind), "interval", pc.Interval.String(), "page_size", pc.PageSize)
	}
	return pollers
}
