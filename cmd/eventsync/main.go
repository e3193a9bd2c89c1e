// Command eventsync extracts structured event data from social media posts.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/frierosdesign/eventsync/internal/acquirer"
	"github.com/frierosdesign/eventsync/internal/auth"
	"github.com/frierosdesign/eventsync/internal/browser"
	"github.com/frierosdesign/eventsync/internal/config"
	"github.com/frierosdesign/eventsync/internal/logging"
	"github.com/frierosdesign/eventsync/internal/normalizer"
	"github.com/frierosdesign/eventsync/internal/pipeline"
	"github.com/frierosdesign/eventsync/internal/ratelimit"
	"github.com/frierosdesign/eventsync/internal/scheduler"
	"github.com/frierosdesign/eventsync/internal/store"
	"github.com/frierosdesign/eventsync/internal/vision"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "eventsync",
		Short:         "Extract structured event data from social media posts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	root.AddCommand(extractCmd(), validateCmd(), daemonCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// runtime bundles the wired pipeline with the resources it owns.
type runtime struct {
	cfg      *config.Config
	log      *logrus.Logger
	browser  *browser.Browser
	cache    *store.Cache
	pipeline *pipeline.Pipeline
}

func (r *runtime) close() {
	r.browser.Stop()
	if r.cache != nil {
		r.cache.Close()
	}
}

func buildRuntime(withCache bool) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logging.New(cfg.Log.Level)

	userAgent := cfg.Browser.UserAgent
	if userAgent == "" {
		userAgent = browser.DefaultUserAgent
	}
	b := browser.New(cfg.Browser.Headless, userAgent)

	acquireGate := ratelimit.NewGate(time.Duration(cfg.Acquisition.MinIntervalMillis) * time.Millisecond)
	cookies := auth.NewCookieStore(cfg.Acquisition.CookieStorePath)

	acq := acquirer.New(b, cookies, acquireGate, log, acquirer.Options{
		NavigationTimeout: time.Duration(cfg.Acquisition.NavigationTimeoutSecs) * time.Second,
		SelectorTimeout:   time.Duration(cfg.Acquisition.SelectorTimeoutSecs) * time.Second,
		SyntheticFallback: cfg.Acquisition.SyntheticFallback,
	})

	inferenceGate := ratelimit.NewGate(time.Duration(cfg.Acquisition.MinIntervalMillis) * time.Millisecond)
	extractor := vision.New(cfg.Inference.APIKey, cfg.Inference.Model, inferenceGate, log, cfg.Inference.MaxAttempts)
	if cfg.Inference.APIKey == "" {
		log.Warn("No API key configured, inference disabled")
	}

	var cache *store.Cache
	if withCache && cfg.Cache.Path != "" {
		cache, err = store.New(cfg.Cache.Path, time.Duration(cfg.Cache.TTLHours)*time.Hour)
		if err != nil {
			return nil, fmt.Errorf("failed to open cache: %w", err)
		}
	}

	norm := normalizer.New(cfg.Cache.Timezone)

	r := &runtime{
		cfg:     cfg,
		log:     log,
		browser: b,
		cache:   cache,
	}
	if cache != nil {
		r.pipeline = pipeline.New(acq, extractor, norm, cache, log)
	} else {
		r.pipeline = pipeline.New(acq, extractor, norm, nil, log)
	}
	return r, nil
}

func extractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <url>",
		Short: "Extract event data from a post URL and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime(true)
			if err != nil {
				return err
			}
			defer rt.close()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			result, err := rt.pipeline.Extract(ctx, args[0])
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <url>",
		Short: "Check whether a URL is a valid, reachable post URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rawURL := args[0]
			if !acquirer.ValidPostURL(rawURL) {
				return fmt.Errorf("not a valid post url: %s", rawURL)
			}
			fmt.Printf("valid:     %s\n", rawURL)
			fmt.Printf("shortcode: %s\n", acquirer.Shortcode(rawURL))
			fmt.Printf("type:      %s\n", acquirer.ContentTypeOf(rawURL))
			return nil
		},
	}
}

func daemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the extraction service with periodic cache maintenance",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime(true)
			if err != nil {
				return err
			}
			defer rt.close()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := rt.browser.Start(ctx); err != nil {
				return err
			}

			var sched *scheduler.Scheduler
			if rt.cache != nil {
				sched, err = scheduler.New(rt.cfg.Cache.Timezone, rt.log)
				if err != nil {
					return err
				}
				err = sched.AddJob("cache-sweep", rt.cfg.Cache.SweepSchedule, func(context.Context) error {
					swept, err := rt.cache.SweepExpired()
					if err != nil {
						return err
					}
					rt.log.WithField("swept", swept).Info("Cache sweep completed")
					return nil
				})
				if err != nil {
					return err
				}
				sched.Start()
				defer sched.Stop()
			}

			rt.log.Info("Extraction service running, press Ctrl+C to stop")
			<-ctx.Done()
			rt.log.Info("Shutting down")
			return nil
		},
	}
}
