// cmd/record.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/scribe/internal/browser"
	"github.com/xkilldash9x/scribe/internal/browser/proxy"
	"github.com/xkilldash9x/scribe/internal/browser/shim"
	"github.com/xkilldash9x/scribe/internal/config"
	"github.com/xkilldash9x/scribe/internal/observability"
	"github.com/xkilldash9x/scribe/internal/recorder"
	"github.com/xkilldash9x/scribe/internal/reporting"
	"github.com/xkilldash9x/scribe/internal/store"
	"github.com/xkilldash9x/scribe/internal/synth"
)

const (
	shutdownTimeout = 15 * time.Second
	persistTimeout  = 30 * time.Second
)

// pooledDB is a store pool the command owns and must close.
type pooledDB interface {
	store.DBPool
	Close()
}

// openPool is swapped in tests.
var openPool = func(ctx context.Context, url string) (pooledDB, error) {
	return store.Connect(ctx, url)
}

func newRecordCmd(v *viper.Viper) *cobra.Command {
	recordCmd := &cobra.Command{
		Use:   "record <url>",
		Short: "Open a browser on url and record interactions until interrupted",
		Long: `Opens Chrome on the target URL and records clicks and form input.
Press Ctrl+C (or close the browser) to stop; the generated Playwright test is
then written to stdout or --output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := configFromContext(ctx)
			if err != nil {
				return err
			}
			logger := observability.GetLogger()

			target, err := browser.NormalizeURL(args[0])
			if err != nil {
				return err
			}

			sess := recorder.NewSession(target, sessionOptions(cfg), logger)
			release, err := runRecording(ctx, cfg, sess, logger)
			sess.Stop()
			if err != nil {
				release()
				return err
			}
			// Synthesize from the frozen log before the browser goes away.
			sess.Script()
			release()

			finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
			defer cancel()
			return finishRecording(finishCtx, cfg, sess, cmd.OutOrStdout(), logger)
		},
	}

	flags := recordCmd.Flags()
	flags.StringP("output", "o", "", "Write the generated script to this file (.br for brotli). Defaults to stdout.")
	flags.String("actions-out", "", "Also write the recorded action log as JSON to this file.")
	flags.Bool("headless", false, "Run Chrome without a window.")
	flags.String("network-mode", config.NetworkModeCDP, "Network observation: cdp, proxy or off.")
	flags.Duration("nav-timeout", 6*time.Minute, "Timeout for the initial navigation.")
	flags.String("test-name", synth.DefaultTestName, "Name of the generated test.")

	// Flags override config file and environment.
	for key, flag := range map[string]string{
		"script.output":              "output",
		"script.actions_output":      "actions-out",
		"script.test_name":           "test-name",
		"browser.headless":           "headless",
		"network.mode":               "network-mode",
		"network.navigation_timeout": "nav-timeout",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}
	return recordCmd
}

func scriptOptions(cfg config.Interface) synth.Options {
	return synth.Options{
		TestName:    cfg.Script().TestName,
		ModuleStyle: synth.ModuleStyle(cfg.Script().ModuleStyle),
	}
}

func sessionOptions(cfg config.Interface) recorder.Options {
	rec := cfg.Recording()
	return recorder.Options{
		QueueSize: rec.QueueSize,
		Filter: recorder.FilterOptions{
			GrowthThreshold:  rec.GrowthThreshold,
			SignificantChars: rec.SignificantChars,
		},
		Script: scriptOptions(cfg),
	}
}

// runRecording drives the browser until ctx is cancelled or the browser goes
// away. Startup failures are returned; a failed navigation is not. The caller
// must call release, after the session is stopped, to shut down the browser
// and proxy.
func runRecording(ctx context.Context, cfg config.Interface, sess *recorder.Session, logger *zap.Logger) (release func(), err error) {
	netCfg := cfg.Network()
	mode := strings.ToLower(netCfg.Mode)

	// Cleanups run in reverse order when release is called.
	var cleanups []func()
	release = func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
		cleanups = nil
	}

	var launch browser.LaunchOptions
	if mode == config.NetworkModeProxy {
		obs := proxy.New(ctx, sess, logger, netCfg.Proxy.Verbose)
		proxyURL, err := obs.Start(netCfg.Proxy.Address)
		if err != nil {
			return release, fmt.Errorf("failed to start observation proxy: %w", err)
		}
		cleanups = append(cleanups, func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := obs.Close(shutdownCtx); err != nil {
				logger.Warn("Error during proxy shutdown", zap.Error(err))
			}
		})
		launch.ProxyServer = proxyURL
	}

	mgr := browser.NewManager(cfg.Browser(), launch, logger)
	cleanups = append(cleanups, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mgr.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Error during browser shutdown", zap.Error(err))
		}
	})

	tab, err := mgr.Start(ctx)
	if err != nil {
		return release, fmt.Errorf("failed to start browser: %w", err)
	}

	shimCfg := shim.Config{
		Binding:       cfg.Recording().Binding,
		MaxTextLength: cfg.Recording().MaxTextLength,
	}
	if err := browser.AttachCapture(ctx, tab, sess, shimCfg, logger); err != nil {
		return release, fmt.Errorf("failed to attach capture: %w", err)
	}

	if mode == config.NetworkModeCDP {
		if err := browser.NewNetworkObserver(ctx, sess, logger).Attach(ctx, tab); err != nil {
			return release, fmt.Errorf("failed to attach network observer: %w", err)
		}
	}
	if len(netCfg.Headers) > 0 {
		if err := tab.SetExtraHeaders(ctx, netCfg.Headers); err != nil {
			return release, err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sess.Run(gctx)
	})
	g.Go(func() error {
		err := tab.Navigate(gctx, sess.StartURL(), netCfg.NavigationTimeout)
		switch {
		case err == nil:
			logger.Info("Recording. Interact with the page, then press Ctrl+C to finish.")
		case errors.Is(err, context.Canceled):
		default:
			logger.Error("Navigation failed; recording continues", zap.Error(err))
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-tab.Context().Done():
			logger.Info("Browser closed; finishing recording")
			sess.Stop()
		case <-sess.Done():
		}
		return nil
	})
	return release, g.Wait()
}

// finishRecording writes the script and optional action log, then persists
// the session when a database is configured.
func finishRecording(ctx context.Context, cfg config.Interface, sess *recorder.Session, stdout io.Writer, logger *zap.Logger) error {
	result := reporting.Result{Script: sess.Script(), Log: sess.Export()}
	stats := sess.Stats()

	if err := writeReport(reporting.FormatScript, cfg.Script().Output, result, stdout); err != nil {
		return err
	}
	if out := cfg.Script().ActionsOutput; out != "" {
		if err := writeReport(reporting.FormatActions, out, result, stdout); err != nil {
			return err
		}
	}

	logger.Info("Recording finished",
		observability.SessionField(sess.ID()),
		zap.Int("actions", len(result.Log.Actions)),
		zap.Uint64("received", stats.Received),
		zap.Uint64("accepted", stats.Accepted),
		zap.Uint64("dropped", stats.Dropped),
		zap.Uint64("invalid", stats.Invalid),
	)

	if url := cfg.Database().URL; url != "" {
		rec := store.Recording{
			Log:       result.Log,
			Script:    result.Script,
			Stats:     stats,
			StoppedAt: time.Now(),
		}
		if err := persistRecording(ctx, url, rec, logger); err != nil {
			return err
		}
	}
	return nil
}

func writeReport(format, output string, result reporting.Result, stdout io.Writer) (err error) {
	reporter, err := reporting.New(format, output, stdout)
	if err != nil {
		return fmt.Errorf("failed to initialize %s output: %w", format, err)
	}
	defer func() {
		if closeErr := reporter.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s output: %w", format, closeErr)
		}
	}()
	return reporter.Write(result)
}

func withStore(ctx context.Context, url string, logger *zap.Logger, fn func(*store.Store) error) error {
	pool, err := openPool(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	s, err := store.New(ctx, pool, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database store: %w", err)
	}
	return fn(s)
}

func persistRecording(ctx context.Context, url string, rec store.Recording, logger *zap.Logger) error {
	return withStore(ctx, url, logger, func(s *store.Store) error {
		if err := s.EnsureSchema(ctx); err != nil {
			return err
		}
		return s.SaveSession(ctx, rec)
	})
}
