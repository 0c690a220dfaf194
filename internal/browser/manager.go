// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scribe/internal/config"
)

const shutdownGracePeriod = 10 * time.Second

// Manager owns the Chrome process for one recording.
type Manager struct {
	cfg    config.BrowserConfig
	launch LaunchOptions
	logger *zap.Logger

	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	tab           *Tab
}

// NewManager creates a manager. Chrome is not launched until Start.
func NewManager(cfg config.BrowserConfig, launch LaunchOptions, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		cfg:    cfg,
		launch: launch,
		logger: logger.Named("browser_manager"),
	}
}

// Start launches Chrome and returns its first tab. ctx bounds the launch only;
// the browser lives until Shutdown.
func (m *Manager) Start(ctx context.Context) (*Tab, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.tab != nil {
		return m.tab, nil
	}

	m.logger.Info("Launching browser.",
		zap.Bool("headless", m.cfg.Headless),
		zap.String("proxy", m.launch.ProxyServer))

	allocCtx, allocCancel := chromedp.NewExecAllocator(Detach(ctx), DefaultAllocatorOptions(m.cfg, m.launch)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, m.contextOptions()...)

	// The first Run allocates the browser and its initial tab.
	started := make(chan error, 1)
	go func() { started <- chromedp.Run(browserCtx) }()

	select {
	case err := <-started:
		if err != nil {
			browserCancel()
			allocCancel()
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
	case <-ctx.Done():
		browserCancel()
		allocCancel()
		<-started
		return nil, fmt.Errorf("failed to launch browser: %w", ctx.Err())
	}

	m.allocCancel = allocCancel
	m.browserCtx = browserCtx
	m.browserCancel = browserCancel
	m.tab = newTab(browserCtx, m.logger)

	m.logger.Debug("Browser started.")
	return m.tab, nil
}

func (m *Manager) contextOptions() []chromedp.ContextOption {
	sugar := m.logger.Sugar()
	opts := []chromedp.ContextOption{
		// chromedp reports unknown CDP events as errors; they are not actionable here.
		chromedp.WithErrorf(sugar.Debugf),
		chromedp.WithLogf(sugar.Debugf),
	}
	if m.cfg.Debug {
		opts = append(opts, chromedp.WithDebugf(sugar.Debugf))
	}
	return opts
}

// Tab returns the recording tab, or ErrNotStarted.
func (m *Manager) Tab() (*Tab, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tab == nil {
		return nil, ErrNotStarted
	}
	return m.tab, nil
}

// Shutdown closes the browser. It is safe to call more than once.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.browserCtx == nil {
		return nil
	}
	m.logger.Info("Closing browser.")

	closeCtx, cancel := context.WithTimeout(Detach(ctx), shutdownGracePeriod)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- chromedp.Cancel(m.browserCtx) }()

	var err error
	select {
	case err = <-done:
	case <-closeCtx.Done():
		err = closeCtx.Err()
	}

	m.browserCancel()
	m.allocCancel()
	m.browserCtx, m.browserCancel, m.allocCancel, m.tab = nil, nil, nil, nil

	if err != nil {
		m.logger.Warn("Browser did not close cleanly.", zap.Error(err))
		return fmt.Errorf("failed to close browser: %w", err)
	}
	m.logger.Info("Browser closed.")
	return nil
}
