// internal/browser/tab.go
package browser

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Tab is a browser tab driven over CDP.
type Tab struct {
	ctx    context.Context
	logger *zap.Logger
}

func newTab(ctx context.Context, logger *zap.Logger) *Tab {
	return &Tab{ctx: ctx, logger: logger.Named("tab")}
}

// Context returns the chromedp context of the tab.
func (t *Tab) Context() context.Context { return t.ctx }

// run executes actions against the tab, bounded by ctx.
func (t *Tab) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(t.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// Listen registers fn for every CDP event of the tab. fn runs on the tab's
// event loop and must not block on CDP calls.
func (t *Tab) Listen(fn func(ev interface{})) {
	chromedp.ListenTarget(t.ctx, fn)
}

// Bind exposes a page function called name. Every call delivers its single
// string argument to fn.
func (t *Tab) Bind(ctx context.Context, name string, fn func(payload string)) error {
	if err := t.run(ctx, runtime.AddBinding(name)); err != nil {
		return fmt.Errorf("failed to add binding '%s': %w", name, err)
	}
	t.Listen(t.bindingListener(name, fn))
	return nil
}

func (t *Tab) bindingListener(name string, fn func(payload string)) func(ev interface{}) {
	return func(ev interface{}) {
		called, ok := ev.(*runtime.EventBindingCalled)
		if !ok || called.Name != name {
			return
		}
		defer func() {
			if r := recover(); r != nil {
				t.logger.Error("Panic during binding call.",
					zap.String("name", name),
					zap.Any("panic_reason", r),
					zap.String("stack", string(debug.Stack())))
			}
		}()
		fn(called.Payload)
	}
}

// InjectScriptPersistently adds a script that runs in every new document of the tab.
func (t *Tab) InjectScriptPersistently(ctx context.Context, script string) error {
	var scriptID page.ScriptIdentifier
	err := t.run(ctx, chromedp.ActionFunc(func(c context.Context) error {
		var err error
		scriptID, err = page.AddScriptToEvaluateOnNewDocument(script).Do(c)
		return err
	}))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("could not inject persistent script: %w", err)
	}
	t.logger.Debug("Injected persistent script.", zap.String("scriptID", string(scriptID)))
	return nil
}

// SetExtraHeaders sends headers with every request the tab makes.
func (t *Tab) SetExtraHeaders(ctx context.Context, headers map[string]string) error {
	if len(headers) == 0 {
		return nil
	}
	h := make(network.Headers, len(headers))
	for k, v := range headers {
		h[k] = v
	}
	if err := t.run(ctx, network.Enable(), network.SetExtraHTTPHeaders(h)); err != nil {
		return fmt.Errorf("failed to set extra headers: %w", err)
	}
	return nil
}

// Navigate loads target and waits for its load event, giving up after timeout.
// Any failure is wrapped in ErrNavigation.
func (t *Tab) Navigate(ctx context.Context, target string, timeout time.Duration) error {
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	t.logger.Info("Navigating.", zap.String("url", target), zap.Duration("timeout", timeout))
	start := time.Now()
	if err := t.run(navCtx, chromedp.Navigate(target)); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNavigation, target, err)
	}
	t.logger.Info("Navigation complete.", zap.String("url", target), zap.Duration("elapsed", time.Since(start)))
	return nil
}

// Evaluate runs a JavaScript expression in the current document and stores
// the result in res.
func (t *Tab) Evaluate(ctx context.Context, expression string, res interface{}) error {
	return t.run(ctx, chromedp.Evaluate(expression, res))
}
