// internal/browser/observer.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/scribe/internal/action"
	"github.com/xkilldash9x/scribe/internal/recorder"
)

// NetworkObserver turns the tab's CDP network events into Request actions.
// It only watches; requests are never paused or modified.
type NetworkObserver struct {
	logger *zap.Logger
	sink   recorder.Sink
	ctx    context.Context

	mu      sync.Mutex
	pending map[network.RequestID]*network.Request

	warn rate.Sometimes
}

// NewNetworkObserver creates an observer that submits to sink under ctx.
func NewNetworkObserver(ctx context.Context, sink recorder.Sink, logger *zap.Logger) *NetworkObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NetworkObserver{
		logger:  logger.Named("network_observer"),
		sink:    sink,
		ctx:     ctx,
		pending: make(map[network.RequestID]*network.Request),
		warn:    rate.Sometimes{First: 3, Interval: 10 * time.Second},
	}
}

// Attach starts observing tab.
func (o *NetworkObserver) Attach(ctx context.Context, tab *Tab) error {
	tab.Listen(o.handleEvent)
	if err := tab.run(ctx, network.Enable()); err != nil {
		return fmt.Errorf("failed to enable network domain: %w", err)
	}
	o.logger.Debug("Network observer attached.")
	return nil
}

func (o *NetworkObserver) handleEvent(ev interface{}) {
	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		o.handleRequestWillBeSent(e)
	case *network.EventResponseReceived:
		o.handleResponseReceived(e)
	case *network.EventLoadingFailed:
		o.handleLoadingFailed(e)
	}
}

func (o *NetworkObserver) handleRequestWillBeSent(e *network.EventRequestWillBeSent) {
	if e.Request == nil || !observable(e.Request.URL) {
		return
	}
	o.mu.Lock()
	prev := o.pending[e.RequestID]
	o.pending[e.RequestID] = e.Request
	o.mu.Unlock()

	// A redirect reuses the request id; the previous leg is complete.
	if prev != nil && e.RedirectResponse != nil {
		o.emit(action.Request{URL: prev.URL, Method: prev.Method, Status: int(e.RedirectResponse.Status)})
	}
}

func (o *NetworkObserver) handleResponseReceived(e *network.EventResponseReceived) {
	o.mu.Lock()
	req := o.pending[e.RequestID]
	delete(o.pending, e.RequestID)
	o.mu.Unlock()

	if req == nil || e.Response == nil {
		return
	}
	o.emit(action.Request{URL: req.URL, Method: req.Method, Status: int(e.Response.Status)})
}

func (o *NetworkObserver) handleLoadingFailed(e *network.EventLoadingFailed) {
	o.mu.Lock()
	req := o.pending[e.RequestID]
	delete(o.pending, e.RequestID)
	o.mu.Unlock()

	if req != nil {
		o.logger.Debug("Request failed.",
			zap.String("url", req.URL),
			zap.String("error", e.ErrorText),
			zap.Bool("canceled", e.Canceled))
	}
}

// emit runs on the CDP event loop and must not block.
func (o *NetworkObserver) emit(req action.Request) {
	if o.ctx.Err() != nil {
		return
	}
	err := o.sink.TrySubmit(recorder.ActionEvent(req))
	if err == nil || errors.Is(err, recorder.ErrSessionClosed) {
		return
	}
	o.warn.Do(func() {
		o.logger.Warn("Could not record request.", zap.String("url", req.URL), zap.Error(err))
	})
}

// Pending returns the number of requests still waiting for a response.
func (o *NetworkObserver) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending)
}

// observable reports whether a URL refers to a network round trip.
func observable(u string) bool {
	return !strings.HasPrefix(u, "data:") && !strings.HasPrefix(u, "blob:")
}
