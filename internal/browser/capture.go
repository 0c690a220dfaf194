// internal/browser/capture.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/scribe/internal/action"
	"github.com/xkilldash9x/scribe/internal/browser/shim"
	"github.com/xkilldash9x/scribe/internal/recorder"
)

// AttachCapture installs the capture script in tab and forwards every event
// it reports to sink. It must run before the first navigation.
func AttachCapture(ctx context.Context, tab *Tab, sink recorder.Sink, cfg shim.Config, logger *zap.Logger) error {
	if cfg.Binding == "" {
		cfg.Binding = shim.DefaultBinding
	}
	script, err := shim.Build(cfg)
	if err != nil {
		return fmt.Errorf("failed to build capture script: %w", err)
	}

	if err := tab.Bind(ctx, cfg.Binding, captureHandler(sink, logger)); err != nil {
		return fmt.Errorf("failed to expose capture binding: %w", err)
	}
	if err := tab.InjectScriptPersistently(ctx, script); err != nil {
		return fmt.Errorf("failed to inject capture script: %w", err)
	}
	return nil
}

// captureHandler decodes binding payloads and submits them in arrival order.
// It runs on the CDP event loop, so it never waits for queue room.
func captureHandler(sink recorder.Sink, logger *zap.Logger) func(payload string) {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("capture")
	full := &rate.Sometimes{First: 1, Interval: 5 * time.Second}
	return func(payload string) {
		ev, err := action.DecodeRawEvent([]byte(payload))
		if err != nil {
			log.Warn("Dropping malformed event payload.", zap.Error(err), zap.Int("payload_len", len(payload)))
			return
		}
		switch err := sink.TrySubmit(recorder.RawEvent(ev)); {
		case err == nil, errors.Is(err, recorder.ErrSessionClosed):
		case errors.Is(err, recorder.ErrQueueFull):
			full.Do(func() {
				log.Warn("Event queue full; dropping events.", zap.String("type", ev.Type))
			})
		default:
			log.Warn("Could not submit event.", zap.String("type", ev.Type), zap.Error(err))
		}
	}
}
