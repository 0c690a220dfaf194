// internal/browser/capture_test.go
package browser

import (
	"context"
	"testing"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/scribe/internal/action"
	"github.com/xkilldash9x/scribe/internal/recorder"
)

func TestCaptureHandler(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sink := &fakeSink{}
	handle := captureHandler(sink, zap.New(core))

	handle(`{"type":"click","tagName":"BUTTON","id":"go","textContent":"Go"}`)
	handle(`{"type":"input","tagName":"INPUT","placeholder":"Email","value":"a@b"}`)
	handle(`{"type":`)

	raws := sink.raws()
	require.Len(t, raws, 2)
	assert.Equal(t, action.RawEvent{Type: "click", TagName: "BUTTON", ID: "go", TextContent: "Go"}, raws[0])
	assert.Equal(t, "a@b", raws[1].Value)
	assert.Equal(t, 1, logs.FilterMessage("Dropping malformed event payload.").Len())
}

func TestCaptureHandler_ClosedSession(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	handle := captureHandler(&fakeSink{err: recorder.ErrSessionClosed}, zap.New(core))

	handle(`{"type":"click","tagName":"A"}`)
	assert.Zero(t, logs.Len())
}

func TestCaptureHandler_FullQueueDoesNotBlock(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := recorder.NewSession("https://x.test", recorder.Options{QueueSize: 1}, zap.NewNop())
	defer s.Stop()
	handle := captureHandler(s, zap.New(core))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5; i++ {
			handle(`{"type":"click","tagName":"A","id":"x"}`)
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("capture handler blocked on a full queue")
	}

	assert.Equal(t, uint64(4), s.Stats().Rejected)
	assert.Equal(t, 1, logs.FilterMessage("Event queue full; dropping events.").Len())
}

func TestCaptureHandler_FeedsSession(t *testing.T) {
	s := recorder.NewSession("https://x.test", recorder.Options{Filter: recorder.DefaultFilterOptions()}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	handle := captureHandler(s, zap.NewNop())
	handle(`{"type":"click","tagName":"BUTTON","id":"login","textContent":"Login"}`)
	handle(`{"type":"input","tagName":"INPUT","id":"user","value":"bob"}`)
	handle(`{"type":"input","tagName":"INPUT","id":"user","value":"bob@x.com"}`)

	require.Eventually(t, func() bool { return s.Stats().Accepted == 3 }, 2*time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Contains(t, s.Script(), "await page.fill('#user', 'bob@x.com');")
}

func TestTab_BindingListener(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tab := newTab(context.Background(), zap.New(core))

	var got []string
	listener := tab.bindingListener("__scribeRecord", func(payload string) {
		if payload == "boom" {
			panic("handler exploded")
		}
		got = append(got, payload)
	})

	listener(&runtime.EventBindingCalled{Name: "__scribeRecord", Payload: "one"})
	listener(&runtime.EventBindingCalled{Name: "somethingElse", Payload: "ignored"})
	listener(&runtime.EventConsoleAPICalled{})
	assert.NotPanics(t, func() {
		listener(&runtime.EventBindingCalled{Name: "__scribeRecord", Payload: "boom"})
	})
	listener(&runtime.EventBindingCalled{Name: "__scribeRecord", Payload: "two"})

	assert.Equal(t, []string{"one", "two"}, got)
	assert.Equal(t, 1, logs.FilterMessage("Panic during binding call.").Len())
}
