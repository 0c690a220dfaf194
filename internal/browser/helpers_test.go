// internal/browser/helpers_test.go
package browser

import (
	"context"
	"sync"

	"github.com/xkilldash9x/scribe/internal/action"
	"github.com/xkilldash9x/scribe/internal/recorder"
)

// fakeSink records submitted events and can be told to fail.
type fakeSink struct {
	mu     sync.Mutex
	events []recorder.Event
	err    error
}

func (f *fakeSink) TrySubmit(ev recorder.Event) error {
	return f.Submit(context.Background(), ev)
}

func (f *fakeSink) Submit(_ context.Context, ev recorder.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeSink) requests() []action.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []action.Request
	for _, ev := range f.events {
		if r, ok := ev.Action.(action.Request); ok {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeSink) raws() []action.RawEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []action.RawEvent
	for _, ev := range f.events {
		if ev.Raw != nil {
			out = append(out, *ev.Raw)
		}
	}
	return out
}
