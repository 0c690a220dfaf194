// internal/recorder/session.go
package recorder

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scribe/internal/action"
	"github.com/xkilldash9x/scribe/internal/observability"
	"github.com/xkilldash9x/scribe/internal/synth"
)

var (
	// ErrSessionClosed is returned by Submit once the session has been stopped.
	ErrSessionClosed = errors.New("recording session is closed")
	// ErrQueueFull is returned by TrySubmit when the event queue has no room.
	ErrQueueFull = errors.New("recording queue is full")
)

const defaultQueueSize = 256

// Options configures a Session.
type Options struct {
	QueueSize int
	Filter    FilterOptions
	Script    synth.Options
}

// Event is one unit of input to a session: either a raw DOM event to be
// classified, or an Action built elsewhere (network observers).
type Event struct {
	Raw    *action.RawEvent
	Action action.Action
}

// Sink accepts events for recording. *Session is the canonical Sink.
// TrySubmit never blocks, for callers that must not stall such as CDP
// event listeners.
type Sink interface {
	Submit(ctx context.Context, ev Event) error
	TrySubmit(ev Event) error
}

var _ Sink = (*Session)(nil)

// RawEvent wraps a DOM event for Submit.
func RawEvent(ev action.RawEvent) Event { return Event{Raw: &ev} }

// ActionEvent wraps a pre-built Action for Submit.
func ActionEvent(a action.Action) Event { return Event{Action: a} }

// Stats counts what happened to submitted events. The initial navigation is
// not an event and is not counted.
type Stats struct {
	Received uint64 `json:"received"`
	Accepted uint64 `json:"accepted"`
	Dropped  uint64 `json:"dropped"`
	Invalid  uint64 `json:"invalid"`
	Rejected uint64 `json:"rejected"`
}

// Session records one interaction with one page. It owns the action log and
// the filter; Run is the only goroutine that touches either for writing.
type Session struct {
	id        uuid.UUID
	startURL  string
	startedAt time.Time
	opts      Options
	logger    *zap.Logger

	log    *Log
	filter *Filter
	events chan Event

	// closing is closed when Stop begins; done once the log is frozen.
	closing    chan struct{}
	done       chan struct{}
	submitMu   sync.RWMutex
	closeOnce  sync.Once
	finishOnce sync.Once
	runMu      sync.Mutex
	running    atomic.Bool

	scriptOnce sync.Once
	script     string

	received, accepted, dropped, invalid, rejected atomic.Uint64
}

// NewSession starts a session for startURL. The log begins with the
// navigation to startURL.
func NewSession(startURL string, opts Options, logger *zap.Logger) *Session {
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.New()
	s := &Session{
		id:        id,
		startURL:  startURL,
		startedAt: time.Now().UTC(),
		opts:      opts,
		logger:    observability.SessionLogger(logger, "session", id.String()),
		log:       NewLog(),
		filter:    NewFilter(opts.Filter),
		events:    make(chan Event, opts.QueueSize),
		closing:   make(chan struct{}),
		done:      make(chan struct{}),
	}
	// A fresh log cannot be frozen yet.
	_ = s.log.Append(action.Navigation{URL: startURL})
	s.logger.Info("Recording session started", zap.String("url", startURL))
	return s
}

func (s *Session) ID() string           { return s.id.String() }
func (s *Session) StartURL() string     { return s.startURL }
func (s *Session) StartedAt() time.Time { return s.startedAt }

// Done is closed when the session has stopped and its log is frozen.
func (s *Session) Done() <-chan struct{} { return s.done }

// Submit queues ev for processing. It blocks while the queue is full. An
// event Submit accepts is always processed before the log freezes.
func (s *Session) Submit(ctx context.Context, ev Event) error {
	s.submitMu.RLock()
	defer s.submitMu.RUnlock()

	select {
	case <-s.closing:
		s.rejected.Add(1)
		return ErrSessionClosed
	default:
	}

	select {
	case s.events <- ev:
		s.received.Add(1)
		return nil
	case <-s.closing:
		s.rejected.Add(1)
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySubmit queues ev if there is room and returns ErrQueueFull otherwise.
func (s *Session) TrySubmit(ev Event) error {
	s.submitMu.RLock()
	defer s.submitMu.RUnlock()

	select {
	case <-s.closing:
		s.rejected.Add(1)
		return ErrSessionClosed
	default:
	}

	select {
	case s.events <- ev:
		s.received.Add(1)
		return nil
	default:
		s.rejected.Add(1)
		return ErrQueueFull
	}
}

// Run processes queued events in arrival order until the session is stopped
// or ctx is cancelled. Cancelling ctx stops the session. Events still queued
// at that point are processed before Run returns.
func (s *Session) Run(ctx context.Context) error {
	s.runMu.Lock()
	select {
	case <-s.done:
		s.runMu.Unlock()
		return nil
	default:
	}
	if !s.running.CompareAndSwap(false, true) {
		s.runMu.Unlock()
		return errors.New("session is already running")
	}
	s.runMu.Unlock()

	for {
		select {
		case <-ctx.Done():
			s.stopRun()
			return nil
		case <-s.closing:
			s.stopRun()
			return nil
		case ev := <-s.events:
			s.handle(ev)
		}
	}
}

func (s *Session) stopRun() {
	s.closeSubmissions()
	s.runMu.Lock()
	defer s.runMu.Unlock()
	s.finish()
	s.running.Store(false)
}

// closeSubmissions refuses new events and waits for in-flight Submits to
// return. The queue only shrinks afterwards.
func (s *Session) closeSubmissions() {
	s.closeOnce.Do(func() {
		close(s.closing)
		s.submitMu.Lock()
		s.submitMu.Unlock()
	})
}

// finish drains the queue into the log, then freezes it. Callers hold runMu
// and are the only goroutine processing events.
func (s *Session) finish() {
	s.finishOnce.Do(func() {
		drained := 0
	drain:
		for {
			select {
			case ev := <-s.events:
				s.handle(ev)
				drained++
			default:
				break drain
			}
		}
		s.log.Freeze()
		close(s.done)

		st := s.Stats()
		s.logger.Info("Recording session stopped",
			zap.Int("actions", s.log.Len()),
			zap.Int("drained", drained),
			zap.Uint64("received", st.Received),
			zap.Uint64("dropped", st.Dropped),
			zap.Duration("duration", time.Since(s.startedAt)),
		)
	})
}

func (s *Session) handle(ev Event) {
	a := ev.Action
	if a == nil {
		if ev.Raw == nil {
			s.invalid.Add(1)
			s.logger.Warn("Dropping empty event")
			return
		}
		var err error
		a, err = action.Classify(*ev.Raw)
		if err != nil {
			s.invalid.Add(1)
			s.logger.Warn("Dropping unclassifiable event", zap.Error(err))
			return
		}
	}

	if !s.filter.Accept(a) {
		s.dropped.Add(1)
		if in, ok := a.(action.Input); ok {
			s.logger.Debug("Insignificant input edit dropped", zap.String("selector", in.Selector))
		}
		return
	}

	if err := s.log.Append(a); err != nil {
		s.rejected.Add(1)
		s.logger.Debug("Action arrived after session closed", zap.String("type", string(a.Kind())))
		return
	}
	s.accepted.Add(1)
	s.logger.Info("Action recorded", actionFields(a)...)
}

func actionFields(a action.Action) []zap.Field {
	fields := []zap.Field{zap.String("type", string(a.Kind()))}
	switch v := a.(type) {
	case action.Click:
		fields = append(fields, zap.String("selector", v.Selector))
	case action.Input:
		fields = append(fields, zap.String("selector", v.Selector), zap.Int("value_len", len(v.Value)))
	case action.Request:
		fields = append(fields, zap.String("method", v.Method), zap.String("url", v.URL), zap.Int("status", v.Status))
	case action.Navigation:
		fields = append(fields, zap.String("url", v.URL))
	}
	return fields
}

// Stop ends the session: new events are refused, queued events are recorded
// and the log is frozen. It returns once the log is frozen, is safe to call
// more than once and from any goroutine.
func (s *Session) Stop() {
	s.closeSubmissions()
	s.runMu.Lock()
	if !s.running.Load() {
		s.finish()
	}
	s.runMu.Unlock()
	<-s.done
}

// Actions returns a copy of the recorded actions.
func (s *Session) Actions() []action.Action {
	return s.log.Snapshot()
}

// Script stops the session if needed and returns the generated test script.
// Synthesis runs once; later calls return the same text.
func (s *Session) Script() string {
	s.scriptOnce.Do(func() {
		s.Stop()
		s.script = synth.Synthesize(s.log.Snapshot(), s.opts.Script)
	})
	return s.script
}

// Export returns the session's log in its serializable form.
func (s *Session) Export() action.SavedLog {
	return action.SavedLog{
		SessionID: s.id.String(),
		StartURL:  s.startURL,
		StartedAt: s.startedAt,
		Actions:   s.log.Snapshot(),
	}
}

// Stats returns the current counters.
func (s *Session) Stats() Stats {
	return Stats{
		Received: s.received.Load(),
		Accepted: s.accepted.Load(),
		Dropped:  s.dropped.Load(),
		Invalid:  s.invalid.Load(),
		Rejected: s.rejected.Load(),
	}
}
