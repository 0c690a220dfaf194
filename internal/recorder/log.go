// internal/recorder/log.go
package recorder

import (
	"errors"
	"sync"

	"github.com/xkilldash9x/scribe/internal/action"
)

// ErrLogFrozen is returned when appending to a log that has been frozen.
var ErrLogFrozen = errors.New("action log is frozen")

// Log is the append-only, ordered record of a session's accepted actions.
// Once frozen it is read-only.
type Log struct {
	mu      sync.RWMutex
	actions []action.Action
	frozen  bool
}

// NewLog returns an empty, writable log.
func NewLog() *Log {
	return &Log{actions: make([]action.Action, 0, 64)}
}

// Append adds a to the end of the log.
func (l *Log) Append(a action.Action) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.frozen {
		return ErrLogFrozen
	}
	l.actions = append(l.actions, a)
	return nil
}

// Freeze makes the log read-only. It reports whether this call did the freezing.
func (l *Log) Freeze() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.frozen {
		return false
	}
	l.frozen = true
	return true
}

// Frozen reports whether the log has been frozen.
func (l *Log) Frozen() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.frozen
}

// Snapshot returns a copy of the actions in acceptance order.
func (l *Log) Snapshot() []action.Action {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]action.Action, len(l.actions))
	copy(out, l.actions)
	return out
}

// Len returns the number of recorded actions.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.actions)
}
