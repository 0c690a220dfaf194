// internal/action/codec.go
package action

import (
	"fmt"
	"time"

	json "github.com/json-iterator/go"
)

// envelope is the flat wire form of an Action, discriminated by Type.
type envelope struct {
	Type        Kind   `json:"type"`
	URL         string `json:"url,omitempty"`
	Method      string `json:"method,omitempty"`
	Status      int    `json:"status,omitempty"`
	Selector    string `json:"selector,omitempty"`
	TagName     string `json:"tagName,omitempty"`
	TextContent string `json:"textContent,omitempty"`
	Value       string `json:"value,omitempty"`
	ElementID   string `json:"id,omitempty"`
	ClassName   string `json:"className,omitempty"`
	Role        string `json:"role,omitempty"`
	AriaLabel   string `json:"ariaLabel,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
}

func toEnvelope(a Action) (envelope, error) {
	switch v := a.(type) {
	case Navigation:
		return envelope{Type: KindNavigation, URL: v.URL}, nil
	case Click:
		return envelope{
			Type: KindClick, Selector: v.Selector, TagName: v.TagName, TextContent: v.TextContent,
			ElementID: v.ElementID, ClassName: v.ClassName, Role: v.Role, AriaLabel: v.AriaLabel,
		}, nil
	case Input:
		return envelope{
			Type: KindInput, Selector: v.Selector, TagName: v.TagName, Value: v.Value,
			ElementID: v.ElementID, ClassName: v.ClassName, Placeholder: v.Placeholder,
		}, nil
	case Request:
		return envelope{Type: KindRequest, URL: v.URL, Method: v.Method, Status: v.Status}, nil
	default:
		return envelope{}, fmt.Errorf("unsupported action type %T", a)
	}
}

func (e envelope) action() (Action, error) {
	switch e.Type {
	case KindNavigation:
		return Navigation{URL: e.URL}, nil
	case KindClick:
		return Click{
			Selector: e.Selector, TagName: e.TagName, TextContent: e.TextContent,
			ElementID: e.ElementID, ClassName: e.ClassName, Role: e.Role, AriaLabel: e.AriaLabel,
		}, nil
	case KindInput:
		return Input{
			Selector: e.Selector, TagName: e.TagName, Value: e.Value,
			ElementID: e.ElementID, ClassName: e.ClassName, Placeholder: e.Placeholder,
		}, nil
	case KindRequest:
		return Request{URL: e.URL, Method: e.Method, Status: e.Status}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, e.Type)
	}
}

// SavedLog is the serialized form of a frozen action log.
type SavedLog struct {
	SessionID string    `json:"sessionId"`
	StartURL  string    `json:"startUrl"`
	StartedAt time.Time `json:"startedAt"`
	Actions   []Action  `json:"-"`
}

type savedLogWire struct {
	SessionID string     `json:"sessionId"`
	StartURL  string     `json:"startUrl"`
	StartedAt time.Time  `json:"startedAt"`
	Actions   []envelope `json:"actions"`
}

func (l SavedLog) wire() (savedLogWire, error) {
	w := savedLogWire{
		SessionID: l.SessionID,
		StartURL:  l.StartURL,
		StartedAt: l.StartedAt,
		Actions:   make([]envelope, 0, len(l.Actions)),
	}
	for i, a := range l.Actions {
		env, err := toEnvelope(a)
		if err != nil {
			return savedLogWire{}, fmt.Errorf("action %d: %w", i, err)
		}
		w.Actions = append(w.Actions, env)
	}
	return w, nil
}

func (w savedLogWire) savedLog() (SavedLog, error) {
	actions := make([]Action, 0, len(w.Actions))
	for i, env := range w.Actions {
		a, err := env.action()
		if err != nil {
			return SavedLog{}, fmt.Errorf("action %d: %w", i, err)
		}
		actions = append(actions, a)
	}
	return SavedLog{
		SessionID: w.SessionID,
		StartURL:  w.StartURL,
		StartedAt: w.StartedAt,
		Actions:   actions,
	}, nil
}

// MarshalJSON implements json.Marshaler.
func (l SavedLog) MarshalJSON() ([]byte, error) {
	w, err := l.wire()
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *SavedLog) UnmarshalJSON(data []byte) error {
	var w savedLogWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	decoded, err := w.savedLog()
	if err != nil {
		return err
	}
	*l = decoded
	return nil
}

// Encode renders a saved log as indented JSON.
func Encode(l SavedLog) ([]byte, error) {
	w, err := l.wire()
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(w, "", "  ")
}

// Decode parses a saved log produced by Encode.
func Decode(data []byte) (SavedLog, error) {
	var w savedLogWire
	if err := json.Unmarshal(data, &w); err != nil {
		return SavedLog{}, fmt.Errorf("failed to decode action log: %w", err)
	}
	return w.savedLog()
}

// MarshalAction encodes a single action in its wire form.
func MarshalAction(a Action) ([]byte, error) {
	env, err := toEnvelope(a)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// UnmarshalAction decodes a single action produced by MarshalAction.
func UnmarshalAction(data []byte) (Action, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode action: %w", err)
	}
	return env.action()
}
