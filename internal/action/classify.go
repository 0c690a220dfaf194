// internal/action/classify.go
package action

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/scribe/internal/selector"
)

// maxTextContent is the number of characters of an element's text kept on a Click.
const maxTextContent = 50

// ErrUnknownEvent is returned by Classify for event types it does not record.
var ErrUnknownEvent = errors.New("unknown event type")

// RawEvent is the attribute snapshot the capture shim sends for a DOM event.
// Every field is best effort; a missing attribute arrives as an empty string.
type RawEvent struct {
	Type        string `json:"type"`
	TagName     string `json:"tagName"`
	ID          string `json:"id"`
	ClassName   string `json:"className"`
	TextContent string `json:"textContent"`
	Role        string `json:"role"`
	AriaLabel   string `json:"ariaLabel"`
	Placeholder string `json:"placeholder"`
	Value       string `json:"value"`
	FrameURL    string `json:"frameUrl,omitempty"`
}

// DecodeRawEvent parses a shim payload. Fields with unexpected JSON types are
// rejected rather than guessed at.
func DecodeRawEvent(payload []byte) (RawEvent, error) {
	var ev RawEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return RawEvent{}, fmt.Errorf("failed to decode event payload: %w", err)
	}
	return ev, nil
}

func (ev RawEvent) element() selector.Element {
	return selector.Element{
		TagName:     ev.TagName,
		ID:          ev.ID,
		Role:        ev.Role,
		AriaLabel:   ev.AriaLabel,
		TextContent: ev.TextContent,
		Placeholder: ev.Placeholder,
		ClassName:   ev.ClassName,
	}
}

// Classify turns a raw DOM event into an Action. It makes no recording
// decision; that belongs to the recorder's filter.
func Classify(ev RawEvent) (Action, error) {
	switch strings.ToLower(ev.Type) {
	case "click":
		return Click{
			Selector:    selector.ForClick(ev.element()),
			TagName:     ev.TagName,
			TextContent: truncate(strings.TrimSpace(ev.TextContent), maxTextContent),
			ElementID:   ev.ID,
			ClassName:   ev.ClassName,
			Role:        ev.Role,
			AriaLabel:   ev.AriaLabel,
		}, nil
	case "input":
		return Input{
			Selector:    selector.ForInput(ev.element()),
			TagName:     ev.TagName,
			Value:       ev.Value,
			ElementID:   ev.ID,
			ClassName:   ev.ClassName,
			Placeholder: ev.Placeholder,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
