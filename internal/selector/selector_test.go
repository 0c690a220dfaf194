package selector

import (
	"strings"
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"
	"github.com/stretchr/testify/assert"
)

func TestForClick_Priority(t *testing.T) {
	testCases := []struct {
		name     string
		el       Element
		expected string
	}{
		{
			name:     "id beats role",
			el:       Element{TagName: "DIV", ID: "save", Role: "button"},
			expected: "#save",
		},
		{
			name:     "role beats aria-label",
			el:       Element{TagName: "DIV", Role: "tab", AriaLabel: "Settings"},
			expected: `[role="tab"]`,
		},
		{
			name:     "aria-label beats button text",
			el:       Element{TagName: "BUTTON", AriaLabel: "Close dialog", TextContent: "X"},
			expected: `[aria-label="Close dialog"]`,
		},
		{
			name:     "button with text",
			el:       Element{TagName: "BUTTON", TextContent: "  Sign In \n", ClassName: "btn"},
			expected: `button:has-text("Sign In")`,
		},
		{
			name:     "link with text",
			el:       Element{TagName: "A", TextContent: "PDF Templates"},
			expected: `a:has-text("PDF Templates")`,
		},
		{
			name:     "button without text falls through to class",
			el:       Element{TagName: "BUTTON", TextContent: "   ", ClassName: "icon-close"},
			expected: ".icon-close",
		},
		{
			name:     "input placeholder",
			el:       Element{TagName: "INPUT", Placeholder: "Email address", ClassName: "field"},
			expected: `input[placeholder="Email address"]`,
		},
		{
			name:     "placeholder ignored on non-input tags",
			el:       Element{TagName: "TEXTAREA", Placeholder: "Notes", ClassName: "notes"},
			expected: ".notes",
		},
		{
			name:     "single class",
			el:       Element{TagName: "SPAN", ClassName: "badge", TextContent: "New"},
			expected: ".badge",
		},
		{
			name:     "multiple classes fall through to text",
			el:       Element{TagName: "TD", ClassName: "cell active", TextContent: "jan"},
			expected: `td:has-text("jan")`,
		},
		{
			name:     "text of 49 characters is used",
			el:       Element{TagName: "DIV", TextContent: strings.Repeat("a", 49)},
			expected: `div:has-text("` + strings.Repeat("a", 49) + `")`,
		},
		{
			name:     "text of 50 characters is too long",
			el:       Element{TagName: "DIV", TextContent: strings.Repeat("a", 50)},
			expected: "div",
		},
		{
			name:     "multi-byte text counted in characters",
			el:       Element{TagName: "DIV", TextContent: "🔢Number Input"},
			expected: `div:has-text("🔢Number Input")`,
		},
		{
			name:     "bare tag fallback",
			el:       Element{TagName: "SECTION"},
			expected: "section",
		},
		{
			name:     "missing tag name still yields a selector",
			el:       Element{},
			expected: "*",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ForClick(tc.el))
		})
	}
}

func TestForInput_Priority(t *testing.T) {
	testCases := []struct {
		name     string
		el       Element
		expected string
	}{
		{
			name:     "id first",
			el:       Element{TagName: "INPUT", ID: "email", Placeholder: "Email", ClassName: "form-control"},
			expected: "#email",
		},
		{
			name:     "placeholder second",
			el:       Element{TagName: "INPUT", Placeholder: "Email", ClassName: "form-control"},
			expected: `input[placeholder="Email"]`,
		},
		{
			name:     "placeholder keeps textarea tag",
			el:       Element{TagName: "TEXTAREA", Placeholder: "Notes"},
			expected: `textarea[placeholder="Notes"]`,
		},
		{
			name:     "first class token",
			el:       Element{TagName: "INPUT", ClassName: " form-control  input-lg"},
			expected: ".form-control",
		},
		{
			name:     "no role, aria-label or text fallback",
			el:       Element{TagName: "INPUT", Role: "searchbox", AriaLabel: "Search", TextContent: "ignored"},
			expected: "input",
		},
		{
			name:     "missing tag",
			el:       Element{},
			expected: "*",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ForInput(tc.el))
		})
	}
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `"plain"`, Quote("plain"))
	assert.Equal(t, `"say \"hi\""`, Quote(`say "hi"`))
	assert.Equal(t, `"C:\\temp"`, Quote(`C:\temp`))
	assert.Equal(t, `"a\a b"`, Quote("a\nb"))

	// Attribute values with quotes must not break out of the selector.
	sel := ForClick(Element{TagName: "DIV", AriaLabel: `Open "Reports"`})
	assert.Equal(t, `[aria-label="Open \"Reports\""]`, sel)
}

// FuzzForClick checks the invariants that hold for any element: inference is
// deterministic and never yields an empty selector.
func FuzzForClick(f *testing.F) {
	f.Add([]byte("seed-element"))
	f.Add([]byte{0x00, 0x01, 0x02, 0x03})

	f.Fuzz(func(t *testing.T, data []byte) {
		consumer := fuzz.NewConsumer(data)
		var el Element
		if err := consumer.GenerateStruct(&el); err != nil {
			t.Skip()
		}

		click := ForClick(el)
		input := ForInput(el)
		if click == "" || input == "" {
			t.Fatalf("empty selector for %+v (click=%q input=%q)", el, click, input)
		}
		if click != ForClick(el) || input != ForInput(el) {
			t.Fatalf("non-deterministic selector for %+v", el)
		}
	})
}
