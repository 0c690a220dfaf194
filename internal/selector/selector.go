// internal/selector/selector.go
package selector

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxTextSelectorLen bounds the text used by the generic tag+text rule. Longer
// text is usually a container's concatenated content and makes a brittle selector.
const maxTextSelectorLen = 50

// universal is returned when an event carried no tag name at all.
const universal = "*"

// Element is the attribute snapshot of a DOM element that selector inference
// works from. Empty strings mean the attribute was absent.
type Element struct {
	TagName     string
	ID          string
	Role        string
	AriaLabel   string
	TextContent string
	Placeholder string
	ClassName   string
}

// ForClick returns the selector used to re-target a clicked element.
//
// Rules are tried in strict order and the first match wins:
// id, role, aria-label, button/link text, input placeholder, single class,
// short text, and finally the bare tag name.
func ForClick(el Element) string {
	tag := normalizeTag(el.TagName)
	text := strings.TrimSpace(el.TextContent)

	switch {
	case el.ID != "":
		return "#" + el.ID
	case el.Role != "":
		return attribute("", "role", el.Role)
	case el.AriaLabel != "":
		return attribute("", "aria-label", el.AriaLabel)
	case (tag == "button" || tag == "a") && text != "":
		return hasText(tag, text)
	case tag == "input" && el.Placeholder != "":
		return attribute("input", "placeholder", el.Placeholder)
	case el.ClassName != "" && !strings.ContainsFunc(el.ClassName, unicode.IsSpace):
		return "." + el.ClassName
	case text != "" && utf8.RuneCountInString(text) < maxTextSelectorLen:
		return hasText(tagOrUniversal(tag), text)
	default:
		return tagOrUniversal(tag)
	}
}

// ForInput returns the selector recorded for an edited form field. It only
// considers id, placeholder and class: visible text is unreliable for telling
// same-shaped fields apart while the user is typing.
func ForInput(el Element) string {
	tag := normalizeTag(el.TagName)

	if el.ID != "" {
		return "#" + el.ID
	}
	if el.Placeholder != "" {
		return attribute(inputTag(tag), "placeholder", el.Placeholder)
	}
	if fields := strings.Fields(el.ClassName); len(fields) > 0 {
		return "." + fields[0]
	}
	return tagOrUniversal(tag)
}

// Quote renders s as a double-quoted selector string, escaping backslashes and
// double quotes.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\', '"':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\a `)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func attribute(tag, name, value string) string {
	return tag + "[" + name + "=" + Quote(value) + "]"
}

func hasText(tag, text string) string {
	return tag + ":has-text(" + Quote(text) + ")"
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

func tagOrUniversal(tag string) string {
	if tag == "" {
		return universal
	}
	return tag
}

// inputTag keeps the placeholder rule scoped to the field's own tag so that a
// textarea is not addressed as an input.
func inputTag(tag string) string {
	if tag == "" {
		return "input"
	}
	return tag
}
