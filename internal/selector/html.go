// internal/selector/html.go
package selector

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// FromHTMLNode builds an Element snapshot from a parsed HTML element node, the
// same attributes the capture shim reports for a live element.
func FromHTMLNode(n *html.Node) Element {
	if n == nil || n.Type != html.ElementNode {
		return Element{}
	}
	el := Element{
		TagName:     strings.ToUpper(n.Data),
		TextContent: strings.TrimSpace(textContent(n)),
	}
	for _, a := range n.Attr {
		switch strings.ToLower(a.Key) {
		case "id":
			el.ID = a.Val
		case "role":
			el.Role = a.Val
		case "aria-label":
			el.AriaLabel = a.Val
		case "placeholder":
			el.Placeholder = a.Val
		case "class":
			el.ClassName = a.Val
		}
	}
	return el
}

// Candidate is an interactive element found in a static document together
// with the selectors a recording would produce for it.
type Candidate struct {
	Element  Element
	Click    string
	Input    string // empty unless the element is an editable field
	Editable bool
}

// Inspect parses an HTML document and returns every element a user could
// click or type into, in document order.
func Inspect(r io.Reader) ([]Candidate, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var out []Candidate
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && isInteractive(n) {
			el := FromHTMLNode(n)
			c := Candidate{Element: el, Click: ForClick(el), Editable: isEditable(n)}
			if c.Editable {
				c.Input = ForInput(el)
			}
			out = append(out, c)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return out, nil
}

func isInteractive(n *html.Node) bool {
	switch n.DataAtom {
	case atom.A, atom.Button, atom.Input, atom.Textarea, atom.Select, atom.Summary:
		return true
	}
	for _, a := range n.Attr {
		switch strings.ToLower(a.Key) {
		case "role", "onclick", "contenteditable":
			return true
		}
	}
	return false
}

func isEditable(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Textarea, atom.Select:
		return true
	case atom.Input:
		for _, a := range n.Attr {
			if strings.EqualFold(a.Key, "type") {
				switch strings.ToLower(a.Val) {
				case "button", "submit", "reset", "checkbox", "radio", "image", "hidden":
					return false
				}
			}
		}
		return true
	}
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, "contenteditable") && !strings.EqualFold(a.Val, "false") {
			return true
		}
	}
	return false
}

// textContent concatenates descendant text like Node.textContent, minus
// script and style bodies.
func textContent(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return b.String()
}
