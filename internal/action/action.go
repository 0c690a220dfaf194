// internal/action/action.go
package action

// Kind discriminates the variants of Action.
type Kind string

const (
	KindNavigation Kind = "navigation"
	KindClick      Kind = "click"
	KindInput      Kind = "input"
	KindRequest    Kind = "request"
)

// Action is one observed user interaction, navigation or network event.
// The concrete variants are Navigation, Click, Input and Request.
type Action interface {
	Kind() Kind
	isAction()
}

// Navigation opens the session's target URL.
type Navigation struct {
	URL string `json:"url"`
}

// Click is a click on a page element.
type Click struct {
	Selector    string `json:"selector"`
	TagName     string `json:"tagName"`
	TextContent string `json:"textContent,omitempty"`
	ElementID   string `json:"id,omitempty"`
	ClassName   string `json:"className,omitempty"`
	Role        string `json:"role,omitempty"`
	AriaLabel   string `json:"ariaLabel,omitempty"`
}

// Input is an edit of a form field. Value is the full field value at the
// time of the event, not a delta.
type Input struct {
	Selector    string `json:"selector"`
	TagName     string `json:"tagName"`
	Value       string `json:"value"`
	ElementID   string `json:"id,omitempty"`
	ClassName   string `json:"className,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
}

// Request is a network round trip seen while recording. It is kept in the log
// for reference and never affects the generated script.
type Request struct {
	URL    string `json:"url"`
	Method string `json:"method"`
	Status int    `json:"status"`
}

func (Navigation) Kind() Kind { return KindNavigation }
func (Click) Kind() Kind      { return KindClick }
func (Input) Kind() Kind      { return KindInput }
func (Request) Kind() Kind    { return KindRequest }

func (Navigation) isAction() {}
func (Click) isAction()      {}
func (Input) isAction()      {}
func (Request) isAction()    {}
