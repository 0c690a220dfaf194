// internal/synth/plan.go
package synth

import (
	"strconv"
	"strings"

	"github.com/xkilldash9x/scribe/internal/action"
)

// StepKind identifies the variant of a Step.
type StepKind int

const (
	StepNavigate StepKind = iota
	StepClick
	StepFill
)

func (k StepKind) String() string {
	switch k {
	case StepNavigate:
		return "navigate"
	case StepClick:
		return "click"
	case StepFill:
		return "fill"
	default:
		return "StepKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Step is one unit of the generated script. URL is set for navigations;
// Selector for clicks and fills; Value only for fills. Label is the text of
// the comment rendered above the step.
type Step struct {
	Kind     StepKind
	URL      string
	Selector string
	Value    string
	Label    string
}

// Plan reduces an ordered action log to script steps in a single pass.
//
// Consecutive clicks on the same selector collapse to one. An input on the
// selector most recently targeted never adds a step: it rewrites the value of
// the latest fill planned for that selector, if there is one. Requests never
// produce steps.
func Plan(actions []action.Action) []Step {
	p := planner{steps: make([]Step, 0, len(actions)), lastFill: make(map[string]int)}
	for _, a := range actions {
		switch v := a.(type) {
		case action.Navigation:
			p.navigate(v)
		case action.Click:
			p.click(v)
		case action.Input:
			p.input(v)
		}
	}
	return p.steps
}

type planner struct {
	steps        []Step
	lastSelector string
	// lastFill maps a selector to the index of its most recent fill step.
	lastFill map[string]int
}

func (p *planner) navigate(n action.Navigation) {
	p.steps = append(p.steps, Step{Kind: StepNavigate, URL: n.URL, Label: "Navigate to " + n.URL})
}

func (p *planner) click(c action.Click) {
	if c.Selector == "" || c.Selector == p.lastSelector {
		return
	}
	label := c.TagName
	if c.TextContent != "" {
		label = strconv.Quote(c.TextContent)
	}
	p.steps = append(p.steps, Step{Kind: StepClick, Selector: c.Selector, Label: "Click " + label})
	p.lastSelector = c.Selector
}

func (p *planner) input(in action.Input) {
	if in.Selector == p.lastSelector {
		if i, ok := p.lastFill[in.Selector]; ok {
			p.steps[i].Value = in.Value
		}
		return
	}
	label := in.Selector
	if in.Placeholder != "" {
		label = strconv.Quote(in.Placeholder)
	}
	p.steps = append(p.steps, Step{
		Kind:     StepFill,
		Selector: in.Selector,
		Value:    in.Value,
		Label:    "Fill " + label + " input",
	})
	p.lastSelector = in.Selector
	p.lastFill[in.Selector] = len(p.steps) - 1
}

// oneLine folds s onto a single line so it can sit in a // comment.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
