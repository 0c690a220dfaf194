package synth

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/scribe/internal/action"
)

func TestPlan_ClickCollapse(t *testing.T) {
	save := action.Click{Selector: "#save", TagName: "BUTTON", ElementID: "save"}
	steps := Plan([]action.Action{save, save, save})

	want := []Step{{Kind: StepClick, Selector: "#save", Label: "Click BUTTON"}}
	if diff := cmp.Diff(want, steps); diff != "" {
		t.Errorf("Plan() mismatch (-want +got):\n%s", diff)
	}
}

func TestPlan_FillRewrite(t *testing.T) {
	steps := Plan([]action.Action{
		action.Input{Selector: "#email", TagName: "INPUT", Value: "a"},
		action.Input{Selector: "#email", TagName: "INPUT", Value: "a@"},
	})

	want := []Step{{Kind: StepFill, Selector: "#email", Value: "a@", Label: "Fill #email input"}}
	if diff := cmp.Diff(want, steps); diff != "" {
		t.Errorf("Plan() mismatch (-want +got):\n%s", diff)
	}
}

func TestPlan_EndToEndScenario(t *testing.T) {
	steps := Plan([]action.Action{
		action.Navigation{URL: "https://x.test"},
		action.Click{Selector: "#login", TagName: "BUTTON", TextContent: "Login"},
		action.Input{Selector: "#user", TagName: "INPUT", Value: "b"},
		action.Input{Selector: "#user", TagName: "INPUT", Value: "bob"},
		action.Input{Selector: "#user", TagName: "INPUT", Value: "bob@x.com"},
	})

	want := []Step{
		{Kind: StepNavigate, URL: "https://x.test", Label: "Navigate to https://x.test"},
		{Kind: StepClick, Selector: "#login", Label: `Click "Login"`},
		{Kind: StepFill, Selector: "#user", Value: "bob@x.com", Label: "Fill #user input"},
	}
	if diff := cmp.Diff(want, steps); diff != "" {
		t.Errorf("Plan() mismatch (-want +got):\n%s", diff)
	}
}

func TestPlan_RewriteOnlyTouchesCurrentRun(t *testing.T) {
	steps := Plan([]action.Action{
		action.Input{Selector: "#q", Value: "first", Placeholder: "Search"},
		action.Click{Selector: "#go", TagName: "BUTTON"},
		action.Input{Selector: "#q", Value: "second", Placeholder: "Search"},
		action.Input{Selector: "#q", Value: "second.", Placeholder: "Search"},
	})

	want := []Step{
		{Kind: StepFill, Selector: "#q", Value: "first", Label: `Fill "Search" input`},
		{Kind: StepClick, Selector: "#go", Label: "Click BUTTON"},
		{Kind: StepFill, Selector: "#q", Value: "second.", Label: `Fill "Search" input`},
	}
	if diff := cmp.Diff(want, steps); diff != "" {
		t.Errorf("Plan() mismatch (-want +got):\n%s", diff)
	}
}

func TestPlan_InputAfterClickOnSameElement(t *testing.T) {
	steps := Plan([]action.Action{
		action.Click{Selector: "#name", TagName: "INPUT"},
		action.Input{Selector: "#name", TagName: "INPUT", Value: "Ada"},
		action.Input{Selector: "#name", TagName: "INPUT", Value: "Ada Lovelace"},
	})

	// No fill was ever planned for #name, so there is nothing to rewrite.
	want := []Step{
		{Kind: StepClick, Selector: "#name", Label: "Click INPUT"},
	}
	if diff := cmp.Diff(want, steps); diff != "" {
		t.Errorf("Plan() mismatch (-want +got):\n%s", diff)
	}
}

func TestPlan_InputRewritesEarlierFillForSelector(t *testing.T) {
	steps := Plan([]action.Action{
		action.Input{Selector: "#a", TagName: "INPUT", Value: "x"},
		action.Click{Selector: "#b", TagName: "BUTTON"},
		action.Click{Selector: "#a", TagName: "INPUT"},
		action.Input{Selector: "#a", TagName: "INPUT", Value: "y"},
	})

	want := []Step{
		{Kind: StepFill, Selector: "#a", Value: "y", Label: "Fill #a input"},
		{Kind: StepClick, Selector: "#b", Label: "Click BUTTON"},
		{Kind: StepClick, Selector: "#a", Label: "Click INPUT"},
	}
	if diff := cmp.Diff(want, steps); diff != "" {
		t.Errorf("Plan() mismatch (-want +got):\n%s", diff)
	}
}

func TestPlan_InputRewritesLatestOfSeveralFills(t *testing.T) {
	steps := Plan([]action.Action{
		action.Input{Selector: "#a", Value: "first"},
		action.Input{Selector: "#b", Value: "other"},
		action.Input{Selector: "#a", Value: "second"},
		action.Click{Selector: "#a"},
		action.Input{Selector: "#a", Value: "third"},
	})

	var fills []string
	for _, s := range steps {
		if s.Kind == StepFill {
			fills = append(fills, s.Selector+"="+s.Value)
		}
	}
	assert.Equal(t, []string{"#a=first", "#b=other", "#a=third"}, fills)
}

func TestPlan_NavigationNeitherDedupedNorResetting(t *testing.T) {
	steps := Plan([]action.Action{
		action.Navigation{URL: "https://a.test"},
		action.Click{Selector: "#next", TagName: "A"},
		action.Navigation{URL: "https://a.test"},
		action.Click{Selector: "#next", TagName: "A"},
	})

	kinds := make([]StepKind, 0, len(steps))
	for _, s := range steps {
		kinds = append(kinds, s.Kind)
	}
	assert.Equal(t, []StepKind{StepNavigate, StepClick, StepNavigate}, kinds)
}

func TestPlan_IgnoresRequests(t *testing.T) {
	steps := Plan([]action.Action{
		action.Request{URL: "https://x.test/api", Method: "GET", Status: 200},
	})
	assert.Empty(t, steps)
}

func TestStepKind_String(t *testing.T) {
	assert.Equal(t, "fill", StepFill.String())
	assert.Equal(t, "StepKind(9)", StepKind(9).String())
}
