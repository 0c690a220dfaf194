// internal/synth/render.go
package synth

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/scribe/internal/action"
)

// ModuleStyle selects how the generated script imports Playwright.
type ModuleStyle string

const (
	ModuleCommonJS ModuleStyle = "commonjs"
	ModuleESM      ModuleStyle = "esm"
)

// DefaultTestName is used when Options.TestName is empty.
const DefaultTestName = "Generated Test Script"

// Options controls the fixed parts of a rendered script.
type Options struct {
	TestName    string
	ModuleStyle ModuleStyle
}

func (o Options) withDefaults() Options {
	if o.TestName == "" {
		o.TestName = DefaultTestName
	}
	if o.ModuleStyle == "" {
		o.ModuleStyle = ModuleCommonJS
	}
	return o
}

// Synthesize plans and renders a script for actions.
func Synthesize(actions []action.Action, opts Options) string {
	return Render(Plan(actions), opts)
}

// Render writes steps as a Playwright test file.
func Render(steps []Step, opts Options) string {
	opts = opts.withDefaults()

	var b strings.Builder
	switch opts.ModuleStyle {
	case ModuleESM:
		b.WriteString("import { test, expect } from '@playwright/test';\n")
	default:
		b.WriteString("const { test, expect } = require('@playwright/test');\n")
	}
	fmt.Fprintf(&b, "\ntest('%s', async ({ page }) => {\n", EscapeJS(opts.TestName))

	for _, s := range steps {
		fmt.Fprintf(&b, "  // %s\n", oneLine(s.Label))
		switch s.Kind {
		case StepNavigate:
			u := EscapeJS(s.URL)
			fmt.Fprintf(&b, "  await page.goto('%s');\n", u)
			b.WriteString("  await page.waitForLoadState('networkidle');\n")
			fmt.Fprintf(&b, "  await expect(page).toHaveURL('%s');\n", u)
		case StepClick:
			sel := EscapeJS(s.Selector)
			fmt.Fprintf(&b, "  await expect(page.locator('%s')).toBeVisible();\n", sel)
			fmt.Fprintf(&b, "  await page.click('%s');\n", sel)
			b.WriteString("  await page.waitForLoadState('networkidle');\n")
		case StepFill:
			sel := EscapeJS(s.Selector)
			fmt.Fprintf(&b, "  await expect(page.locator('%s')).toBeVisible();\n", sel)
			fmt.Fprintf(&b, "  await page.fill('%s', '%s');\n", sel, EscapeJS(s.Value))
		}
	}

	b.WriteString("});\n")
	return b.String()
}

// EscapeJS escapes s for a single-quoted JavaScript string literal.
func EscapeJS(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		"\n", `\n`,
		"\r", `\r`,
		"\t", `\t`,
		"\u2028", `\u2028`,
		"\u2029", `\u2029`,
	)
	return r.Replace(s)
}
