// internal/recorder/filter.go
package recorder

import (
	"strings"
	"unicode/utf8"

	"github.com/xkilldash9x/scribe/internal/action"
)

// FilterOptions tunes which input edits count as significant.
type FilterOptions struct {
	// GrowthThreshold is how many characters a value must grow by, strictly,
	// before the edit is recorded on its own.
	GrowthThreshold int
	// SignificantChars makes any value containing one of these characters
	// significant regardless of growth.
	SignificantChars string
}

// DefaultFilterOptions returns the stock thresholds.
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{GrowthThreshold: 2, SignificantChars: "@."}
}

// Filter decides which classified actions enter the log. Only input edits are
// gated; every other kind passes. A Filter is session scoped and not safe for
// concurrent use.
type Filter struct {
	opts         FilterOptions
	lastSelector string
	lastValue    string
}

// NewFilter creates a Filter with empty history.
func NewFilter(opts FilterOptions) *Filter {
	if opts.GrowthThreshold < 0 {
		opts.GrowthThreshold = 0
	}
	return &Filter{opts: opts}
}

// Accept reports whether a should be recorded and, for accepted inputs,
// advances the filter's history.
func (f *Filter) Accept(a action.Action) bool {
	in, ok := a.(action.Input)
	if !ok {
		return true
	}
	if !f.significant(in) {
		return false
	}
	f.lastSelector = in.Selector
	f.lastValue = in.Value
	return true
}

func (f *Filter) significant(in action.Input) bool {
	if in.Selector != f.lastSelector {
		return true
	}
	if utf8.RuneCountInString(in.Value) > utf8.RuneCountInString(f.lastValue)+f.opts.GrowthThreshold {
		return true
	}
	return f.opts.SignificantChars != "" && strings.ContainsAny(in.Value, f.opts.SignificantChars)
}

// Reset clears the filter's history.
func (f *Filter) Reset() {
	f.lastSelector = ""
	f.lastValue = ""
}
