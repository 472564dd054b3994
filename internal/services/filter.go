package services

import (
	"strings"
)

// FilterSeverity grades the worst match a filter pass found.
type FilterSeverity int

const (
	SeverityNone FilterSeverity = iota
	SeverityFiltered
	SeverityInstamute
)

// FilterResult is the outcome of one filter pass.
type FilterResult struct {
	Text     string
	Severity FilterSeverity
}

// TextFilter screens chat text. FilterString is the cheap variant used
// when re-filtering for each recipient.
type TextFilter interface {
	Filter(text string, strict bool) FilterResult
	FilterString(text string, strict bool) string
}

// WordFilter replaces configured words and flags the ones that warrant
// an immediate mute. Strict words are only applied for accounts with
// the strict filter enabled.
type WordFilter struct {
	filtered  []string
	strict    []string
	instamute []string
}

func NewWordFilter(filtered, strict, instamute []string) *WordFilter {
	return &WordFilter{
		filtered:  filtered,
		strict:    strict,
		instamute: instamute,
	}
}

func (f *WordFilter) Filter(text string, strict bool) FilterResult {
	res := FilterResult{Text: text}

	for _, w := range f.instamute {
		if containsWord(res.Text, w) {
			res.Severity = SeverityInstamute
			res.Text = replaceWord(res.Text, w)
		}
	}

	words := f.filtered
	if strict {
		words = append(append([]string{}, f.filtered...), f.strict...)
	}
	for _, w := range words {
		if containsWord(res.Text, w) {
			if res.Severity < SeverityFiltered {
				res.Severity = SeverityFiltered
			}
			res.Text = replaceWord(res.Text, w)
		}
	}

	return res
}

func (f *WordFilter) FilterString(text string, strict bool) string {
	return f.Filter(text, strict).Text
}

func containsWord(text, word string) bool {
	return strings.Contains(strings.ToLower(text), strings.ToLower(word))
}

func replaceWord(text, word string) string {
	lower := strings.ToLower(text)
	word = strings.ToLower(word)
	mask := strings.Repeat("*", len(word))

	var b strings.Builder
	for {
		i := strings.Index(lower, word)
		if i < 0 {
			b.WriteString(text)
			return b.String()
		}
		b.WriteString(text[:i])
		b.WriteString(mask)
		text = text[i+len(word):]
		lower = lower[i+len(word):]
	}
}
