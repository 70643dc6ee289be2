package assembly

import (
	"fmt"
	"sort"
	"strings"
)

const (
	// DefaultMaxLines is the line budget used by the explain pipeline.
	DefaultMaxLines = 300

	// prologueWindow is how many lines a label definition keeps, counting
	// the label line itself (entry label plus typical prologue).
	prologueWindow = 5
	// epilogueWindow is how many lines before a return instruction are
	// kept in addition to the return itself.
	epilogueWindow = 3
	// contextWindow is the number of lines kept on each side of every
	// important line.
	contextWindow = 2
)

// Select reduces an assembly listing to at most roughly budget lines,
// keeping the lines that matter for an explanation: label definitions and
// their prologues, lines with source mappings, and return/epilogue
// sequences, each padded with a little surrounding context. Runs of
// omitted lines collapse into single marker entries stating the omitted
// count.
//
// When the listing already fits the budget, the input slice is returned
// unchanged. Otherwise retained lines keep their original relative order,
// and the budget is soft: when the important lines alone exceed it, the
// earliest ones win, and markers may push the result slightly past it.
//
// labelDefs maps label names to the zero-based index where each label is
// defined; entries with out-of-range indices are ignored. A budget of
// zero or less degenerates to a single marker spanning the whole input.
// Select never fails and never mutates its input; identical inputs
// produce identical output (the serialized result feeds a cache key).
func Select(lines []Item, labelDefs map[string]int, budget int) []Item {
	if len(lines) <= budget {
		return lines
	}

	important := make(map[int]struct{})

	// Label definitions anchor function entries: keep the label line and
	// the prologue instructions after it.
	for _, idx := range labelDefs {
		if idx < 0 || idx >= len(lines) {
			continue
		}
		for i := idx; i < min(idx+prologueWindow, len(lines)); i++ {
			important[i] = struct{}{}
		}
	}

	for idx, item := range lines {
		// A source mapping means a human can correlate this line back
		// to source. A mapping without a line number is uninformative.
		if item.Source != nil && item.Source.Line > 0 {
			important[idx] = struct{}{}
		}

		// Returns and epilogues mark function exits: keep the return
		// and the lines leading into it.
		text := strings.TrimSpace(item.Text)
		if text == "ret" || text == "leave" || text == "pop rbp" || strings.HasPrefix(text, "ret ") {
			for i := max(0, idx-epilogueWindow); i <= idx; i++ {
				important[i] = struct{}{}
			}
		}
	}

	// Pad every important line with a couple of lines of context.
	context := make(map[int]struct{})
	for idx := range important {
		for i := max(0, idx-contextWindow); i < min(len(lines), idx+contextWindow+1); i++ {
			context[i] = struct{}{}
		}
	}

	retained := make(map[int]struct{}, len(important)+len(context))
	for idx := range important {
		retained[idx] = struct{}{}
	}
	for idx := range context {
		retained[idx] = struct{}{}
	}

	// Over budget even after selection: drop the context lines and keep
	// only the first budget important lines in program order.
	if len(retained) > budget {
		sortedImportant := sortedIndices(important)
		if budget < 0 {
			budget = 0
		}
		if len(sortedImportant) > budget {
			sortedImportant = sortedImportant[:budget]
		}
		retained = make(map[int]struct{}, len(sortedImportant))
		for _, idx := range sortedImportant {
			retained[idx] = struct{}{}
		}
	}

	sorted := sortedIndices(retained)

	selected := make([]Item, 0, len(sorted)+len(sorted)/2+1)
	lastIdx := -1
	for _, idx := range sorted {
		if idx > lastIdx+1 {
			selected = append(selected, omissionMarker(idx-lastIdx-1))
		}
		selected = append(selected, lines[idx])
		lastIdx = idx
	}
	if lastIdx < len(lines)-1 {
		selected = append(selected, omissionMarker(len(lines)-lastIdx-1))
	}

	return selected
}

func omissionMarker(count int) Item {
	return Item{
		Text:             fmt.Sprintf("... (%d lines omitted) ...", count),
		IsOmissionMarker: true,
	}
}

func sortedIndices(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for idx := range set {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}
