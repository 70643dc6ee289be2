package assembly

import (
	"fmt"
	"reflect"
	"testing"
)

// uniformLines generates n lines with nothing important about them.
func uniformLines(n int) []Item {
	lines := make([]Item, n)
	for i := range lines {
		lines[i] = Item{Text: fmt.Sprintf("        mov     eax, %d", i)}
	}
	return lines
}

// markerCount extracts the omitted-line count from a marker's text.
func markerCount(t *testing.T, item Item) int {
	t.Helper()
	var n int
	if _, err := fmt.Sscanf(item.Text, "... (%d lines omitted) ...", &n); err != nil {
		t.Fatalf("marker text %q does not parse: %v", item.Text, err)
	}
	return n
}

// checkAccounting verifies that retained lines plus marker counts cover the
// input exactly, and that no two markers are adjacent.
func checkAccounting(t *testing.T, input, output []Item) {
	t.Helper()
	total := 0
	prevMarker := false
	for _, item := range output {
		if item.IsOmissionMarker {
			if prevMarker {
				t.Error("two adjacent omission markers in output")
			}
			total += markerCount(t, item)
			prevMarker = true
			continue
		}
		total++
		prevMarker = false
	}
	if total != len(input) {
		t.Errorf("retained + omitted = %d, want %d", total, len(input))
	}
}

func TestSelect_IdentityBelowBudget(t *testing.T) {
	lines := []Item{
		{Text: "square(int):"},
		{Text: "        mov     eax, edi", Source: &SourceMapping{Line: 1, Column: 21}},
		{Text: "        ret", Source: &SourceMapping{Line: 2, Column: 10}},
	}

	got := Select(lines, map[string]int{"square(int)": 0}, 10)

	if !reflect.DeepEqual(got, lines) {
		t.Errorf("below budget: got %v, want input unchanged", got)
	}
	// The input slice itself comes back, not a copy.
	if len(got) > 0 && &got[0] != &lines[0] {
		t.Error("below budget: expected the input slice, got a copy")
	}
}

func TestSelect_IdentityAtExactBudget(t *testing.T) {
	lines := uniformLines(5)
	got := Select(lines, nil, 5)
	if !reflect.DeepEqual(got, lines) {
		t.Errorf("at exact budget: got %d lines, want input unchanged", len(got))
	}
}

func TestSelect_EmptyInput(t *testing.T) {
	for _, budget := range []int{300, 1, 0, -1} {
		got := Select(nil, map[string]int{"f": 0}, budget)
		if len(got) != 0 {
			t.Errorf("budget %d: empty input produced %d items", budget, len(got))
		}
	}
}

func TestSelect_UniformInputSingleMarker(t *testing.T) {
	const n = 400
	lines := uniformLines(n)

	got := Select(lines, nil, 300)

	if len(got) != 1 {
		t.Fatalf("uniform input: got %d items, want 1 marker", len(got))
	}
	if !got[0].IsOmissionMarker {
		t.Fatal("uniform input: single item is not an omission marker")
	}
	if c := markerCount(t, got[0]); c != n {
		t.Errorf("marker count: got %d, want %d", c, n)
	}
}

func TestSelect_OrderPreserved(t *testing.T) {
	lines := make([]Item, 80)
	for i := range lines {
		lines[i] = Item{Text: fmt.Sprintf("insn-%03d", i)}
	}
	// Scatter importance around so several disjoint regions are retained.
	lines[5].Source = &SourceMapping{Line: 1}
	lines[30].Source = &SourceMapping{Line: 2}
	lines[60].Text = "        ret"

	got := Select(lines, map[string]int{"entry": 45}, 20)

	indexOf := map[string]int{}
	for i, item := range lines {
		indexOf[item.Text] = i
	}
	last := -1
	for _, item := range got {
		if item.IsOmissionMarker {
			continue
		}
		idx, ok := indexOf[item.Text]
		if !ok {
			t.Fatalf("retained line %q not present in input", item.Text)
		}
		if idx <= last {
			t.Fatalf("retained lines out of order: index %d after %d", idx, last)
		}
		last = idx
	}
	checkAccounting(t, lines, got)
}

func TestSelect_OmissionAccounting(t *testing.T) {
	lines := uniformLines(200)
	lines[0].Text = "f:"
	lines[120].Source = &SourceMapping{Line: 7}
	lines[199].Text = "ret"

	got := Select(lines, map[string]int{"f": 0}, 50)

	checkAccounting(t, lines, got)
}

func TestSelect_LabelAnchoring(t *testing.T) {
	lines := uniformLines(500)
	lines[237].Text = "compute:"

	got := Select(lines, map[string]int{"compute": 237}, 300)

	found := false
	for _, item := range got {
		if !item.IsOmissionMarker && item.Text == "compute:" {
			found = true
		}
	}
	if !found {
		t.Error("label definition line was dropped")
	}
	checkAccounting(t, lines, got)
}

func TestSelect_LabelPrologueWindow(t *testing.T) {
	lines := uniformLines(500)

	got := Select(lines, map[string]int{"f": 100}, 300)

	// The label line and the four following lines survive.
	want := map[string]bool{}
	for i := 100; i < 105; i++ {
		want[lines[i].Text] = false
	}
	for _, item := range got {
		if _, ok := want[item.Text]; ok && !item.IsOmissionMarker {
			want[item.Text] = true
		}
	}
	for text, seen := range want {
		if !seen {
			t.Errorf("prologue line %q missing from output", text)
		}
	}
}

func TestSelect_LabelWindowClampedAtEnd(t *testing.T) {
	lines := uniformLines(400)

	got := Select(lines, map[string]int{"tail": 398}, 300)

	checkAccounting(t, lines, got)
	// Last retained line is the final input line, so no trailing marker.
	if got[len(got)-1].IsOmissionMarker {
		t.Error("unexpected trailing marker when last line is retained")
	}
}

func TestSelect_ReturnEpilogueWindow(t *testing.T) {
	lines := uniformLines(400)
	lines[200].Text = "        ret"

	got := Select(lines, nil, 300)

	want := map[string]bool{}
	for i := 197; i <= 200; i++ {
		want[lines[i].Text] = false
	}
	for _, item := range got {
		if _, ok := want[item.Text]; ok && !item.IsOmissionMarker {
			want[item.Text] = true
		}
	}
	for text, seen := range want {
		if !seen {
			t.Errorf("epilogue line %q missing from output", text)
		}
	}
}

func TestSelect_ReturnVariants(t *testing.T) {
	for _, text := range []string{"ret", "  ret  ", "leave", "pop rbp", "ret 16"} {
		lines := uniformLines(400)
		lines[50].Text = text

		got := Select(lines, nil, 300)

		found := false
		for _, item := range got {
			if !item.IsOmissionMarker && item.Text == text {
				found = true
			}
		}
		if !found {
			t.Errorf("return line %q was dropped", text)
		}
	}
}

func TestSelect_RetPrefixRequiresSpace(t *testing.T) {
	// "retq" and similar are not matched by the ret heuristic.
	lines := uniformLines(400)
	lines[50].Text = "retracted"

	got := Select(lines, nil, 300)

	if len(got) != 1 || !got[0].IsOmissionMarker {
		t.Errorf("non-return text treated as important: got %d items", len(got))
	}
}

func TestSelect_SourceMappingWithoutLineIgnored(t *testing.T) {
	lines := uniformLines(400)
	lines[10].Source = &SourceMapping{File: "lib.cpp"} // no line number

	got := Select(lines, nil, 300)

	if len(got) != 1 || !got[0].IsOmissionMarker {
		t.Errorf("mapping without line number treated as important: got %d items", len(got))
	}
}

func TestSelect_OutOfRangeLabelsIgnored(t *testing.T) {
	lines := uniformLines(400)

	got := Select(lines, map[string]int{"below": -1, "beyond": 400, "far": 1 << 20}, 300)

	if len(got) != 1 || !got[0].IsOmissionMarker {
		t.Errorf("out-of-range labels affected selection: got %d items", len(got))
	}
}

func TestSelect_NonPositiveBudget(t *testing.T) {
	for _, budget := range []int{0, -5} {
		lines := uniformLines(30)
		lines[0].Text = "f:"
		lines[29].Text = "ret"

		got := Select(lines, map[string]int{"f": 0}, budget)

		if len(got) != 1 || !got[0].IsOmissionMarker {
			t.Fatalf("budget %d: got %d items, want single marker", budget, len(got))
		}
		if c := markerCount(t, got[0]); c != 30 {
			t.Errorf("budget %d: marker count %d, want 30", budget, c)
		}
	}
}

func TestSelect_OverflowKeepsEarliestImportant(t *testing.T) {
	lines := make([]Item, 100)
	for i := range lines {
		lines[i] = Item{
			Text:   fmt.Sprintf("insn-%03d", i),
			Source: &SourceMapping{Line: i + 1},
		}
	}

	got := Select(lines, nil, 10)

	// Everything is important, so the fallback keeps the first 10 lines
	// and one trailing marker for the other 90.
	if len(got) != 11 {
		t.Fatalf("got %d items, want 10 lines + 1 marker", len(got))
	}
	for i := 0; i < 10; i++ {
		if got[i].Text != lines[i].Text {
			t.Errorf("item %d: got %q, want %q", i, got[i].Text, lines[i].Text)
		}
	}
	if !got[10].IsOmissionMarker {
		t.Fatal("missing trailing marker")
	}
	if c := markerCount(t, got[10]); c != 90 {
		t.Errorf("trailing marker count: got %d, want 90", c)
	}
}

func TestSelect_LeadingMarkerExactCount(t *testing.T) {
	lines := uniformLines(20)
	lines[19].Text = "ret"

	got := Select(lines, nil, 10)

	// Important: 16-19 (ret + epilogue). Context widens to 14-19.
	if !got[0].IsOmissionMarker {
		t.Fatal("expected a leading marker")
	}
	if c := markerCount(t, got[0]); c != 14 {
		t.Errorf("leading marker count: got %d, want 14", c)
	}
	checkAccounting(t, lines, got)
}

func TestSelect_TwoFunctions(t *testing.T) {
	// 100 lines: func1 at 0, func2 at 50, returns at 25 and 75.
	lines := uniformLines(100)
	lines[0].Text = "func1:"
	lines[25].Text = "        ret"
	lines[50].Text = "func2:"
	lines[75].Text = "        ret"

	got := Select(lines, map[string]int{"func1": 0, "func2": 50}, 20)

	counts := map[string]int{}
	for _, item := range got {
		if !item.IsOmissionMarker {
			counts[item.Text]++
		}
	}
	if counts["func1:"] != 1 || counts["func2:"] != 1 {
		t.Errorf("label lines: func1=%d func2=%d, want 1 each", counts["func1:"], counts["func2:"])
	}
	if counts["        ret"] != 2 {
		t.Errorf("return lines retained: got %d, want 2", counts["        ret"])
	}
	checkAccounting(t, lines, got)
}

func TestSelect_MixedImportanceOverBudget(t *testing.T) {
	// 50 lines with scattered source mappings, returns and labels,
	// squeezed well below the important-line count.
	lines := uniformLines(50)
	for _, idx := range []int{0, 10, 20, 30, 40} {
		lines[idx].Source = &SourceMapping{Line: idx / 10}
	}
	lines[19].Text = "ret"
	lines[39].Text = "ret"
	labels := map[string]int{"func1": 0, "func2": 20, "func3": 40}

	got := Select(lines, labels, 15)

	if len(got) >= 50 {
		t.Errorf("output length %d, want < 50", len(got))
	}
	hasMarker, hasMapped := false, false
	for _, item := range got {
		if item.IsOmissionMarker {
			hasMarker = true
		} else if item.Source != nil && item.Source.Line > 0 {
			hasMapped = true
		}
	}
	if !hasMarker {
		t.Error("expected at least one omission marker")
	}
	if !hasMapped {
		t.Error("expected at least one retained source-mapped line")
	}
	checkAccounting(t, lines, got)
}

func TestSelect_Deterministic(t *testing.T) {
	lines := uniformLines(500)
	lines[3].Text = "f:"
	lines[100].Source = &SourceMapping{Line: 4}
	lines[250].Text = "leave"
	lines[251].Text = "ret"
	labels := map[string]int{"f": 3, "g": 400}

	first := Select(lines, labels, 300)
	second := Select(lines, labels, 300)

	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs produced different outputs")
	}
}

func TestSelect_InputNotMutated(t *testing.T) {
	lines := uniformLines(400)
	lines[7].Text = "f:"
	lines[100].Source = &SourceMapping{Line: 2}
	before := make([]Item, len(lines))
	copy(before, lines)

	Select(lines, map[string]int{"f": 7}, 300)

	if !reflect.DeepEqual(lines, before) {
		t.Error("input slice was mutated")
	}
}

func TestSelect_MarkersCarryNoMetadata(t *testing.T) {
	lines := uniformLines(400)
	lines[200].Text = "ret"

	got := Select(lines, nil, 300)

	for _, item := range got {
		if item.IsOmissionMarker && (item.Source != nil || len(item.Labels) != 0) {
			t.Errorf("marker carries metadata: %+v", item)
		}
	}
}
