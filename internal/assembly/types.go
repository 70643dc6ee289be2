// Package assembly models compiler assembly listings and selects the
// lines worth showing to an LLM when a listing is too large to send whole.
package assembly

// SourceMapping is the compiler-provided association between an assembly
// line and a position in the original source.
type SourceMapping struct {
	// File is the source file path. Empty for the main source file.
	File string `json:"file,omitempty"`
	// Line is the 1-based source line. Zero means the compiler emitted a
	// mapping without a usable line number.
	Line int `json:"line"`
	// Column is the 1-based source column, when known.
	Column int `json:"column,omitempty"`
}

// LabelRange is the column span of a label reference within a line's text.
type LabelRange struct {
	StartCol int `json:"startCol"`
	EndCol   int `json:"endCol"`
}

// Label is a reference to a named position in the listing.
type Label struct {
	Name  string     `json:"name"`
	Range LabelRange `json:"range"`
}

// Item is a single line of a compiler's assembly output: an instruction,
// a label definition, or a directive.
type Item struct {
	// Text is the raw line text.
	Text string `json:"text"`
	// Source is the source mapping for this line, nil when the compiler
	// emitted none.
	Source *SourceMapping `json:"source,omitempty"`
	// Labels are the label references appearing in Text.
	Labels []Label `json:"labels,omitempty"`
	// IsOmissionMarker is true only on synthetic entries produced by
	// Select to stand in for a run of omitted lines. Marker entries never
	// carry Source or Labels.
	IsOmissionMarker bool `json:"isOmissionMarker,omitempty"`
}
