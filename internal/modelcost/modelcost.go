// Package modelcost maps model names to per-token pricing.
//
// Anthropic publishes no pricing API, so the table is maintained by hand
// from the published price list. Model names arrive in several naming
// schemes (claude-3-5-haiku-20241022, claude-sonnet-4-0, claude-opus-4-1)
// and are normalized to a family key before lookup.
package modelcost

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Cost is the price of a model in USD per million tokens.
type Cost struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// Model family costs in USD per million tokens.
// Updated 2025-09-16 from the published Claude price list.
var families = map[string]Cost{
	"opus-4.1":   {15.0, 75.0},
	"opus-4":     {15.0, 75.0},
	"sonnet-4":   {3.0, 15.0},
	"sonnet-3.7": {3.0, 15.0},
	"sonnet-3.5": {3.0, 15.0},
	"haiku-3.5":  {0.80, 4.0},
	"opus-3":     {15.0, 75.0},
	"haiku-3":    {0.25, 1.25},
}

var (
	// claude-3-5-haiku-20241022
	versionFirstDated = regexp.MustCompile(`^claude-(\d+)-(\d+)-(\w+)-\d+`)
	// claude-3-opus-20240229
	majorFirstDated = regexp.MustCompile(`^claude-(\d+)-(\w+)-\d+`)
	// claude-sonnet-4-0, claude-opus-4-1-20250805
	familyFirst = regexp.MustCompile(`^claude-([a-z]+)-(\d+)-(\d+)`)
	// claude-opus-4
	familyMajorOnly = regexp.MustCompile(`^claude-([a-z]+)-(\d+)$`)
)

// Normalize reduces a model name to its family key, e.g.
// claude-3-5-haiku-20241022 -> haiku-3.5.
func Normalize(model string) (string, error) {
	model = strings.ToLower(model)

	if m := versionFirstDated.FindStringSubmatch(model); m != nil {
		return fmt.Sprintf("%s-%s.%s", m[3], m[1], m[2]), nil
	}
	if m := majorFirstDated.FindStringSubmatch(model); m != nil {
		return fmt.Sprintf("%s-%s", m[2], m[1]), nil
	}
	if m := familyFirst.FindStringSubmatch(model); m != nil {
		if m[3] == "0" {
			return fmt.Sprintf("%s-%s", m[1], m[2]), nil
		}
		return fmt.Sprintf("%s-%s.%s", m[1], m[2], m[3]), nil
	}
	if m := familyMajorOnly.FindStringSubmatch(model); m != nil {
		return fmt.Sprintf("%s-%s", m[1], m[2]), nil
	}

	// Fall back to scanning for a recognizable family name with a
	// trailing version.
	for _, family := range []string{"opus", "sonnet", "haiku"} {
		if !strings.Contains(model, family) {
			continue
		}
		re := regexp.MustCompile(family + `[-\s]+(\d+)(?:[-.](\d+))?`)
		if m := re.FindStringSubmatch(model); m != nil {
			if m[2] != "" {
				return fmt.Sprintf("%s-%s.%s", family, m[1], m[2]), nil
			}
			return fmt.Sprintf("%s-%s", family, m[1]), nil
		}
	}

	return "", fmt.Errorf("unable to parse model name %q", model)
}

// PerToken returns the USD cost per input and output token for a model.
func PerToken(model string) (inputCost, outputCost float64, err error) {
	family, err := Normalize(model)
	if err != nil {
		return 0, 0, err
	}

	cost, ok := families[family]
	if !ok {
		known := make([]string, 0, len(families))
		for f := range families {
			known = append(known, f)
		}
		sort.Strings(known)
		return 0, 0, fmt.Errorf("model family %q not found in pricing data (known: %s)",
			family, strings.Join(known, ", "))
	}
	return cost.InputPerMillion / 1e6, cost.OutputPerMillion / 1e6, nil
}
