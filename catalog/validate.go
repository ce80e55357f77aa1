package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agrefed/harvester/common"
)

// maxEditDistance is the tolerance for reporting a near match
const maxEditDistance = 3

// Warning reports one advisory validation finding. Warnings never stop a run.
type Warning struct {
	Source  common.SourceID
	Layer   string
	Message string
	// Candidates are the nearest known layer names, best first
	Candidates []string
}

func (w Warning) String() string {
	if w.Layer == "" {
		return fmt.Sprintf("%s: %s", w.Source, w.Message)
	}
	if len(w.Candidates) > 0 {
		return fmt.Sprintf("%s: layer %q not found in catalog, did you mean %s? The name is passed through unchanged", w.Source, w.Layer, strings.Join(w.Candidates, ", "))
	}
	return fmt.Sprintf("%s: layer %q not found in catalog, the download may fail", w.Source, w.Layer)
}

// Validation is the outcome of validating a layer list. Layers preserves the
// requested order; unknown names are kept as-is so the provider API gets the
// final say.
type Validation struct {
	Layers   []string
	Warnings []Warning
}

// Validate checks the requested layer names against the source registry.
// Known names pass silently. Unknown names are reported with their nearest
// candidates (small edit distance) or with a generic warning, and always kept.
func Validate(source common.SourceID, requested []string) Validation {
	v := Validation{Layers: make([]string, 0, len(requested))}
	reg, ok := registries[source]
	for _, name := range requested {
		v.Layers = append(v.Layers, name)
		if !ok {
			continue
		}
		if _, known := reg.Layers[name]; known {
			continue
		}
		v.Warnings = append(v.Warnings, Warning{
			Source:     source,
			Layer:      name,
			Message:    "unknown layer",
			Candidates: nearest(name, reg.Layers),
		})
	}
	return v
}

// nearest returns known layer names within the edit-distance tolerance of
// name, best first
func nearest(name string, known map[string]string) []string {
	type scored struct {
		name string
		d    int
	}
	var close []scored
	for k := range known {
		if d := editDistance(normalize(name), normalize(k)); d <= maxEditDistance {
			close = append(close, scored{k, d})
		}
	}
	sort.Slice(close, func(i, j int) bool {
		if close[i].d != close[j].d {
			return close[i].d < close[j].d
		}
		return close[i].name < close[j].name
	})
	names := make([]string, len(close))
	for i, c := range close {
		names[i] = c.name
	}
	return names
}

func normalize(s string) string {
	return strings.ToLower(strings.NewReplacer("-", "_", " ", "_").Replace(s))
}

// editDistance is the Levenshtein distance between a and b
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, min(cur[j-1]+1, prev[j-1]+cost))
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
