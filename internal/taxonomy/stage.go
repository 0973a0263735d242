package taxonomy

import "strings"

// StageUnknown marks a record with no usable stage information.
const StageUnknown = -1

// Stage ordinals. Adjacency checks in the scorer rely on these being
// consecutive integers in funding order.
const (
	StagePreSeed = iota
	StageSeed
	StageSeriesA
	StageSeriesB
	StageSeriesCPlus
)

var stageLabels = map[int]string{
	StagePreSeed:     "pre-seed",
	StageSeed:        "seed",
	StageSeriesA:     "series-a",
	StageSeriesB:     "series-b",
	StageSeriesCPlus: "series-c+",
}

// StageLabel returns the canonical label for a stage ordinal.
func StageLabel(stage int) string {
	if label, ok := stageLabels[stage]; ok {
		return label
	}

	return "unknown"
}

// NormalizeStage maps a raw stage label to its ordinal.
// Unrecognized labels map to StageUnknown.
func NormalizeStage(raw string) int {
	label := strings.ToLower(strings.TrimSpace(raw))
	label = strings.ReplaceAll(label, "_", " ")

	switch {
	case label == "":
		return StageUnknown
	case strings.Contains(label, "pre-seed"), strings.Contains(label, "pre seed"), strings.Contains(label, "preseed"), strings.Contains(label, "angel"):
		return StagePreSeed
	case strings.Contains(label, "seed"):
		return StageSeed
	case strings.Contains(label, "series a"), strings.Contains(label, "series-a"), label == "a":
		return StageSeriesA
	case strings.Contains(label, "series b"), strings.Contains(label, "series-b"), label == "b":
		return StageSeriesB
	case strings.Contains(label, "series c"), strings.Contains(label, "series-c"),
		strings.Contains(label, "series d"), strings.Contains(label, "series-d"),
		strings.Contains(label, "growth"), strings.Contains(label, "late"):
		return StageSeriesCPlus
	default:
		return StageUnknown
	}
}

// NormalizeStages maps raw stage labels to ordinals, dropping unknowns
// and de-duplicating while preserving first-occurrence order.
func NormalizeStages(raw []string) []int {
	seen := make(map[int]bool, len(raw))
	out := make([]int, 0, len(raw))

	for _, r := range raw {
		s := NormalizeStage(r)
		if s == StageUnknown || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}

	return out
}
