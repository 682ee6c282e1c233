package captions

import (
	"fmt"
	"strings"

	"reddit-reads-pipeline/types"
)

// Per-unit duration clamps applied before rescaling. The floor after the
// global rescale is lower so the rescale can still converge on short audio.
const (
	proportionalMinDuration = 0.35
	proportionalMaxDuration = 3.0
	rescaledDurationFloor   = 0.2
)

// proportionalAdapter apportions the entire audio duration across units by
// word weight. Needs nothing but the script and the duration; the fallback
// of last resort.
type proportionalAdapter struct{}

func (proportionalAdapter) Name() string { return "proportional" }

func (proportionalAdapter) Generate(req Request) ([]types.Caption, error) {
	scriptWords := strings.Fields(req.Script)
	if len(scriptWords) == 0 {
		return nil, fmt.Errorf("empty script")
	}

	weights := wordWeights(scriptWords, proportionalWordWeight)
	totalWeight := sum(weights)

	maxDur := proportionalMaxDuration
	if req.AudioSecs < maxDur {
		maxDur = req.AudioSecs
	}

	durations := make([]float64, len(req.Units))
	for i, unit := range req.Units {
		segWeight := 0.0
		for w := unit.WordStart; w < unit.WordStart+unit.WordCount && w < len(weights); w++ {
			segWeight += weights[w]
		}

		raw := req.AudioSecs / float64(len(req.Units))
		if totalWeight > 0 {
			raw = req.AudioSecs * (segWeight / totalWeight)
		}
		if raw < proportionalMinDuration {
			raw = proportionalMinDuration
		}
		if raw > maxDur {
			raw = maxDur
		}
		durations[i] = raw
	}

	// rescale so the durations sum to the audio duration exactly
	if total := sum(durations); total > 0 {
		scale := req.AudioSecs / total
		for i := range durations {
			durations[i] *= scale
			if durations[i] < rescaledDurationFloor {
				durations[i] = rescaledDurationFloor
			}
		}
	}

	track := make([]types.Caption, 0, len(req.Units))
	current := 0.0
	for i, unit := range req.Units {
		start := current
		end := start + durations[i]
		if end > req.AudioSecs {
			end = req.AudioSecs
		}
		track = append(track, types.Caption{Start: start, End: end, Text: unit.Text})
		current = end
	}

	track[len(track)-1].End = req.AudioSecs
	return track, nil
}
