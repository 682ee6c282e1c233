package captions

import (
	"strings"

	"reddit-reads-pipeline/types"
)

// wordTimingAdapter builds the track from externally reported word timings,
// the most precise of the three sources.
type wordTimingAdapter struct{}

func (wordTimingAdapter) Name() string { return "word-timing" }

func (wordTimingAdapter) Generate(req Request) ([]types.Caption, error) {
	scriptWords := strings.Fields(req.Script)
	align := AlignWordTimings(scriptWords, req.WordTimings)
	return Assemble(req.Units, align, req.AudioSecs, req.Config.MinDuration), nil
}
