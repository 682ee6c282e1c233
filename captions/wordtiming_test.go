package captions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reddit-reads-pipeline/types"
)

func TestWordTimingAdapterEndToEnd(t *testing.T) {
	script := "So I walked away"
	// the conversion heuristic is per timing, so early offsets stay in
	// seconds while the later millisecond ones get divided down
	timings := []types.WordTiming{
		{Text: "So", Offset: 0, Duration: 0.18},
		{Text: "I", Offset: 0.18, Duration: 0.12},
		{Text: "walk", Offset: 1300, Duration: 350}, // drifted "walked"
		{Text: "away", Offset: 1650, Duration: 400},
	}

	track, err := wordTimingAdapter{}.Generate(Request{
		Script:      script,
		Units:       SplitUnits(script, 1),
		AudioSecs:   2.2,
		WordTimings: timings,
		Config:      captionsConfig(),
	})
	require.NoError(t, err)
	require.Len(t, track, 4)

	// offsets above the millisecond threshold come out in seconds
	assert.InDelta(t, 1.3, track[2].Start, 1e-9)
	assert.InDelta(t, 1.65, track[2].End, 1e-9)
	assert.InDelta(t, 2.2, track[3].End, 1e-9)

	for i := 1; i < len(track); i++ {
		assert.GreaterOrEqual(t, track[i].Start, track[i-1].Start)
	}
}

func TestWordTimingAdapterAllUnmatched(t *testing.T) {
	// a source reporting nothing recognizable still yields a full track
	script := "one two three"
	track, err := wordTimingAdapter{}.Generate(Request{
		Script:      script,
		Units:       SplitUnits(script, 1),
		AudioSecs:   5.0,
		WordTimings: []types.WordTiming{{Text: "%%%", Offset: 0, Duration: 100}},
		Config:      captionsConfig(),
	})
	require.NoError(t, err)
	require.Len(t, track, 3)
	assert.InDelta(t, 5.0, track[2].End, 1e-9)
}
