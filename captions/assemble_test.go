package captions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reddit-reads-pipeline/types"
)

func unitPerWord(words ...string) []types.CaptionUnit {
	units := make([]types.CaptionUnit, len(words))
	for i, w := range words {
		units[i] = types.CaptionUnit{Text: w, WordStart: i, WordCount: 1}
	}
	return units
}

func TestAssembleFullyMatched(t *testing.T) {
	units := unitPerWord("hello", "world")
	align := &Alignment{
		Spans: map[int]wordSpan{
			0: {Start: 0.0, End: 0.4},
			1: {Start: 0.4, End: 0.9},
		},
		Matched: 2, Total: 2,
	}

	track := Assemble(units, align, 1.2, 0.25)
	require.Len(t, track, 2)
	assert.InDelta(t, 0.0, track[0].Start, 1e-9)
	assert.InDelta(t, 0.4, track[0].End, 1e-9)
	assert.InDelta(t, 0.4, track[1].Start, 1e-9)
	// last caption always ends at the audio duration
	assert.InDelta(t, 1.2, track[1].End, 1e-9)
}

func TestAssembleInterpolatesUnmatchedUnit(t *testing.T) {
	units := unitPerWord("one", "two", "three")
	align := &Alignment{
		Spans: map[int]wordSpan{
			0: {Start: 0.0, End: 0.4},
			2: {Start: 1.0, End: 1.5},
		},
		Matched: 2, Total: 3,
	}

	track := Assemble(units, align, 1.5, 0.25)
	require.Len(t, track, 3)
	// the unmatched middle unit starts where the previous ended and its
	// estimated end is tightened to the next matched word's start
	assert.InDelta(t, 0.4, track[1].Start, 1e-9)
	assert.InDelta(t, 1.0, track[1].End, 1e-9)
	assert.InDelta(t, 1.0, track[2].Start, 1e-9)
	assert.InDelta(t, 1.5, track[2].End, 1e-9)
}

func TestAssembleEstimatesWithoutAnchor(t *testing.T) {
	// nothing matched at all: every unit falls back to the speaking-rate
	// estimate chained off the previous end
	units := unitPerWord("a", "b")
	align := &Alignment{Spans: map[int]wordSpan{}, Total: 2}

	track := Assemble(units, align, 3.0, 0.25)
	require.Len(t, track, 2)
	assert.InDelta(t, 0.0, track[0].Start, 1e-9)
	assert.InDelta(t, 0.4, track[0].End, 1e-9) // 1 word / 2.5 wps
	assert.InDelta(t, 0.4, track[1].Start, 1e-9)
	assert.InDelta(t, 3.0, track[1].End, 1e-9)
}

func TestAssembleExtendsShortPartialMatch(t *testing.T) {
	// two-word unit where only one word matched, with a span shorter than
	// the minimum
	units := []types.CaptionUnit{{Text: "so anyway", WordStart: 0, WordCount: 2}}
	align := &Alignment{
		Spans:   map[int]wordSpan{0: {Start: 0.5, End: 0.55}},
		Matched: 1, Total: 2,
	}

	track := Assemble(units, align, 10.0, 0.25)
	require.Len(t, track, 1)
	assert.InDelta(t, 0.5, track[0].Start, 1e-9)
	assert.InDelta(t, 10.0, track[0].End, 1e-9) // single unit ends at audio end
}

func TestAssembleMinDurationBeforeFinalPin(t *testing.T) {
	units := []types.CaptionUnit{
		{Text: "so anyway", WordStart: 0, WordCount: 2},
		{Text: "then", WordStart: 2, WordCount: 1},
	}
	align := &Alignment{
		Spans: map[int]wordSpan{
			0: {Start: 0.5, End: 0.55},
			2: {Start: 2.0, End: 2.4},
		},
		Matched: 2, Total: 3,
	}

	track := Assemble(units, align, 3.0, 0.25)
	require.Len(t, track, 2)
	// partial match extended to the minimum duration
	assert.InDelta(t, 0.75, track[0].End, 1e-9)
}

func TestAssembleClampsToAudioDuration(t *testing.T) {
	units := unitPerWord("past", "the", "end")
	align := &Alignment{
		Spans: map[int]wordSpan{
			0: {Start: 0.0, End: 0.5},
			1: {Start: 0.5, End: 4.0}, // source over-ran the audio
			2: {Start: 4.0, End: 5.0},
		},
		Matched: 3, Total: 3,
	}

	track := Assemble(units, align, 2.0, 0.25)
	for _, c := range track {
		assert.LessOrEqual(t, c.End, 2.0)
		assert.GreaterOrEqual(t, c.End, c.Start)
	}
	assert.InDelta(t, 2.0, track[2].End, 1e-9)
}

func TestAssembleStartsNonDecreasing(t *testing.T) {
	units := unitPerWord("out", "of", "order")
	align := &Alignment{
		Spans: map[int]wordSpan{
			0: {Start: 1.0, End: 1.5},
			1: {Start: 0.2, End: 0.6}, // bogus earlier timestamp
			2: {Start: 1.6, End: 2.0},
		},
		Matched: 3, Total: 3,
	}

	track := Assemble(units, align, 2.5, 0.25)
	for i := 1; i < len(track); i++ {
		assert.GreaterOrEqual(t, track[i].Start, track[i-1].Start)
	}
}

func TestAssembleEmptyUnits(t *testing.T) {
	assert.Nil(t, Assemble(nil, &Alignment{Spans: map[int]wordSpan{}}, 5.0, 0.25))
}
