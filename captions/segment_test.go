package captions

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitUnitsSingleWord(t *testing.T) {
	units := SplitUnits("My entitled mother ruined everything", 1)
	require.Len(t, units, 5)
	assert.Equal(t, "My", units[0].Text)
	assert.Equal(t, 0, units[0].WordStart)
	assert.Equal(t, "everything", units[4].Text)
	assert.Equal(t, 4, units[4].WordStart)
	for _, u := range units {
		assert.Equal(t, 1, u.WordCount)
	}
}

func TestSplitUnitsGrouped(t *testing.T) {
	units := SplitUnits("one two three four five", 2)
	require.Len(t, units, 3)
	assert.Equal(t, "one two", units[0].Text)
	assert.Equal(t, "three four", units[1].Text)
	assert.Equal(t, 2, units[1].WordStart)
	// trailing partial unit keeps the remainder
	assert.Equal(t, "five", units[2].Text)
	assert.Equal(t, 1, units[2].WordCount)
}

func TestSplitUnitsCoversScriptExactly(t *testing.T) {
	script := "So there I was, minding my own business at the grocery store."
	words := strings.Fields(script)
	for _, wpu := range []int{1, 2, 3, 7} {
		units := SplitUnits(script, wpu)
		total := 0
		next := 0
		for _, u := range units {
			assert.Equal(t, next, u.WordStart, "units must be contiguous")
			next += u.WordCount
			total += u.WordCount
		}
		assert.Equal(t, len(words), total, "wpu=%d", wpu)
	}
}

func TestSplitUnitsEmptyAndWhitespace(t *testing.T) {
	assert.Empty(t, SplitUnits("", 1))
	assert.Empty(t, SplitUnits("   \n\t ", 3))
}

func TestSplitUnitsZeroWindowDefaultsToOne(t *testing.T) {
	units := SplitUnits("a b c", 0)
	require.Len(t, units, 3)
}

func TestSplitSegmentsGlobalIndices(t *testing.T) {
	units := SplitSegments([]string{"first sentence here", "and the second"}, 2)
	require.Len(t, units, 4)
	// word indices continue across the segment boundary
	assert.Equal(t, "first sentence", units[0].Text)
	assert.Equal(t, "here", units[1].Text)
	assert.Equal(t, 2, units[1].WordStart)
	assert.Equal(t, "and the", units[2].Text)
	assert.Equal(t, 3, units[2].WordStart)
	assert.Equal(t, "second", units[3].Text)
	assert.Equal(t, 5, units[3].WordStart)
}

func TestSplitSegmentsNeverSpansBoundary(t *testing.T) {
	units := SplitSegments([]string{"one two three", "four"}, 3)
	require.Len(t, units, 2)
	assert.Equal(t, "one two three", units[0].Text)
	assert.Equal(t, "four", units[1].Text)
}
