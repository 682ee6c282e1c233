package captions

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reddit-reads-pipeline/types"
)

func TestFormatSRT(t *testing.T) {
	track := []types.Caption{
		{Start: 0, End: 1.5, Text: "First line"},
		{Start: 1.5, End: 62.25, Text: "Second line"},
	}
	out := FormatSRT(track)
	assert.Equal(t, "1\n00:00:00,000 --> 00:00:01,500\nFirst line\n\n"+
		"2\n00:00:01,500 --> 00:01:02,250\nSecond line\n\n", out)
}

func TestParseSRTRoundTrip(t *testing.T) {
	track := []types.Caption{
		{Start: 0.123, End: 1.5, Text: "hello"},
		{Start: 1.5, End: 3.999, Text: "multi\nline text"},
	}
	parsed, err := ParseSRT(FormatSRT(track))
	require.NoError(t, err)
	require.Len(t, parsed, 2)
	assert.InDelta(t, 0.123, parsed[0].Start, 1e-3)
	assert.InDelta(t, 3.999, parsed[1].End, 1e-3)
	assert.Equal(t, "multi\nline text", parsed[1].Text)
}

func TestParseSRTWindowsLineEndingsAndPeriodTimes(t *testing.T) {
	content := "1\r\n00:00:00.500 --> 00:00:02.000\r\nsome text\r\n\r\n"
	parsed, err := ParseSRT(content)
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.InDelta(t, 0.5, parsed[0].Start, 1e-9)
	assert.InDelta(t, 2.0, parsed[0].End, 1e-9)
}

func TestParseSRTEmptyAndMalformed(t *testing.T) {
	parsed, err := ParseSRT("")
	require.NoError(t, err)
	assert.Empty(t, parsed)

	// blocks without a timecode line are skipped, not fatal
	parsed, err = ParseSRT("not\nan srt\nblock")
	require.NoError(t, err)
	assert.Empty(t, parsed)

	_, err = ParseSRT("1\n00:00 --> 00:01\nbad timecode")
	assert.Error(t, err)
}

func TestWriteReadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subtitles.json")
	track := []types.Caption{{Start: 0, End: 2.5, Text: "persisted"}}

	require.NoError(t, WriteJSON(track, path))
	loaded, err := ReadJSON(path)
	require.NoError(t, err)
	assert.Equal(t, track, loaded)
}

func TestFormatSRTTimeRounding(t *testing.T) {
	assert.Equal(t, "00:00:00,000", formatSRTTime(-1))
	assert.Equal(t, "00:00:02,000", formatSRTTime(1.9996))
}
