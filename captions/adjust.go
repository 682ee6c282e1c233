package captions

import "reddit-reads-pipeline/types"

// ApplyLead shifts every caption earlier by lead seconds (negative lead
// delays instead). The final caption is pinned back to the audio duration so
// the track still covers the whole waveform.
func ApplyLead(track []types.Caption, lead, audioDuration float64) []types.Caption {
	if lead == 0 || len(track) == 0 {
		return track
	}
	adjusted := make([]types.Caption, len(track))
	for i, c := range track {
		start := c.Start - lead
		if start < 0 {
			start = 0
		}
		end := c.End - lead
		if end > audioDuration {
			end = audioDuration
		}
		if end < start {
			end = start
		}
		adjusted[i] = types.Caption{Start: start, End: end, Text: c.Text}
	}
	adjusted[len(adjusted)-1].End = audioDuration
	return adjusted
}

// ScaleDurations shortens every caption's duration by scale and re-lays the
// track out sequentially, mitigating lag accumulation on sources that run
// slightly long. Durations never drop below minDuration and the final end is
// pinned to the audio duration.
func ScaleDurations(track []types.Caption, scale, minDuration, audioDuration float64) []types.Caption {
	if scale >= 0.999 || len(track) == 0 {
		return track
	}
	scaled := make([]types.Caption, len(track))
	current := 0.0
	for i, c := range track {
		dur := (c.End - c.Start) * scale
		if dur < minDuration {
			dur = minDuration
		}
		end := current + dur
		if end > audioDuration {
			end = audioDuration
		}
		scaled[i] = types.Caption{Start: current, End: end, Text: c.Text}
		current = end
	}
	scaled[len(scaled)-1].End = audioDuration
	return scaled
}
