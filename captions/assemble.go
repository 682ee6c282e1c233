package captions

import (
	"reddit-reads-pipeline/types"
)

// estimatedWordsPerSecond is the fallback speaking rate used when a unit has
// no matched words and no nearby matched word to anchor against.
const estimatedWordsPerSecond = 2.5

// interpolationLookahead is how many script words past an unmatched unit the
// assembler scans for a matched word to tighten the estimated end, so drift
// does not accumulate across long unmatched runs.
const interpolationLookahead = 3

// Assemble walks caption units against an alignment and produces the final
// caption track. Pure function of its inputs: no I/O, fully deterministic.
//
// Rules per unit:
//   - at least one matched word: span from first matched start to last
//     matched end
//   - no matched words: start at the previous unit's end (0 for the first),
//     estimate the end from word count, then tighten to the start of the
//     next matched word within the lookahead
//   - partial match shorter than minDuration: extend to minDuration
//
// Every end is clamped to audioDuration, every start to >= 0, starts are
// kept non-decreasing, and the final unit ends at audioDuration exactly.
func Assemble(units []types.CaptionUnit, align *Alignment, audioDuration, minDuration float64) []types.Caption {
	if len(units) == 0 {
		return nil
	}

	captions := make([]types.Caption, 0, len(units))

	for _, unit := range units {
		first := unit.WordStart
		last := unit.WordStart + unit.WordCount

		var start, end float64
		matched := 0
		haveStart := false
		for i := first; i < last; i++ {
			span, ok := align.Spans[i]
			if !ok {
				continue
			}
			matched++
			if !haveStart {
				start = span.Start
				haveStart = true
			}
			end = span.End
		}

		if !haveStart {
			if len(captions) > 0 {
				start = captions[len(captions)-1].End
			}
			end = start + float64(unit.WordCount)/estimatedWordsPerSecond

			for i := last; i < last+interpolationLookahead && i < align.Total; i++ {
				if span, ok := align.Spans[i]; ok {
					end = span.Start
					break
				}
			}
		} else if matched < unit.WordCount && end-start < minDuration {
			end = start + minDuration
		}

		if end > audioDuration {
			end = audioDuration
		}
		if start < 0 {
			start = 0
		}
		if len(captions) > 0 && start < captions[len(captions)-1].Start {
			start = captions[len(captions)-1].Start
		}
		if end < start {
			end = start
		}

		captions = append(captions, types.Caption{Start: start, End: end, Text: unit.Text})
	}

	captions[len(captions)-1].End = audioDuration
	return captions
}
