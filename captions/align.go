package captions

import (
	"log"
	"strings"
	"unicode"

	"reddit-reads-pipeline/types"
)

// lookaheadWindow bounds how far ahead of the cursor the aligner searches for
// a match. Keeps occasional dropped or merged words from dragging the cursor
// off course.
const lookaheadWindow = 5

// millisThreshold: offsets above this are assumed to be milliseconds and are
// converted to seconds. Ambiguous for audio genuinely longer than 1000s, but
// the pipeline caps videos at 180s.
const millisThreshold = 1000

// wordSpan is the time span assigned to one script word position
type wordSpan struct {
	Start float64
	End   float64
}

// Alignment maps script word positions to time spans. Positions with no
// matching timing are absent; the assembler interpolates them.
type Alignment struct {
	Spans     map[int]wordSpan
	Matched   int
	Total     int
	Unmatched []string
}

// MatchRate returns the fraction of script words that received a timing, in
// percent. Diagnostic only; assembly proceeds at any rate, including 0%.
func (a *Alignment) MatchRate() float64 {
	if a.Total == 0 {
		return 0
	}
	return float64(a.Matched) / float64(a.Total) * 100
}

// AlignWordTimings fuzzy-matches externally reported word timings onto the
// canonical script word sequence. Sources can drop, merge, or relabel words,
// so matching is sequential by content with a bounded lookahead, never by
// index.
func AlignWordTimings(scriptWords []string, timings []types.WordTiming) *Alignment {
	align := &Alignment{
		Spans: make(map[int]wordSpan),
		Total: len(scriptWords),
	}

	cursor := 0
	for _, timing := range timings {
		matched := false
		window := lookaheadWindow
		if rest := len(scriptWords) - cursor; rest < window {
			window = rest
		}

		for offset := 0; offset < window; offset++ {
			if !wordsMatch(timing.Text, scriptWords[cursor+offset]) {
				continue
			}

			start := timing.Offset
			dur := timing.Duration
			if start > millisThreshold {
				start /= 1000
				dur /= 1000
			}

			align.Spans[cursor+offset] = wordSpan{Start: start, End: start + dur}
			// skip any script words between the cursor and the match
			cursor = cursor + offset + 1
			matched = true
			break
		}

		if !matched {
			// leave the cursor in place and rely on interpolation later
			align.Unmatched = append(align.Unmatched, timing.Text)
		}
	}

	align.Matched = len(align.Spans)
	if len(align.Unmatched) > 0 {
		log.Printf("[captions] %d word timings could not be matched to script words", len(align.Unmatched))
	}
	if rate := align.MatchRate(); rate < 80 {
		log.Printf("[captions] ⚠️  low word match rate: %.1f%% (%d/%d)", rate, align.Matched, align.Total)
	} else {
		log.Printf("[captions] matched %d/%d words (%.1f%%)", align.Matched, align.Total, align.MatchRate())
	}
	return align
}

// wordsMatch applies the fuzzy rules in order: exact normalized match,
// containment with similar length (contractions like "dont" vs "don't"),
// then a shared 3-character prefix.
func wordsMatch(a, b string) bool {
	na := normalizeWord(a)
	nb := normalizeWord(b)

	if na == nb {
		return na != ""
	}

	if na != "" && nb != "" {
		if strings.Contains(na, nb) || strings.Contains(nb, na) {
			diff := len(na) - len(nb)
			if diff < 0 {
				diff = -diff
			}
			if diff <= 2 {
				return true
			}
		}
	}

	if len(na) >= 3 && len(nb) >= 3 && na[:3] == nb[:3] {
		return true
	}
	return false
}

func normalizeWord(word string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(word)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
