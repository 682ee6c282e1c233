package captions

import (
	"math"
	"sort"
)

// speechInterval is a contiguous time range classified as spoken audio
type speechInterval struct {
	Start float64
	End   float64
}

func (si speechInterval) Duration() float64 { return si.End - si.Start }

// rmsEnergies computes RMS energy over sliding windows of windowSamples
// length advancing by hopSamples, normalized so the loudest window is 1.
func rmsEnergies(samples []float64, windowSamples, hopSamples int) []float64 {
	if windowSamples <= 0 || hopSamples <= 0 || len(samples) < windowSamples {
		return nil
	}
	var energies []float64
	for i := 0; i+windowSamples <= len(samples); i += hopSamples {
		var sumSq float64
		for _, s := range samples[i : i+windowSamples] {
			sumSq += s * s
		}
		energies = append(energies, math.Sqrt(sumSq/float64(windowSamples)))
	}

	var peak float64
	for _, e := range energies {
		if e > peak {
			peak = e
		}
	}
	if peak > 0 {
		for i := range energies {
			energies[i] /= peak
		}
	}
	return energies
}

// percentile returns the p-th percentile (0-100) of values by
// nearest-rank on a sorted copy.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// classifySpeech marks each energy window as speech when it exceeds the
// adaptive threshold: at least 0.1, and at least twice the silence floor
// taken from the configured percentile.
func classifySpeech(energies []float64, silencePercentile float64) []bool {
	silenceFloor := percentile(energies, silencePercentile)
	threshold := silenceFloor * 2
	if threshold < 0.1 {
		threshold = 0.1
	}
	speech := make([]bool, len(energies))
	for i, e := range energies {
		speech[i] = e > threshold
	}
	return speech
}

// fillGaps flips silence runs shorter than maxGap windows back to speech so
// plosives and glottal stops do not fragment a word into two intervals.
func fillGaps(speech []bool, maxGap int) []bool {
	filled := make([]bool, len(speech))
	copy(filled, speech)

	gapStart := -1
	for i := range filled {
		switch {
		case !filled[i] && gapStart < 0:
			gapStart = i
		case filled[i] && gapStart >= 0:
			if i-gapStart < maxGap {
				for j := gapStart; j < i; j++ {
					filled[j] = true
				}
			}
			gapStart = -1
		}
	}
	return filled
}

// extractIntervals converts the per-window speech flags into contiguous
// speech intervals, discarding anything shorter than minDuration seconds as
// noise. A run still open at the end extends to audioDuration.
func extractIntervals(speech []bool, hopSeconds, minDuration, audioDuration float64) []speechInterval {
	var intervals []speechInterval
	inSpeech := false
	start := 0.0

	for i, speaking := range speech {
		pos := float64(i) * hopSeconds
		if speaking && !inSpeech {
			start = pos
			inSpeech = true
		} else if !speaking && inSpeech {
			if pos-start > minDuration {
				intervals = append(intervals, speechInterval{Start: start, End: pos})
			}
			inSpeech = false
		}
	}
	if inSpeech {
		intervals = append(intervals, speechInterval{Start: start, End: audioDuration})
	}
	return intervals
}

func totalSpeechTime(intervals []speechInterval) float64 {
	var total float64
	for _, iv := range intervals {
		total += iv.Duration()
	}
	return total
}

// mapSpeechTime converts a proportional speech-time offset (pauses excluded)
// back to an absolute audio timestamp by walking the interval list.
func mapSpeechTime(speechTime float64, intervals []speechInterval, total float64) float64 {
	if len(intervals) == 0 || total <= 0 {
		return speechTime
	}
	if speechTime < 0 {
		speechTime = 0
	}
	if speechTime > total {
		speechTime = total
	}

	cumulative := 0.0
	for _, iv := range intervals {
		dur := iv.Duration()
		if cumulative+dur >= speechTime {
			progress := 0.0
			if dur > 0 {
				progress = (speechTime - cumulative) / dur
			}
			return iv.Start + dur*progress
		}
		cumulative += dur
	}
	return intervals[len(intervals)-1].End
}
