package captions

import (
	"strings"

	"reddit-reads-pipeline/types"
)

// SplitUnits splits a script into caption units of at most wordsPerUnit
// consecutive words. Units are contiguous and cover the whitespace-tokenized
// script exactly once.
func SplitUnits(script string, wordsPerUnit int) []types.CaptionUnit {
	if wordsPerUnit < 1 {
		wordsPerUnit = 1
	}
	words := strings.Fields(script)
	return unitsFromWords(words, 0, wordsPerUnit)
}

// SplitSegments re-splits caller-supplied pre-segmented text down to the unit
// window size. A unit never spans a segment boundary. Word indices run
// continuously across all segments so the units still address one global
// script word sequence.
func SplitSegments(segments []string, wordsPerUnit int) []types.CaptionUnit {
	if wordsPerUnit < 1 {
		wordsPerUnit = 1
	}
	var units []types.CaptionUnit
	wordStart := 0
	for _, segment := range segments {
		words := strings.Fields(segment)
		units = append(units, unitsFromWords(words, wordStart, wordsPerUnit)...)
		wordStart += len(words)
	}
	return units
}

func unitsFromWords(words []string, wordStart, wordsPerUnit int) []types.CaptionUnit {
	var units []types.CaptionUnit
	for i := 0; i < len(words); i += wordsPerUnit {
		end := i + wordsPerUnit
		if end > len(words) {
			end = len(words)
		}
		units = append(units, types.CaptionUnit{
			Text:      strings.Join(words[i:end], " "),
			WordStart: wordStart + i,
			WordCount: end - i,
		})
	}
	return units
}
