package captions

import "strings"

// Word weights bias timing shares toward longer words and words that close a
// clause. The acoustic and proportional paths use slightly different tunings;
// both came out of listening tests on narrated story audio.

func acousticWordWeight(word string) float64 {
	base := 1.0 + float64(len(word))/10.0
	switch {
	case strings.HasSuffix(word, ".") || strings.HasSuffix(word, "!") || strings.HasSuffix(word, "?"):
		base += 0.5
	case strings.HasSuffix(word, ",") || strings.HasSuffix(word, ";") || strings.HasSuffix(word, ":"):
		base += 0.2
	}
	return base
}

func proportionalWordWeight(word string) float64 {
	base := 1.0 + float64(len(word))/8.0
	switch {
	case strings.HasSuffix(word, ".") || strings.HasSuffix(word, "!") || strings.HasSuffix(word, "?"):
		base += 0.6
	case strings.HasSuffix(word, ",") || strings.HasSuffix(word, ";") || strings.HasSuffix(word, ":"):
		base += 0.3
	}
	return base
}

func wordWeights(words []string, weight func(string) float64) []float64 {
	weights := make([]float64, len(words))
	for i, w := range words {
		weights[i] = weight(w)
	}
	return weights
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}
