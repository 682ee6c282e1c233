package captions

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"reddit-reads-pipeline/types"
)

// analysisSampleRate is what the waveform is resampled to before energy
// analysis; 16 kHz mono is plenty for speech/silence detection.
const analysisSampleRate = 16000

// acousticAdapter times captions by analyzing the rendered waveform: it
// finds speech intervals, gives each unit a weighted share of total speech
// time, and maps those shares back onto absolute audio time so captions
// skip over the narrator's pauses.
type acousticAdapter struct{}

func (acousticAdapter) Name() string { return "acoustic" }

func (a acousticAdapter) Generate(req Request) ([]types.Caption, error) {
	samples, err := loadMonoSamples(req.AudioPath)
	if err != nil {
		return nil, fmt.Errorf("load waveform: %w", err)
	}

	cfg := req.Config
	windowSamples := analysisSampleRate * cfg.WindowMs / 1000
	hopSamples := windowSamples / 2 // 50% overlap
	if windowSamples == 0 || hopSamples == 0 {
		return nil, fmt.Errorf("analysis window too small (%dms)", cfg.WindowMs)
	}

	energies := rmsEnergies(samples, windowSamples, hopSamples)
	if len(energies) == 0 {
		return nil, fmt.Errorf("audio too short for analysis")
	}

	speech := classifySpeech(energies, cfg.SilencePercentile)
	maxGapWindows := cfg.GapFillMs * analysisSampleRate / 1000 / hopSamples
	speech = fillGaps(speech, maxGapWindows)

	hopSeconds := float64(hopSamples) / float64(analysisSampleRate)
	intervals := extractIntervals(speech, hopSeconds, float64(cfg.MinSpeechMs)/1000, req.AudioSecs)
	if len(intervals) == 0 {
		return nil, fmt.Errorf("no speech detected")
	}

	speechTime := totalSpeechTime(intervals)

	scriptWords := strings.Fields(req.Script)
	weights := wordWeights(scriptWords, acousticWordWeight)
	totalWeight := sum(weights)

	track := make([]types.Caption, 0, len(req.Units))
	cumulative := 0.0

	for _, unit := range req.Units {
		segWeight := 0.0
		for w := unit.WordStart; w < unit.WordStart+unit.WordCount && w < len(weights); w++ {
			segWeight += weights[w]
		}

		share := speechTime / float64(len(req.Units))
		if totalWeight > 0 {
			share = speechTime * (segWeight / totalWeight)
		}

		start := mapSpeechTime(cumulative, intervals, speechTime)
		end := mapSpeechTime(cumulative+share, intervals, speechTime)

		if end-start < cfg.MinDuration {
			end = start + cfg.MinDuration
			if end > req.AudioSecs {
				end = req.AudioSecs
			}
		}

		track = append(track, types.Caption{Start: start, End: end, Text: unit.Text})
		cumulative += share
	}

	track[len(track)-1].End = req.AudioSecs
	log.Printf("[captions] speech detection: %d intervals, %.2fs speech time", len(intervals), speechTime)
	return track, nil
}

// loadMonoSamples decodes any audio file ffmpeg understands into 16 kHz mono
// float samples in [-1, 1].
func loadMonoSamples(path string) ([]float64, error) {
	tmp, err := os.CreateTemp("", "captions-*.wav")
	if err != nil {
		return nil, err
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	cmd := exec.Command("ffmpeg", "-y",
		"-i", path,
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", analysisSampleRate),
		"-f", "wav",
		tmpPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("ffmpeg decode %s: %w: %s", filepath.Base(path), err, lastLine(out))
	}

	f, err := os.Open(tmpPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return decodeWAV(f)
}

func decodeWAV(f *os.File) ([]float64, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("not a valid wav file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read pcm: %w", err)
	}
	return pcmToFloat(buf, int(dec.BitDepth)), nil
}

func pcmToFloat(buf *audio.IntBuffer, bitDepth int) []float64 {
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))
	samples := make([]float64, len(buf.Data))
	for i, s := range buf.Data {
		samples[i] = float64(s) / scale
	}
	return samples
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}
