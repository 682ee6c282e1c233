package captions

import (
	"fmt"
	"log"
	"os"

	"reddit-reads-pipeline/config"
	"reddit-reads-pipeline/types"
)

// Request carries everything a timing adapter may use. WordTimings and
// AudioPath are both optional; which one is present decides the adapter.
type Request struct {
	Script      string
	Units       []types.CaptionUnit
	AudioSecs   float64
	WordTimings []types.WordTiming
	AudioPath   string
	Config      config.CaptionsConfig
}

// Adapter assigns a time span to every caption unit. All adapters satisfy
// the same track invariants: non-decreasing starts, final end equal to the
// audio duration.
type Adapter interface {
	Name() string
	Generate(req Request) ([]types.Caption, error)
}

// Select picks the most precise adapter the request's data allows:
// external word timings, then acoustic analysis of the audio file, then
// proportional estimation.
func Select(req Request) Adapter {
	if len(req.WordTimings) > 0 {
		return wordTimingAdapter{}
	}
	if req.AudioPath != "" {
		if _, err := os.Stat(req.AudioPath); err == nil {
			return acousticAdapter{}
		}
	}
	return proportionalAdapter{}
}

// Generate runs adapter selection and generation. Acoustic failures degrade
// silently to the proportional estimate; this fallback lives here and
// nowhere else.
func Generate(req Request) ([]types.Caption, error) {
	if req.AudioSecs <= 0 {
		return nil, fmt.Errorf("captions: audio duration must be positive, got %f", req.AudioSecs)
	}
	if len(req.Units) == 0 {
		return nil, fmt.Errorf("captions: no caption units")
	}

	adapter := Select(req)
	track, err := adapter.Generate(req)
	if err != nil && adapter.Name() == "acoustic" {
		log.Printf("[captions] ⚠️  acoustic analysis failed: %v — using proportional timing", err)
		adapter = proportionalAdapter{}
		track, err = adapter.Generate(req)
	}
	if err != nil {
		return nil, err
	}

	if req.Config.LeadSeconds != 0 {
		track = ApplyLead(track, req.Config.LeadSeconds, req.AudioSecs)
	}
	if req.Config.DurationScale > 0 && req.Config.DurationScale < 0.999 {
		track = ScaleDurations(track, req.Config.DurationScale, req.Config.MinDuration, req.AudioSecs)
	}
	return track, nil
}
