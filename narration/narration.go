// Package narration turns a script into spoken audio. All provider variants
// sit behind one interface; which backend runs is a configuration choice,
// not a code choice.
package narration

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"reddit-reads-pipeline/config"
	"reddit-reads-pipeline/faults"
	"reddit-reads-pipeline/types"
)

// Provider synthesizes narration audio for a script. WordTimings may be
// empty: not every backend reports word boundaries, and the caption engine
// degrades to audio analysis when they are missing.
type Provider interface {
	Synthesize(ctx context.Context, text, outPath string) (audioPath string, timings []types.WordTiming, err error)
}

// NewProvider builds the configured provider variant
func NewProvider(cfg *config.Config) (Provider, error) {
	switch cfg.Narration.Provider {
	case "", "edge-tts":
		return newEdgeTTS(cfg), nil
	case "command":
		if cfg.Narration.Command == "" {
			return nil, fmt.Errorf("narration provider %q needs narration.command set", cfg.Narration.Provider)
		}
		return &commandProvider{command: cfg.Narration.Command}, nil
	default:
		return nil, fmt.Errorf("unknown narration provider %q", cfg.Narration.Provider)
	}
}

// edgeTTSProvider shells out to the edge-tts CLI (Microsoft neural voices,
// free, no API key). It produces no word timings.
type edgeTTSProvider struct {
	voices []string
	voice  string
	rng    *rand.Rand
}

func newEdgeTTS(cfg *config.Config) *edgeTTSProvider {
	return &edgeTTSProvider{
		voices: cfg.Narration.Voices,
		voice:  cfg.Narration.Voice,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (p *edgeTTSProvider) pickVoice() string {
	if p.voice != "" {
		return p.voice
	}
	if len(p.voices) > 0 {
		return p.voices[p.rng.Intn(len(p.voices))]
	}
	return "en-US-AriaNeural"
}

func (p *edgeTTSProvider) Synthesize(ctx context.Context, text, outPath string) (string, []types.WordTiming, error) {
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return "", nil, err
	}
	voice := p.pickVoice()
	log.Printf("[narration] Using edge-tts (voice: %s)", voice)

	cmd := exec.CommandContext(ctx,
		"edge-tts",
		"--voice", voice,
		"--text", text,
		"--write-media", outPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", nil, classify(fmt.Errorf("edge-tts: %w: %s", err, strings.TrimSpace(stderr.String())))
	}
	if err := checkOutput(outPath); err != nil {
		return "", nil, classify(err)
	}

	log.Printf("[narration] ✅ Audio written: %s", outPath)
	return outPath, nil, nil
}

// commandProvider runs an arbitrary TTS binary/script that accepts
// --text "..." --output path. If the command prints word timings as JSON
// lines of {text, offset, duration} on stdout, they are picked up.
type commandProvider struct {
	command string
}

func (p *commandProvider) Synthesize(ctx context.Context, text, outPath string) (string, []types.WordTiming, error) {
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return "", nil, err
	}

	args := []string{"--text", text, "--output", outPath}
	var cmd *exec.Cmd
	if strings.HasSuffix(p.command, ".py") {
		cmd = exec.CommandContext(ctx, "python3", append([]string{p.command}, args...)...)
	} else {
		cmd = exec.CommandContext(ctx, p.command, args...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", nil, classify(fmt.Errorf("%s: %w: %s", filepath.Base(p.command), err, strings.TrimSpace(stderr.String())))
	}
	if err := checkOutput(outPath); err != nil {
		return "", nil, classify(err)
	}

	timings := parseTimingLines(stdout.Bytes())
	if len(timings) > 0 {
		log.Printf("[narration] Got %d word timings from provider", len(timings))
	}
	return outPath, timings, nil
}

// checkOutput guards against a provider exiting zero without writing audio
func checkOutput(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("no audio content produced: %w", err)
	}
	if fi.Size() == 0 {
		return fmt.Errorf("no audio content produced: %s is empty", filepath.Base(path))
	}
	return nil
}

// classify tags provider failures at their origin. Quota-looking output is
// the one place keyword inspection is unavoidable: external CLIs expose
// exhaustion only through their message text.
func classify(err error) error {
	msg := strings.ToLower(err.Error())
	for _, kw := range []string{"quota", "credit", "rate limit", "429", "billing", "exceeded"} {
		if strings.Contains(msg, kw) {
			return faults.Tag(faults.Quota, err)
		}
	}
	return faults.Tag(faults.Narration, err)
}
