// Package pipeline sequences one video generation: story acquisition,
// narration synthesis, caption generation, video assembly, metadata,
// persistence. Failures classify through the faults taxonomy; a narration
// failure restarts the whole attempt with a different story.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"reddit-reads-pipeline/captions"
	"reddit-reads-pipeline/config"
	"reddit-reads-pipeline/faults"
	"reddit-reads-pipeline/metadata"
	"reddit-reads-pipeline/narration"
	"reddit-reads-pipeline/render"
	"reddit-reads-pipeline/types"
)

// maxAttempts bounds how many different stories one generation tries when
// narration keeps failing
const maxAttempts = 3

// StorySource yields candidate stories, honoring an avoid list
type StorySource interface {
	Fetch(ctx context.Context, subreddits []string, avoidIDs []string) (*types.Story, error)
}

// Renderer assembles the final video file
type Renderer interface {
	Assemble(ctx context.Context, job render.Job) error
}

// UsedCache is the durable record of consumed story IDs
type UsedCache interface {
	IDs() []string
	Add(id string) error
}

// Options tweak a single generation run
type Options struct {
	Subreddits  []string
	Background  string
	Music       string
	IntroImage  string
	OutputDir   string
	CustomStory *types.Story // bypasses acquisition; used for debugging
}

// Orchestrator drives one video generation end to end
type Orchestrator struct {
	cfg      *config.Config
	source   StorySource
	narrator narration.Provider
	renderer Renderer
	cache    UsedCache

	// injectable seams for tests
	audioDuration func(string) (float64, error)
	sleep         func(time.Duration)
	mkdirAll      func(string) error
}

// New wires an orchestrator from its collaborators
func New(cfg *config.Config, source StorySource, narrator narration.Provider, renderer Renderer, cache UsedCache) *Orchestrator {
	return &Orchestrator{
		cfg:           cfg,
		source:        source,
		narrator:      narrator,
		renderer:      renderer,
		cache:         cache,
		audioDuration: render.AudioDuration,
		sleep:         time.Sleep,
		mkdirAll:      func(dir string) error { return os.MkdirAll(dir, 0755) },
	}
}

// Generate produces one video. It never panics out: failures come back as a
// result with Success=false plus the typed error.
func (o *Orchestrator) Generate(ctx context.Context, opts Options) *types.GenerationResult {
	var avoidFailed []string

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result := o.runAttempt(ctx, opts, avoidFailed, &avoidFailed)
		if result.Success {
			return result
		}
		if faults.Is(result.Err, faults.Narration) && attempt < maxAttempts {
			log.Printf("[pipeline] ⚠️  Narration failed (attempt %d/%d): %s — retrying with a different story", attempt, maxAttempts, result.Error)
			o.sleep(2 * time.Second)
			continue
		}
		return result
	}
	// unreachable: the loop always returns
	return &types.GenerationResult{Success: false, Error: "generation attempts exhausted"}
}

// runAttempt executes the per-attempt state sequence. On narration failure
// the failed story's ID is appended to avoidOut so the next attempt skips it.
func (o *Orchestrator) runAttempt(ctx context.Context, opts Options, avoidFailed []string, avoidOut *[]string) *types.GenerationResult {
	baseDir := opts.OutputDir
	if baseDir == "" {
		baseDir = o.cfg.Paths.Output
	}
	// timestamp for humans browsing the output dir, uuid for uniqueness
	// when runs land inside the same second
	outDir := filepath.Join(baseDir, fmt.Sprintf("video_%s_%s",
		time.Now().Format("20060102_150405"), uuid.NewString()[:8]))
	if err := o.mkdirAll(outDir); err != nil {
		return fail(outDir, fmt.Errorf("create output dir: %w", err))
	}

	// ── AcquireStory ──
	story, err := o.acquireStory(ctx, opts, avoidFailed)
	if err != nil {
		return fail(outDir, err)
	}
	script := story.Script()
	log.Printf("[pipeline] 📖 Story: %q (r/%s, %d words)", story.Title, story.Subreddit, len(strings.Fields(script)))

	// ── SynthesizeNarration ──
	narrationPath := filepath.Join(outDir, "narration.mp3")
	audioPath, timings, err := o.narrator.Synthesize(ctx, script, narrationPath)
	if err != nil {
		if faults.Is(err, faults.Narration) && opts.CustomStory == nil {
			*avoidOut = append(*avoidOut, story.ID)
		}
		return fail(outDir, err)
	}
	// only now is the story durably consumed; a synthesis failure above
	// leaves it eligible for other runs
	if opts.CustomStory == nil {
		if err := o.cache.Add(story.ID); err != nil {
			log.Printf("[pipeline] ⚠️  Could not persist used-story cache: %v", err)
		}
	}

	// ── GenerateCaptions ──
	duration, err := o.audioDuration(audioPath)
	if err != nil {
		return fail(outDir, fmt.Errorf("probe audio duration: %w", err))
	}
	track, err := captions.Generate(captions.Request{
		Script:      script,
		Units:       captions.SplitUnits(script, o.cfg.Captions.WordsPerUnit),
		AudioSecs:   duration,
		WordTimings: timings,
		AudioPath:   audioPath,
		Config:      o.cfg.Captions,
	})
	if err != nil {
		return fail(outDir, fmt.Errorf("generate captions: %w", err))
	}
	if err := captions.WriteJSON(track, filepath.Join(outDir, "subtitles.json")); err != nil {
		log.Printf("[pipeline] ⚠️  Could not save caption sidecar: %v", err)
	}
	log.Printf("[pipeline] 📝 %d captions over %.1fs", len(track), duration)

	// ── AssembleVideo ──
	videoPath := filepath.Join(outDir, "final_video.mp4")
	err = o.renderer.Assemble(ctx, render.Job{
		IntroImage:     opts.IntroImage,
		NarrationAudio: audioPath,
		Captions:       track,
		Background:     opts.Background,
		Music:          opts.Music,
		OutputPath:     videoPath,
	})
	if err != nil {
		return fail(outDir, fmt.Errorf("assemble video: %w", err))
	}

	// ── GenerateMetadata + Persist ──
	md := metadata.Generate(story, videoPath)
	metadataPath := filepath.Join(outDir, "metadata.json")
	if err := metadata.Write(md, metadataPath); err != nil {
		return fail(outDir, fmt.Errorf("write metadata: %w", err))
	}

	log.Printf("[pipeline] ✅ Video generation complete: %s", videoPath)
	return &types.GenerationResult{
		Success:      true,
		VideoPath:    videoPath,
		MetadataPath: metadataPath,
		OutputDir:    outDir,
	}
}

// acquireStory fetches a story honoring both the durable used-cache and the
// in-memory avoid list of this generation's failed stories. An empty fetch
// is retried once with backoff before giving up.
func (o *Orchestrator) acquireStory(ctx context.Context, opts Options, avoidFailed []string) (*types.Story, error) {
	if opts.CustomStory != nil {
		return opts.CustomStory, nil
	}

	avoid := append(o.cache.IDs(), avoidFailed...)
	story, err := o.source.Fetch(ctx, opts.Subreddits, avoid)
	if err == nil {
		return story, nil
	}
	if !faults.Is(err, faults.NoStory) {
		return nil, err
	}

	log.Println("[pipeline] ⚠️  No story found, retrying with longer delay...")
	o.sleep(3 * time.Second)
	return o.source.Fetch(ctx, opts.Subreddits, avoid)
}

func fail(outDir string, err error) *types.GenerationResult {
	log.Printf("[pipeline] ❌ Generation failed: %v", err)
	return &types.GenerationResult{
		Success:   false,
		OutputDir: outDir,
		Error:     err.Error(),
		Err:       err,
	}
}
