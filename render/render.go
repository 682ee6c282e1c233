// Package render assembles the final vertical video with ffmpeg: looped
// background footage, intro card overlay, burned-in captions, narration and
// ducked background music.
package render

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"reddit-reads-pipeline/captions"
	"reddit-reads-pipeline/config"
	"reddit-reads-pipeline/types"
)

// Job carries every input of one video assembly
type Job struct {
	IntroImage     string
	NarrationAudio string
	Captions       []types.Caption
	Background     string
	Music          string
	OutputPath     string
}

// Renderer builds final videos from prepared assets
type Renderer struct {
	cfg *config.Config
	rng *rand.Rand
}

// New creates a Renderer
func New(cfg *config.Config) *Renderer {
	return &Renderer{cfg: cfg, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Assemble renders the job into OutputPath. Background and music fall back
// to a random pick from the asset directories when unset; a missing music
// file just means no music track.
func (r *Renderer) Assemble(ctx context.Context, job Job) error {
	log.Println("[render] Assembling final video...")

	duration, err := AudioDuration(job.NarrationAudio)
	if err != nil {
		return fmt.Errorf("probe narration duration: %w", err)
	}

	background := job.Background
	if background == "" {
		background, err = r.pickAsset(r.cfg.Paths.Backgrounds, ".mp4", ".mov", ".mkv")
		if err != nil {
			return fmt.Errorf("select background: %w", err)
		}
	}

	music := job.Music
	if music == "" {
		if picked, err := r.pickAsset(r.cfg.Paths.Music, ".mp3", ".wav"); err == nil {
			music = picked
		} else {
			log.Printf("[render] No music found: %v — rendering without music", err)
		}
	}

	outDir := filepath.Dir(job.OutputPath)
	srtPath := filepath.Join(outDir, "captions_burn.srt")
	if err := captions.WriteSRT(job.Captions, srtPath); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}

	args := r.buildArgs(job, background, music, srtPath, duration)
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg render: %w", err)
	}

	log.Printf("[render] ✅ Video ready: %s (%.1fs)", job.OutputPath, duration)
	return nil
}

// buildArgs constructs the full ffmpeg invocation. Input order: background,
// narration, then optionally music and intro image.
func (r *Renderer) buildArgs(job Job, background, music, srtPath string, duration float64) []string {
	vc := r.cfg.Video

	args := []string{"-y",
		"-stream_loop", "-1", "-i", background,
		"-i", job.NarrationAudio,
	}
	musicIdx, introIdx := -1, -1
	next := 2
	if music != "" {
		args = append(args, "-stream_loop", "-1", "-i", music)
		musicIdx = next
		next++
	}
	if job.IntroImage != "" {
		args = append(args, "-i", job.IntroImage)
		introIdx = next
	}

	// video chain: crop/scale to vertical, intro overlay, caption burn
	var filters []string
	filters = append(filters, fmt.Sprintf(
		"[0:v]scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,setsar=1,fps=%d[bg]",
		vc.Width, vc.Height, vc.Width, vc.Height, vc.FPS,
	))
	videoIn := "[bg]"
	if introIdx >= 0 {
		filters = append(filters, fmt.Sprintf(
			"%s[%d:v]overlay=(W-w)/2:(H-h)/2:enable='lte(t,%g)'[intro]",
			videoIn, introIdx, vc.IntroSeconds,
		))
		videoIn = "[intro]"
	}
	filters = append(filters, fmt.Sprintf(
		"%ssubtitles=%s:force_style='FontName=%s,FontSize=%d,Outline=%d,Alignment=10,PrimaryColour=&H00FFFFFF,OutlineColour=&H00000000'[vid]",
		videoIn, escapeFilterPath(srtPath), vc.FontName, vc.FontSize, vc.StrokeWidth,
	))

	// audio chain: narration plus music ducked under it
	audioOut := "1:a"
	if musicIdx >= 0 {
		filters = append(filters, fmt.Sprintf(
			"[%d:a]volume=%g[mus];[1:a][mus]amix=inputs=2:duration=first:dropout_transition=2[aud]",
			musicIdx, vc.MusicVolume,
		))
		audioOut = "[aud]"
	}

	args = append(args,
		"-filter_complex", strings.Join(filters, ";"),
		"-map", "[vid]",
		"-map", audioOut,
		"-t", fmt.Sprintf("%.3f", duration),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "20",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "192k",
		job.OutputPath,
	)
	return args
}

func (r *Renderer) pickAsset(dir string, exts ...string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var matches []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		for _, ext := range exts {
			if strings.EqualFold(filepath.Ext(e.Name()), ext) {
				matches = append(matches, filepath.Join(dir, e.Name()))
				break
			}
		}
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no %s assets in %s", strings.Join(exts, "/"), dir)
	}
	return matches[r.rng.Intn(len(matches))], nil
}

// AudioDuration returns the duration of an audio file in seconds via ffprobe
func AudioDuration(path string) (float64, error) {
	out, err := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		return 0, err
	}
	var dur float64
	_, err = fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &dur)
	return dur, err
}

// escapeFilterPath escapes a path for use inside an ffmpeg filter string
func escapeFilterPath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	path = strings.ReplaceAll(path, ":", "\\:")
	return path
}
