// Package scheduler runs the indefinite daily cycle: prune old packs, fill
// today's pack with generated videos, upload pending entries spaced out over
// the day, then sleep until the next boundary. The manifest on disk is the
// source of truth; it is rewritten after every mutation so a crash loses at
// most one step of progress.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"reddit-reads-pipeline/config"
	"reddit-reads-pipeline/faults"
	"reddit-reads-pipeline/pipeline"
	"reddit-reads-pipeline/types"
	"reddit-reads-pipeline/upload"
)

// Generator produces one video into the given output directory
type Generator interface {
	Generate(ctx context.Context, opts pipeline.Options) *types.GenerationResult
}

// Uploader publishes one rendered video with its metadata sidecar
type Uploader interface {
	Upload(ctx context.Context, videoPath, metadataPath, privacyStatus string) (*upload.Result, error)
}

// Scheduler owns the daily generate-and-upload loop
type Scheduler struct {
	cfg      *config.Config
	gen      Generator
	uploader Uploader
	loc      *time.Location

	// StartImmediately runs the first cycle right away instead of waiting
	// for the next daily boundary.
	StartImmediately bool
	// UploadImmediately skips the spacing between uploads.
	UploadImmediately bool

	// injectable seams for tests
	now  func() time.Time
	wait func(ctx context.Context, d time.Duration) error
}

// New builds a scheduler. The configured timezone must parse; an empty one
// falls back to UTC.
func New(cfg *config.Config, gen Generator, uploader Uploader) (*Scheduler, error) {
	tz := cfg.Scheduler.Timezone
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	return &Scheduler{
		cfg:      cfg,
		gen:      gen,
		uploader: uploader,
		loc:      loc,
		now:      time.Now,
		wait:     sleepCtx,
	}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run loops forever: one cycle per day, keyed to midnight in the configured
// timezone. A file lock guards against a second instance working the same
// packs directory. Returns only when ctx is cancelled or the lock is held
// elsewhere.
func (s *Scheduler) Run(ctx context.Context) error {
	lock := flock.New(filepath.Join(s.cfg.Paths.DailyPacks, ".scheduler.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire scheduler lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another scheduler instance holds %s", lock.Path())
	}
	defer lock.Unlock()

	if !s.StartImmediately {
		next := s.nextBoundary(s.now())
		log.Printf("[scheduler] ⏰ First cycle at %s", next.Format(time.RFC1123))
		if err := s.wait(ctx, next.Sub(s.now())); err != nil {
			return err
		}
	}

	for {
		if err := s.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("[scheduler] ⚠️ Cycle failed: %v", err)
		}
		next := s.nextBoundary(s.now())
		log.Printf("[scheduler] 💤 Sleeping until %s", next.Format(time.RFC1123))
		if err := s.wait(ctx, next.Sub(s.now())); err != nil {
			return err
		}
	}
}

// nextBoundary returns the next midnight in the scheduler's timezone
func (s *Scheduler) nextBoundary(now time.Time) time.Time {
	n := now.In(s.loc)
	return time.Date(n.Year(), n.Month(), n.Day()+1, 0, 0, 0, 0, s.loc)
}

// RunCycle executes one full day's work: prune, generate, upload. It is
// resumable: rerunning after a crash picks up from whatever the manifest
// already records.
func (s *Scheduler) RunCycle(ctx context.Context) error {
	start := s.now().In(s.loc)
	date := start.Format(packDateLayout)
	packDir := filepath.Join(s.cfg.Paths.DailyPacks, date)
	log.Printf("[scheduler] 🌅 Starting daily cycle for %s", date)

	if err := PruneOldPacks(s.cfg.Paths.DailyPacks, s.cfg.Scheduler.RetentionDays, start); err != nil {
		log.Printf("[scheduler] ⚠️ Prune failed: %v", err)
	}

	m, err := LoadManifest(packDir)
	if err != nil {
		return err
	}

	if err := s.fillPack(ctx, packDir, m); err != nil {
		if faults.Is(err, faults.Quota) {
			log.Printf("[scheduler] ⚠️ Generation quota hit, keeping %d videos", len(m.Videos))
		} else {
			return err
		}
	}

	return s.uploadPending(ctx, packDir, m)
}

// fillPack generates videos until the pack holds MaxVideosPerDay. Quota
// errors propagate so the cycle stops with whatever is already on disk.
// Narration failures never count toward the abort limit: the orchestrator
// already rotated stories, so the next call starts fresh. Anything else
// aborts after MaxOtherFailures in a row.
func (s *Scheduler) fillPack(ctx context.Context, packDir string, m *types.DailyManifest) error {
	target := s.cfg.Scheduler.MaxVideosPerDay
	consecutive := 0
	for len(m.Videos) < target {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := len(m.Videos) + 1
		log.Printf("[scheduler] 🎬 Generating video %d/%d", n, target)

		res := s.gen.Generate(ctx, pipeline.Options{OutputDir: packDir})
		if res.Success {
			consecutive = 0
			m.Videos = append(m.Videos, &types.VideoRecord{
				VideoPath:    res.VideoPath,
				MetadataPath: res.MetadataPath,
				OutputDir:    res.OutputDir,
				GeneratedAt:  s.now().Format(time.RFC3339),
			})
			if err := SaveManifest(packDir, m); err != nil {
				return err
			}
			continue
		}

		if faults.Is(res.Err, faults.Quota) {
			return res.Err
		}
		if faults.Is(res.Err, faults.Narration) {
			log.Printf("[scheduler] ⚠️ Narration failed, retrying with a new story: %s", res.Error)
			continue
		}
		consecutive++
		log.Printf("[scheduler] ⚠️ Generation failed (%d/%d consecutive): %s",
			consecutive, s.cfg.Scheduler.MaxOtherFailures, res.Error)
		if consecutive >= s.cfg.Scheduler.MaxOtherFailures {
			return fmt.Errorf("aborting after %d consecutive failures: %s", consecutive, res.Error)
		}
	}
	return nil
}

// uploadPending publishes every not-yet-uploaded record, spacing uploads
// evenly across the rest of the day but never closer than the configured
// minimum. The manifest is saved after every attempt. A quota error stops
// uploading for the day; other errors skip to the next video.
func (s *Scheduler) uploadPending(ctx context.Context, packDir string, m *types.DailyManifest) error {
	pending := m.Pending()
	if len(pending) == 0 {
		log.Printf("[scheduler] ✅ Nothing to upload")
		return nil
	}

	interval := s.uploadInterval(len(pending))
	log.Printf("[scheduler] 📤 Uploading %d videos, %s apart", len(pending), interval)

	for i, rec := range pending {
		if i > 0 && interval > 0 {
			log.Printf("[scheduler] ⏳ Next upload at %s", s.now().Add(interval).Format(time.Kitchen))
			if err := s.wait(ctx, interval); err != nil {
				return err
			}
		}

		res, err := s.uploader.Upload(ctx, rec.VideoPath, rec.MetadataPath, s.cfg.Upload.PrivacyStatus)
		if err == nil {
			rec.Uploaded = true
			rec.UploadedAt = s.now().Format(time.RFC3339)
			rec.YouTubeID = res.VideoID
			rec.YouTubeURL = res.VideoURL
		}
		if saveErr := SaveManifest(packDir, m); saveErr != nil {
			return saveErr
		}
		if err != nil {
			if faults.Is(err, faults.Quota) {
				log.Printf("[scheduler] ⚠️ Upload quota hit, stopping uploads for today")
				return nil
			}
			log.Printf("[scheduler] ⚠️ Upload failed for %s: %v", rec.VideoPath, err)
		}
	}
	log.Printf("[scheduler] ✅ All uploads done")
	return nil
}

// uploadInterval spaces n uploads across the time left until the next
// boundary, floored at the configured minimum spacing
func (s *Scheduler) uploadInterval(n int) time.Duration {
	if s.UploadImmediately || n <= 1 {
		return 0
	}
	min := time.Duration(s.cfg.Scheduler.MinUploadSpacing) * time.Minute
	remaining := s.nextBoundary(s.now()).Sub(s.now())
	interval := remaining / time.Duration(n)
	if interval < min {
		interval = min
	}
	return interval
}
