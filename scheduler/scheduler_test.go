package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reddit-reads-pipeline/config"
	"reddit-reads-pipeline/faults"
	"reddit-reads-pipeline/pipeline"
	"reddit-reads-pipeline/types"
	"reddit-reads-pipeline/upload"
)

type fakeGen struct {
	results []*types.GenerationResult
	calls   int
}

func (g *fakeGen) Generate(ctx context.Context, opts pipeline.Options) *types.GenerationResult {
	g.calls++
	if len(g.results) == 0 {
		return &types.GenerationResult{Success: false, Error: "no scripted result", Err: errors.New("no scripted result")}
	}
	res := g.results[0]
	g.results = g.results[1:]
	return res
}

type fakeUploader struct {
	errs  []error // one per call, nil means success
	calls int
}

func (u *fakeUploader) Upload(ctx context.Context, videoPath, metadataPath, privacy string) (*upload.Result, error) {
	u.calls++
	var err error
	if len(u.errs) > 0 {
		err = u.errs[0]
		u.errs = u.errs[1:]
	}
	if err != nil {
		return nil, err
	}
	id := fmt.Sprintf("vid%d", u.calls)
	return &upload.Result{VideoID: id, VideoURL: "https://youtube.com/shorts/" + id}, nil
}

func ok(dir string) *types.GenerationResult {
	return &types.GenerationResult{
		Success:      true,
		VideoPath:    filepath.Join(dir, "final_video.mp4"),
		MetadataPath: filepath.Join(dir, "metadata.json"),
		OutputDir:    dir,
	}
}

func failed(err error) *types.GenerationResult {
	return &types.GenerationResult{Success: false, Error: err.Error(), Err: err}
}

func testScheduler(t *testing.T, gen Generator, up Uploader) (*Scheduler, string) {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.DailyPacks = t.TempDir()
	cfg.Scheduler.MaxVideosPerDay = 3

	s, err := New(cfg, gen, up)
	require.NoError(t, err)
	s.UploadImmediately = true
	s.now = func() time.Time { return time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC) }
	s.wait = func(ctx context.Context, d time.Duration) error { return nil }
	return s, cfg.Paths.DailyPacks
}

func TestRunCycleGeneratesAndUploads(t *testing.T) {
	gen := &fakeGen{results: []*types.GenerationResult{ok("a"), ok("b"), ok("c")}}
	up := &fakeUploader{}
	s, packs := testScheduler(t, gen, up)

	require.NoError(t, s.RunCycle(context.Background()))
	assert.Equal(t, 3, gen.calls)
	assert.Equal(t, 3, up.calls)

	m, err := LoadManifest(filepath.Join(packs, "20260830"))
	require.NoError(t, err)
	require.Len(t, m.Videos, 3)
	for _, v := range m.Videos {
		assert.True(t, v.Uploaded)
		assert.NotEmpty(t, v.YouTubeID)
	}
}

func TestUploadQuotaStopsRemainingUploads(t *testing.T) {
	gen := &fakeGen{results: []*types.GenerationResult{ok("a"), ok("b"), ok("c")}}
	up := &fakeUploader{errs: []error{
		nil,
		faults.Tag(faults.Quota, errors.New("uploadLimitExceeded")),
	}}
	s, packs := testScheduler(t, gen, up)

	require.NoError(t, s.RunCycle(context.Background()))
	// the third upload must never have been attempted
	assert.Equal(t, 2, up.calls)

	m, err := LoadManifest(filepath.Join(packs, "20260830"))
	require.NoError(t, err)
	require.Len(t, m.Videos, 3)
	assert.True(t, m.Videos[0].Uploaded)
	assert.False(t, m.Videos[1].Uploaded)
	assert.False(t, m.Videos[2].Uploaded)
	// the pending ones stay for the next cycle
	assert.Len(t, m.Pending(), 2)
}

func TestGenerationQuotaKeepsPartialPack(t *testing.T) {
	gen := &fakeGen{results: []*types.GenerationResult{
		ok("a"),
		failed(faults.Tag(faults.Quota, errors.New("tts quota exhausted"))),
	}}
	up := &fakeUploader{}
	s, packs := testScheduler(t, gen, up)

	require.NoError(t, s.RunCycle(context.Background()))
	// generation stopped but the finished video still uploaded
	assert.Equal(t, 2, gen.calls)
	assert.Equal(t, 1, up.calls)

	m, err := LoadManifest(filepath.Join(packs, "20260830"))
	require.NoError(t, err)
	require.Len(t, m.Videos, 1)
	assert.True(t, m.Videos[0].Uploaded)
}

func TestNarrationFailuresDoNotCountTowardAbort(t *testing.T) {
	narr := failed(faults.Tag(faults.Narration, errors.New("tts refused")))
	gen := &fakeGen{results: []*types.GenerationResult{
		narr, narr, narr, narr, narr, narr, narr,
		ok("a"), ok("b"), ok("c"),
	}}
	s, _ := testScheduler(t, gen, &fakeUploader{})

	require.NoError(t, s.RunCycle(context.Background()))
	assert.Equal(t, 10, gen.calls)
}

func TestConsecutiveFailuresAbortCycle(t *testing.T) {
	boom := failed(errors.New("disk full"))
	gen := &fakeGen{results: []*types.GenerationResult{boom, boom, boom, boom, boom, ok("never")}}
	s, _ := testScheduler(t, gen, &fakeUploader{})

	err := s.RunCycle(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "consecutive failures")
	assert.Equal(t, 5, gen.calls)
}

func TestSuccessResetsFailureStreak(t *testing.T) {
	boom := failed(errors.New("transient"))
	gen := &fakeGen{results: []*types.GenerationResult{
		boom, boom, boom, boom, ok("a"),
		boom, boom, boom, boom, ok("b"),
		ok("c"),
	}}
	s, _ := testScheduler(t, gen, &fakeUploader{})
	require.NoError(t, s.RunCycle(context.Background()))
	assert.Equal(t, 11, gen.calls)
}

func TestRunCycleResumesExistingManifest(t *testing.T) {
	gen := &fakeGen{results: []*types.GenerationResult{ok("c")}}
	up := &fakeUploader{}
	s, packs := testScheduler(t, gen, up)

	packDir := filepath.Join(packs, "20260830")
	require.NoError(t, SaveManifest(packDir, &types.DailyManifest{
		Date: "20260830",
		Videos: []*types.VideoRecord{
			{VideoPath: "a.mp4", MetadataPath: "a.json", Uploaded: true},
			{VideoPath: "b.mp4", MetadataPath: "b.json"},
		},
	}))

	require.NoError(t, s.RunCycle(context.Background()))
	// only the missing third video was generated, only the pending two uploaded
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, 2, up.calls)
}

func TestUploadIntervalSpacingFloor(t *testing.T) {
	s, _ := testScheduler(t, &fakeGen{}, &fakeUploader{})
	s.UploadImmediately = false

	// 15 hours remain until midnight; 3 uploads → 5h apart
	assert.Equal(t, 5*time.Hour, s.uploadInterval(3))
	// 100 uploads would be 9 minutes apart, floored to the minimum
	assert.Equal(t, 60*time.Minute, s.uploadInterval(100))
	assert.Equal(t, time.Duration(0), s.uploadInterval(1))
}

func TestManifestRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "20260830")
	m := &types.DailyManifest{
		Date: "20260830",
		Videos: []*types.VideoRecord{{
			VideoPath:   "v.mp4",
			Uploaded:    true,
			YouTubeID:   "abc123",
			GeneratedAt: "2026-08-30T09:00:00Z",
		}},
	}
	require.NoError(t, SaveManifest(dir, m))

	loaded, err := LoadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, m, loaded)

	// no stray temp files after the atomic rewrite
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLoadManifestMissingIsFresh(t *testing.T) {
	m, err := LoadManifest(filepath.Join(t.TempDir(), "20260830"))
	require.NoError(t, err)
	assert.Equal(t, "20260830", m.Date)
	assert.Empty(t, m.Videos)
}

func TestLoadManifestCorruptFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, manifestName), []byte("{nope"), 0644))
	_, err := LoadManifest(dir)
	assert.Error(t, err)
}

func TestPruneOldPacks(t *testing.T) {
	packs := t.TempDir()
	for _, name := range []string{"20260827", "20260828", "20260829", "20260830", "notes"} {
		require.NoError(t, os.Mkdir(filepath.Join(packs, name), 0755))
	}

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	require.NoError(t, PruneOldPacks(packs, 3, now))

	entries, err := os.ReadDir(packs)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	// three days retained, unrelated directories untouched
	assert.ElementsMatch(t, []string{"20260828", "20260829", "20260830", "notes"}, names)
}

func TestNextBoundary(t *testing.T) {
	s, _ := testScheduler(t, &fakeGen{}, &fakeUploader{})
	next := s.nextBoundary(time.Date(2026, 8, 30, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), next)
}
