package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Research  ResearchConfig  `yaml:"research"`
	Narration NarrationConfig `yaml:"narration"`
	Captions  CaptionsConfig  `yaml:"captions"`
	Video     VideoConfig     `yaml:"video"`
	Upload    UploadConfig    `yaml:"upload"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Paths     PathsConfig     `yaml:"paths"`
}

type ResearchConfig struct {
	Subreddits    []string `yaml:"subreddits"`
	MinUpvotes    int      `yaml:"min_upvotes"`
	MinStoryWords int      `yaml:"min_story_words"`
	MaxStoryWords int      `yaml:"max_story_words"`
	MaxPostChars  int      `yaml:"max_post_chars"`
	FetchLimit    int      `yaml:"fetch_limit"`
}

type NarrationConfig struct {
	Provider string   `yaml:"provider"` // edge-tts | command
	Voices   []string `yaml:"voices"`
	Voice    string   `yaml:"voice"` // forces this voice when set
	Command  string   `yaml:"command"`
}

// CaptionsConfig drives the caption timing engine. The acoustic constants
// were tuned on short narrated-story audio and should not be assumed to
// generalize past that.
type CaptionsConfig struct {
	WordsPerUnit      int     `yaml:"words_per_unit"`
	MinDuration       float64 `yaml:"min_duration_sec"`
	LeadSeconds       float64 `yaml:"lead_seconds"`
	DurationScale     float64 `yaml:"duration_scale"`
	WindowMs          int     `yaml:"acoustic_window_ms"`
	SilencePercentile float64 `yaml:"acoustic_silence_percentile"`
	GapFillMs         int     `yaml:"acoustic_gap_fill_ms"`
	MinSpeechMs       int     `yaml:"acoustic_min_speech_ms"`
}

type VideoConfig struct {
	Width           int     `yaml:"width"`
	Height          int     `yaml:"height"`
	FPS             int     `yaml:"fps"`
	IntroSeconds    float64 `yaml:"intro_seconds"`
	MusicVolume     float64 `yaml:"music_volume"`
	FontSize        int     `yaml:"subtitle_font_size"`
	FontName        string  `yaml:"subtitle_font"`
	StrokeWidth     int     `yaml:"subtitle_stroke_width"`
	MaxDurationSec  float64 `yaml:"max_duration_sec"`
	SpeedMultiplier float64 `yaml:"speed_multiplier"`
}

type UploadConfig struct {
	PrivacyStatus string `yaml:"privacy_status"` // private | unlisted | public
	CategoryID    string `yaml:"category_id"`
}

type SchedulerConfig struct {
	Timezone          string `yaml:"timezone"`
	RetentionDays     int    `yaml:"retention_days"`
	MaxVideosPerDay   int    `yaml:"max_videos_per_day"`
	MinUploadSpacing  int    `yaml:"min_upload_spacing_minutes"`
	MaxOtherFailures  int    `yaml:"max_consecutive_failures"`
	CycleHours        int    `yaml:"cycle_hours"`
}

type PathsConfig struct {
	Output      string `yaml:"output"`
	DailyPacks  string `yaml:"daily_packs"`
	Backgrounds string `yaml:"backgrounds"`
	Music       string `yaml:"music"`
	IntroImages string `yaml:"intro_images"`
	StoryCache  string `yaml:"story_cache"`
	Logs        string `yaml:"logs"`
}

// Default returns the built-in configuration; Load overlays a YAML file on
// top of it so a partial config file only overrides what it names.
func Default() *Config {
	return &Config{
		Research: ResearchConfig{
			Subreddits: []string{
				"AmItheAsshole", "AskReddit", "confession", "TrueOffMyChest",
				"relationship_advice", "tifu", "entitledparents",
				"prorevenge", "pettyrevenge",
			},
			MinUpvotes:    100,
			MinStoryWords: 400,
			MaxStoryWords: 600,
			MaxPostChars:  5000,
			FetchLimit:    25,
		},
		Narration: NarrationConfig{
			Provider: "edge-tts",
			Voices: []string{
				"en-US-AriaNeural", "en-US-JennyNeural", "en-US-GuyNeural",
				"en-GB-SoniaNeural", "en-GB-RyanNeural",
				"en-AU-NatashaNeural", "en-AU-WilliamNeural",
			},
		},
		Captions: CaptionsConfig{
			WordsPerUnit:      1,
			MinDuration:       0.25,
			LeadSeconds:       0,
			DurationScale:     1.0,
			WindowMs:          50,
			SilencePercentile: 20,
			GapFillMs:         100,
			MinSpeechMs:       50,
		},
		Video: VideoConfig{
			Width:           1080,
			Height:          1920,
			FPS:             30,
			IntroSeconds:    4.0,
			MusicVolume:     0.3,
			FontSize:        72,
			FontName:        "Arial",
			StrokeWidth:     6,
			MaxDurationSec:  180,
			SpeedMultiplier: 1.0,
		},
		Upload: UploadConfig{
			PrivacyStatus: "private",
			CategoryID:    "22", // People & Blogs
		},
		Scheduler: SchedulerConfig{
			Timezone:         "UTC",
			RetentionDays:    3,
			MaxVideosPerDay:  5,
			MinUploadSpacing: 60,
			MaxOtherFailures: 5,
			CycleHours:       24,
		},
		Paths: PathsConfig{
			Output:      "output",
			DailyPacks:  "daily_packs",
			Backgrounds: "videos/backgrounds",
			Music:       "videos/music",
			IntroImages: "videos/intro_images",
			StoryCache:  "output/story_cache.json",
			Logs:        "logs",
		},
	}
}

// Load reads a YAML config file over the defaults. A missing file is not an
// error: the defaults are returned as-is.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// EnsureDirs creates every directory the pipeline writes into
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{
		c.Paths.Output, c.Paths.DailyPacks, c.Paths.Backgrounds,
		c.Paths.Music, c.Paths.IntroImages, c.Paths.Logs,
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create dir %s: %w", dir, err)
		}
	}
	return nil
}
