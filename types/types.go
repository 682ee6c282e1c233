package types

// Story holds a fetched Reddit post ready for narration
type Story struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Text      string `json:"text"`
	Author    string `json:"author"`
	Score     int    `json:"score"`
	Subreddit string `json:"subreddit"`
	URL       string `json:"url"`
}

// Script returns the narration script: title first so TTS reads it, then body.
func (s *Story) Script() string {
	return s.Title + ". " + s.Text
}

// WordTiming is a word-level timing hint reported by a TTS or ASR source.
// Text may differ orthographically from the script token it corresponds to,
// and Offset/Duration may be in seconds or milliseconds depending on source.
type WordTiming struct {
	Text     string  `json:"text"`
	Offset   float64 `json:"offset"`
	Duration float64 `json:"duration"`
}

// Caption is one timed on-screen text chunk
type Caption struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// CaptionUnit is one or more consecutive script words forming a single caption
type CaptionUnit struct {
	Text      string `json:"text"`
	WordStart int    `json:"word_start"`
	WordCount int    `json:"word_count"`
}

// VideoMetadata holds all YouTube upload metadata for one video
type VideoMetadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Hashtags    []string `json:"hashtags"`
	Tags        []string `json:"tags"`
	OriginalStory struct {
		Title     string `json:"title"`
		Subreddit string `json:"subreddit"`
		Author    string `json:"author"`
		URL       string `json:"url"`
	} `json:"original_story"`
	VideoPath   string `json:"video_path"`
	GeneratedAt string `json:"generated_at"`
}

// GenerationResult is what one orchestrator run returns. A failed run carries
// Success=false and an error string instead of raising out of the pipeline;
// Err keeps the typed error so callers can classify without re-parsing text.
type GenerationResult struct {
	Success      bool   `json:"success"`
	VideoPath    string `json:"video_path,omitempty"`
	MetadataPath string `json:"metadata_path,omitempty"`
	OutputDir    string `json:"output_dir"`
	Error        string `json:"error,omitempty"`
	Err          error  `json:"-"`
}

// VideoRecord is one generated video inside a daily manifest
type VideoRecord struct {
	VideoPath    string `json:"video_path"`
	MetadataPath string `json:"metadata_path"`
	OutputDir    string `json:"output_dir"`
	Uploaded     bool   `json:"uploaded"`
	UploadedAt   string `json:"uploaded_at,omitempty"`
	YouTubeID    string `json:"youtube_video_id,omitempty"`
	YouTubeURL   string `json:"youtube_url,omitempty"`
	GeneratedAt  string `json:"generated_at"`
}

// DailyManifest is the durable record of one day's generated pack
type DailyManifest struct {
	Date   string         `json:"date"`
	Videos []*VideoRecord `json:"videos"`
}

// Pending returns the records that have not been uploaded yet
func (m *DailyManifest) Pending() []*VideoRecord {
	var out []*VideoRecord
	for _, v := range m.Videos {
		if !v.Uploaded {
			out = append(out, v)
		}
	}
	return out
}
