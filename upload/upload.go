// Package upload pushes finished videos to YouTube via the Data API v3.
// OAuth credentials come from the environment (client id/secret plus a
// refresh token obtained once out-of-band).
package upload

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"reddit-reads-pipeline/config"
	"reddit-reads-pipeline/faults"
	"reddit-reads-pipeline/metadata"
)

// Result is what a successful upload returns
type Result struct {
	VideoID  string `json:"video_id"`
	VideoURL string `json:"video_url"`
}

// Client uploads videos to YouTube
type Client struct {
	cfg *config.Config
}

// New creates an upload client
func New(cfg *config.Config) *Client {
	return &Client{cfg: cfg}
}

// Upload sends one video with its metadata sidecar. Quota exhaustion comes
// back tagged faults.Quota so callers stop the day's uploads instead of
// burning retries.
func (c *Client) Upload(ctx context.Context, videoPath, metadataPath, privacyStatus string) (*Result, error) {
	md, err := metadata.Read(metadataPath)
	if err != nil {
		return nil, fmt.Errorf("load metadata: %w", err)
	}

	svc, err := c.service(ctx)
	if err != nil {
		return nil, fmt.Errorf("youtube auth: %w", err)
	}

	description := md.Description
	if len(md.Hashtags) > 0 && !strings.Contains(description, md.Hashtags[0]) {
		description += "\n\n" + strings.Join(md.Hashtags, " ")
	}

	tags := md.Tags
	if len(tags) > 15 {
		tags = tags[:15]
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       clip(md.Title, 100),
			Description: clip(description, 5000),
			Tags:        tags,
			CategoryId:  c.cfg.Upload.CategoryID,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           privacyStatus,
			SelfDeclaredMadeForKids: false,
		},
	}

	f, err := os.Open(videoPath)
	if err != nil {
		return nil, fmt.Errorf("open video: %w", err)
	}
	defer f.Close()

	if fi, err := f.Stat(); err == nil {
		log.Printf("[upload] ⬆️  Uploading %q (%.1f MB)...", clip(md.Title, 50), float64(fi.Size())/1024/1024)
	}

	call := svc.Videos.Insert([]string{"snippet", "status"}, video)
	call.Media(f)

	uploaded, err := call.Do()
	if err != nil {
		return nil, classifyAPIError(err)
	}

	result := &Result{
		VideoID:  uploaded.Id,
		VideoURL: fmt.Sprintf("https://www.youtube.com/watch?v=%s", uploaded.Id),
	}
	log.Printf("[upload] ✅ Uploaded: %s", result.VideoURL)
	return result, nil
}

// service builds an authenticated YouTube service from env credentials
func (c *Client) service(ctx context.Context) (*youtube.Service, error) {
	clientID := os.Getenv("YOUTUBE_CLIENT_ID")
	clientSecret := os.Getenv("YOUTUBE_CLIENT_SECRET")
	refreshToken := os.Getenv("YOUTUBE_REFRESH_TOKEN")
	if clientID == "" || clientSecret == "" || refreshToken == "" {
		return nil, fmt.Errorf("YOUTUBE_CLIENT_ID, YOUTUBE_CLIENT_SECRET, or YOUTUBE_REFRESH_TOKEN not set")
	}

	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{youtube.YoutubeUploadScope},
	}
	token := &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(-time.Hour), // force refresh
	}

	return youtube.NewService(ctx, option.WithTokenSource(conf.TokenSource(ctx, token)))
}

// classifyAPIError tags quota exhaustion from the API's structured error
// reasons; everything else passes through untagged.
func classifyAPIError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 {
			return faults.Tag(faults.Quota, err)
		}
		for _, item := range apiErr.Errors {
			switch item.Reason {
			case "quotaExceeded", "dailyLimitExceeded", "uploadLimitExceeded", "rateLimitExceeded":
				return faults.Tag(faults.Quota, err)
			}
		}
	}
	return fmt.Errorf("youtube upload: %w", err)
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
