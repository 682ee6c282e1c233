// Package metadata builds YouTube titles, descriptions, hashtags and tags
// for one generated video. Deterministic templates keyed by subreddit; no
// network calls.
package metadata

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"reddit-reads-pipeline/types"
)

var hashtagTemplates = map[string][]string{
	"aita":         {"#AITA", "#AmItheAsshole", "#RedditStories", "#Drama"},
	"askreddit":    {"#AskReddit", "#RedditStories", "#Stories", "#Viral"},
	"confession":   {"#Confession", "#TrueStory", "#RedditStories", "#Storytime"},
	"relationship": {"#RelationshipAdvice", "#Dating", "#RedditStories", "#Drama"},
	"tifu":         {"#TIFU", "#Fail", "#RedditStories", "#Funny"},
	"revenge":      {"#Revenge", "#PettyRevenge", "#ProRevenge", "#RedditStories"},
	"default":      {"#RedditStories", "#Storytime", "#Viral", "#Shorts"},
}

// Generate builds complete metadata for a story's video
func Generate(story *types.Story, videoPath string) *types.VideoMetadata {
	md := &types.VideoMetadata{
		Title:       buildTitle(story),
		Description: buildDescription(story),
		Hashtags:    buildHashtags(story),
		Tags:        buildTags(story),
		VideoPath:   videoPath,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
	md.OriginalStory.Title = story.Title
	md.OriginalStory.Subreddit = story.Subreddit
	md.OriginalStory.Author = story.Author
	md.OriginalStory.URL = story.URL
	return md
}

// Write saves metadata as JSON next to the video
func Write(md *types.VideoMetadata, path string) error {
	data, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}
	log.Printf("[metadata] ✅ Metadata saved: %s", path)
	return nil
}

// Read loads a metadata file written by Write
func Read(path string) (*types.VideoMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var md types.VideoMetadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &md, nil
}

func buildTitle(story *types.Story) string {
	title := story.Title
	sub := strings.ToLower(story.Subreddit)

	switch {
	case strings.Contains(sub, "aita") || strings.Contains(sub, "amitheasshole"):
		if !strings.HasPrefix(strings.ToLower(title), "aita") {
			title = "AITA for " + clip(title, 60)
		}
	case strings.Contains(sub, "tifu"):
		if !strings.HasPrefix(strings.ToLower(title), "tifu") {
			title = "TIFU by " + clip(title, 60)
		}
	}

	if len(title) < 60 {
		title = "🔥 " + title
	}
	return clip(title, 70)
}

func buildDescription(story *types.Story) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🔥 %s\n\n", story.Title)
	fmt.Fprintf(&sb, "📖 Story sourced from r/%s\n\n", story.Subreddit)
	sb.WriteString("💬 What do you think? Let us know in the comments!\n\n")
	sb.WriteString("⚠️ DISCLAIMER: Stories are sourced from public online forums for entertainment purposes. All identifying information has been removed or altered.\n\n")
	sb.WriteString(strings.Join(buildHashtags(story), " "))
	return sb.String()
}

func buildHashtags(story *types.Story) []string {
	sub := strings.ToLower(story.Subreddit)
	category := "default"
	switch {
	case strings.Contains(sub, "aita") || strings.Contains(sub, "amitheasshole"):
		category = "aita"
	case strings.Contains(sub, "askreddit"):
		category = "askreddit"
	case strings.Contains(sub, "confession") || strings.Contains(sub, "offmychest"):
		category = "confession"
	case strings.Contains(sub, "relationship"):
		category = "relationship"
	case strings.Contains(sub, "tifu"):
		category = "tifu"
	case strings.Contains(sub, "revenge"):
		category = "revenge"
	}

	hashtags := append([]string(nil), hashtagTemplates[category]...)
	hashtags = append(hashtags, "#"+story.Subreddit)
	if len(hashtags) > 10 {
		hashtags = hashtags[:10]
	}
	return hashtags
}

func buildTags(story *types.Story) []string {
	tags := []string{
		"reddit stories", "reddit reads", "storytime", "shorts",
		"viral", strings.ToLower(story.Subreddit), "story", "drama",
		"entertainment",
	}

	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		seen[t] = true
	}
	// pull a few long-ish words out of the title for search reach
	added := 0
	for _, w := range strings.Fields(strings.ToLower(story.Title)) {
		if len(w) > 4 && !seen[w] && added < 5 {
			tags = append(tags, w)
			seen[w] = true
			added++
		}
	}
	if len(tags) > 15 {
		tags = tags[:15]
	}
	return tags
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
