package research

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/vartanbeno/go-reddit/v2/reddit"

	"reddit-reads-pipeline/config"
	"reddit-reads-pipeline/faults"
	"reddit-reads-pipeline/types"
)

var (
	markdownLinkRe = regexp.MustCompile(`\[([^\]]+)\]\([^\)]+\)`)
	urlRe          = regexp.MustCompile(`https?://\S+|www\.\S+`)
	newlineRunRe   = regexp.MustCompile(`\n{3,}`)
)

// emotionalKeywords is a cheap proxy for whether a story will hold a viewer
var emotionalKeywords = []string{
	"angry", "furious", "upset", "devastated", "heartbroken",
	"shocked", "surprised", "confused", "betrayed", "disappointed",
	"excited", "thrilled", "amazing", "incredible", "unbelievable",
	"regret", "guilty", "ashamed", "embarrassed", "humiliated",
}

// Scraper fetches candidate stories from Reddit
type Scraper struct {
	cfg    *config.Config
	client *reddit.Client
	rng    *rand.Rand
	// sleep is swapped out in tests to avoid real jitter waits
	sleep func(time.Duration)
}

// New creates a read-only Reddit scraper
func New(cfg *config.Config) (*Scraper, error) {
	client, err := reddit.NewReadonlyClient()
	if err != nil {
		return nil, fmt.Errorf("reddit client: %w", err)
	}
	return &Scraper{
		cfg:    cfg,
		client: client,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:  time.Sleep,
	}, nil
}

// Fetch returns one story from the given subreddits (config defaults when
// nil), skipping any ID on the avoid list. Returns a faults.NoStory error
// when every candidate is filtered out.
func (s *Scraper) Fetch(ctx context.Context, subreddits []string, avoidIDs []string) (*types.Story, error) {
	if len(subreddits) == 0 {
		subreddits = s.cfg.Research.Subreddits
	}
	avoid := make(map[string]bool, len(avoidIDs))
	for _, id := range avoidIDs {
		avoid[id] = true
	}

	shuffled := append([]string(nil), subreddits...)
	s.rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	if len(shuffled) > 5 {
		shuffled = shuffled[:5]
	}

	var candidates []*types.Story
	for _, sub := range shuffled {
		posts, err := s.fetchPosts(ctx, sub)
		if err != nil {
			log.Printf("[research] ⚠️  r/%s fetch failed: %v", sub, err)
			continue
		}

		for _, post := range posts {
			story := s.toStory(post, sub)
			if story == nil || avoid[story.ID] {
				continue
			}
			candidates = append(candidates, story)
		}

		if len(candidates) >= 10 {
			break
		}
		// jitter between subreddit requests to stay polite
		s.sleep(time.Duration(800+s.rng.Intn(700)) * time.Millisecond)
	}

	if len(candidates) == 0 {
		return nil, faults.Tag(faults.NoStory, fmt.Errorf("no eligible posts in %v", shuffled))
	}

	selected := s.pick(s.filterByLength(candidates))
	selected.Text = cleanText(selected.Text)
	log.Printf("[research] ✅ Selected story: %q (r/%s, %d upvotes)", truncate(selected.Title, 50), selected.Subreddit, selected.Score)
	return selected, nil
}

// fetchPosts pulls one listing from a subreddit with a randomized sort, the
// way a human browsing would vary between hot, new and top
func (s *Scraper) fetchPosts(ctx context.Context, subreddit string) ([]*reddit.Post, error) {
	opts := &reddit.ListOptions{Limit: s.cfg.Research.FetchLimit}

	var posts []*reddit.Post
	var err error
	switch s.rng.Intn(3) {
	case 0:
		posts, _, err = s.client.Subreddit.HotPosts(ctx, subreddit, opts)
	case 1:
		posts, _, err = s.client.Subreddit.NewPosts(ctx, subreddit, opts)
	default:
		periods := []string{"day", "week", "month"}
		posts, _, err = s.client.Subreddit.TopPosts(ctx, subreddit, &reddit.ListPostOptions{
			ListOptions: *opts,
			Time:        periods[s.rng.Intn(len(periods))],
		})
	}
	return posts, err
}

// toStory applies the hard filters and converts one post; nil means the
// post is not usable at all. Word-count filtering is applied later so it
// can be relaxed when it empties the pool.
func (s *Scraper) toStory(post *reddit.Post, subreddit string) *types.Story {
	rc := s.cfg.Research
	body := post.Body

	if post.Score < rc.MinUpvotes || post.NSFW {
		return nil
	}
	if body == "" || body == "[removed]" || body == "[deleted]" {
		return nil
	}
	if len(body) > rc.MaxPostChars {
		return nil
	}

	return &types.Story{
		ID:        post.ID,
		Title:     post.Title,
		Text:      body,
		Author:    post.Author,
		Score:     post.Score,
		Subreddit: subreddit,
		URL:       "https://www.reddit.com" + post.Permalink,
	}
}

// filterByLength keeps stories inside the configured word-count band, then
// relaxes in stages when that empties the pool: drop the upper bound first,
// fall back to emotional-intensity matches, finally accept everything.
func (s *Scraper) filterByLength(candidates []*types.Story) []*types.Story {
	rc := s.cfg.Research

	var filtered []*types.Story
	for _, c := range candidates {
		wc := len(strings.Fields(c.Text))
		if wc >= rc.MinStoryWords && wc <= rc.MaxStoryWords {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) > 0 {
		return filtered
	}

	log.Printf("[research] no posts in %d-%d word band, relaxing upper bound", rc.MinStoryWords, rc.MaxStoryWords)
	for _, c := range candidates {
		if len(strings.Fields(c.Text)) >= rc.MinStoryWords {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) > 0 {
		return filtered
	}

	log.Println("[research] trying emotional intensity filter")
	for _, c := range candidates {
		if hasEmotionalIntensity(c.Text) {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) > 0 {
		return filtered
	}

	log.Println("[research] using all available posts")
	return candidates
}

// pick sorts candidates by score and chooses randomly among the top 10 so
// back-to-back runs do not all grab the same post
func (s *Scraper) pick(candidates []*types.Story) *types.Story {
	byScore := append([]*types.Story(nil), candidates...)
	sort.Slice(byScore, func(i, j int) bool { return byScore[i].Score > byScore[j].Score })
	if len(byScore) > 10 {
		byScore = byScore[:10]
	}
	return byScore[s.rng.Intn(len(byScore))]
}

func cleanText(text string) string {
	text = markdownLinkRe.ReplaceAllString(text, "$1")
	text = urlRe.ReplaceAllString(text, "")
	text = newlineRunRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// hasEmotionalIntensity reports whether the text trips at least two of the
// emotion keywords
func hasEmotionalIntensity(text string) bool {
	lower := strings.ToLower(text)
	matches := 0
	for _, kw := range emotionalKeywords {
		if strings.Contains(lower, kw) {
			matches++
		}
	}
	return matches >= 2
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
