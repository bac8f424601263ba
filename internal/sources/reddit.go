package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/varys-hq/varys/internal/models"
)

// Subreddits and query refinements searched for company reviews.
var (
	targetSubreddits = []string{"technepal", "Nepal", "NepalJobs", "careerguidance", "ITCareerQuestions"}
	reviewKeywords   = []string{"experience", "review", "working at", "work at", "join", "intern at", "interview at", "salary"}
)

// RedditScraper searches career subreddits for posts reviewing a company
// and collects the comments that mention it.
type RedditScraper struct {
	clientID     string
	clientSecret string
	userAgent    string
	client       *resty.Client
	accessToken  string
}

var _ Scraper = (*RedditScraper)(nil)

type redditAuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type redditSearchResponse struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Selftext  string  `json:"selftext"`
	Subreddit string  `json:"subreddit"`
	Permalink string  `json:"permalink"`
	Created   float64 `json:"created_utc"`
}

type redditComment struct {
	Body string `json:"body"`
}

// NewRedditScraper creates a new Reddit scraper
func NewRedditScraper(clientID, clientSecret, userAgent string) *RedditScraper {
	return &RedditScraper{
		clientID:     clientID,
		clientSecret: clientSecret,
		userAgent:    userAgent,
		client:       resty.New().SetTimeout(30 * time.Second),
	}
}

func (r *RedditScraper) GetName() string {
	return "reddit"
}

func (r *RedditScraper) IsEnabled() bool {
	return r.clientID != "" && r.clientSecret != ""
}

// Scrape searches each target subreddit for "<company> <keyword>" query
// combinations and returns posts that mention the company, or that have
// comments mentioning it. A single subreddit failing does not abort the
// scrape.
func (r *RedditScraper) Scrape(ctx context.Context, company string, limit int) ([]models.ScrapedPost, error) {
	if !r.IsEnabled() {
		logrus.Debug("Reddit scraper disabled - missing credentials")
		return nil, nil
	}

	if err := r.authenticate(); err != nil {
		return nil, fmt.Errorf("reddit authentication failed: %w", err)
	}

	var posts []models.ScrapedPost
	seen := make(map[string]bool)
	companyLower := strings.ToLower(company)

	for _, sub := range targetSubreddits {
		for _, keyword := range reviewKeywords {
			found, err := r.searchSubreddit(ctx, sub, fmt.Sprintf("%s %s", company, keyword), limit)
			if err != nil {
				logrus.Errorf("Failed to search r/%s for %q: %v", sub, keyword, err)
				continue
			}

			for _, post := range found {
				if seen[post.ID] {
					continue
				}
				seen[post.ID] = true

				postText := strings.TrimSpace(post.Title + "\n\n" + post.Selftext)
				comments := r.relevantComments(ctx, post, companyLower)
				mentionsCompany := strings.Contains(strings.ToLower(postText), companyLower)

				if !mentionsCompany && len(comments) == 0 {
					continue
				}

				posts = append(posts, models.ScrapedPost{
					Source:   fmt.Sprintf("r/%s", post.Subreddit),
					Company:  company,
					Review:   postText,
					Comments: comments,
					Date:     time.Unix(int64(post.Created), 0).UTC(),
					PostURL:  fmt.Sprintf("https://reddit.com%s", post.Permalink),
				})
			}
		}
	}

	return posts, nil
}

func (r *RedditScraper) authenticate() error {
	resp, err := r.client.R().
		SetHeader("User-Agent", r.userAgent).
		SetBasicAuth(r.clientID, r.clientSecret).
		SetFormData(map[string]string{
			"grant_type": "client_credentials",
		}).
		Post("https://www.reddit.com/api/v1/access_token")

	if err != nil {
		return err
	}

	var authResp redditAuthResponse
	if err := json.Unmarshal(resp.Body(), &authResp); err != nil {
		return err
	}

	r.accessToken = authResp.AccessToken
	return nil
}

func (r *RedditScraper) searchSubreddit(ctx context.Context, subreddit, query string, limit int) ([]redditPost, error) {
	searchURL := fmt.Sprintf("https://oauth.reddit.com/r/%s/search.json?q=%s&restrict_sr=1&sort=new&limit=%d",
		subreddit, url.QueryEscape(query), limit)

	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+r.accessToken).
		SetHeader("User-Agent", r.userAgent).
		Get(searchURL)

	if err != nil {
		return nil, err
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("reddit API returned status %d", resp.StatusCode())
	}

	var searchResp redditSearchResponse
	if err := json.Unmarshal(resp.Body(), &searchResp); err != nil {
		return nil, err
	}

	posts := make([]redditPost, 0, len(searchResp.Data.Children))
	for _, child := range searchResp.Data.Children {
		posts = append(posts, child.Data)
	}
	return posts, nil
}

// relevantComments fetches a post's comment tree and keeps the comments
// that mention the company. Comment fetch failures degrade to an empty
// list rather than failing the post.
func (r *RedditScraper) relevantComments(ctx context.Context, post redditPost, companyLower string) []string {
	commentsURL := fmt.Sprintf("https://oauth.reddit.com/comments/%s.json?limit=100", post.ID)

	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+r.accessToken).
		SetHeader("User-Agent", r.userAgent).
		Get(commentsURL)

	if err != nil || resp.StatusCode() != 200 {
		logrus.Debugf("Failed to fetch comments for post %s", post.ID)
		return nil
	}

	// The comments endpoint returns [postListing, commentListing].
	var listings []struct {
		Data struct {
			Children []struct {
				Data redditComment `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &listings); err != nil || len(listings) < 2 {
		return nil
	}

	var relevant []string
	for _, child := range listings[1].Data.Children {
		if strings.Contains(strings.ToLower(child.Data.Body), companyLower) {
			relevant = append(relevant, child.Data.Body)
		}
	}
	return relevant
}
