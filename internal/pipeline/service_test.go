package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varys-hq/varys/internal/models"
	"github.com/varys-hq/varys/internal/storage"
	"github.com/varys-hq/varys/internal/store"
)

// fakeScraper returns a fixed set of posts.
type fakeScraper struct {
	posts []models.ScrapedPost
	err   error
}

func (f *fakeScraper) GetName() string { return "reddit" }
func (f *fakeScraper) IsEnabled() bool { return true }
func (f *fakeScraper) Scrape(ctx context.Context, company string, limit int) ([]models.ScrapedPost, error) {
	return f.posts, f.err
}

// scriptedModel answers each enrichment instruction from its prefix.
type scriptedModel struct{}

func (scriptedModel) Complete(ctx context.Context, system, prompt string) (string, error) {
	payload := prompt
	if i := strings.LastIndex(prompt, "Text:\n"); i >= 0 {
		payload = prompt[i+len("Text:\n"):]
	}
	switch {
	case strings.HasPrefix(prompt, "Translate"):
		return payload, nil
	case strings.HasPrefix(prompt, "Classify"):
		return "review", nil
	case strings.HasPrefix(prompt, "Determine the sentiment"):
		return "positive", nil
	case strings.HasPrefix(prompt, "Extract the most important keywords"):
		return "pay, culture", nil
	case strings.HasPrefix(prompt, "Extract only the portion"):
		return payload, nil
	}
	return "", errors.New("unexpected instruction")
}

// fakeMentionStore records status transitions and insert outcomes.
type fakeMentionStore struct {
	statuses  []string
	inserted  []models.EnrichedMention
	outcomes  map[string]store.InsertOutcome // by mention text
	insertErr error
	statusErr error
}

func (f *fakeMentionStore) InsertMention(ctx context.Context, m models.EnrichedMention) (store.InsertOutcome, error) {
	if f.insertErr != nil {
		return store.Failed, f.insertErr
	}
	f.inserted = append(f.inserted, m)
	if outcome, ok := f.outcomes[m.Text]; ok {
		return outcome, nil
	}
	return store.Inserted, nil
}

func (f *fakeMentionStore) SetCompanyStatus(ctx context.Context, name, status string) error {
	f.statuses = append(f.statuses, status)
	return f.statusErr
}

type fakeBuilder struct {
	count int
	err   error
}

func (f *fakeBuilder) Build(ctx context.Context, company string) (int, error) {
	return f.count, f.err
}

type fakeNotifier struct {
	reports []*models.RunReport
	err     error
}

func (f *fakeNotifier) SendRunReport(report *models.RunReport) error {
	f.reports = append(f.reports, report)
	return f.err
}

func testPosts() []models.ScrapedPost {
	return []models.ScrapedPost{
		{
			Source:   "reddit",
			Review:   "My experience at Acme has been great",
			Comments: []string{"Acme pays well", "off topic"},
		},
	}
}

func TestService_Run(t *testing.T) {
	blobs, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	mentions := &fakeMentionStore{}
	notifier := &fakeNotifier{}
	service := NewService(&fakeScraper{posts: testPosts()}, blobs, scriptedModel{}, mentions, &fakeBuilder{count: 2}, notifier)

	report, err := service.Run(context.Background(), "Acme", 25)
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 1, report.Scraped)
	assert.Equal(t, 2, report.RawMentions)
	assert.Equal(t, 2, report.Enriched)
	assert.Equal(t, 2, report.Inserted)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 2, report.Indexed)
	assert.Empty(t, report.Err)

	// Every enriched record carries the model's attributes
	require.Len(t, mentions.inserted, 2)
	assert.Equal(t, "Acme", mentions.inserted[0].Company)
	assert.Equal(t, "positive", mentions.inserted[0].Sentiment)
	assert.Equal(t, []string{"pay", "culture"}, mentions.inserted[0].Keywords)

	// Each phase commits its batch file
	for _, name := range []string{
		"data/raw/reddit_Acme.json",
		"data/processed/reddit_mentions_Acme.json",
		"data/processed/enriched_mentions_Acme.json",
	} {
		_, err := blobs.Retrieve(name)
		assert.NoError(t, err, name)
	}

	assert.Equal(t, []string{
		models.StatusScraping,
		models.StatusEnriching,
		models.StatusPopulating,
		models.StatusIndexing,
		models.StatusReady,
	}, mentions.statuses)

	require.Len(t, notifier.reports, 1)
	assert.Equal(t, report, notifier.reports[0])
}

func TestService_RunScrapeFailure(t *testing.T) {
	blobs, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	mentions := &fakeMentionStore{}
	notifier := &fakeNotifier{}
	service := NewService(&fakeScraper{err: errors.New("rate limited")}, blobs, scriptedModel{}, mentions, &fakeBuilder{}, notifier)

	report, err := service.Run(context.Background(), "Acme", 25)
	require.Error(t, err)

	assert.Contains(t, report.Err, "scraping failed")
	assert.Equal(t, models.StatusFailed, mentions.statuses[len(mentions.statuses)-1])

	// The failure report still goes out
	require.Len(t, notifier.reports, 1)
	assert.NotEmpty(t, notifier.reports[0].Err)
}

func TestService_RunCountsDuplicatesAndFailures(t *testing.T) {
	blobs, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	mentions := &fakeMentionStore{outcomes: map[string]store.InsertOutcome{
		"Acme pays well": store.SkippedDuplicate,
	}}
	service := NewService(&fakeScraper{posts: testPosts()}, blobs, scriptedModel{}, mentions, &fakeBuilder{count: 1}, nil)

	report, err := service.Run(context.Background(), "Acme", 25)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Inserted)
	assert.Equal(t, 1, report.Skipped)
}

func TestService_RunInsertFailureDoesNotAbort(t *testing.T) {
	blobs, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	mentions := &fakeMentionStore{insertErr: errors.New("disk full")}
	service := NewService(&fakeScraper{posts: testPosts()}, blobs, scriptedModel{}, mentions, &fakeBuilder{}, nil)

	report, err := service.Run(context.Background(), "Acme", 25)
	require.NoError(t, err)

	// The index phase still runs and the failures are accounted for
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, 0, report.Inserted)
	assert.Equal(t, models.StatusReady, mentions.statuses[len(mentions.statuses)-1])
}

func TestService_RunIndexFailure(t *testing.T) {
	blobs, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	mentions := &fakeMentionStore{}
	service := NewService(&fakeScraper{posts: testPosts()}, blobs, scriptedModel{}, mentions, &fakeBuilder{err: errors.New("embedding quota")}, nil)

	report, err := service.Run(context.Background(), "Acme", 25)
	require.Error(t, err)

	assert.Contains(t, report.Err, "index build failed")
	assert.Equal(t, models.StatusFailed, mentions.statuses[len(mentions.statuses)-1])
}

func TestService_RunNotifierFailureIsNotFatal(t *testing.T) {
	blobs, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	service := NewService(&fakeScraper{posts: testPosts()}, blobs, scriptedModel{}, &fakeMentionStore{}, &fakeBuilder{}, &fakeNotifier{err: errors.New("smtp down")})

	_, err = service.Run(context.Background(), "Acme", 25)
	assert.NoError(t, err)
}
