package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentscout-engine/internal/domain"
	"rentscout-engine/internal/notion"
	"rentscout-engine/internal/score"
	"rentscout-engine/internal/store"
)

type fakeFetcher struct {
	listings map[string]domain.Listing
	err      error
}

func (f *fakeFetcher) FetchListing(_ context.Context, url string) (domain.Listing, error) {
	if f.err != nil {
		return domain.Listing{}, f.err
	}
	l, ok := f.listings[url]
	if !ok {
		return domain.Listing{}, errors.New("not found")
	}
	l.URL = url
	return l, nil
}

type fakeSink struct {
	duplicates map[string]bool
	created    []string
	createErr  error
	dupErr     error
}

func (s *fakeSink) IsDuplicate(_ context.Context, url string) (bool, error) {
	return s.duplicates[url], s.dupErr
}

func (s *fakeSink) CreatePage(_ context.Context, _ notion.Page) (string, error) {
	if s.createErr != nil {
		return "", s.createErr
	}
	s.created = append(s.created, "page")
	return "page-1", nil
}

// totalScorer keys the result off the listing price for easy control.
type totalScorer struct{}

func (totalScorer) Score(l domain.Listing) score.Result {
	if l.Price < 0 {
		return score.Result{Suitability: score.SuitabilityReject, Warnings: []string{"包含排除條件：測試"}}
	}
	return score.Result{Total: l.Price, Suitability: score.SuitabilityFor(l.Price)}
}

func newTestPipeline(t *testing.T, f *fakeFetcher, s *fakeSink) *Pipeline {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db.Pool))

	return &Pipeline{
		Fetcher:  f,
		Scorer:   totalScorer{},
		Sink:     s,
		DB:       db.Pool,
		MinScore: 60,
	}
}

const link = "https://rent.591.com.tw/home/1"

func TestProcessLinkCreated(t *testing.T) {
	f := &fakeFetcher{listings: map[string]domain.Listing{
		link: {Title: "好套房", Price: 90},
	}}
	s := &fakeSink{}
	p := newTestPipeline(t, f, s)

	var events []Outcome
	p.OnOutcome = func(o Outcome) { events = append(events, o) }

	out := p.ProcessLink(context.Background(), link)
	assert.Equal(t, store.StatusCreated, out.Status)
	assert.Equal(t, "page-1", out.PageID)
	assert.Equal(t, 90, out.Total)
	assert.Len(t, s.created, 1)
	require.Len(t, events, 1)

	recs, err := store.ListRecords(context.Background(), p.DB, store.ListOpts{Window: "all"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, store.StatusCreated, recs[0].Status)
	assert.Equal(t, "page-1", recs[0].NotionPageID)
}

func TestProcessLinkSkipsAlreadyProcessed(t *testing.T) {
	f := &fakeFetcher{listings: map[string]domain.Listing{
		link: {Title: "好套房", Price: 90},
	}}
	s := &fakeSink{}
	p := newTestPipeline(t, f, s)

	first := p.ProcessLink(context.Background(), link)
	require.Equal(t, store.StatusCreated, first.Status)

	second := p.ProcessLink(context.Background(), link)
	assert.Equal(t, store.StatusDuplicate, second.Status)
	assert.Equal(t, "already processed", second.Detail)
	assert.Len(t, s.created, 1) // no second create
}

func TestProcessLinkOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		fetcher *fakeFetcher
		sink    *fakeSink
		want    string
	}{
		{
			name:    "fetch failure",
			fetcher: &fakeFetcher{err: errors.New("boom")},
			sink:    &fakeSink{},
			want:    store.StatusFailed,
		},
		{
			name: "rejected by deal breaker",
			fetcher: &fakeFetcher{listings: map[string]domain.Listing{
				link: {Title: "壞套房", Price: -1},
			}},
			sink: &fakeSink{},
			want: store.StatusRejected,
		},
		{
			name: "below threshold",
			fetcher: &fakeFetcher{listings: map[string]domain.Listing{
				link: {Title: "普通套房", Price: 59},
			}},
			sink: &fakeSink{},
			want: store.StatusBelowThreshold,
		},
		{
			name: "duplicate in notion",
			fetcher: &fakeFetcher{listings: map[string]domain.Listing{
				link: {Title: "好套房", Price: 90},
			}},
			sink: &fakeSink{duplicates: map[string]bool{link: true}},
			want: store.StatusDuplicate,
		},
		{
			name: "create failure",
			fetcher: &fakeFetcher{listings: map[string]domain.Listing{
				link: {Title: "好套房", Price: 90},
			}},
			sink: &fakeSink{createErr: errors.New("api down")},
			want: store.StatusFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPipeline(t, tt.fetcher, tt.sink)
			out := p.ProcessLink(context.Background(), link)
			assert.Equal(t, tt.want, out.Status)

			recs, err := store.ListRecords(context.Background(), p.DB, store.ListOpts{Window: "all"})
			require.NoError(t, err)
			require.Len(t, recs, 1)
			assert.Equal(t, tt.want, recs[0].Status)
		})
	}
}

func TestProcessBatchReport(t *testing.T) {
	f := &fakeFetcher{listings: map[string]domain.Listing{
		"https://rent.591.com.tw/home/1": {Title: "a", Price: 90},
		"https://rent.591.com.tw/home/2": {Title: "b", Price: 30},
		"https://rent.591.com.tw/home/3": {Title: "c", Price: -1},
	}}
	s := &fakeSink{}
	p := newTestPipeline(t, f, s)

	report := p.ProcessBatch(context.Background(), []string{
		"https://rent.591.com.tw/home/1",
		"https://rent.591.com.tw/home/2",
		"https://rent.591.com.tw/home/3",
		"https://rent.591.com.tw/home/4",
	})

	assert.Equal(t, 4, report.Processed)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.BelowThreshold)
	assert.Equal(t, 1, report.Rejected)
	assert.Equal(t, 1, report.Failed)
	assert.Len(t, report.Outcomes, 4)
}

func TestProcessBatchHonorsCancel(t *testing.T) {
	f := &fakeFetcher{listings: map[string]domain.Listing{
		"https://rent.591.com.tw/home/1": {Title: "a", Price: 90},
	}}
	p := newTestPipeline(t, f, &fakeSink{})
	p.Delay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	report := p.ProcessBatch(ctx, []string{
		"https://rent.591.com.tw/home/1",
		"https://rent.591.com.tw/home/2",
	})
	assert.Equal(t, 1, report.Processed)
}

type stubSource struct {
	name  string
	links []string
	err   error
}

func (s stubSource) Name() string { return s.name }
func (s stubSource) FetchLinks(context.Context) ([]string, error) {
	return s.links, s.err
}

func TestCollectLinks(t *testing.T) {
	got := CollectLinks(context.Background(), []LinkSource{
		stubSource{name: "monitor", links: []string{"a", "b"}},
		stubSource{name: "mail", links: []string{"b", "c"}},
		stubSource{name: "broken", err: errors.New("imap down")},
	}, time.Second)

	assert.Equal(t, []string{"a", "b", "c"}, got)
}
