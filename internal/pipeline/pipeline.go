// Package pipeline drives one listing from URL to outcome: fetch, score,
// dedupe against Notion, publish, record locally.
package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"rentscout-engine/internal/domain"
	"rentscout-engine/internal/extract"
	"rentscout-engine/internal/notion"
	"rentscout-engine/internal/score"
	"rentscout-engine/internal/store"
)

// Fetcher downloads and parses one listing page.
type Fetcher interface {
	FetchListing(ctx context.Context, url string) (domain.Listing, error)
}

// Sink is the Notion side: duplicate lookups and row creation.
type Sink interface {
	IsDuplicate(ctx context.Context, url string) (bool, error)
	CreatePage(ctx context.Context, page notion.Page) (string, error)
}

type Pipeline struct {
	Fetcher  Fetcher
	Scorer   score.Scorer
	Sink     Sink
	Mapper   notion.Mapper
	DB       *sql.DB
	MinScore int
	RoomType func(domain.Listing) string // optional, fills the local record

	// Delay between listings in a batch. Zero means no pacing beyond the
	// per-host rate limiter.
	Delay time.Duration

	// OnOutcome fires after each listing is recorded (event fan-out).
	OnOutcome func(Outcome)
}

// Outcome is the result of processing one link.
type Outcome struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Status      string `json:"status"`
	Total       int    `json:"total"`
	Suitability string `json:"suitability,omitempty"`
	PageID      string `json:"pageId,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// Report aggregates one batch.
type Report struct {
	Processed      int       `json:"processed"`
	Created        int       `json:"created"`
	Duplicates     int       `json:"duplicates"`
	BelowThreshold int       `json:"belowThreshold"`
	Rejected       int       `json:"rejected"`
	Failed         int       `json:"failed"`
	Outcomes       []Outcome `json:"outcomes"`
}

func (r *Report) add(o Outcome) {
	r.Processed++
	r.Outcomes = append(r.Outcomes, o)
	switch o.Status {
	case store.StatusCreated:
		r.Created++
	case store.StatusDuplicate:
		r.Duplicates++
	case store.StatusBelowThreshold:
		r.BelowThreshold++
	case store.StatusRejected:
		r.Rejected++
	case store.StatusFailed:
		r.Failed++
	}
}

// ProcessLink runs the whole chain for one URL. Every path records an
// outcome row locally; only fetch/publish errors surface as StatusFailed.
func (p *Pipeline) ProcessLink(ctx context.Context, rawURL string) Outcome {
	url := extract.Canonicalize(rawURL)

	if seen, err := store.Seen(p.DB, url); err != nil {
		log.Printf("[pipeline] seen check %s: %v", url, err)
	} else if seen {
		// no outcome row: it already has one
		return p.emit(Outcome{URL: url, Status: store.StatusDuplicate, Detail: "already processed"})
	}

	l, err := p.Fetcher.FetchListing(ctx, url)
	if err != nil {
		return p.record(l, Outcome{
			URL:    url,
			Status: store.StatusFailed,
			Detail: err.Error(),
		})
	}

	res := p.Scorer.Score(l)
	out := Outcome{
		URL:         url,
		Title:       l.Title,
		Total:       res.Total,
		Suitability: string(res.Suitability),
	}

	if res.Rejected() {
		out.Status = store.StatusRejected
		out.Detail = strings.Join(res.Warnings, "；")
		return p.record(l, out)
	}
	if res.Total < p.MinScore {
		out.Status = store.StatusBelowThreshold
		out.Detail = fmt.Sprintf("score %d below threshold %d", res.Total, p.MinScore)
		return p.record(l, out)
	}

	if dup, err := p.Sink.IsDuplicate(ctx, url); err != nil {
		out.Status = store.StatusFailed
		out.Detail = err.Error()
		return p.record(l, out)
	} else if dup {
		out.Status = store.StatusDuplicate
		out.Detail = "already in database"
		return p.record(l, out)
	}

	pageID, err := p.Sink.CreatePage(ctx, p.Mapper.Map(l, res))
	if err != nil {
		out.Status = store.StatusFailed
		out.Detail = err.Error()
		return p.record(l, out)
	}

	out.Status = store.StatusCreated
	out.PageID = pageID
	return p.record(l, out)
}

// ProcessBatch walks the links sequentially with pacing between them. The
// site bans aggressive crawlers, so batches stay serial; concurrency lives
// at the source level, not here.
func (p *Pipeline) ProcessBatch(ctx context.Context, links []string) Report {
	var report Report
	for i, link := range links {
		if i > 0 && p.Delay > 0 {
			select {
			case <-ctx.Done():
				return report
			case <-time.After(p.Delay):
			}
		}
		if ctx.Err() != nil {
			return report
		}

		out := p.ProcessLink(ctx, link)
		report.add(out)
		log.Printf("[pipeline] %s status=%s total=%d", out.URL, out.Status, out.Total)
	}
	return report
}

func (p *Pipeline) record(l domain.Listing, out Outcome) Outcome {
	roomType := ""
	if p.RoomType != nil && l.Title != "" {
		roomType = p.RoomType(l)
	}
	if _, err := store.InsertIfNew(p.DB, store.Record{
		URL:          out.URL,
		Title:        l.Title,
		Price:        l.Price,
		Address:      l.Address,
		RoomType:     roomType,
		Total:        out.Total,
		Suitability:  out.Suitability,
		Status:       out.Status,
		NotionPageID: out.PageID,
		Detail:       out.Detail,
	}); err != nil {
		log.Printf("[pipeline] record %s: %v", out.URL, err)
	}
	return p.emit(out)
}

func (p *Pipeline) emit(out Outcome) Outcome {
	if p.OnOutcome != nil {
		p.OnOutcome(out)
	}
	return out
}
