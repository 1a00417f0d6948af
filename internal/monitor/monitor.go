// Package monitor watches a Notion page for pasted listing links. Dropping
// a 591 URL into the page queues it for processing on the next poll.
package monitor

import (
	"context"
	"sync/atomic"
	"time"

	"rentscout-engine/internal/extract"
	"rentscout-engine/internal/notion"
)

// BlockLister is the slice of the Notion client the monitor needs.
type BlockLister interface {
	ListBlockChildren(ctx context.Context, blockID string) ([]notion.Block, error)
}

// Status is a snapshot of the monitor's last check, served by the API.
type Status struct {
	PageID     string    `json:"pageId"`
	LastCheck  time.Time `json:"lastCheck"`
	LastLinks  int       `json:"lastLinks"`
	LastError  string    `json:"lastError,omitempty"`
	TotalFound int       `json:"totalFound"`
	Checks     int       `json:"checks"`
}

type Monitor struct {
	Client   BlockLister
	PageID   string
	MaxLinks int

	status atomic.Value // Status
}

func New(client BlockLister, pageID string, maxLinks int) *Monitor {
	m := &Monitor{Client: client, PageID: pageID, MaxLinks: maxLinks}
	m.status.Store(Status{PageID: pageID})
	return m
}

func (m *Monitor) Name() string { return "monitor" }

// Status returns the last snapshot; safe from any goroutine.
func (m *Monitor) Status() Status {
	return m.status.Load().(Status)
}

// FetchLinks reads the page blocks and extracts listing links. Links
// already handed out in earlier checks reappear here; the pipeline's seen
// check makes that harmless.
func (m *Monitor) FetchLinks(ctx context.Context) ([]string, error) {
	st := m.Status()
	st.Checks++
	st.LastCheck = time.Now().UTC()

	blocks, err := m.Client.ListBlockChildren(ctx, m.PageID)
	if err != nil {
		st.LastError = err.Error()
		st.LastLinks = 0
		m.status.Store(st)
		return nil, err
	}

	links := LinksFromBlocks(blocks)
	if m.MaxLinks > 0 && len(links) > m.MaxLinks {
		links = links[:m.MaxLinks]
	}

	st.LastError = ""
	st.LastLinks = len(links)
	st.TotalFound += len(links)
	m.status.Store(st)
	return links, nil
}

// LinksFromBlocks scans paragraph text, bookmarks and embeds for listing
// URLs, deduplicated in block order.
func LinksFromBlocks(blocks []notion.Block) []string {
	seen := map[string]bool{}
	var out []string
	for _, b := range blocks {
		for _, link := range extract.FindLinks(b.Text()) {
			if seen[link] {
				continue
			}
			seen[link] = true
			out = append(out, link)
		}
	}
	return out
}
