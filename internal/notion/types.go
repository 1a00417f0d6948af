package notion

import (
	"encoding/json"
	"strconv"
)

// Properties is the property map sent with a page create/update. Values are
// built with the constructors below so each one carries exactly the JSON
// shape the API expects.
type Properties map[string]any

// Page is the payload for creating one database row plus its body blocks.
type Page struct {
	Properties Properties
	Children   []any
}

func Title(s string) any {
	return map[string]any{"title": []any{textSpan(s)}}
}

func RichText(s string) any {
	return map[string]any{"rich_text": []any{textSpan(s)}}
}

// Number renders 0 as null so an unknown rent shows as empty, not free.
func NumberOrNull(n float64) any {
	if n == 0 {
		return map[string]any{"number": nil}
	}
	return map[string]any{"number": n}
}

func Number(n float64) any {
	return map[string]any{"number": n}
}

func Select(name string) any {
	return map[string]any{"select": map[string]any{"name": name}}
}

func MultiSelect(names []string) any {
	opts := make([]any, len(names))
	for i, n := range names {
		opts[i] = map[string]any{"name": n}
	}
	return map[string]any{"multi_select": opts}
}

func URL(u string) any {
	if u == "" {
		return map[string]any{"url": nil}
	}
	return map[string]any{"url": u}
}

func Date(iso string) any {
	return map[string]any{"date": map[string]any{"start": iso}}
}

func Files(urls []string) any {
	fs := make([]any, 0, len(urls))
	for i, u := range urls {
		fs = append(fs, map[string]any{
			"type":     "external",
			"name":     "photo-" + strconv.Itoa(i+1),
			"external": map[string]any{"url": u},
		})
	}
	return map[string]any{"files": fs}
}

func ImageBlock(u string) any {
	return map[string]any{
		"object": "block",
		"type":   "image",
		"image": map[string]any{
			"type":     "external",
			"external": map[string]any{"url": u},
		},
	}
}

func textSpan(s string) any {
	return map[string]any{"text": map[string]any{"content": s}}
}

// Block is the subset of the block object the page monitor reads. Link
// sources are paragraph text, bookmarks and embeds.
type Block struct {
	Type      string      `json:"type"`
	Paragraph *richHolder `json:"paragraph,omitempty"`
	Bookmark  *urlHolder  `json:"bookmark,omitempty"`
	Embed     *urlHolder  `json:"embed,omitempty"`
}

type richHolder struct {
	RichText []richTextSpan `json:"rich_text"`
}

type urlHolder struct {
	URL string `json:"url"`
}

type richTextSpan struct {
	PlainText string    `json:"plain_text"`
	Href      string    `json:"href"`
	Text      *textBody `json:"text,omitempty"`
}

type textBody struct {
	Content string     `json:"content"`
	Link    *urlHolder `json:"link,omitempty"`
}

// Text returns every piece of text and link the block carries, concatenated
// for URL scanning.
func (b Block) Text() string {
	switch b.Type {
	case "bookmark":
		if b.Bookmark != nil {
			return b.Bookmark.URL
		}
	case "embed":
		if b.Embed != nil {
			return b.Embed.URL
		}
	case "paragraph":
		if b.Paragraph == nil {
			return ""
		}
		var out string
		for _, rt := range b.Paragraph.RichText {
			out += rt.PlainText + " "
			if rt.Href != "" {
				out += rt.Href + " "
			}
			if rt.Text != nil {
				out += rt.Text.Content + " "
				if rt.Text.Link != nil {
					out += rt.Text.Link.URL + " "
				}
			}
		}
		return out
	}
	return ""
}

type blockListResponse struct {
	Results    []Block `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor string  `json:"next_cursor"`
}

type queryResponse struct {
	Results []json.RawMessage `json:"results"`
}

type createResponse struct {
	ID string `json:"id"`
}

type apiErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
