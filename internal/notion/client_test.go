package notion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("secret-token", "2022-06-28", "db-1", 1000, WithBaseURL(srv.URL))
}

func TestCreatePage(t *testing.T) {
	var gotPath, gotAuth, gotVersion string
	var gotBody map[string]any

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotVersion = r.Header.Get("Notion-Version")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "page-123"})
	})

	id, err := c.CreatePage(context.Background(), Page{
		Properties: Properties{"房源名稱": Title("測試")},
		Children:   []any{ImageBlock("https://img/a.jpg")},
	})
	require.NoError(t, err)
	assert.Equal(t, "page-123", id)
	assert.Equal(t, "/v1/pages", gotPath)
	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, "2022-06-28", gotVersion)
	assert.Equal(t, "db-1", gotBody["parent"].(map[string]any)["database_id"])
	assert.Len(t, gotBody["children"], 1)
}

func TestIsDuplicate(t *testing.T) {
	var gotFilter map[string]any
	results := []any{}

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/databases/db-1/query", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotFilter = body["filter"].(map[string]any)
		_ = json.NewEncoder(w).Encode(map[string]any{"results": results})
	})

	dup, err := c.IsDuplicate(context.Background(), "https://rent.591.com.tw/home/1")
	require.NoError(t, err)
	assert.False(t, dup)

	or := gotFilter["or"].([]any)
	require.Len(t, or, 2)
	assert.Equal(t, "網頁連結", or[0].(map[string]any)["property"])
	assert.Equal(t, "網址", or[1].(map[string]any)["property"])

	results = []any{map[string]any{"id": "existing"}}
	dup, err = c.IsDuplicate(context.Background(), "https://rent.591.com.tw/home/1")
	require.NoError(t, err)
	assert.True(t, dup)
}

func TestListBlockChildrenPagination(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/v1/blocks/page-9/children", r.URL.Path)
		if r.URL.Query().Get("start_cursor") == "" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"results": []any{
					map[string]any{"type": "bookmark", "bookmark": map[string]any{"url": "https://rent.591.com.tw/home/1"}},
				},
				"has_more":    true,
				"next_cursor": "c2",
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []any{
				map[string]any{"type": "paragraph", "paragraph": map[string]any{
					"rich_text": []any{map[string]any{"plain_text": "看看這個", "href": "https://rent.591.com.tw/home/2"}},
				}},
			},
			"has_more": false,
		})
	})

	blocks, err := c.ListBlockChildren(context.Background(), "page-9")
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, 2, calls)
	assert.Contains(t, blocks[0].Text(), "home/1")
	assert.Contains(t, blocks[1].Text(), "home/2")
}

func TestAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code":    "object_not_found",
			"message": "Could not find database",
		})
	})

	_, err := c.IsDuplicate(context.Background(), "https://rent.591.com.tw/home/1")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "object_not_found", apiErr.Code)
	assert.Contains(t, apiErr.Error(), "Could not find database")
}
