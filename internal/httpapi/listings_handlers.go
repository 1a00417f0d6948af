package httpapi

import (
	"database/sql"
	"net/http"
	"strconv"

	"rentscout-engine/internal/store"
)

type ListingsHandler struct {
	DB *sql.DB
}

// List serves processed listings. Query params: status, min_total, window
// (24h|7d|all), limit.
func (h ListingsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := store.ListOpts{
		Status: q.Get("status"),
		Window: q.Get("window"),
	}
	if v := q.Get("min_total"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			WriteError(w, r, http.StatusBadRequest, "bad_min_total", "min_total must be a non-negative integer")
			return
		}
		opts.MinTotal = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			WriteError(w, r, http.StatusBadRequest, "bad_limit", "limit must be a positive integer")
			return
		}
		opts.Limit = n
	}

	recs, err := store.ListRecords(r.Context(), h.DB, opts)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	if recs == nil {
		recs = []store.Record{}
	}
	writeJSON(w, recs)
}

func (h ListingsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := store.Stats(r.Context(), h.DB)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	writeJSON(w, stats)
}
