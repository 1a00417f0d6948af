// Package domain holds the shared listing record. Extraction fills it,
// scoring and mapping read it; nothing downstream mutates it.
package domain

// Listing is one 591 rental listing as extracted from its detail page.
// Zero values mean the field was absent: Price 0 is "unknown", and the
// scorer treats it as such rather than failing.
type Listing struct {
	URL         string            `json:"url"`
	Title       string            `json:"title"`
	Price       int               `json:"price"` // TWD per month, 0 = unknown
	Address     string            `json:"address"`
	Description string            `json:"description"`
	Facilities  []string          `json:"facilities"` // ordered as on the page, duplicates kept
	Details     map[string]string `json:"details"`    // label → value rows (樓層, 坪數, ...)
	Images      []string          `json:"images"`
	Contact     string            `json:"contact"`
	Floor       string            `json:"floor"` // convenience copy of Details["樓層"]
	Area        string            `json:"area"`  // convenience copy of Details["坪數"]
}
