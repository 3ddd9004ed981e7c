package domain

import "encoding/json"

type CategoryPage struct {
	PageNumber int               `json:"page_number"` // 1-based page requested
	PageSize   int               `json:"page_size"`   // size query parameter sent
	TotalItems int               `json:"total_items"` // data.total as reported by this response
	HasTotal   bool              `json:"has_total"`   // false when data.total was absent
	Items      []json.RawMessage `json:"items"`       // data.global_cats, undecoded
}

// TotalPages derives the page count from the reported total
func (p *CategoryPage) TotalPages() int {
	return TotalPages(p.TotalItems, p.PageSize)
}

// TotalPages is ceil(totalItems / pageSize); zero for non-positive input
func TotalPages(totalItems, pageSize int) int {
	if totalItems <= 0 || pageSize <= 0 {
		return 0
	}
	return (totalItems + pageSize - 1) / pageSize
}

type PageStatus string

const (
	PageStatusOK      PageStatus = "ok"
	PageStatusSkipped PageStatus = "skipped"
)

// SkippedItem records why one category on a page was dropped
type SkippedItem struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// PageOutcome is the per-page result the extractor aggregates
type PageOutcome struct {
	PageNumber   int           `json:"page_number"`
	Status       PageStatus    `json:"status"`
	Reason       string        `json:"reason,omitempty"`
	Items        int           `json:"items"`
	Records      int           `json:"records"`
	SkippedItems []SkippedItem `json:"skipped_items,omitempty"`
}

type ExtractionResult struct {
	TotalItems int                  `json:"total_items"` // data.total from the first response
	TotalPages int                  `json:"total_pages"` // pages planned from the first response
	Records    []FlatCategoryRecord `json:"records"`     // flattened categories in fetch order
	Pages      []PageOutcome        `json:"pages"`       // one entry per page attempted
	Aborted    string               `json:"aborted,omitempty"`
}

// SkippedPages counts pages whose items were lost
func (r *ExtractionResult) SkippedPages() int {
	n := 0
	for _, p := range r.Pages {
		if p.Status == PageStatusSkipped {
			n++
		}
	}
	return n
}

// SkippedItems counts items dropped by the flattener across all pages
func (r *ExtractionResult) SkippedItems() int {
	n := 0
	for _, p := range r.Pages {
		n += len(p.SkippedItems)
	}
	return n
}
