package models

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	CurrentPage     int  `json:"currentPage"`
	TotalPages      int  `json:"totalPages"`
	TotalItems      int  `json:"totalItems"`
	ItemsPerPage    int  `json:"itemsPerPage"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

// NewPagination derives page metadata for total items split by page.Limit.
func NewPagination(page Page, total int) Pagination {
	totalPages := 0
	if page.Limit > 0 {
		totalPages = (total + page.Limit - 1) / page.Limit
	}
	offset := page.Offset()
	return Pagination{
		CurrentPage:     page.Number,
		TotalPages:      totalPages,
		TotalItems:      total,
		ItemsPerPage:    page.Limit,
		HasNextPage:     offset < total && total-offset > page.Limit,
		HasPreviousPage: page.Number > 1,
	}
}
