package model

// Pagination describes the position of a page within a result set.
// TotalPages is ceil(Total/PageSize) and is 0 for an empty set.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes derived pagination state for a result set of
// total items viewed page by page.
func NewPagination(page, pageSize, total int) Pagination {
	if pageSize < 1 {
		pageSize = 1
	}
	totalPages := (total + pageSize - 1) / pageSize
	return Pagination{
		Page:       ClampPage(page, totalPages),
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}

// ClampPage forces page into [1, max(1, totalPages)].
func ClampPage(page, totalPages int) int {
	if totalPages < 1 {
		return 1
	}
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}
