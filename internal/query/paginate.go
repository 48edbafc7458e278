package query

import "github.com/noah-isme/campushub-api/internal/models"

// NormalizePage applies defaults and clamps the limit.
func NormalizePage(p models.Page) models.Page {
	return p.Normalize()
}

// Paginate returns the requested page of items. A page past the end is empty.
func Paginate(items []models.Resource, p models.Page) ([]models.Resource, models.Pagination) {
	p = NormalizePage(p)
	total := len(items)
	start := p.Offset()
	if start > total {
		start = total
	}
	end := total
	if total-start > p.Limit {
		end = start + p.Limit
	}
	return items[start:end], models.NewPagination(p, total)
}

// Run executes filter, sort and paginate over a snapshot ordered by insertion.
func Run(items []models.Resource, q models.ResourceQuery) ([]models.Resource, models.Pagination) {
	selected := Select(items, Compile(q.Filter))
	Sort(selected, q.Sort)
	return Paginate(selected, q.Page)
}
