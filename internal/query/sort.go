package query

import (
	"cmp"
	"sort"
	"strings"

	"github.com/noah-isme/campushub-api/internal/models"
)

// Sort orders items in place by the requested field. The sort is stable, so
// resources with equal keys keep their incoming (insertion) order in both
// directions.
func Sort(items []models.Resource, by models.ResourceSort) {
	by = by.Normalize()
	desc := by.Order == models.SortDesc
	sort.SliceStable(items, func(i, j int) bool {
		c := compareField(items[i], items[j], by.Field)
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func compareField(a, b models.Resource, field models.SortField) int {
	switch field {
	case models.SortTitle:
		return strings.Compare(a.Title, b.Title)
	case models.SortDownloadCount:
		return cmp.Compare(a.DownloadCount, b.DownloadCount)
	case models.SortSemester:
		return cmp.Compare(a.Semester, b.Semester)
	default:
		return a.UploadedAt.Compare(b.UploadedAt)
	}
}
