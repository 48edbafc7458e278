// Package query implements the in-memory resource listing pipeline:
// filter compilation, stable sorting and page slicing.
package query

import (
	"strings"

	"github.com/noah-isme/campushub-api/internal/models"
)

// Predicate reports whether a resource belongs to a listing.
type Predicate func(models.Resource) bool

// Compile turns a filter into a conjunctive predicate. Inactive resources
// never match.
func Compile(f models.ResourceFilter) Predicate {
	preds := []Predicate{func(r models.Resource) bool { return r.IsActive }}

	if branch := strings.TrimSpace(f.Branch); branch != "" {
		preds = append(preds, func(r models.Resource) bool { return strings.EqualFold(r.Branch, branch) })
	}
	if f.Semester != 0 {
		semester := f.Semester
		preds = append(preds, func(r models.Resource) bool { return r.Semester == semester })
	}
	if subject := strings.ToLower(strings.TrimSpace(f.Subject)); subject != "" {
		preds = append(preds, func(r models.Resource) bool {
			return strings.Contains(strings.ToLower(r.Subject), subject)
		})
	}
	if f.ResourceType != "" {
		resourceType := f.ResourceType
		preds = append(preds, func(r models.Resource) bool { return r.ResourceType == resourceType })
	}
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		preds = append(preds, func(r models.Resource) bool { return matchesSearch(r, term) })
	}

	return func(r models.Resource) bool {
		for _, p := range preds {
			if !p(r) {
				return false
			}
		}
		return true
	}
}

// matchesSearch expects term to be lower-cased.
func matchesSearch(r models.Resource, term string) bool {
	if strings.Contains(strings.ToLower(r.Title), term) ||
		strings.Contains(strings.ToLower(r.Description), term) ||
		strings.Contains(strings.ToLower(r.Subject), term) {
		return true
	}
	for _, tag := range r.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

// Select returns the resources satisfying pred, preserving input order.
func Select(items []models.Resource, pred Predicate) []models.Resource {
	out := make([]models.Resource, 0, len(items))
	for _, item := range items {
		if pred(item) {
			out = append(out, item)
		}
	}
	return out
}
