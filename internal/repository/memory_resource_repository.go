package repository

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/noah-isme/campushub-api/internal/models"
	"github.com/noah-isme/campushub-api/internal/query"
)

// MemoryResourceRepository keeps resources in process memory. It backs the
// memory catalog driver and end-to-end tests.
type MemoryResourceRepository struct {
	mu    sync.RWMutex
	seq   int64
	items map[string]*models.Resource
	order []string
	now   func() time.Time
}

// NewMemoryResourceRepository builds an empty in-memory catalog.
func NewMemoryResourceRepository() *MemoryResourceRepository {
	return &MemoryResourceRepository{
		items: make(map[string]*models.Resource),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a copy of res and back-fills its id, sequence and timestamps.
func (r *MemoryResourceRepository) Create(ctx context.Context, res *models.Resource) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	r.seq++
	res.Seq = r.seq
	if res.UploadedAt.IsZero() {
		res.UploadedAt = r.now()
	}
	res.UpdatedAt = res.UploadedAt
	res.IsActive = true
	res.DownloadCount = 0
	if res.Tags == nil {
		res.Tags = pq.StringArray{}
	}

	stored := clone(*res)
	r.items[res.ID] = &stored
	r.order = append(r.order, res.ID)
	return nil
}

// FindByID returns an active resource by id.
func (r *MemoryResourceRepository) FindByID(ctx context.Context, id string) (*models.Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok || !item.IsActive {
		return nil, sql.ErrNoRows
	}
	res := clone(*item)
	return &res, nil
}

// FindByIDs returns the active resources among ids in insertion order.
func (r *MemoryResourceRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Resource, 0, len(ids))
	for _, id := range r.order {
		if _, ok := wanted[id]; !ok {
			continue
		}
		if item, ok := r.items[id]; ok && item.IsActive {
			out = append(out, clone(*item))
		}
	}
	return out, nil
}

// List runs the listing pipeline over a snapshot of the catalog.
func (r *MemoryResourceRepository) List(ctx context.Context, q models.ResourceQuery) ([]models.Resource, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	page, meta := query.Run(r.snapshot(), q)
	return page, meta.TotalItems, nil
}

// ListAll returns every active resource matching filter.
func (r *MemoryResourceRepository) ListAll(ctx context.Context, filter models.ResourceFilter, sort models.ResourceSort) ([]models.Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	items := query.Select(r.snapshot(), query.Compile(filter))
	query.Sort(items, sort)
	return items, nil
}

// Touch records a read of the resource.
func (r *MemoryResourceRepository) Touch(ctx context.Context, id string, at time.Time) error {
	_, err := r.mutate(ctx, id, func(item *models.Resource) {
		item.LastAccessed = &at
	})
	return err
}

// IncrementDownload atomically bumps the download counter.
func (r *MemoryResourceRepository) IncrementDownload(ctx context.Context, id string, at time.Time) (*models.Resource, error) {
	return r.mutate(ctx, id, func(item *models.Resource) {
		item.DownloadCount++
		item.LastAccessed = &at
	})
}

// Delete removes resources permanently.
func (r *MemoryResourceRepository) Delete(ctx context.Context, ids []string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for _, id := range ids {
		if _, ok := r.items[id]; ok {
			delete(r.items, id)
			removed++
		}
	}
	if removed > 0 {
		kept := r.order[:0]
		for _, id := range r.order {
			if _, ok := r.items[id]; ok {
				kept = append(kept, id)
			}
		}
		r.order = kept
	}
	return removed, nil
}

// Deactivate hides resources from every read path.
func (r *MemoryResourceRepository) Deactivate(ctx context.Context, ids []string, at time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var changed int64
	for _, id := range ids {
		if item, ok := r.items[id]; ok && item.IsActive {
			item.IsActive = false
			item.UpdatedAt = at
			changed++
		}
	}
	return changed, nil
}

func (r *MemoryResourceRepository) mutate(ctx context.Context, id string, fn func(*models.Resource)) (*models.Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok || !item.IsActive {
		return nil, sql.ErrNoRows
	}
	fn(item)
	res := clone(*item)
	return &res, nil
}

func (r *MemoryResourceRepository) snapshot() []models.Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Resource, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, clone(*r.items[id]))
	}
	return out
}

func clone(res models.Resource) models.Resource {
	if res.Tags != nil {
		tags := make(pq.StringArray, len(res.Tags))
		copy(tags, res.Tags)
		res.Tags = tags
	}
	if res.LastAccessed != nil {
		t := *res.LastAccessed
		res.LastAccessed = &t
	}
	return res
}
