package service

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/campushub-api/internal/dto"
	"github.com/noah-isme/campushub-api/internal/models"
	appErrors "github.com/noah-isme/campushub-api/pkg/errors"
	"github.com/noah-isme/campushub-api/pkg/storage"
)

const topContentSize = 10

type catalogScanner interface {
	ListAll(ctx context.Context, filter models.ResourceFilter, sort models.ResourceSort) ([]models.Resource, error)
}

type usageReporter interface {
	Usage(ctx context.Context) (*storage.Usage, error)
}

// StatsService computes catalogue aggregates and reference data.
type StatsService struct {
	repo      catalogScanner
	usage     usageReporter
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	ttl       time.Duration
	now       func() time.Time
}

// NewStatsService constructs the service. cache may be nil.
func NewStatsService(repo catalogScanner, usage usageReporter, cache *CacheService, validate *validator.Validate, logger *zap.Logger, ttl time.Duration) *StatsService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{
		repo:      repo,
		usage:     usage,
		cache:     cache,
		validator: validate,
		logger:    logger,
		ttl:       ttl,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Overview aggregates the active catalogue and the object store usage.
func (s *StatsService) Overview(ctx context.Context) (*models.ResourceStats, error) {
	key := StatsKey("overview")
	var cached models.ResourceStats
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	var (
		items []models.Resource
		usage *storage.Usage
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.repo.ListAll(gctx, models.ResourceFilter{}, models.DefaultSort)
		return err
	})
	if s.usage != nil {
		g.Go(func() error {
			u, err := s.usage.Usage(gctx)
			if err != nil {
				s.logger.Warn("failed to fetch storage usage", zap.Error(err))
				return nil
			}
			usage = u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to fetch resource statistics")
	}

	stats := buildStats(items, usage)
	stats.GeneratedAt = s.now()
	_ = s.cache.Set(ctx, key, stats, s.ttl)
	return stats, nil
}

// Branches lists the branch catalogue with active resource counts.
func (s *StatsService) Branches(ctx context.Context) ([]models.BranchSummary, error) {
	key := StatsKey("branches")
	var cached []models.BranchSummary
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	items, err := s.repo.ListAll(ctx, models.ResourceFilter{}, models.DefaultSort)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to fetch branches")
	}
	counts := make(map[string]int, len(models.Branches))
	for _, item := range items {
		counts[strings.ToUpper(item.Branch)]++
	}
	out := make([]models.BranchSummary, 0, len(models.Branches))
	for _, b := range models.Branches {
		out = append(out, models.BranchSummary{Branch: b, ResourceCount: counts[b.Code]})
	}
	_ = s.cache.Set(ctx, key, out, s.ttl)
	return out, nil
}

// Subjects aggregates subject names from active resources.
func (s *StatsService) Subjects(ctx context.Context, req dto.SubjectsRequest) (*models.SubjectList, error) {
	req.Branch = strings.ToUpper(strings.TrimSpace(req.Branch))
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	filter := models.ResourceFilter{Branch: req.Branch}
	semesterKey := ""
	if req.Semester != nil {
		filter.Semester = *req.Semester
		semesterKey = strconv.Itoa(*req.Semester)
	}

	key := StatsKey("subjects", req.Branch, semesterKey)
	var cached models.SubjectList
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	// oldest first, so the earliest spelling of a subject names the group
	items, err := s.repo.ListAll(ctx, filter, models.ResourceSort{Field: models.SortUploadedAt, Order: models.SortAsc})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to fetch subjects")
	}
	subjects := aggregateSubjects(items)
	list := &models.SubjectList{
		Subjects:      subjects,
		Filters:       models.SubjectFilter{Branch: req.Branch, Semester: filter.Semester},
		TotalSubjects: len(subjects),
	}
	_ = s.cache.Set(ctx, key, list, s.ttl)
	return list, nil
}

func buildStats(items []models.Resource, usage *storage.Usage) *models.ResourceStats {
	stats := &models.ResourceStats{
		Breakdown: models.StatsBreakdown{
			ByBranch:   map[string]models.StatsBucket{},
			ByType:     map[string]models.StatsBucket{},
			BySemester: map[string]models.StatsBucket{},
		},
		TopContent: models.TopContent{
			MostDownloaded: []models.TopResource{},
			RecentUploads:  []models.TopResource{},
		},
	}
	for _, item := range items {
		stats.Overview.TotalResources++
		stats.Overview.TotalDownloads += item.DownloadCount
		if item.FileSize != nil {
			stats.Overview.TotalSize += *item.FileSize
		}
		addBucket(stats.Breakdown.ByBranch, item.Branch, item.DownloadCount)
		addBucket(stats.Breakdown.ByType, string(item.ResourceType), item.DownloadCount)
		addBucket(stats.Breakdown.BySemester, strconv.Itoa(item.Semester), item.DownloadCount)
	}
	if n := stats.Overview.TotalResources; n > 0 {
		stats.Overview.AverageDownloads = int64(math.Round(float64(stats.Overview.TotalDownloads) / float64(n)))
		stats.Overview.AverageSize = int64(math.Round(float64(stats.Overview.TotalSize) / float64(n)))
	}

	// items arrive newest first
	for i := 0; i < len(items) && i < topContentSize; i++ {
		stats.TopContent.RecentUploads = append(stats.TopContent.RecentUploads, topResource(items[i]))
	}
	byDownloads := make([]models.Resource, len(items))
	copy(byDownloads, items)
	sort.SliceStable(byDownloads, func(i, j int) bool {
		return byDownloads[i].DownloadCount > byDownloads[j].DownloadCount
	})
	for i := 0; i < len(byDownloads) && i < topContentSize; i++ {
		stats.TopContent.MostDownloaded = append(stats.TopContent.MostDownloaded, topResource(byDownloads[i]))
	}

	if usage != nil {
		stats.Storage = &models.StorageUsage{
			Provider:   usage.Provider,
			Objects:    usage.Objects,
			BytesUsed:  usage.BytesUsed,
			QuotaBytes: usage.QuotaBytes,
		}
	}
	return stats
}

func addBucket(m map[string]models.StatsBucket, key string, downloads int64) {
	b := m[key]
	b.Count++
	b.Downloads += downloads
	m[key] = b
}

func topResource(r models.Resource) models.TopResource {
	return models.TopResource{
		ID:            r.ID,
		Title:         r.Title,
		Branch:        r.Branch,
		Semester:      r.Semester,
		ResourceType:  r.ResourceType,
		DownloadCount: r.DownloadCount,
		UploadedAt:    r.UploadedAt.UTC(),
	}
}

type subjectAcc struct {
	summary   models.SubjectSummary
	branches  map[string]struct{}
	semesters map[int]struct{}
	types     map[models.ResourceType]struct{}
}

func aggregateSubjects(items []models.Resource) []models.SubjectSummary {
	accs := map[string]*subjectAcc{}
	order := []string{}
	for _, item := range items {
		key := strings.ToLower(strings.TrimSpace(item.Subject))
		acc, ok := accs[key]
		if !ok {
			acc = &subjectAcc{
				summary:   models.SubjectSummary{Name: strings.TrimSpace(item.Subject)},
				branches:  map[string]struct{}{},
				semesters: map[int]struct{}{},
				types:     map[models.ResourceType]struct{}{},
			}
			accs[key] = acc
			order = append(order, key)
		}
		acc.summary.ResourceCount++
		acc.branches[item.Branch] = struct{}{}
		acc.semesters[item.Semester] = struct{}{}
		acc.types[item.ResourceType] = struct{}{}
	}

	out := make([]models.SubjectSummary, 0, len(order))
	for _, key := range order {
		acc := accs[key]
		summary := acc.summary
		summary.Branches = make([]string, 0, len(acc.branches))
		for b := range acc.branches {
			summary.Branches = append(summary.Branches, b)
		}
		sort.Strings(summary.Branches)
		summary.Semesters = make([]int, 0, len(acc.semesters))
		for sem := range acc.semesters {
			summary.Semesters = append(summary.Semesters, sem)
		}
		sort.Ints(summary.Semesters)
		summary.ResourceTypes = make([]models.ResourceType, 0, len(acc.types))
		for _, t := range models.ResourceTypes {
			if _, ok := acc.types[t]; ok {
				summary.ResourceTypes = append(summary.ResourceTypes, t)
			}
		}
		out = append(out, summary)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ResourceCount != out[j].ResourceCount {
			return out[i].ResourceCount > out[j].ResourceCount
		}
		return out[i].Name < out[j].Name
	})
	return out
}
