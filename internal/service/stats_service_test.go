package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campushub-api/internal/dto"
	"github.com/noah-isme/campushub-api/internal/models"
	"github.com/noah-isme/campushub-api/internal/repository"
	appErrors "github.com/noah-isme/campushub-api/pkg/errors"
	"github.com/noah-isme/campushub-api/pkg/storage"
)

type memoryCache struct {
	values  map[string]interface{}
	deleted []string
}

func newMemoryCache() *memoryCache { return &memoryCache{values: map[string]interface{}{}} }

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	v, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	switch d := dest.(type) {
	case *models.ResourceStats:
		*d = *(v.(*models.ResourceStats))
	case *[]models.BranchSummary:
		*d = v.([]models.BranchSummary)
	case *models.SubjectList:
		*d = *(v.(*models.SubjectList))
	}
	return nil
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.values[key] = value
	return nil
}

func (m *memoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	m.deleted = append(m.deleted, pattern)
	m.values = map[string]interface{}{}
	return nil
}

type failingUsage struct{}

func (failingUsage) Usage(context.Context) (*storage.Usage, error) {
	return nil, errors.New("usage api down")
}

type failingScanner struct{}

func (failingScanner) ListAll(context.Context, models.ResourceFilter, models.ResourceSort) ([]models.Resource, error) {
	return nil, errors.New("db down")
}

func seedCatalog(t *testing.T, repo *repository.MemoryResourceRepository) {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	size := int64(300)
	text := "syllabus"
	url := "https://cdn.test/x"
	fileID := "obj"
	seed := []models.Resource{
		{Branch: "CSE", Semester: 3, Subject: "Data Structures", Title: "DS notes", ResourceType: models.ResourceTypeNotes, FileURL: &url, FileID: &fileID, FileSize: &size},
		{Branch: "CSE", Semester: 3, Subject: "data structures", Title: "DS pyq", ResourceType: models.ResourceTypePYQ, FileURL: &url, FileID: &fileID, FileSize: &size},
		{Branch: "ECE", Semester: 5, Subject: "Signals", Title: "Signals syllabus", ResourceType: models.ResourceTypeSyllabus, SyllabusText: &text},
		{Branch: "IT", Semester: 4, Subject: "Algorithms", Title: "Algo syllabus", ResourceType: models.ResourceTypeSyllabus, SyllabusText: &text},
	}
	for i := range seed {
		seed[i].UploadedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, repo.Create(context.Background(), &seed[i]))
	}
	for i := 0; i < 3; i++ {
		_, err := repo.IncrementDownload(context.Background(), seed[1].ID, base)
		require.NoError(t, err)
	}
	_, err := repo.IncrementDownload(context.Background(), seed[2].ID, base)
	require.NoError(t, err)
}

func TestStatsOverview(t *testing.T) {
	repo := repository.NewMemoryResourceRepository()
	seedCatalog(t, repo)
	objects := newStubObjectStore()
	objects.bodies["obj"] = []byte("12345")
	svc := NewStatsService(repo, objects, nil, nil, zap.NewNop(), time.Minute)

	stats, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StatsOverview{TotalResources: 4, TotalDownloads: 4, TotalSize: 600, AverageDownloads: 1, AverageSize: 150}, stats.Overview)
	assert.Equal(t, models.StatsBucket{Count: 2, Downloads: 3}, stats.Breakdown.ByBranch["CSE"])
	assert.Equal(t, models.StatsBucket{Count: 2, Downloads: 1}, stats.Breakdown.ByType["syllabus"])
	assert.Equal(t, models.StatsBucket{Count: 2, Downloads: 3}, stats.Breakdown.BySemester["3"])
	require.Len(t, stats.TopContent.MostDownloaded, 4)
	assert.Equal(t, "DS pyq", stats.TopContent.MostDownloaded[0].Title)
	assert.Equal(t, "Signals syllabus", stats.TopContent.MostDownloaded[1].Title)
	assert.Equal(t, "Algo syllabus", stats.TopContent.RecentUploads[0].Title)
	require.NotNil(t, stats.Storage)
	assert.Equal(t, int64(1), stats.Storage.Objects)
	assert.Equal(t, int64(5), stats.Storage.BytesUsed)
}

func TestStatsOverviewEmptyCatalogAndUsageFailure(t *testing.T) {
	svc := NewStatsService(repository.NewMemoryResourceRepository(), failingUsage{}, nil, nil, nil, time.Minute)

	stats, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Overview.TotalResources)
	assert.Empty(t, stats.TopContent.MostDownloaded)
	assert.NotNil(t, stats.Breakdown.ByBranch)
	assert.Nil(t, stats.Storage)
}

func TestStatsOverviewCatalogFailure(t *testing.T) {
	svc := NewStatsService(failingScanner{}, nil, nil, nil, nil, time.Minute)

	_, err := svc.Overview(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}

func TestStatsOverviewIsCached(t *testing.T) {
	repo := repository.NewMemoryResourceRepository()
	cacheRepo := newMemoryCache()
	cache := NewCacheService(cacheRepo, NewMetricsService(), time.Minute, zap.NewNop(), true)
	svc := NewStatsService(repo, nil, cache, nil, nil, time.Minute)

	first, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Zero(t, first.Overview.TotalResources)
	assert.Contains(t, cacheRepo.values, StatsKey("overview"))

	seedCatalog(t, repo)
	cached, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Zero(t, cached.Overview.TotalResources)

	cache.InvalidateStats(context.Background())
	assert.Equal(t, []string{"campushub:stats:*"}, cacheRepo.deleted)
	fresh, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, fresh.Overview.TotalResources)
}

func TestStatsBranches(t *testing.T) {
	repo := repository.NewMemoryResourceRepository()
	seedCatalog(t, repo)
	svc := NewStatsService(repo, nil, nil, nil, nil, time.Minute)

	branches, err := svc.Branches(context.Background())
	require.NoError(t, err)
	require.Len(t, branches, len(models.Branches))
	assert.Equal(t, "CSE", branches[0].Code)
	assert.Equal(t, 2, branches[0].ResourceCount)
	counts := map[string]int{}
	for _, b := range branches {
		counts[b.Code] = b.ResourceCount
	}
	assert.Equal(t, 1, counts["ECE"])
	assert.Equal(t, 0, counts["ME"])
}

func TestStatsSubjects(t *testing.T) {
	repo := repository.NewMemoryResourceRepository()
	seedCatalog(t, repo)
	svc := NewStatsService(repo, nil, nil, nil, nil, time.Minute)

	list, err := svc.Subjects(context.Background(), dto.SubjectsRequest{})
	require.NoError(t, err)
	require.Equal(t, 3, list.TotalSubjects)
	top := list.Subjects[0]
	assert.Equal(t, "Data Structures", top.Name)
	assert.Equal(t, 2, top.ResourceCount)
	assert.Equal(t, []string{"CSE"}, top.Branches)
	assert.Equal(t, []int{3}, top.Semesters)
	assert.Equal(t, []models.ResourceType{models.ResourceTypePYQ, models.ResourceTypeNotes}, top.ResourceTypes)
	assert.Equal(t, "Algorithms", list.Subjects[1].Name)
	assert.Equal(t, "Signals", list.Subjects[2].Name)

	filtered, err := svc.Subjects(context.Background(), dto.SubjectsRequest{Branch: "ece", Semester: dto.IntPtr(5)})
	require.NoError(t, err)
	assert.Equal(t, models.SubjectFilter{Branch: "ECE", Semester: 5}, filtered.Filters)
	require.Len(t, filtered.Subjects, 1)

	_, err = svc.Subjects(context.Background(), dto.SubjectsRequest{Branch: "nope"})
	requireAppError(t, err, 400)
}
