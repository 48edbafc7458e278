package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campushub-api/internal/dto"
	"github.com/noah-isme/campushub-api/internal/models"
	"github.com/noah-isme/campushub-api/internal/repository"
	appErrors "github.com/noah-isme/campushub-api/pkg/errors"
	"github.com/noah-isme/campushub-api/pkg/storage"
)

const samplePDF = "%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF\n"

type stubObjectStore struct {
	mu        sync.Mutex
	inputs    map[string]storage.PutInput
	bodies    map[string][]byte
	deleted   []string
	putErr    error
	deleteErr error
	statErr   error
	urlErr    error
	seq       int
}

func newStubObjectStore() *stubObjectStore {
	return &stubObjectStore{inputs: map[string]storage.PutInput{}, bodies: map[string][]byte{}}
}

func (s *stubObjectStore) Provider() string { return "stub" }

func (s *stubObjectStore) Put(_ context.Context, in storage.PutInput) (*storage.PutResult, error) {
	if s.putErr != nil {
		return nil, s.putErr
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	id := "obj-" + strconv.Itoa(s.seq)
	s.inputs[id] = in
	s.bodies[id] = body
	return &storage.PutResult{ID: id, Key: "campushub/raw/" + id, Category: storage.CategoryRaw, URL: "https://cdn.test/" + id, Size: int64(len(body))}, nil
}

func (s *stubObjectStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, id)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.bodies[id]; !ok {
		return storage.ErrObjectNotFound
	}
	delete(s.bodies, id)
	return nil
}

func (s *stubObjectStore) Stat(_ context.Context, id string) (*storage.ObjectInfo, error) {
	if s.statErr != nil {
		return nil, s.statErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	body, ok := s.bodies[id]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return &storage.ObjectInfo{ID: id, Category: storage.CategoryRaw, Size: int64(len(body)), ContentType: "application/pdf"}, nil
}

func (s *stubObjectStore) DownloadURL(_ context.Context, id, fileName string) (string, error) {
	if s.urlErr != nil {
		return "", s.urlErr
	}
	return "https://cdn.test/" + id + "?download=" + fileName, nil
}

func (s *stubObjectStore) Usage(context.Context) (*storage.Usage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var used int64
	for _, b := range s.bodies {
		used += int64(len(b))
	}
	return &storage.Usage{Provider: "stub", Objects: int64(len(s.bodies)), BytesUsed: used}, nil
}

type invalidatorSpy struct{ calls int }

func (s *invalidatorSpy) InvalidateStats(context.Context) { s.calls++ }

type failingCreateRepo struct {
	*repository.MemoryResourceRepository
}

func (failingCreateRepo) Create(context.Context, *models.Resource) error {
	return errors.New("insert failed")
}

func newResourceServiceForTest(t *testing.T, cfg ResourceServiceConfig) (*ResourceService, *repository.MemoryResourceRepository, *stubObjectStore, *invalidatorSpy) {
	t.Helper()
	repo := repository.NewMemoryResourceRepository()
	objects := newStubObjectStore()
	spy := &invalidatorSpy{}
	svc := NewResourceService(repo, objects, spy, NewMetricsService(), nil, zap.NewNop(), cfg)
	return svc, repo, objects, spy
}

func notesRequest() dto.UploadResourceRequest {
	return dto.UploadResourceRequest{
		Branch:       "cse",
		Semester:     3,
		Subject:      " Data Structures ",
		Title:        "DS Unit 1 Notes",
		Description:  "Linked lists and stacks",
		Tags:         []string{"lists, stacks", "Lists"},
		ResourceType: models.ResourceTypeNotes,
		UploadedBy:   "admin@campushub.local",
	}
}

func pdfUpload(content string) *ResourceUpload {
	return &ResourceUpload{
		FileName:    "ds-notes.pdf",
		Size:        int64(len(content)),
		ContentType: "application/pdf",
		Content:     bytes.NewReader([]byte(content)),
	}
}

func requireAppError(t *testing.T, err error, status int) *appErrors.Error {
	t.Helper()
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, status, appErr.Status)
	return appErr
}

func mustCreateText(t *testing.T, svc *ResourceService, req dto.UploadResourceRequest) *dto.ResourceView {
	t.Helper()
	view, err := svc.CreateText(context.Background(), req)
	require.NoError(t, err)
	return view
}

func syllabusRequest(branch string, semester int, subject, title string) dto.UploadResourceRequest {
	return dto.UploadResourceRequest{
		Branch:       branch,
		Semester:     semester,
		Subject:      subject,
		Title:        title,
		ResourceType: models.ResourceTypeSyllabus,
		SyllabusText: "Unit 1: foundations",
	}
}

func TestUploadFileStoresObjectAndRecord(t *testing.T) {
	svc, repo, objects, spy := newResourceServiceForTest(t, ResourceServiceConfig{})

	view, err := svc.UploadFile(context.Background(), notesRequest(), pdfUpload(samplePDF))
	require.NoError(t, err)

	assert.Equal(t, "CSE", view.Branch)
	assert.Equal(t, "Data Structures", view.Subject)
	assert.Equal(t, []string{"lists", "stacks"}, view.Tags)
	require.NotNil(t, view.FileInfo)
	assert.Equal(t, "ds-notes.pdf", view.FileInfo.FileName)
	assert.Equal(t, "application/pdf", view.FileInfo.MimeType)
	assert.Equal(t, int64(len(samplePDF)), view.FileInfo.FileSize)
	assert.Equal(t, 1, spy.calls)

	require.Len(t, objects.inputs, 1)
	for id, in := range objects.inputs {
		assert.Equal(t, samplePDF, string(objects.bodies[id]), "body must be rewound after sniffing")
		assert.Equal(t, "CSE", in.Metadata["branch"])
		assert.Equal(t, "3", in.Metadata["semester"])
		assert.Equal(t, "notes", in.Metadata["resourceType"])
		assert.Equal(t, []string{"CSE", "semester_3", "notes", "lists", "stacks"}, in.Tags)
	}

	stored, err := repo.FindByID(context.Background(), view.ID)
	require.NoError(t, err)
	require.NoError(t, stored.CheckVariant())
	assert.Equal(t, "admin@campushub.local", stored.UploadedBy)
}

func TestUploadFileRejectsNonPDF(t *testing.T) {
	svc, _, objects, _ := newResourceServiceForTest(t, ResourceServiceConfig{})

	upload := pdfUpload("just some plain text, not a pdf")
	_, err := svc.UploadFile(context.Background(), notesRequest(), upload)
	requireAppError(t, err, http.StatusBadRequest)
	assert.Empty(t, objects.inputs)
}

func TestUploadFileRejectsMismatchedDeclaredType(t *testing.T) {
	svc, _, objects, _ := newResourceServiceForTest(t, ResourceServiceConfig{})

	upload := pdfUpload(samplePDF)
	upload.ContentType = "image/png"
	_, err := svc.UploadFile(context.Background(), notesRequest(), upload)
	requireAppError(t, err, http.StatusBadRequest)
	assert.Empty(t, objects.inputs)
}

func TestUploadFileTooLarge(t *testing.T) {
	svc, _, objects, _ := newResourceServiceForTest(t, ResourceServiceConfig{MaxFileSize: 10})

	_, err := svc.UploadFile(context.Background(), notesRequest(), pdfUpload(samplePDF))
	appErr := requireAppError(t, err, http.StatusBadRequest)
	assert.Equal(t, "File size too large. Maximum size is 10 bytes.", appErr.Message)
	assert.Empty(t, objects.inputs)
}

func TestUploadFileRequiresFile(t *testing.T) {
	svc, _, _, _ := newResourceServiceForTest(t, ResourceServiceConfig{})

	_, err := svc.UploadFile(context.Background(), notesRequest(), nil)
	appErr := requireAppError(t, err, http.StatusBadRequest)
	assert.Equal(t, "No file uploaded", appErr.Message)
}

func TestUploadFileValidationReportsFields(t *testing.T) {
	svc, _, objects, _ := newResourceServiceForTest(t, ResourceServiceConfig{})

	req := notesRequest()
	req.Branch = "XYZ"
	req.Semester = 9
	req.Title = "ab"
	_, err := svc.UploadFile(context.Background(), req, pdfUpload(samplePDF))
	appErr := requireAppError(t, err, http.StatusBadRequest)

	fields := map[string]string{}
	for _, f := range appErr.Fields {
		fields[f.Field] = f.Message
	}
	assert.Contains(t, fields, "branch")
	assert.Contains(t, fields, "semester")
	assert.Equal(t, "title must be at least 3 characters", fields["title"])
	assert.Empty(t, objects.inputs)
}

func TestUploadFileStorageFailure(t *testing.T) {
	svc, repo, objects, _ := newResourceServiceForTest(t, ResourceServiceConfig{})
	objects.putErr = errors.New("bucket unavailable")

	_, err := svc.UploadFile(context.Background(), notesRequest(), pdfUpload(samplePDF))
	appErr := requireAppError(t, err, http.StatusInternalServerError)
	assert.Equal(t, appErrors.ErrStorage.Code, appErr.Code)

	items, err := repo.ListAll(context.Background(), models.ResourceFilter{}, models.DefaultSort)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestUploadFileRemovesObjectWhenRecordFails(t *testing.T) {
	objects := newStubObjectStore()
	repo := failingCreateRepo{repository.NewMemoryResourceRepository()}
	svc := NewResourceService(repo, objects, nil, nil, nil, nil, ResourceServiceConfig{})

	_, err := svc.UploadFile(context.Background(), notesRequest(), pdfUpload(samplePDF))
	requireAppError(t, err, http.StatusInternalServerError)
	require.Len(t, objects.deleted, 1)
	assert.Empty(t, objects.bodies)
}

func TestCreateTextSyllabusRequiresText(t *testing.T) {
	svc, repo, _, spy := newResourceServiceForTest(t, ResourceServiceConfig{})

	req := syllabusRequest("CSE", 1, "Mathematics", "Maths syllabus")
	req.SyllabusText = "   "
	_, err := svc.CreateText(context.Background(), req)
	appErr := requireAppError(t, err, http.StatusBadRequest)
	require.Len(t, appErr.Fields, 1)
	assert.Equal(t, "syllabusText", appErr.Fields[0].Field)
	assert.Zero(t, spy.calls)

	items, err := repo.ListAll(context.Background(), models.ResourceFilter{}, models.DefaultSort)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCreateTextContentLink(t *testing.T) {
	svc, _, _, _ := newResourceServiceForTest(t, ResourceServiceConfig{})

	req := dto.UploadResourceRequest{
		Branch:       "ECE",
		Semester:     5,
		Subject:      "Signals",
		Title:        "Fourier lecture",
		ResourceType: models.ResourceTypeContent,
		ContentLink:  "ftp://example.com/lecture",
	}
	_, err := svc.CreateText(context.Background(), req)
	requireAppError(t, err, http.StatusBadRequest)

	req.ContentLink = "https://example.com/lecture"
	req.SyllabusText = "ignored for content"
	view := mustCreateText(t, svc, req)
	require.NotNil(t, view.ContentLink)
	assert.Equal(t, "https://example.com/lecture", *view.ContentLink)
	assert.Nil(t, view.SyllabusText)
	assert.Nil(t, view.FileInfo)
}

func TestCreateTextRejectsFileTypes(t *testing.T) {
	svc, _, _, _ := newResourceServiceForTest(t, ResourceServiceConfig{})

	_, err := svc.CreateText(context.Background(), notesRequest())
	requireAppError(t, err, http.StatusBadRequest)
}

func TestListFiltersSortsAndPaginates(t *testing.T) {
	svc, _, _, _ := newResourceServiceForTest(t, ResourceServiceConfig{})
	mustCreateText(t, svc, syllabusRequest("CSE", 3, "Data Structures", "Beta"))
	mustCreateText(t, svc, syllabusRequest("CSE", 3, "Data Structures", "Alpha"))
	mustCreateText(t, svc, syllabusRequest("CSE", 4, "Operating Systems", "Gamma"))
	mustCreateText(t, svc, syllabusRequest("ECE", 3, "Signals", "Delta"))

	list, err := svc.List(context.Background(), dto.ListResourcesRequest{
		Branch:    "cse",
		Semester:  dto.IntPtr(3),
		SortBy:    "title",
		SortOrder: "asc",
		Limit:     dto.IntPtr(1),
	})
	require.NoError(t, err)
	require.Len(t, list.Resources, 1)
	assert.Equal(t, "Alpha", list.Resources[0].Title)
	assert.Equal(t, models.Pagination{CurrentPage: 1, TotalPages: 2, TotalItems: 2, ItemsPerPage: 1, HasNextPage: true}, list.Pagination)
	assert.Equal(t, "CSE", list.Filters.Branch)
	assert.Equal(t, dto.Sorting{SortBy: models.SortTitle, SortOrder: models.SortAsc}, list.Sorting)

	list, err = svc.List(context.Background(), dto.ListResourcesRequest{Page: dto.IntPtr(9)})
	require.NoError(t, err)
	assert.Empty(t, list.Resources)
	assert.False(t, list.Pagination.HasNextPage)
	assert.Equal(t, 4, list.Pagination.TotalItems)
}

func TestListRejectsBadParams(t *testing.T) {
	svc, _, _, _ := newResourceServiceForTest(t, ResourceServiceConfig{})

	_, err := svc.List(context.Background(), dto.ListResourcesRequest{Limit: dto.IntPtr(500)})
	requireAppError(t, err, http.StatusBadRequest)

	_, err = svc.List(context.Background(), dto.ListResourcesRequest{SortBy: "size"})
	requireAppError(t, err, http.StatusBadRequest)
}

func TestSearchEchoesQuery(t *testing.T) {
	svc, _, _, _ := newResourceServiceForTest(t, ResourceServiceConfig{})
	mustCreateText(t, svc, syllabusRequest("CSE", 3, "Data Structures", "Trees and graphs"))
	mustCreateText(t, svc, syllabusRequest("CSE", 3, "Networks", "TCP basics"))

	list, err := svc.Search(context.Background(), dto.SearchResourcesRequest{Q: " graphs "})
	require.NoError(t, err)
	assert.Equal(t, "graphs", list.SearchQuery)
	require.Len(t, list.Resources, 1)
	assert.Equal(t, "Trees and graphs", list.Resources[0].Title)

	_, err = svc.Search(context.Background(), dto.SearchResourcesRequest{Q: "x"})
	requireAppError(t, err, http.StatusBadRequest)
}

func TestGetRecordsAccessAndStorageInfo(t *testing.T) {
	svc, _, _, _ := newResourceServiceForTest(t, ResourceServiceConfig{})
	view, err := svc.UploadFile(context.Background(), notesRequest(), pdfUpload(samplePDF))
	require.NoError(t, err)
	assert.Nil(t, view.LastAccessed)

	detail, err := svc.Get(context.Background(), view.ID)
	require.NoError(t, err)
	assert.NotNil(t, detail.LastAccessed)
	require.NotNil(t, detail.StorageInfo)
	assert.Equal(t, int64(len(samplePDF)), detail.StorageInfo.Size)
}

func TestGetStorageFailureIsNotFatal(t *testing.T) {
	svc, _, objects, _ := newResourceServiceForTest(t, ResourceServiceConfig{})
	view, err := svc.UploadFile(context.Background(), notesRequest(), pdfUpload(samplePDF))
	require.NoError(t, err)
	objects.statErr = errors.New("timeout")

	detail, err := svc.Get(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Nil(t, detail.StorageInfo)
}

func TestGetErrors(t *testing.T) {
	svc, _, _, _ := newResourceServiceForTest(t, ResourceServiceConfig{})

	_, err := svc.Get(context.Background(), "not-a-uuid")
	requireAppError(t, err, http.StatusBadRequest)

	_, err = svc.Get(context.Background(), uuid.NewString())
	requireAppError(t, err, http.StatusNotFound)
}

func TestDownloadIncrementsCount(t *testing.T) {
	svc, repo, _, _ := newResourceServiceForTest(t, ResourceServiceConfig{})
	clock := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	view, err := svc.UploadFile(context.Background(), notesRequest(), pdfUpload(samplePDF))
	require.NoError(t, err)

	first, err := svc.Download(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.DownloadCount)
	assert.Contains(t, first.DownloadURL, "download=ds-notes.pdf")
	assert.Equal(t, "ds-notes.pdf", first.FileName)
	afterFirst, err := repo.FindByID(context.Background(), view.ID)
	require.NoError(t, err)
	require.NotNil(t, afterFirst.LastAccessed)

	second, err := svc.Download(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.DownloadCount)
	afterSecond, err := repo.FindByID(context.Background(), view.ID)
	require.NoError(t, err)
	require.NotNil(t, afterSecond.LastAccessed)
	assert.False(t, afterSecond.LastAccessed.Before(*afterFirst.LastAccessed))
	assert.True(t, afterSecond.LastAccessed.After(*afterFirst.LastAccessed))

	detail, err := svc.Get(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), detail.DownloadCount)
}

func TestDownloadFallsBackToStoredURL(t *testing.T) {
	svc, _, objects, _ := newResourceServiceForTest(t, ResourceServiceConfig{})
	view, err := svc.UploadFile(context.Background(), notesRequest(), pdfUpload(samplePDF))
	require.NoError(t, err)
	objects.urlErr = errors.New("presign failed")

	desc, err := svc.Download(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, view.FileInfo.FileURL, desc.DownloadURL)
}

func TestDownloadTextVariants(t *testing.T) {
	svc, _, _, _ := newResourceServiceForTest(t, ResourceServiceConfig{})
	view := mustCreateText(t, svc, syllabusRequest("IT", 2, "Databases", "DBMS syllabus"))

	desc, err := svc.Download(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, "Unit 1: foundations", desc.SyllabusText)
	assert.Empty(t, desc.DownloadURL)
	assert.Equal(t, int64(1), desc.DownloadCount)
}

func TestDownloadWithoutStoredFile(t *testing.T) {
	svc, repo, _, _ := newResourceServiceForTest(t, ResourceServiceConfig{})
	url := "https://cdn.test/legacy"
	res := &models.Resource{Branch: "CSE", Semester: 1, Subject: "Physics", Title: "Legacy notes", ResourceType: models.ResourceTypeNotes, FileURL: &url}
	require.NoError(t, repo.Create(context.Background(), res))

	_, err := svc.Download(context.Background(), res.ID)
	appErr := requireAppError(t, err, http.StatusNotFound)
	assert.Equal(t, "File not available for this resource", appErr.Message)
}

func TestDeleteRemovesRecordAndObject(t *testing.T) {
	svc, repo, objects, spy := newResourceServiceForTest(t, ResourceServiceConfig{})
	view, err := svc.UploadFile(context.Background(), notesRequest(), pdfUpload(samplePDF))
	require.NoError(t, err)

	summary, err := svc.Delete(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.DeletedResource{ID: view.ID, Title: view.Title, FileName: "ds-notes.pdf"}, *summary)
	assert.Empty(t, objects.bodies)
	assert.Equal(t, 2, spy.calls)

	_, err = repo.FindByID(context.Background(), view.ID)
	require.Error(t, err)
}

func TestDeleteWithFailingObjectStoreStillRemovesRecord(t *testing.T) {
	svc, repo, objects, _ := newResourceServiceForTest(t, ResourceServiceConfig{})
	view, err := svc.UploadFile(context.Background(), notesRequest(), pdfUpload(samplePDF))
	require.NoError(t, err)
	objects.deleteErr = errors.New("object store down")

	_, err = svc.Delete(context.Background(), view.ID)
	require.NoError(t, err)

	items, err := repo.ListAll(context.Background(), models.ResourceFilter{}, models.DefaultSort)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDeleteMissing(t *testing.T) {
	svc, repo, _, _ := newResourceServiceForTest(t, ResourceServiceConfig{})
	mustCreateText(t, svc, syllabusRequest("CSE", 1, "Chemistry", "Chem syllabus"))

	_, err := svc.Delete(context.Background(), uuid.NewString())
	requireAppError(t, err, http.StatusNotFound)

	items, err := repo.ListAll(context.Background(), models.ResourceFilter{}, models.DefaultSort)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestSoftDeleteHidesRecord(t *testing.T) {
	svc, repo, _, _ := newResourceServiceForTest(t, ResourceServiceConfig{SoftDelete: true})
	view := mustCreateText(t, svc, syllabusRequest("ME", 6, "Thermodynamics", "Thermo syllabus"))

	_, err := svc.Delete(context.Background(), view.ID)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), view.ID)
	requireAppError(t, err, http.StatusNotFound)

	removed, err := repo.Delete(context.Background(), []string{view.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed, "soft delete keeps the row")
}

func TestBulkDelete(t *testing.T) {
	svc, repo, _, _ := newResourceServiceForTest(t, ResourceServiceConfig{})
	a := mustCreateText(t, svc, syllabusRequest("CSE", 1, "Maths", "Maths I"))
	b := mustCreateText(t, svc, syllabusRequest("CSE", 2, "Maths", "Maths II"))
	c := mustCreateText(t, svc, syllabusRequest("CSE", 3, "Maths", "Maths III"))

	result, err := svc.BulkDelete(context.Background(), dto.BulkDeleteRequest{ResourceIDs: []string{a.ID, b.ID, b.ID, uuid.NewString()}})
	require.NoError(t, err)
	assert.Equal(t, 2, result.DeletedCount)
	require.Len(t, result.DeletedResources, 2)
	assert.Equal(t, a.ID, result.DeletedResources[0].ID)

	items, err := repo.ListAll(context.Background(), models.ResourceFilter{}, models.DefaultSort)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, c.ID, items[0].ID)
}

func TestBulkDeleteErrors(t *testing.T) {
	svc, _, _, _ := newResourceServiceForTest(t, ResourceServiceConfig{})

	_, err := svc.BulkDelete(context.Background(), dto.BulkDeleteRequest{})
	requireAppError(t, err, http.StatusBadRequest)

	_, err = svc.BulkDelete(context.Background(), dto.BulkDeleteRequest{ResourceIDs: []string{"nope"}})
	requireAppError(t, err, http.StatusBadRequest)

	_, err = svc.BulkDelete(context.Background(), dto.BulkDeleteRequest{ResourceIDs: []string{uuid.NewString()}})
	appErr := requireAppError(t, err, http.StatusNotFound)
	assert.Equal(t, "No resources found for deletion", appErr.Message)
}

func TestResourceQueryFromDefaults(t *testing.T) {
	q := ResourceQueryFrom(dto.ListResourcesRequest{SortBy: "createdAt"})
	assert.Equal(t, models.DefaultSort, q.Sort)
	assert.Equal(t, models.Page{Number: 1, Limit: models.DefaultPageLimit}, q.Page)
}
