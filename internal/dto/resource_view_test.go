package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campushub-api/internal/models"
)

func TestNewResourceViewHidesInternals(t *testing.T) {
	fileID := "obj-1"
	fileURL := "https://bucket/raw/obj-1"
	fileName := "ds.pdf"
	mimeType := "application/pdf"
	size := int64(2048)
	r := models.Resource{
		ID: "id-1", Seq: 42, Branch: "CSE", Semester: 3, Subject: "Data Structures",
		ResourceType: models.ResourceTypeNotes, Title: "DS Notes",
		FileID: &fileID, FileURL: &fileURL, FileName: &fileName, MimeType: &mimeType, FileSize: &size,
		IsActive: true, UploadedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.FixedZone("IST", 19800)),
	}

	raw, err := json.Marshal(NewResourceView(r))
	require.NoError(t, err)
	body := string(raw)
	assert.NotContains(t, body, "seq")
	assert.NotContains(t, body, "isActive")
	assert.NotContains(t, body, "fileId")
	assert.Contains(t, body, `"uploadedAt":"2025-03-01T04:30:00Z"`)
	assert.Contains(t, body, `"tags":[]`)
	assert.Contains(t, body, `"format":"pdf"`)
}

func TestNewResourceViewSyllabusHasNoFileInfo(t *testing.T) {
	text := "Unit 1: arrays"
	view := NewResourceView(models.Resource{ResourceType: models.ResourceTypeSyllabus, SyllabusText: &text})
	assert.Nil(t, view.FileInfo)
	require.NotNil(t, view.SyllabusText)
	assert.Equal(t, text, *view.SyllabusText)
}

func TestNewBulkDeleteResult(t *testing.T) {
	name := "a.pdf"
	res := NewBulkDeleteResult([]models.Resource{
		{ID: "1", Title: "A", FileName: &name},
		{ID: "2", Title: "B"},
	})
	assert.Equal(t, 2, res.DeletedCount)
	assert.Equal(t, []DeletedResource{{ID: "1", Title: "A", FileName: "a.pdf"}, {ID: "2", Title: "B"}}, res.DeletedResources)
}

func TestSearchListing(t *testing.T) {
	req := SearchResourcesRequest{Q: "trees", Branch: "CSE", Page: IntPtr(2)}
	listing := req.Listing()
	assert.Equal(t, "trees", listing.Search)
	assert.Equal(t, "CSE", listing.Branch)
	assert.Equal(t, 2, *listing.Page)
}
