package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"time"
)

// Category is the storage class an object was filed under.
type Category string

const (
	CategoryRaw   Category = "raw"
	CategoryImage Category = "image"
	CategoryVideo Category = "video"
)

// FallbackCategories is the probe order used when the category of a stored
// object is unknown. The upstream store does not report it reliably.
var FallbackCategories = []Category{CategoryRaw, CategoryImage, CategoryVideo}

// ErrObjectNotFound is returned when no category holds the requested object.
var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	ID           string            `json:"publicId"`
	Key          string            `json:"key"`
	Category     Category          `json:"resourceType"`
	URL          string            `json:"url,omitempty"`
	Size         int64             `json:"bytes"`
	ContentType  string            `json:"format,omitempty"`
	LastModified time.Time         `json:"createdAt"`
	Metadata     map[string]string `json:"context,omitempty"`
}

// Usage reports aggregate consumption of the object store.
type Usage struct {
	Provider   string `json:"provider"`
	Objects    int64  `json:"objects"`
	BytesUsed  int64  `json:"bytesUsed"`
	QuotaBytes int64  `json:"quotaBytes,omitempty"`
}

// PutInput carries the bytes and descriptive metadata of an upload.
type PutInput struct {
	ID          string
	Category    Category
	Body        io.Reader
	Size        int64
	FileName    string
	ContentType string
	Metadata    map[string]string
	Tags        []string
}

// PutResult identifies the stored object.
type PutResult struct {
	ID       string
	Key      string
	Category Category
	URL      string
	Size     int64
}

// ResolveCategory probes each fallback category in order and returns the
// first one reporting the object as present.
func ResolveCategory(ctx context.Context, exists func(context.Context, Category) (bool, error)) (Category, error) {
	var lastErr error
	for _, category := range FallbackCategories {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		ok, err := exists(ctx, category)
		if err != nil {
			lastErr = err
			continue
		}
		if ok {
			return category, nil
		}
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", ErrObjectNotFound
}

func objectKey(folder string, category Category, id string) string {
	return path.Join(folder, string(category), id)
}

func categoryOrDefault(c Category) Category {
	if c == "" {
		return CategoryRaw
	}
	return c
}
