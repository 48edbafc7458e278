package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/google/uuid"
)

const sidecarSuffix = ".meta.json"

type sidecar struct {
	FileName    string            `json:"fileName"`
	ContentType string            `json:"contentType"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
}

// LocalObjectStorage keeps uploaded objects on disk and hands out signed
// download links served by the API itself.
type LocalObjectStorage struct {
	files         *LocalStorage
	signer        *SignedURLSigner
	folder        string
	publicBaseURL string
	quota         int64
}

// NewLocalObjectStorage wires a disk store and a signer into an object store.
func NewLocalObjectStorage(files *LocalStorage, signer *SignedURLSigner, folder, publicBaseURL string, quota int64) *LocalObjectStorage {
	return &LocalObjectStorage{
		files:         files,
		signer:        signer,
		folder:        strings.Trim(folder, "/"),
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		quota:         quota,
	}
}

// Provider names the backend in usage reports.
func (s *LocalObjectStorage) Provider() string { return "local" }

// Put writes the object and its metadata sidecar.
func (s *LocalObjectStorage) Put(ctx context.Context, in PutInput) (*PutResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}
	category := categoryOrDefault(in.Category)
	key := objectKey(s.folder, category, id)

	size, err := s.files.SaveStream(key, in.Body)
	if err != nil {
		return nil, err
	}

	meta, err := json.Marshal(sidecar{
		FileName:    in.FileName,
		ContentType: in.ContentType,
		Metadata:    in.Metadata,
		Tags:        in.Tags,
	})
	if err != nil {
		_ = s.files.Delete(key)
		return nil, fmt.Errorf("encode object metadata: %w", err)
	}
	if _, err := s.files.SaveStream(key+sidecarSuffix, bytes.NewReader(meta)); err != nil {
		_ = s.files.Delete(key)
		return nil, err
	}

	url, err := s.signedURL(id, key)
	if err != nil {
		_ = s.files.Delete(key)
		_ = s.files.Delete(key + sidecarSuffix)
		return nil, err
	}

	return &PutResult{ID: id, Key: key, Category: category, URL: url, Size: size}, nil
}

// Delete removes the object from whichever category holds it.
func (s *LocalObjectStorage) Delete(ctx context.Context, id string) error {
	category, err := ResolveCategory(ctx, s.probe(id))
	if err != nil {
		return err
	}
	key := objectKey(s.folder, category, id)
	if err := s.files.Delete(key); err != nil {
		return err
	}
	return s.files.Delete(key + sidecarSuffix)
}

// Stat describes a stored object.
func (s *LocalObjectStorage) Stat(ctx context.Context, id string) (*ObjectInfo, error) {
	category, err := ResolveCategory(ctx, s.probe(id))
	if err != nil {
		return nil, err
	}
	return s.describe(id, objectKey(s.folder, category, id), category)
}

// DownloadURL mints a fresh signed link for the object.
func (s *LocalObjectStorage) DownloadURL(ctx context.Context, id, _ string) (string, error) {
	category, err := ResolveCategory(ctx, s.probe(id))
	if err != nil {
		return "", err
	}
	return s.signedURL(id, objectKey(s.folder, category, id))
}

// Open verifies a download token and returns the object's file handle.
func (s *LocalObjectStorage) Open(token string) (*os.File, *ObjectInfo, error) {
	id, key, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, nil, err
	}
	rel := key
	if s.folder != "" {
		if !strings.HasPrefix(key, s.folder+"/") {
			return nil, nil, ErrInvalidToken
		}
		rel = strings.TrimPrefix(key, s.folder+"/")
	}
	info, err := s.describe(id, key, Category(strings.SplitN(rel, "/", 2)[0]))
	if err != nil {
		return nil, nil, err
	}
	file, err := s.files.Open(key)
	if err != nil {
		return nil, nil, err
	}
	return file, info, nil
}

// Usage sums the bytes of every stored object.
func (s *LocalObjectStorage) Usage(ctx context.Context) (*Usage, error) {
	usage := &Usage{Provider: s.Provider(), QuotaBytes: s.quota}
	err := s.files.Walk(s.folder, func(rel string, info os.FileInfo) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if strings.HasSuffix(rel, sidecarSuffix) {
			return nil
		}
		usage.Objects++
		usage.BytesUsed += info.Size()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("compute storage usage: %w", err)
	}
	return usage, nil
}

func (s *LocalObjectStorage) probe(id string) func(context.Context, Category) (bool, error) {
	return func(_ context.Context, category Category) (bool, error) {
		_, err := s.files.Stat(objectKey(s.folder, category, id))
		if err == nil {
			return true, nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
}

func (s *LocalObjectStorage) describe(id, key string, category Category) (*ObjectInfo, error) {
	stat, err := s.files.Stat(key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	info := &ObjectInfo{
		ID:           id,
		Key:          key,
		Category:     category,
		Size:         stat.Size(),
		LastModified: stat.ModTime().UTC(),
	}

	file, err := s.files.Open(key + sidecarSuffix)
	if err != nil {
		return info, nil
	}
	defer file.Close() //nolint:errcheck
	var meta sidecar
	if err := json.NewDecoder(file).Decode(&meta); err == nil {
		info.ContentType = meta.ContentType
		info.Metadata = meta.Metadata
		if meta.FileName != "" {
			if info.Metadata == nil {
				info.Metadata = map[string]string{}
			}
			info.Metadata["fileName"] = meta.FileName
		}
	}
	return info, nil
}

func (s *LocalObjectStorage) signedURL(id, key string) (string, error) {
	token, _, err := s.signer.Generate(id, key)
	if err != nil {
		return "", err
	}
	return s.publicBaseURL + "/files/" + token, nil
}
