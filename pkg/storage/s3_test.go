package storage

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubS3 struct {
	mu      sync.Mutex
	objects map[string]*s3.HeadObjectOutput
	puts    []*s3.PutObjectInput
	deletes []string
	heads   []string
	headErr error
}

func newStubS3() *stubS3 {
	return &stubS3{objects: map[string]*s3.HeadObjectOutput{}}
}

func (s *stubS3) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, nil
}

func (s *stubS3) CreateBucket(context.Context, *s3.CreateBucketInput, ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	return &s3.CreateBucketOutput{}, nil
}

func (s *stubS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts = append(s.puts, in)
	now := time.Now()
	s.objects[aws.ToString(in.Key)] = &s3.HeadObjectOutput{
		ContentLength: in.ContentLength,
		ContentType:   in.ContentType,
		LastModified:  &now,
		Metadata:      in.Metadata,
	}
	return &s3.PutObjectOutput{}, nil
}

func (s *stubS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := aws.ToString(in.Key)
	s.heads = append(s.heads, key)
	if s.headErr != nil {
		return nil, s.headErr
	}
	out, ok := s.objects[key]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NotFound", Message: "Not Found"}
	}
	return out, nil
}

func (s *stubS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := aws.ToString(in.Key)
	s.deletes = append(s.deletes, key)
	delete(s.objects, key)
	return &s3.DeleteObjectOutput{}, nil
}

func (s *stubS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for key, obj := range s.objects {
		if strings.HasPrefix(key, aws.ToString(in.Prefix)) {
			out.Contents = append(out.Contents, types.Object{Key: aws.String(key), Size: obj.ContentLength})
		}
	}
	return out, nil
}

type stubPresigner struct {
	last *s3.GetObjectInput
}

func (p *stubPresigner) PresignGetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	p.last = in
	return &v4.PresignedHTTPRequest{URL: "https://signed.example/" + aws.ToString(in.Key)}, nil
}

func TestS3StoragePutAndStat(t *testing.T) {
	client := newStubS3()
	store := newS3Storage(client, &stubPresigner{}, "bucket", "campushub-resources", "https://bucket.s3.ap-south-1.amazonaws.com", time.Hour, 0, nil)
	ctx := context.Background()

	res, err := store.Put(ctx, PutInput{
		ID:          "obj-1",
		Body:        strings.NewReader("%PDF"),
		Size:        4,
		FileName:    "Data Structures.pdf",
		ContentType: "application/pdf",
		Metadata:    map[string]string{"Subject": "Data Structures"},
		Tags:        []string{"CSE", "semester_3"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://bucket.s3.ap-south-1.amazonaws.com/campushub-resources/raw/obj-1", res.URL)
	require.Len(t, client.puts, 1)
	assert.Equal(t, "Data+Structures", client.puts[0].Metadata["subject"])
	assert.Equal(t, "CSE%2Csemester_3", client.puts[0].Metadata["tags"])

	info, err := store.Stat(ctx, "obj-1")
	require.NoError(t, err)
	assert.Equal(t, CategoryRaw, info.Category)
	assert.Equal(t, int64(4), info.Size)
	assert.Equal(t, "Data Structures", info.Metadata["subject"])
}

func TestS3StorageDeleteFallsBackToVideo(t *testing.T) {
	client := newStubS3()
	client.objects["campushub-resources/video/obj-2"] = &s3.HeadObjectOutput{}
	store := newS3Storage(client, &stubPresigner{}, "bucket", "campushub-resources", "https://x", time.Hour, 0, nil)

	require.NoError(t, store.Delete(context.Background(), "obj-2"))
	assert.Equal(t, []string{
		"campushub-resources/raw/obj-2",
		"campushub-resources/image/obj-2",
		"campushub-resources/video/obj-2",
	}, client.heads)
	assert.Equal(t, []string{"campushub-resources/video/obj-2"}, client.deletes)
}

func TestS3StorageDeleteMissing(t *testing.T) {
	store := newS3Storage(newStubS3(), &stubPresigner{}, "bucket", "f", "https://x", time.Hour, 0, nil)
	err := store.Delete(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestS3StorageHeadFailure(t *testing.T) {
	client := newStubS3()
	client.headErr = errors.New("access denied")
	store := newS3Storage(client, &stubPresigner{}, "bucket", "f", "https://x", time.Hour, 0, nil)

	err := store.Delete(context.Background(), "obj")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrObjectNotFound)
	assert.Empty(t, client.deletes)
}

func TestS3StorageDownloadURLAndUsage(t *testing.T) {
	client := newStubS3()
	presigner := &stubPresigner{}
	store := newS3Storage(client, presigner, "bucket", "campushub-resources", "https://x", time.Hour, 2048, nil)
	ctx := context.Background()

	_, err := store.Put(ctx, PutInput{ID: "obj-3", Body: strings.NewReader("abc"), Size: 3})
	require.NoError(t, err)

	url, err := store.DownloadURL(ctx, "obj-3", "notes.pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://signed.example/campushub-resources/raw/obj-3", url)
	assert.Equal(t, `attachment; filename=notes.pdf`, aws.ToString(presigner.last.ResponseContentDisposition))

	usage, err := store.Usage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "s3", usage.Provider)
	assert.Equal(t, int64(1), usage.Objects)
	assert.Equal(t, int64(3), usage.BytesUsed)
	assert.Equal(t, int64(2048), usage.QuotaBytes)
}
