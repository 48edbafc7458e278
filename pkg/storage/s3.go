package storage

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/campushub-api/pkg/config"
)

// S3API is the subset of the S3 client used by S3Storage.
type S3API interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Presigner produces time-limited GET links.
type Presigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Storage stores objects in AWS S3 or any S3-compatible service
// (MinIO, Cloudflare R2, DigitalOcean Spaces).
type S3Storage struct {
	client        S3API
	presigner     Presigner
	bucket        string
	folder        string
	publicURL     string
	presignExpiry time.Duration
	quota         int64
	logger        *zap.Logger
}

// NewS3Storage loads AWS configuration, builds the client and makes sure the
// bucket exists.
func NewS3Storage(ctx context.Context, cfg config.S3Config, folder string, quota int64, logger *zap.Logger) (*S3Storage, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var client *s3.Client
	publicURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	if cfg.Endpoint != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
		publicURL = strings.TrimSuffix(cfg.Endpoint, "/") + "/" + cfg.Bucket
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	storage := newS3Storage(client, s3.NewPresignClient(client), cfg.Bucket, folder, publicURL, cfg.PresignExpiry, quota, logger)
	if err := storage.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return storage, nil
}

func newS3Storage(client S3API, presigner Presigner, bucket, folder, publicURL string, expiry time.Duration, quota int64, logger *zap.Logger) *S3Storage {
	if logger == nil {
		logger = zap.NewNop()
	}
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &S3Storage{
		client:        client,
		presigner:     presigner,
		bucket:        bucket,
		folder:        strings.Trim(folder, "/"),
		publicURL:     strings.TrimRight(publicURL, "/"),
		presignExpiry: expiry,
		quota:         quota,
		logger:        logger,
	}
}

func (s *S3Storage) ensureBucket(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err == nil {
		return nil
	}

	if _, err := s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return fmt.Errorf("bucket %q does not exist and could not be created: %w", s.bucket, err)
	}

	s.logger.Info("created S3 bucket", zap.String("bucket", s.bucket))
	return nil
}

// Provider names the backend in usage reports.
func (s *S3Storage) Provider() string { return "s3" }

// Put uploads the object with its contextual metadata.
func (s *S3Storage) Put(ctx context.Context, in PutInput) (*PutResult, error) {
	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}
	category := categoryOrDefault(in.Category)
	key := objectKey(s.folder, category, id)

	metadata := make(map[string]string, len(in.Metadata)+2)
	for k, v := range in.Metadata {
		metadata[strings.ToLower(k)] = url.QueryEscape(v)
	}
	if len(in.Tags) > 0 {
		metadata["tags"] = url.QueryEscape(strings.Join(in.Tags, ","))
	}
	if in.FileName != "" {
		metadata["filename"] = url.QueryEscape(in.FileName)
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        in.Body,
		ContentType: aws.String(in.ContentType),
		Metadata:    metadata,
	}
	if in.Size > 0 {
		input.ContentLength = aws.Int64(in.Size)
	}
	if in.FileName != "" {
		input.ContentDisposition = aws.String(mime.FormatMediaType("inline", map[string]string{"filename": in.FileName}))
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return nil, fmt.Errorf("upload to S3: %w", err)
	}

	return &PutResult{
		ID:       id,
		Key:      key,
		Category: category,
		URL:      s.publicURL + "/" + key,
		Size:     in.Size,
	}, nil
}

// Delete removes the object from whichever category holds it.
func (s *S3Storage) Delete(ctx context.Context, id string) error {
	category, err := ResolveCategory(ctx, s.probe(id))
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(s.folder, category, id)),
	})
	if err != nil {
		return fmt.Errorf("delete from S3: %w", err)
	}
	return nil
}

// Stat describes a stored object.
func (s *S3Storage) Stat(ctx context.Context, id string) (*ObjectInfo, error) {
	var head *s3.HeadObjectOutput
	var found Category
	category, err := ResolveCategory(ctx, func(ctx context.Context, c Category) (bool, error) {
		out, err := s.head(ctx, objectKey(s.folder, c, id))
		if err != nil || out == nil {
			return false, err
		}
		head, found = out, c
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if found != category || head == nil {
		return nil, ErrObjectNotFound
	}

	key := objectKey(s.folder, category, id)
	info := &ObjectInfo{
		ID:          id,
		Key:         key,
		Category:    category,
		URL:         s.publicURL + "/" + key,
		Size:        aws.ToInt64(head.ContentLength),
		ContentType: aws.ToString(head.ContentType),
	}
	if head.LastModified != nil {
		info.LastModified = head.LastModified.UTC()
	}
	if len(head.Metadata) > 0 {
		info.Metadata = make(map[string]string, len(head.Metadata))
		for k, v := range head.Metadata {
			if decoded, err := url.QueryUnescape(v); err == nil {
				v = decoded
			}
			info.Metadata[k] = v
		}
	}
	return info, nil
}

// DownloadURL presigns a GET for the object, forcing an attachment download
// under the original file name when one is given.
func (s *S3Storage) DownloadURL(ctx context.Context, id, fileName string) (string, error) {
	category, err := ResolveCategory(ctx, s.probe(id))
	if err != nil {
		return "", err
	}
	input := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(s.folder, category, id)),
	}
	if fileName != "" {
		input.ResponseContentDisposition = aws.String(mime.FormatMediaType("attachment", map[string]string{"filename": fileName}))
	}
	req, err := s.presigner.PresignGetObject(ctx, input, func(opts *s3.PresignOptions) {
		opts.Expires = s.presignExpiry
	})
	if err != nil {
		return "", fmt.Errorf("presign S3 URL: %w", err)
	}
	return req.URL, nil
}

// Usage sums object sizes under the configured folder.
func (s *S3Storage) Usage(ctx context.Context) (*Usage, error) {
	usage := &Usage{Provider: s.Provider(), QuotaBytes: s.quota}
	prefix := s.folder
	if prefix != "" {
		prefix += "/"
	}
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list S3 objects: %w", err)
		}
		for _, obj := range page.Contents {
			usage.Objects++
			usage.BytesUsed += aws.ToInt64(obj.Size)
		}
	}
	return usage, nil
}

func (s *S3Storage) probe(id string) func(context.Context, Category) (bool, error) {
	return func(ctx context.Context, c Category) (bool, error) {
		out, err := s.head(ctx, objectKey(s.folder, c, id))
		return out != nil, err
	}
}

func (s *S3Storage) head(ctx context.Context, key string) (*s3.HeadObjectOutput, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("head S3 object: %w", err)
	}
	return out, nil
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
