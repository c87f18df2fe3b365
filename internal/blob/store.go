package blob

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sunvalleybronze/dropmirror/internal/mirror"
)

const (
	// maxDeleteBatch is the DeleteObjects key limit.
	maxDeleteBatch = 1000
	listPageSize   = 1000
)

// s3API is the part of the S3 client the store uses.
type s3API interface {
	manager.UploadAPIClient
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// Store is the S3 bucket the source tree is mirrored onto.
type Store struct {
	s3Client    s3API
	s3Presigner *s3.PresignClient
	uploader    *manager.Uploader
	config      *S3Config
}

func NewStore(client s3API, presigner *s3.PresignClient, config *S3Config) *Store {
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = DefaultPartSize
		if config.PartSize >= manager.MinUploadPartSize {
			u.PartSize = config.PartSize
		}
		u.Concurrency = 2
	})
	return &Store{
		s3Client:    client,
		s3Presigner: presigner,
		uploader:    uploader,
		config:      config,
	}
}

func NewStoreWithConfig(ctx context.Context, cfg *S3Config) (*Store, error) {
	httpClient := &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   32,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			ForceAttemptHTTP2:     true,
		},
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
		config.WithRegion(cfg.Region),
		config.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
		if cfg.UseAccelerate {
			o.UseAccelerate = true
		}
	})

	return NewStore(client, s3.NewPresignClient(client), cfg), nil
}

// ListPage returns one page of the bucket listing.
func (s *Store) ListPage(ctx context.Context, token string) (*mirror.TargetPage, error) {
	input := &s3.ListObjectsV2Input{
		Bucket:  &s.config.BucketName,
		MaxKeys: aws.Int32(listPageSize),
	}
	if token != "" {
		input.ContinuationToken = aws.String(token)
	}

	out, err := s.s3Client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("s3 list %s: %s: %w", s.config.BucketName, describe(err), err)
	}

	page := &mirror.TargetPage{Objects: make([]mirror.TargetObject, 0, len(out.Contents))}
	for _, obj := range out.Contents {
		page.Objects = append(page.Objects, mirror.TargetObject{
			Key:        aws.ToString(obj.Key),
			ModifiedAt: aws.ToTime(obj.LastModified),
		})
	}
	if aws.ToBool(out.IsTruncated) {
		page.NextToken = aws.ToString(out.NextContinuationToken)
	}
	return page, nil
}

// Put streams an object into the bucket and returns the number of bytes read from the body.
func (s *Store) Put(ctx context.Context, params *mirror.PutParams) (int64, error) {
	if !ValidateKey(params.Key) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidKey, params.Key)
	}

	body := &countingReader{r: params.Body}
	input := &s3.PutObjectInput{
		Bucket: &s.config.BucketName,
		Key:    &params.Key,
		Body:   body,
	}
	if params.ContentType != "" {
		input.ContentType = aws.String(params.ContentType)
	}
	if params.ContentDisposition != "" {
		input.ContentDisposition = aws.String(params.ContentDisposition)
	}
	if params.PublicRead {
		input.ACL = types.ObjectCannedACLPublicRead
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return 0, fmt.Errorf("s3 put %q: %s: %w", params.Key, describe(err), err)
	}
	return body.n.Load(), nil
}

// DeleteMany removes keys in batches of at most 1000. A failed batch call
// marks every key of that batch failed; other batches still run.
func (s *Store) DeleteMany(ctx context.Context, keys []string) (*mirror.DeleteResult, error) {
	res := &mirror.DeleteResult{}

	for batch := range slices.Chunk(keys, maxDeleteBatch) {
		objects := make([]types.ObjectIdentifier, len(batch))
		for i, key := range batch {
			objects[i] = types.ObjectIdentifier{Key: aws.String(key)}
		}

		out, err := s.s3Client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: &s.config.BucketName,
			Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(false)},
		})
		if err != nil {
			slog.Error("s3 delete batch", "keys", len(batch), "error", describe(err))
			for _, key := range batch {
				res.Failed = append(res.Failed, mirror.KeyFailure{Key: key, Cause: err})
			}
			continue
		}

		failed := make(map[string]struct{}, len(out.Errors))
		for _, e := range out.Errors {
			key := aws.ToString(e.Key)
			failed[key] = struct{}{}
			res.Failed = append(res.Failed, mirror.KeyFailure{
				Key:   key,
				Cause: &ObjectError{Code: aws.ToString(e.Code), Message: aws.ToString(e.Message)},
			})
		}
		for _, key := range batch {
			if _, ok := failed[key]; !ok {
				res.Succeeded = append(res.Succeeded, key)
			}
		}
	}

	return res, nil
}

// PresignGet returns a time limited download link that makes browsers save
// the object as filename.
func (s *Store) PresignGet(ctx context.Context, key, filename string) (string, error) {
	if !ValidateKey(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if s.s3Presigner == nil {
		return "", fmt.Errorf("s3 presign: no presigner configured")
	}

	input := &s3.GetObjectInput{
		Bucket: &s.config.BucketName,
		Key:    &key,
	}
	if filename != "" {
		input.ResponseContentDisposition = aws.String(mirror.AttachmentDisposition(filename))
	}

	req, err := s.s3Presigner.PresignGetObject(ctx, input, func(opts *s3.PresignOptions) {
		opts.Expires = s.config.linkExpiry()
	})
	if err != nil {
		return "", fmt.Errorf("s3 presign %q: %w", key, err)
	}
	return req.URL, nil
}

// PublicURL is the anonymous URL of key.
func (s *Store) PublicURL(key string) string {
	return s.config.PublicURL(key)
}

// ValidateKey rejects keys S3 would refuse or that escape the bucket root.
func ValidateKey(key string) bool {
	if key == "" || len(key) > 1024 {
		return false
	}
	if strings.HasPrefix(key, "/") {
		return false
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return false
		}
	}
	return true
}

type countingReader struct {
	r io.Reader
	n atomic.Int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}

var _ mirror.TargetStore = (*Store)(nil)
