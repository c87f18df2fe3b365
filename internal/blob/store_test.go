package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunvalleybronze/dropmirror/internal/mirror"
)

var errMultipart = errors.New("multipart not expected")

type fakeS3 struct {
	listInputs   []*s3.ListObjectsV2Input
	listOutputs  map[string]*s3.ListObjectsV2Output
	puts         []*s3.PutObjectInput
	putBodies    []string
	putErr       error
	deleteInputs []*s3.DeleteObjectsInput
	deleteErrs   map[int]error
	deniedKeys   map[string]bool
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.listInputs = append(f.listInputs, in)
	out, ok := f.listOutputs[aws.ToString(in.ContinuationToken)]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "InvalidArgument", Message: "bad token"}
	}
	return out, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.puts = append(f.puts, in)
	f.putBodies = append(f.putBodies, string(body))
	return &s3.PutObjectOutput{ETag: aws.String(`"etag"`)}, nil
}

func (f *fakeS3) DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	call := len(f.deleteInputs)
	f.deleteInputs = append(f.deleteInputs, in)
	if err := f.deleteErrs[call]; err != nil {
		return nil, err
	}
	out := &s3.DeleteObjectsOutput{}
	for _, obj := range in.Delete.Objects {
		if f.deniedKeys[aws.ToString(obj.Key)] {
			out.Errors = append(out.Errors, types.Error{Key: obj.Key, Code: aws.String("AccessDenied"), Message: aws.String("Access Denied")})
			continue
		}
		out.Deleted = append(out.Deleted, types.DeletedObject{Key: obj.Key})
	}
	return out, nil
}

func (f *fakeS3) UploadPart(context.Context, *s3.UploadPartInput, ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	return nil, errMultipart
}

func (f *fakeS3) CreateMultipartUpload(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return nil, errMultipart
}

func (f *fakeS3) CompleteMultipartUpload(context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	return nil, errMultipart
}

func (f *fakeS3) AbortMultipartUpload(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	return &s3.AbortMultipartUploadOutput{}, nil
}

func testConfig() *S3Config {
	return &S3Config{BucketName: "sunvalleybronze.com", Region: "us-east-1", AccessKey: "AKIAEXAMPLE", SecretKey: "secret"}
}

func TestStore_ListPage(t *testing.T) {
	modified := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	fake := &fakeS3{listOutputs: map[string]*s3.ListObjectsV2Output{
		"": {
			Contents:              []types.Object{{Key: aws.String("Catalog/A.pdf"), LastModified: &modified}},
			IsTruncated:           aws.Bool(true),
			NextContinuationToken: aws.String("t1"),
		},
		"t1": {
			Contents:    []types.Object{{Key: aws.String("catalog/"), LastModified: &modified}, {Key: aws.String("index.html"), LastModified: &modified}},
			IsTruncated: aws.Bool(false),
		},
	}}
	store := NewStore(fake, nil, testConfig())

	snap, err := mirror.ReadTargetTree(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, []string{"catalog/", "catalog/a.pdf", "index.html"}, snap.Keys())

	require.Len(t, fake.listInputs, 2)
	assert.Nil(t, fake.listInputs[0].ContinuationToken)
	assert.Equal(t, "t1", aws.ToString(fake.listInputs[1].ContinuationToken))
	assert.Equal(t, "sunvalleybronze.com", aws.ToString(fake.listInputs[1].Bucket))
}

func TestStore_ListPageError(t *testing.T) {
	store := NewStore(&fakeS3{}, nil, testConfig())

	_, err := store.ListPage(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "InvalidArgument: bad token")

	var apiErr smithy.APIError
	assert.ErrorAs(t, err, &apiErr)
}

func TestStore_Put(t *testing.T) {
	fake := &fakeS3{}
	store := NewStore(fake, nil, testConfig())

	n, err := store.Put(context.Background(), &mirror.PutParams{
		Key:                "catalog/a.pdf",
		Body:               strings.NewReader("%PDF-1.4"),
		ContentType:        "application/pdf",
		ContentDisposition: `inline; filename="A.pdf"`,
		PublicRead:         true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)

	require.Len(t, fake.puts, 1)
	in := fake.puts[0]
	assert.Equal(t, "catalog/a.pdf", aws.ToString(in.Key))
	assert.Equal(t, "application/pdf", aws.ToString(in.ContentType))
	assert.Equal(t, `inline; filename="A.pdf"`, aws.ToString(in.ContentDisposition))
	assert.Equal(t, types.ObjectCannedACLPublicRead, in.ACL)
	assert.Equal(t, "%PDF-1.4", fake.putBodies[0])
}

func TestStore_PutErrors(t *testing.T) {
	fake := &fakeS3{putErr: &smithy.GenericAPIError{Code: "AccessDenied", Message: "Access Denied"}}
	store := NewStore(fake, nil, testConfig())

	_, err := store.Put(context.Background(), &mirror.PutParams{Key: "a.txt", Body: strings.NewReader("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AccessDenied")

	_, err = store.Put(context.Background(), &mirror.PutParams{Key: "../a.txt", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestStore_DeleteMany_Batches(t *testing.T) {
	keys := make([]string, 2500)
	for i := range keys {
		keys[i] = fmt.Sprintf("old/%04d.pdf", i)
	}
	fake := &fakeS3{
		deleteErrs: map[int]error{1: errors.New("connection reset")},
		deniedKeys: map[string]bool{"old/0007.pdf": true},
	}
	store := NewStore(fake, nil, testConfig())

	res, err := store.DeleteMany(context.Background(), keys)
	require.NoError(t, err)

	require.Len(t, fake.deleteInputs, 3)
	assert.Len(t, fake.deleteInputs[0].Delete.Objects, 1000)
	assert.Len(t, fake.deleteInputs[1].Delete.Objects, 1000)
	assert.Len(t, fake.deleteInputs[2].Delete.Objects, 500)

	assert.Len(t, res.Succeeded, 999+500)
	assert.Len(t, res.Failed, 1+1000)
	assert.Equal(t, "old/0007.pdf", res.Failed[0].Key)

	var objErr *ObjectError
	require.ErrorAs(t, res.Failed[0].Cause, &objErr)
	assert.Equal(t, "AccessDenied", objErr.Code)
	assert.Equal(t, "old/1000.pdf", res.Failed[1].Key)
}

func TestStore_PresignGet(t *testing.T) {
	cfg := testConfig()
	cfg.LinkExpiry = 10 * time.Minute
	client := s3.New(s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		BaseEndpoint: aws.String("http://127.0.0.1:9000"),
		UsePathStyle: true,
	})
	store := NewStore(client, s3.NewPresignClient(client), cfg)

	link, err := store.PresignGet(context.Background(), "catalog/bells.pdf", "Bells.pdf")
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "/sunvalleybronze.com/catalog/bells.pdf", u.Path)
	assert.Equal(t, `attachment; filename="Bells.pdf"`, u.Query().Get("response-content-disposition"))
	assert.Equal(t, "600", u.Query().Get("X-Amz-Expires"))

	_, err = store.PresignGet(context.Background(), "", "x")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestS3Config(t *testing.T) {
	cfg := testConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "https://s3.amazonaws.com/sunvalleybronze.com/catalog/bronze%20bells.pdf", cfg.PublicURL("/catalog/bronze bells.pdf"))

	cfg.PublicBaseURL = "https://files.sunvalleybronze.com/"
	assert.Equal(t, "https://files.sunvalleybronze.com/a.pdf", cfg.PublicURL("a.pdf"))
	assert.Equal(t, DefaultLinkExpiry, cfg.linkExpiry())

	tests := []struct {
		name   string
		mutate func(*S3Config)
	}{
		{"no bucket", func(c *S3Config) { c.BucketName = "" }},
		{"no region", func(c *S3Config) { c.Region = "" }},
		{"no access key", func(c *S3Config) { c.AccessKey = "" }},
		{"no secret", func(c *S3Config) { c.SecretKey = "" }},
		{"bad endpoint", func(c *S3Config) { c.Endpoint = "minio:9000" }},
		{"bad public url", func(c *S3Config) { c.PublicBaseURL = "files" }},
		{"expiry too long", func(c *S3Config) { c.LinkExpiry = 8 * 24 * time.Hour }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testConfig()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestValidateKey(t *testing.T) {
	assert.True(t, ValidateKey("catalog/a.pdf"))
	assert.True(t, ValidateKey("sitemap.xml"))
	assert.False(t, ValidateKey(""))
	assert.False(t, ValidateKey("/abs.pdf"))
	assert.False(t, ValidateKey("a/../b"))
	assert.False(t, ValidateKey(strings.Repeat("k", 1025)))
}
