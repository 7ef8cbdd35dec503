package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileUploaderAndLister(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shared")
	u := &FileUploader{Dir: dir}
	ctx := context.Background()

	require.NoError(t, u.Upload(ctx, UploadParams{
		Name:     "abc.png",
		Data:     []byte("png"),
		Metadata: map[string]string{"prompt": "a cat"},
	}))
	require.NoError(t, u.Upload(ctx, UploadParams{Name: "abc.html", Data: []byte("<html>")}))

	data, err := os.ReadFile(filepath.Join(dir, "abc.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	objs, err := (&FileLister{Dir: dir}).List(ctx, ".png")
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, "abc.png", objs[0].Name)
	assert.Equal(t, map[string]string{"prompt": "a cat"}, objs[0].Metadata)
	assert.False(t, objs[0].Updated.IsZero())
}

func TestFileUploaderRejectsPaths(t *testing.T) {
	u := &FileUploader{Dir: t.TempDir()}
	err := u.Upload(context.Background(), UploadParams{Name: "../escape.png"})
	assert.Error(t, err)
}

func TestFileListerMissingDir(t *testing.T) {
	objs, err := (&FileLister{Dir: filepath.Join(t.TempDir(), "nope")}).List(context.Background(), ".png")
	require.NoError(t, err)
	assert.Empty(t, objs)
}

type fakeS3 struct {
	mu    sync.Mutex
	puts  []*s3.PutObjectInput
	pages [][]string
	meta  map[string]map[string]string
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	idx := 0
	if in.ContinuationToken != nil {
		_, _ = fmt.Sscanf(*in.ContinuationToken, "%d", &idx)
	}
	out := &s3.ListObjectsV2Output{}
	for _, k := range f.pages[idx] {
		out.Contents = append(out.Contents, s3types.Object{Key: aws.String(k)})
	}
	if idx+1 < len(f.pages) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(fmt.Sprint(idx + 1))
	}
	return out, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	meta, ok := f.meta[*in.Key]
	if !ok {
		return nil, fmt.Errorf("no such key %s", *in.Key)
	}
	return &s3.HeadObjectOutput{Metadata: meta, LastModified: aws.Time(time.Unix(1700000000, 0))}, nil
}

func TestS3Uploader(t *testing.T) {
	client := &fakeS3{}
	u := &S3Uploader{Client: client, Bucket: "bucket"}

	require.NoError(t, u.Upload(context.Background(), UploadParams{
		Name:        "abc.png",
		Data:        []byte("png"),
		ContentType: "image/png",
		Metadata:    map[string]string{"id": "abc"},
	}))

	require.Len(t, client.puts, 1)
	in := client.puts[0]
	assert.Equal(t, "bucket", aws.ToString(in.Bucket))
	assert.Equal(t, "abc.png", aws.ToString(in.Key))
	assert.Equal(t, "image/png", aws.ToString(in.ContentType))
	assert.Equal(t, map[string]string{"id": "abc"}, in.Metadata)
	body, err := io.ReadAll(in.Body)
	require.NoError(t, err)
	assert.Equal(t, "png", string(body))
}

func TestS3ListerPaginates(t *testing.T) {
	client := &fakeS3{
		pages: [][]string{
			{"a.png", "a.html"},
			{"b.png", "b.png.meta.json"},
		},
		meta: map[string]map[string]string{
			"a.png": {"id": "a"},
			"b.png": {"id": "b"},
		},
	}
	l := &S3Lister{Client: client, Bucket: "bucket"}

	objs, err := l.List(context.Background(), ".png")
	require.NoError(t, err)
	sort.Slice(objs, func(i, j int) bool { return objs[i].Name < objs[j].Name })

	require.Len(t, objs, 2)
	assert.Equal(t, "a.png", objs[0].Name)
	assert.Equal(t, "b", objs[1].Metadata["id"])
	assert.Equal(t, int64(1700000000), objs[1].Updated.Unix())
}

func TestS3ListerHeadError(t *testing.T) {
	client := &fakeS3{pages: [][]string{{"missing.png"}}}
	_, err := (&S3Lister{Client: client, Bucket: "bucket"}).List(context.Background(), ".png")
	assert.Error(t, err)
}

type fakeCloudFront struct {
	in *cloudfront.CreateInvalidationInput
}

func (f *fakeCloudFront) CreateInvalidation(_ context.Context, in *cloudfront.CreateInvalidationInput, _ ...func(*cloudfront.Options)) (*cloudfront.CreateInvalidationOutput, error) {
	f.in = in
	return &cloudfront.CreateInvalidationOutput{}, nil
}

func TestCloudFrontInvalidator(t *testing.T) {
	client := &fakeCloudFront{}
	inv := &CloudFrontInvalidator{Client: client, Distribution: "E123"}

	require.NoError(t, inv.Invalidate(context.Background(), []string{"/a.png", "/a.html"}))
	require.NotNil(t, client.in)
	assert.Equal(t, "E123", aws.ToString(client.in.DistributionId))
	assert.Equal(t, int32(2), aws.ToInt32(client.in.InvalidationBatch.Paths.Quantity))
	assert.Equal(t, []string{"/a.png", "/a.html"}, client.in.InvalidationBatch.Paths.Items)
	assert.NotEmpty(t, aws.ToString(client.in.InvalidationBatch.CallerReference))
}

func TestNoopInvalidator(t *testing.T) {
	assert.NoError(t, NoopInvalidator{}.Invalidate(context.Background(), []string{"/x"}))
}
