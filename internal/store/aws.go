package store

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmorgan81/imagestudio/internal/config"
	"github.com/dmorgan81/imagestudio/internal/log"
	"github.com/samber/do"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

type S3API interface {
	s3.ListObjectsV2APIClient
	s3.HeadObjectAPIClient
	PutObject(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type CloudFrontAPI interface {
	CreateInvalidation(context.Context, *cloudfront.CreateInvalidationInput, ...func(*cloudfront.Options)) (*cloudfront.CreateInvalidationOutput, error)
}

type S3Uploader struct {
	Client S3API
	Bucket string
}

func NewS3Uploader(i *do.Injector) (Uploader, error) {
	return &S3Uploader{
		Client: do.MustInvoke[*s3.Client](i),
		Bucket: do.MustInvoke[config.Share](i).Bucket,
	}, nil
}

func (u *S3Uploader) Upload(ctx context.Context, params UploadParams) error {
	log := log.FromContextOrDiscard(ctx).WithGroup("s3").With(
		"name", params.Name,
		"content-type", params.ContentType,
		"bucket", u.Bucket,
	)
	log.Info("uploading to s3")

	_, err := u.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(u.Bucket),
		Key:          aws.String(params.Name),
		ContentType:  aws.String(params.ContentType),
		Body:         bytes.NewReader(params.Data),
		Metadata:     params.Metadata,
		StorageClass: s3types.StorageClassIntelligentTiering,
	})
	return err
}

type S3Lister struct {
	Client S3API
	Bucket string
}

func NewS3Lister(i *do.Injector) (Lister, error) {
	return &S3Lister{
		Client: do.MustInvoke[*s3.Client](i),
		Bucket: do.MustInvoke[config.Share](i).Bucket,
	}, nil
}

func (l *S3Lister) List(ctx context.Context, suffix string) ([]Object, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("s3").With("bucket", l.Bucket, "suffix", suffix)
	log.Info("listing objects")

	pager := s3.NewListObjectsV2Paginator(l.Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(l.Bucket),
	})

	var (
		mu   sync.Mutex
		objs []Object
	)
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(8)
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			_ = group.Wait()
			return nil, err
		}

		matched := lo.Filter(page.Contents, func(o s3types.Object, _ int) bool {
			return strings.HasSuffix(aws.ToString(o.Key), suffix)
		})
		for _, obj := range matched {
			key := aws.ToString(obj.Key)
			group.Go(func() error {
				out, err := l.Client.HeadObject(ctx, &s3.HeadObjectInput{
					Bucket: aws.String(l.Bucket),
					Key:    aws.String(key),
				})
				if err != nil {
					return err
				}

				mu.Lock()
				defer mu.Unlock()
				objs = append(objs, Object{
					Name:     key,
					Metadata: out.Metadata,
					Updated:  aws.ToTime(out.LastModified),
				})
				return nil
			})
		}
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return objs, nil
}

type CloudFrontInvalidator struct {
	Client       CloudFrontAPI
	Distribution string
}

func NewCloudFrontInvalidator(i *do.Injector) (Invalidator, error) {
	return &CloudFrontInvalidator{
		Client:       do.MustInvoke[*cloudfront.Client](i),
		Distribution: do.MustInvoke[config.Share](i).Distribution,
	}, nil
}

func (i *CloudFrontInvalidator) Invalidate(ctx context.Context, paths []string) error {
	log := log.FromContextOrDiscard(ctx).WithGroup("cloudfront").With("paths", paths, "distribution", i.Distribution)
	log.Info("invalidating paths in cloudfront")

	_, err := i.Client.CreateInvalidation(ctx, &cloudfront.CreateInvalidationInput{
		DistributionId: aws.String(i.Distribution),
		InvalidationBatch: &cftypes.InvalidationBatch{
			CallerReference: aws.String(time.Now().UTC().Format("20060102150405.000000000")),
			Paths: &cftypes.Paths{
				Quantity: aws.Int32(int32(len(paths))),
				Items:    paths,
			},
		},
	})
	return err
}
