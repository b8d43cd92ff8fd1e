package blob

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/oklog/ulid/v2"
)

const avatarPrefix = "avatars/"

// S3Store hands out presigned URLs; bytes never pass through this process.
type S3Store struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	uploadTTL time.Duration
	urlTTL    time.Duration
}

type S3Options struct {
	Bucket    string
	Region    string
	Endpoint  string
	UploadTTL time.Duration
	URLTTL    time.Duration
}

func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    opts.Bucket,
		uploadTTL: opts.UploadTTL,
		urlTTL:    opts.URLTTL,
	}, nil
}

func (s *S3Store) IssueUploadTarget(ctx context.Context) (UploadTarget, error) {
	ref := ulid.Make().String()
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(avatarPrefix + ref),
	}, s3.WithPresignExpires(s.uploadTTL))
	if err != nil {
		return UploadTarget{}, fmt.Errorf("presigning upload: %w", err)
	}

	return UploadTarget{
		URL:       req.URL,
		Method:    req.Method,
		Ref:       ref,
		ExpiresAt: time.Now().Add(s.uploadTTL),
	}, nil
}

func (s *S3Store) URL(ctx context.Context, ref string) (*string, error) {
	key := aws.String(avatarPrefix + ref)
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: key})
	if err != nil {
		var nf *s3types.NotFound
		if errors.As(err, &nf) {
			return nil, nil
		}
		return nil, fmt.Errorf("looking up blob %s: %w", ref, err)
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: key},
		s3.WithPresignExpires(s.urlTTL))
	if err != nil {
		return nil, fmt.Errorf("presigning download: %w", err)
	}
	return &req.URL, nil
}
