package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"murmur/internal/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// S3Config configures an S3Store.
type S3Config struct {
	Bucket        string
	Region        string
	Endpoint      string // custom endpoint for MinIO, R2 and similar
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
	MaxWidth      int
}

type objectAPI interface {
	manager.UploadAPIClient
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store is an ImageStore backed by an S3 bucket. Calls go through a
// circuit breaker so an unavailable host fails fast.
type S3Store struct {
	api      objectAPI
	uploader *manager.Uploader
	breaker  *gobreaker.CircuitBreaker
	bucket   string
	baseURL  string
	maxWidth int
}

// NewS3Store builds an S3 client from cfg. Static credentials are used when
// both keys are set; otherwise the default AWS credential chain applies.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	opts := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsConfig, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Store(client, cfg), nil
}

func newS3Store(api objectAPI, cfg S3Config) *S3Store {
	return &S3Store{
		api:      api,
		uploader: manager.NewUploader(api),
		breaker:  newBreaker("image-host"),
		bucket:   cfg.Bucket,
		baseURL:  publicBaseURL(cfg),
		maxWidth: cfg.MaxWidth,
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			zap.L().Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// publicBaseURL is the prefix every hosted object URL starts with.
func publicBaseURL(cfg S3Config) string {
	switch {
	case cfg.PublicBaseURL != "":
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	case cfg.Endpoint != "":
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
}

// Upload decodes, downscales and stores the image, returning its public URL.
func (s *S3Store) Upload(ctx context.Context, payload string) (url string, err error) {
	ctx, span := observability.StartSpan(ctx, "storage", "Upload")
	defer span.End()
	defer func() {
		observability.ImageHostOperations.WithLabelValues("upload", observability.OutcomeOf(err)).Inc()
	}()

	raw, err := DecodePayload(payload)
	if err != nil {
		return "", err
	}
	img, err := PrepareImage(raw, s.maxWidth)
	if err != nil {
		return "", err
	}

	key := "images/" + uuid.NewString() + img.Ext
	_, err = s.breaker.Execute(func() (interface{}, error) {
		return s.uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(img.Data),
			ContentType: aws.String(img.ContentType),
		})
	})
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("upload image: %w", err)
	}
	return s.baseURL + "/" + key, nil
}

// Delete removes the object behind url when the URL belongs to this store.
func (s *S3Store) Delete(ctx context.Context, url string) (err error) {
	key := s.KeyFromURL(url)
	if key == "" {
		return nil
	}

	ctx, span := observability.StartSpan(ctx, "storage", "Delete")
	defer span.End()
	defer func() {
		observability.ImageHostOperations.WithLabelValues("delete", observability.OutcomeOf(err)).Inc()
	}()

	_, err = s.breaker.Execute(func() (interface{}, error) {
		return s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("delete image: %w", err)
	}
	return nil
}

// KeyFromURL derives the object key from a hosted URL, or "" when url was
// not produced by this store.
func (s *S3Store) KeyFromURL(url string) string {
	prefix := s.baseURL + "/"
	if !strings.HasPrefix(url, prefix) {
		return ""
	}
	key := strings.TrimPrefix(url, prefix)
	if i := strings.IndexAny(key, "?#"); i >= 0 {
		key = key[:i]
	}
	return key
}
