package s3

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/hiresphere/pipeline-health/internal/infrastructure/awsconfig"
)

const reportContentType = "application/json"

type Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	KeyPrefix       string
}

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type presignAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// ReportArchive implements port.ReportArchive: every calculation is stored as a JSON object.
type ReportArchive struct {
	client    putObjectAPI
	presign   presignAPI
	bucket    string
	keyPrefix string
}

func NewReportArchive(ctx context.Context, cfg Config) (*ReportArchive, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if strings.TrimSpace(cfg.Region) == "" {
		cfg.Region = "us-east-1"
	}

	awsCfg, err := awsconfig.Load(ctx, awsconfig.Options{
		Region:          cfg.Region,
		AccessKeyID:     strings.TrimSpace(cfg.AccessKeyID),
		SecretAccessKey: strings.TrimSpace(cfg.SecretAccessKey),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(options *s3.Options) {
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			options.BaseEndpoint = &endpoint
		}
		options.UsePathStyle = cfg.UsePathStyle
	})

	return newReportArchive(client, s3.NewPresignClient(client), cfg.Bucket, cfg.KeyPrefix), nil
}

func newReportArchive(client putObjectAPI, presign presignAPI, bucket, keyPrefix string) *ReportArchive {
	return &ReportArchive{
		client:    client,
		presign:   presign,
		bucket:    strings.TrimSpace(bucket),
		keyPrefix: strings.Trim(strings.TrimSpace(keyPrefix), "/"),
	}
}

// Archive uploads the report under <prefix>/YYYY/MM/DD/<recordID>.json.
func (a *ReportArchive) Archive(ctx context.Context, recordID string, computedAt time.Time, report []byte) (string, error) {
	if strings.TrimSpace(recordID) == "" {
		return "", fmt.Errorf("record id is required")
	}

	key := a.objectKey(recordID, computedAt)
	contentType := reportContentType

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &a.bucket,
		Key:         &key,
		Body:        bytes.NewReader(report),
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object failed: %w", err)
	}

	return key, nil
}

func (a *ReportArchive) PresignURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	normalizedKey := strings.TrimSpace(key)
	if normalizedKey == "" {
		return "", fmt.Errorf("object key is required")
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	request, err := a.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &a.bucket,
		Key:    &normalizedKey,
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign failed: %w", err)
	}

	return request.URL, nil
}

func (a *ReportArchive) objectKey(recordID string, computedAt time.Time) string {
	if computedAt.IsZero() {
		computedAt = time.Now()
	}
	datePath := computedAt.UTC().Format("2006/01/02")
	return path.Join(a.keyPrefix, datePath, recordID+".json")
}
