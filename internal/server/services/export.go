package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/pagewatch/internal/logging"
	"github.com/dmitrijs2005/pagewatch/internal/models"
	sc "github.com/dmitrijs2005/pagewatch/internal/server/config"
	"github.com/google/uuid"
)

// Test seams over the AWS SDK.
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) error {
		_, err := c.PutObject(ctx, in)
		return err
	}

	presignGetObject = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return s3.NewPresignClient(c).PresignGetObject(ctx, in, optFns...)
	}
)

// MonitorLister is the slice of MonitorService an export needs.
type MonitorLister interface {
	List(ctx context.Context, userID, collectionPath string) ([]models.Monitor, error)
}

// ExportResult points at an uploaded export.
type ExportResult struct {
	Key       string
	URL       string
	ExpiresAt time.Time
}

type exportDocument struct {
	Owner      string           `json:"owner"`
	ExportedAt time.Time        `json:"exportedAt"`
	Monitors   []models.Monitor `json:"monitors"`
}

// ExportService writes a user's monitors as JSON to S3-compatible storage
// and hands back a presigned download URL.
type ExportService struct {
	monitors MonitorLister
	config   *sc.Config
	logger   logging.Logger
	now      func() time.Time
}

func NewExportService(m MonitorLister, cfg *sc.Config, l logging.Logger) *ExportService {
	return &ExportService{monitors: m, config: cfg, logger: l.With("module", "export_service"), now: time.Now}
}

// ExportKey is exports/{owner}/{yyyy-mm-dd}/{uuid}.json.
func ExportKey(owner string, at time.Time) string {
	return fmt.Sprintf("exports/%s/%s/%s.json", owner, at.UTC().Format("2006-01-02"), uuid.New())
}

func (s *ExportService) client(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}
	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// Export uploads the collection and presigns a GET for it.
func (s *ExportService) Export(ctx context.Context, userID, collectionPath string) (*ExportResult, error) {
	ms, err := s.monitors.List(ctx, userID, collectionPath)
	if err != nil {
		return nil, err
	}

	now := s.now()
	body, err := json.MarshalIndent(exportDocument{Owner: userID, ExportedAt: now.UTC(), Monitors: ms}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}

	c, err := s.client(ctx)
	if err != nil {
		return nil, err
	}

	key := ExportKey(userID, now)
	if err := putObject(c, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.config.S3Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	}); err != nil {
		return nil, fmt.Errorf("upload export: %w", err)
	}

	validity := s.config.ExportURLValidity
	req, err := presignGetObject(c, ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.S3Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(validity))
	if err != nil {
		return nil, fmt.Errorf("presign export: %w", err)
	}

	s.logger.Info(ctx, "export uploaded", "owner", userID, "key", key, "monitors", len(ms))
	return &ExportResult{Key: key, URL: req.URL, ExpiresAt: now.Add(validity)}, nil
}
