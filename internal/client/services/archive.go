package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/Nekos-API/Nekos.Land/internal/client/models"
	"github.com/Nekos-API/Nekos.Land/internal/logging"
	"github.com/Nekos-API/Nekos.Land/internal/netx"
	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var ErrArchiveDisabled = errors.New("image archive not configured")

// PresignExpiry bounds how long an upload URL stays valid.
const PresignExpiry = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

// ArchiveConfig points at an S3-compatible bucket.
type ArchiveConfig struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

func (c ArchiveConfig) Enabled() bool { return c.Bucket != "" }

// ArchiveService mirrors images into a bucket through presigned uploads.
type ArchiveService interface {
	Archive(ctx context.Context, img *models.Image) (key string, err error)
}

type archiveService struct {
	cfg  ArchiveConfig
	http *http.Client
	log  logging.Logger
	now  func() time.Time
}

func NewArchiveService(cfg ArchiveConfig, httpClient *http.Client, log logging.Logger) ArchiveService {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: time.Minute}
	}
	return &archiveService{cfg: cfg, http: httpClient, log: log, now: time.Now}
}

func (a *archiveService) presignClient(ctx context.Context) (*s3.PresignClient, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(a.cfg.Region)}
	if a.cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(a.cfg.AccessKeyID, a.cfg.SecretAccessKey, ""),
		))
	}
	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	c := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if a.cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(a.cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3PresignClient(c), nil
}

// objectKey is prefix/yyyy/mm/dd/imageID-uuid.ext.
func (a *archiveService) objectKey(img *models.Image) string {
	ext := ""
	if u, err := url.Parse(img.FileURL); err == nil {
		ext = path.Ext(u.Path)
	}
	d := a.now().UTC()
	key := fmt.Sprintf("%04d/%02d/%02d/%s-%s%s", d.Year(), d.Month(), d.Day(), img.ID, uuid.NewString(), ext)
	if p := strings.Trim(a.cfg.Prefix, "/"); p != "" {
		key = p + "/" + key
	}
	return key
}

func (a *archiveService) Archive(ctx context.Context, img *models.Image) (string, error) {
	if !a.cfg.Enabled() {
		return "", ErrArchiveDisabled
	}
	if img == nil || img.FileURL == "" {
		return "", ErrNoImage
	}

	body, contentType, err := netx.Fetch(ctx, a.http, img.FileURL)
	if err != nil {
		return "", fmt.Errorf("download image: %w", err)
	}

	pc, err := a.presignClient(ctx)
	if err != nil {
		return "", fmt.Errorf("s3 client: %w", err)
	}

	key := a.objectKey(img)
	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		return "", fmt.Errorf("presign upload: %w", err)
	}

	if err := netx.UploadToPresignedURL(ctx, a.http, req.URL, contentType, body); err != nil {
		return "", err
	}
	a.log.Info(ctx, "image archived", "image", img.ID, "bucket", a.cfg.Bucket, "key", key, "bytes", len(body))
	return key, nil
}
