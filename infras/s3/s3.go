package s3

//go:generate go run go.uber.org/mock/mockgen -source=./s3.go -destination=./mocks/s3_mock.go -package=mocks

import (
	"context"
	"fmt"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"

	"cleanbook/config"
	"cleanbook/infras/otel"
	"cleanbook/shared/constant"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	otelAttrObjectKey = "s3.object_key"
	otelAttrBucket    = "s3.bucket"

	defaultContentType = "application/octet-stream"
	region             = "auto"
)

// S3 stores uploaded images (service photos, cleaner avatars) in an S3 compatible bucket.
// Objects are keyed <directory>/<name> and served from the configured public domain.
type S3 interface {
	UploadFile(ctx context.Context, bucketName, directory string, file multipart.File, fileHeader *multipart.FileHeader, fileName string) (url string, err error)
	DeleteFile(ctx context.Context, bucketName, directory, objectName string) error
	GetObjectNameFromURL(bucketName, url string) (objectName string)
}

// ObjectName returns a random object name that keeps the extension of the uploaded file.
func ObjectName(originalName string) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(originalName))
}

type s3Impl struct {
	client *s3.Client
	cfg    *config.Config
	otel   otel.Otel
}

func New(cfg *config.Config, otel otel.Otel) S3 {
	creds := credentials.NewStaticCredentialsProvider(
		cfg.External.S3.AccessKeyID,
		cfg.External.S3.SecretAccessKey,
		constant.Empty,
	)

	awsCfg, err := awsConfig.LoadDefaultConfig(
		context.Background(),
		awsConfig.WithCredentialsProvider(creds),
		awsConfig.WithRegion(region),
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to load aws configuration")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint := cfg.External.S3.APIEndpoint; endpoint != constant.Empty {
			o.BaseEndpoint = aws.String(endpoint)
		}

		o.UsePathStyle = true
	})

	return &s3Impl{
		client: client,
		cfg:    cfg,
		otel:   otel,
	}
}

func (svc *s3Impl) bucket(name string) string {
	if name == constant.Empty {
		return svc.cfg.External.S3.BucketName
	}

	return name
}

func (svc *s3Impl) UploadFile(ctx context.Context, bucketName, directory string, file multipart.File, fileHeader *multipart.FileHeader, fileName string) (url string, err error) {
	ctx, scope := svc.otel.NewScope(ctx, constant.OtelS3ScopeName, constant.OtelS3ScopeName+".UploadFile")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	bucketName = svc.bucket(bucketName)
	key := path.Join(directory, fileName)

	scope.SetAttributes(map[string]any{
		otelAttrObjectKey: key,
		otelAttrBucket:    bucketName,
	})

	contentType := fileHeader.Header.Get(constant.RequestHeaderContentType)
	if contentType == constant.Empty {
		contentType = defaultContentType
	}

	// multipart.File is a ReadSeeker, so the sdk can sign and retry without buffering
	_, err = svc.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucketName),
		Key:           aws.String(key),
		Body:          file,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(fileHeader.Size),
	})
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to upload object")

		return constant.Empty, fmt.Errorf("failed to upload file to S3: %w", err)
	}

	return svc.objectURL(key), nil
}

func (svc *s3Impl) DeleteFile(ctx context.Context, bucketName, directory, objectName string) (err error) {
	ctx, scope := svc.otel.NewScope(ctx, constant.OtelS3ScopeName, constant.OtelS3ScopeName+".DeleteFile")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	bucketName = svc.bucket(bucketName)
	key := path.Join(directory, objectName)

	scope.SetAttributes(map[string]any{
		otelAttrObjectKey: key,
		otelAttrBucket:    bucketName,
	})

	_, err = svc.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to delete object")

		return fmt.Errorf("failed to delete file from S3: %w", err)
	}

	return nil
}

func (svc *s3Impl) objectURL(key string) string {
	return strings.TrimSuffix(svc.cfg.External.S3.PublicDomain, "/") + "/" + key
}

// GetObjectNameFromURL returns the object name of a URL this store handed out, or an
// empty string for foreign URLs.
func (svc *s3Impl) GetObjectNameFromURL(bucketName, url string) (objectName string) {
	prefixes := []string{
		strings.TrimSuffix(svc.cfg.External.S3.PublicDomain, "/"),
		strings.TrimSuffix(svc.cfg.External.S3.APIEndpoint, "/") + "/" + svc.bucket(bucketName),
	}

	for _, prefix := range prefixes {
		if prefix == constant.Empty || strings.HasPrefix(prefix, "/") {
			continue
		}

		if rest, ok := strings.CutPrefix(url, prefix+"/"); ok && rest != constant.Empty {
			return path.Base(rest)
		}
	}

	return constant.Empty
}
