package retention

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/rockets-cn/allsky/pkg/imagestore"
)

// Archiver moves an evicted image out of the live corpus and returns where
// it went.
type Archiver interface {
	Archive(ctx context.Context, rec imagestore.Record) (string, error)
}

// LocalArchiver moves images into the archive directory, keeping their
// YYYY/MM/DD relative path.
type LocalArchiver struct {
	Layout imagestore.Layout
}

// Archive implements Archiver.
func (a LocalArchiver) Archive(ctx context.Context, rec imagestore.Record) (string, error) {
	dest, err := a.Layout.ArchivePathFor(rec.Path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", err
	}
	if err := os.Rename(rec.Path, dest); err == nil {
		return dest, nil
	}

	// Rename fails across filesystems; fall back to copy and remove.
	if err := copyFile(rec.Path, dest); err != nil {
		return "", err
	}
	if err := os.Remove(rec.Path); err != nil {
		return "", err
	}
	return dest, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}

// S3API is the subset of the S3 client used for archiving.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config configures the S3 archive target.
type S3Config struct {
	Bucket string
	Prefix string
	Region string

	// Endpoint overrides the S3 endpoint (MinIO, LocalStack). Path-style
	// addressing is used when set.
	Endpoint string
}

// S3Archiver uploads images to S3 and removes the local copy once the
// upload succeeded.
type S3Archiver struct {
	client S3API
	bucket string
	prefix string
	layout imagestore.Layout
}

// NewS3Archiver creates an archiver using the default AWS credential chain.
func NewS3Archiver(ctx context.Context, cfg S3Config, layout imagestore.Layout) (*S3Archiver, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3ArchiverWithClient(client, cfg.Bucket, cfg.Prefix, layout), nil
}

// NewS3ArchiverWithClient creates an archiver around an existing client.
func NewS3ArchiverWithClient(client S3API, bucket, prefix string, layout imagestore.Layout) *S3Archiver {
	return &S3Archiver{client: client, bucket: bucket, prefix: prefix, layout: layout}
}

// Key returns the object key for an image path.
func (a *S3Archiver) Key(imagePath string) (string, error) {
	rel, err := a.layout.Rel(imagePath)
	if err != nil {
		return "", err
	}
	return path.Join(a.prefix, filepath.ToSlash(rel)), nil
}

// Archive implements Archiver.
func (a *S3Archiver) Archive(ctx context.Context, rec imagestore.Record) (string, error) {
	key, err := a.Key(rec.Path)
	if err != nil {
		return "", err
	}

	f, err := os.Open(rec.Path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	contentType := mime.TypeByExtension(filepath.Ext(rec.Path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(rec.FileSize),
		Metadata: map[string]string{
			"capture-time": rec.CaptureTime.UTC().Format("2006-01-02T15:04:05Z"),
			"period":       rec.Settings.Period,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to s3://%s/%s: %w", rec.Path, a.bucket, key, err)
	}

	f.Close()
	if err := os.Remove(rec.Path); err != nil {
		return "", err
	}
	return fmt.Sprintf("s3://%s/%s", a.bucket, key), nil
}
