package s3

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/michaelwaves/astrosmurf/internal/config"
	"github.com/michaelwaves/astrosmurf/internal/ports"
)

// Uploader pushes rendered files into an S3 bucket under a
// timestamp-prefixed key and returns the public bucket URL.
type Uploader struct {
	client *awss3.Client
	bucket string
	region string
	folder string
}

var _ ports.ObjectStore = (*Uploader)(nil)

// NewUploader resolves AWS credentials from the default chain.
func NewUploader(ctx context.Context, cfg config.S3Config) (*Uploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket not configured")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	folder := strings.Trim(cfg.Folder, "/")
	if folder == "" {
		folder = "manim-videos"
	}

	return &Uploader{
		client: awss3.NewFromConfig(awsCfg),
		bucket: cfg.Bucket,
		region: cfg.Region,
		folder: folder,
	}, nil
}

// Upload stores a local file and returns its public URL.
func (u *Uploader) Upload(ctx context.Context, localPath string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", localPath, err)
	}
	defer file.Close()

	name := filepath.Base(localPath)
	key := fmt.Sprintf("%s/%s_%s", u.folder, time.Now().Format("20060102_150405"), name)
	contentType := "application/octet-stream"
	if strings.HasSuffix(name, ".mp4") {
		contentType = "video/mp4"
	}

	_, err = u.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      &u.bucket,
		Key:         &key,
		Body:        file,
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key), nil
}
