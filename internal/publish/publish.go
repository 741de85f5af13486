// Package publish uploads rendered output to S3-compatible object storage.
package publish

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/tags"

	"github.com/luhtaf/onlyonce/internal/config"
	"github.com/luhtaf/onlyonce/internal/log"
	"github.com/luhtaf/onlyonce/internal/meta"
)

type Publisher struct {
	cli    *minio.Client
	bucket string
	prefix string
}

func New(endpoint, ak, sk, bucket, prefix string, useSSL bool) (*Publisher, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(ak, sk, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	return &Publisher{cli: cli, bucket: bucket, prefix: prefix}, nil
}

// FromConfig builds a Publisher from the publish section.
func FromConfig(c config.PublishCfg) (*Publisher, error) {
	return New(c.Endpoint, c.AccessKey, c.SecretKey, c.Bucket, c.Prefix, c.UseSSL)
}

func (p *Publisher) EnsureBucket(ctx context.Context) error {
	exists, err := p.cli.BucketExists(ctx, p.bucket)
	if err != nil {
		return err
	}
	if !exists {
		return p.cli.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{})
	}
	return nil
}

// ObjectKey lays artifacts out as prefix/yyyy/mm/dd/run/sha_name.
func (p *Publisher) ObjectKey(ts time.Time, runID, sha256, name string) string {
	return fmt.Sprintf("%s/%04d/%02d/%02d/%s/%s_%s",
		p.prefix, ts.Year(), ts.Month(), ts.Day(), runID, sha256, filepath.Base(name),
	)
}

// Metadata returns the user metadata attached to an uploaded artifact.
func Metadata(a meta.Artifact) map[string]string {
	return map[string]string{
		"x-amz-meta-sha256":   a.SHA256,
		"x-amz-meta-ts":       a.TS.UTC().Format(time.RFC3339),
		"x-amz-meta-run_id":   a.RunID,
		"x-amz-meta-template": a.Template,
	}
}

// Tags returns the object tags for quick filtering. Empty fields are omitted.
func Tags(a meta.Artifact) map[string]string {
	tags := map[string]string{
		"sha256": a.SHA256,
		"mime":   a.MIME,
		"ts":     a.TS.UTC().Format(time.RFC3339),
	}
	if a.RunID != "" {
		tags["run_id"] = a.RunID
	}
	if a.Template != "" {
		tags["template"] = a.Template
	}
	return tags
}

func (p *Publisher) UploadFile(ctx context.Context, a meta.Artifact) (string, error) {
	key := p.ObjectKey(a.TS, a.RunID, a.SHA256, a.Name)
	putOpts := minio.PutObjectOptions{
		ContentType:  a.MIME,
		UserMetadata: Metadata(a),
	}
	if _, err := p.cli.FPutObject(ctx, p.bucket, key, a.Path, putOpts); err != nil {
		return "", err
	}
	objTags, err := tags.MapToObjectTags(Tags(a))
	if err != nil {
		return "", err
	}
	if err := p.cli.PutObjectTagging(ctx, p.bucket, key, objTags, minio.PutObjectTaggingOptions{}); err != nil {
		return "", err
	}
	return key, nil
}

// UploadWithRetry retries UploadFile with linear backoff.
func (p *Publisher) UploadWithRetry(ctx context.Context, a meta.Artifact, maxRetries, backoffMS int) (string, error) {
	if maxRetries < 1 {
		maxRetries = 1
	}
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		start := time.Now()
		key, err := p.UploadFile(ctx, a)
		if err == nil {
			log.L.Infow("upload_success",
				"event", "upload_success",
				"component", "publish",
				"key", key,
				"bucket", p.bucket,
				"sha256", a.SHA256,
				"size", a.Size,
				"mime", a.MIME,
				"run_id", a.RunID,
				"attempt", attempt,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return key, nil
		}
		lastErr = err
		if attempt == maxRetries {
			break
		}
		d := config.BackoffDuration(backoffMS, attempt)
		log.L.Warnw("upload_retry",
			"event", "upload_retry",
			"component", "publish",
			"sha256", a.SHA256,
			"attempt", attempt,
			"delay", d.String(),
			"err", err,
		)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(d):
		}
	}
	log.L.Errorw("upload_failed",
		"event", "upload_failed",
		"component", "publish",
		"sha256", a.SHA256,
		"err", lastErr,
		"path", a.Path,
	)
	return "", fmt.Errorf("upload %s: %w", a.Path, lastErr)
}
