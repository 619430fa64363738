package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/RigelNana/vitalicio/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"
)

type MinIOStore struct {
	client  *minio.Client
	baseURL string
	log     logrus.FieldLogger
}

func NewMinIOStore(ctx context.Context, cfg *config.MinIOConfig, log logrus.FieldLogger) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		log.WithField("bucket", cfg.BucketName).Info("created bucket")
	}
	if err := ensurePublicRead(ctx, client, cfg.BucketName, log); err != nil {
		return nil, err
	}

	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		baseURL = scheme + "://" + cfg.Endpoint
	}
	return &MinIOStore{client: client, baseURL: strings.TrimRight(baseURL, "/"), log: log}, nil
}

type policyStatement struct {
	Effect    string              `json:"Effect"`
	Principal map[string][]string `json:"Principal"`
	Action    []string            `json:"Action"`
	Resource  []string            `json:"Resource"`
}

type bucketPolicy struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

// PublicReadPolicy lets anonymous clients fetch objects from bucket, which
// is what PublicURL addresses rely on. Listing stays private.
func PublicReadPolicy(bucket string) (string, error) {
	policy := bucketPolicy{
		Version: "2012-10-17",
		Statement: []policyStatement{{
			Effect:    "Allow",
			Principal: map[string][]string{"AWS": {"*"}},
			Action:    []string{"s3:GetObject"},
			Resource:  []string{"arn:aws:s3:::" + bucket + "/*"},
		}},
	}
	raw, err := json.Marshal(policy)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// ensurePublicRead installs PublicReadPolicy on a bucket that has no policy.
// An existing policy is left to the operator.
func ensurePublicRead(ctx context.Context, client *minio.Client, bucket string, log logrus.FieldLogger) error {
	current, err := client.GetBucketPolicy(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to read bucket policy: %w", err)
	}
	if current != "" {
		if !strings.Contains(current, "s3:GetObject") {
			log.WithField("bucket", bucket).Warn("bucket policy does not grant public reads, cover URLs may not load")
		}
		return nil
	}
	policy, err := PublicReadPolicy(bucket)
	if err != nil {
		return err
	}
	if err := client.SetBucketPolicy(ctx, bucket, policy); err != nil {
		return fmt.Errorf("failed to set bucket policy: %w", err)
	}
	log.WithField("bucket", bucket).Info("bucket opened for public reads")
	return nil
}

func (s *MinIOStore) Upload(ctx context.Context, bucket, path string, data io.Reader, size int64, opts PutOptions) (string, error) {
	info, err := s.client.PutObject(ctx, bucket, path, data, size, minio.PutObjectOptions{
		ContentType:  opts.ContentType,
		CacheControl: opts.CacheControl,
	})
	if err != nil {
		return "", err
	}
	s.log.WithFields(logrus.Fields{"bucket": bucket, "path": info.Key, "size": info.Size}).Debug("object uploaded")
	return info.Key, nil
}

func (s *MinIOStore) PublicURL(bucket, path string) string {
	return s.baseURL + "/" + url.PathEscape(bucket) + "/" + escapePath(path)
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

// IsPermissionDenied reports whether err is the store rejecting the request on
// access policy grounds.
func IsPermissionDenied(err error) bool {
	if err == nil {
		return false
	}
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "AccessDenied", "AllAccessDisabled", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return true
	}
	if resp.StatusCode == http.StatusForbidden {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "row-level security") || strings.Contains(msg, "access denied")
}
