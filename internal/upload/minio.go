package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
	mclient "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/contactkeeper/contacts_api/internal/config"
)

var ErrUnsupportedType = errors.New("unsupported avatar content type")

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// AvatarStorage stores avatar images in a MinIO/S3 bucket and hands back a
// public URL for the user record.
type AvatarStorage struct {
	client    *mclient.Client
	bucket    string
	publicURL string
}

// New builds the MinIO client and fails fast when the bucket is missing.
func New(ctx context.Context, cfg *config.Config) (*AvatarStorage, error) {
	endpoint := cfg.MINIO_ENDPOINT
	secure := strings.HasPrefix(endpoint, "https://")
	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" {
		endpoint = u.Host
		secure = u.Scheme == "https"
	}

	client, err := mclient.New(endpoint, &mclient.Options{
		Creds:  credentials.NewStaticV4(cfg.MINIO_ROOT_USER, cfg.MINIO_ROOT_PASSWORD, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.MINIO_BUCKET)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("minio bucket %q does not exist", cfg.MINIO_BUCKET)
	}

	return &AvatarStorage{
		client:    client,
		bucket:    cfg.MINIO_BUCKET,
		publicURL: strings.TrimRight(cfg.MINIO_PUBLIC_URL, "/"),
	}, nil
}

// Upload writes the avatar under avatars/<username>/<uuid><ext> and returns
// its public URL.
func (s *AvatarStorage) Upload(ctx context.Context, username, contentType string, size int64, r io.Reader) (string, error) {
	ext, ok := extensions[contentType]
	if !ok {
		return "", ErrUnsupportedType
	}

	key := path.Join("avatars", username, uuid.NewString()+ext)
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, mclient.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("minio put %s: %w", key, err)
	}

	return s.publicURL + "/" + key, nil
}
