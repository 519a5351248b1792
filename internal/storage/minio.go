package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/picshelf/service/internal/user"
)

// defaultRegion is used when the user leaves the region empty. A known
// region keeps presigning local: the client never has to ask the server
// where the bucket lives.
const defaultRegion = "us-east-1"

// MinioBucket implements Bucket on top of a MinIO client.
type MinioBucket struct {
	client *minio.Client
	bucket string
}

// PresignUpload returns a presigned PUT URL for objectName.
func (b *MinioBucket) PresignUpload(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	if objectName == "" {
		return "", errors.New("object name is required")
	}
	u, err := b.client.PresignedPutObject(ctx, b.bucket, objectName, expiry)
	if err != nil {
		return "", fmt.Errorf("presign put %q: %w", objectName, err)
	}
	return u.String(), nil
}

// PresignDownload returns a presigned GET URL for objectName.
func (b *MinioBucket) PresignDownload(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	if objectName == "" {
		return "", errors.New("object name is required")
	}
	u, err := b.client.PresignedGetObject(ctx, b.bucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign get %q: %w", objectName, err)
	}
	return u.String(), nil
}

// Resolver builds a Bucket from a user's stored configuration. Clients are
// cached by a digest of the configuration, so a changed key pair or endpoint
// always yields a fresh client.
type Resolver struct {
	defaultBucket string
	clients       *lru.Cache[string, *minio.Client]
}

// NewResolver creates a Resolver. defaultBucket is used when the endpoint
// does not name a bucket in its path.
func NewResolver(defaultBucket string, cacheSize int) (*Resolver, error) {
	if defaultBucket == "" {
		return nil, errors.New("default bucket is required")
	}
	cache, err := lru.New[string, *minio.Client](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create client cache: %w", err)
	}
	return &Resolver{defaultBucket: defaultBucket, clients: cache}, nil
}

// Resolve returns the bucket configured for u, or ErrMissingConfiguration.
func (r *Resolver) Resolve(_ context.Context, u *user.User) (Bucket, error) {
	cfg, ok := u.Storage()
	if !ok {
		return nil, ErrMissingConfiguration
	}

	ep, err := parseEndpoint(cfg.Endpoint, r.defaultBucket)
	if err != nil {
		return nil, err
	}
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	key := configDigest(cfg)
	if client, ok := r.clients.Get(key); ok {
		return &MinioBucket{client: client, bucket: ep.bucket}, nil
	}

	client, err := minio.New(ep.host, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       ep.secure,
		Region:       region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client for %s: %w", ep.host, err)
	}
	r.clients.Add(key, client)

	return &MinioBucket{client: client, bucket: ep.bucket}, nil
}

type endpoint struct {
	host   string
	secure bool
	bucket string
}

// parseEndpoint accepts "https://host[:port][/bucket]" or "host[:port][/bucket]".
// A missing scheme means TLS.
func parseEndpoint(raw, defaultBucket string) (endpoint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return endpoint{}, errors.New("endpoint is empty")
	}

	ep := endpoint{secure: true}
	var path string
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return endpoint{}, fmt.Errorf("parse endpoint: %w", err)
		}
		switch u.Scheme {
		case "https":
		case "http":
			ep.secure = false
		default:
			return endpoint{}, fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
		}
		ep.host = u.Host
		path = u.Path
	} else {
		host, rest, _ := strings.Cut(raw, "/")
		ep.host = host
		path = rest
	}
	if ep.host == "" {
		return endpoint{}, errors.New("endpoint has no host")
	}

	bucket, _, _ := strings.Cut(strings.Trim(path, "/"), "/")
	if bucket == "" {
		bucket = defaultBucket
	}
	ep.bucket = bucket
	return ep, nil
}

func configDigest(cfg user.StorageConfig) string {
	h := sha256.New()
	for _, part := range []string{cfg.Endpoint, cfg.Region, cfg.AccessKey, cfg.SecretKey} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
