package image

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/picshelf/service/internal/metrics"
	"github.com/picshelf/service/internal/storage"
	"github.com/picshelf/service/internal/user"
)

// BucketResolver returns the object-store bucket configured for a user.
type BucketResolver interface {
	Resolve(ctx context.Context, u *user.User) (storage.Bucket, error)
}

// Service allocates image groups and resolves filenames to download URLs.
type Service struct {
	buckets BucketResolver
	groups  GroupStore
	obs     metrics.Observer
}

// NewService creates a new image Service. obs may be nil.
func NewService(buckets BucketResolver, groups GroupStore, obs metrics.Observer) *Service {
	if obs == nil {
		obs = metrics.Nop{}
	}
	return &Service{buckets: buckets, groups: groups, obs: obs}
}

// RequestUpload allocates count groups for u and returns presigned PUT URLs
// for each of their variants. Groups are recorded one at a time: on a
// failure the groups recorded before it stay in place.
func (s *Service) RequestUpload(ctx context.Context, u *user.User, count int) (slots []UploadSlot, err error) {
	defer s.observe(metrics.OpUpload, time.Now(), &err)

	if count < 0 || count > MaxFilesPerRequest {
		return nil, fmt.Errorf("%w: number must be between 0 and %d", ErrBadRequest, MaxFilesPerRequest)
	}

	bucket, err := s.buckets.Resolve(ctx, u)
	if errors.Is(err, storage.ErrMissingConfiguration) {
		return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: resolve bucket: %w", ErrObjectStore, err)
	}

	stored := 0
	defer func() { s.obs.RecordGroups(stored) }()

	slots = make([]UploadSlot, 0, count)
	for i := 0; i < count; i++ {
		g := newGroup(u.ID)

		var slot UploadSlot
		for _, v := range Variants {
			url, err := bucket.PresignUpload(ctx, g.Filename(v), UploadLinkTimeout)
			if err != nil {
				return nil, fmt.Errorf("%w: presign %s upload: %w", ErrObjectStore, v, err)
			}
			slot.set(v, url)
		}

		if _, err := s.groups.InsertGroup(ctx, g); err != nil {
			return nil, err
		}
		stored++
		slots = append(slots, slot)
	}

	slog.InfoContext(ctx, "upload slots issued", "user_id", u.ID, "groups", count)
	return slots, nil
}

// ListGroups returns the caller's groups in insertion order.
func (s *Service) ListGroups(ctx context.Context, userID int64) (groups []Group, err error) {
	defer s.observe(metrics.OpList, time.Now(), &err)
	return s.groups.ListGroups(ctx, userID)
}

// ResolveDownload returns a presigned GET URL for filename if it belongs to
// one of u's groups. A filename owned by someone else is indistinguishable
// from one that does not exist.
func (s *Service) ResolveDownload(ctx context.Context, u *user.User, filename string) (url string, err error) {
	defer s.observe(metrics.OpDownload, time.Now(), &err)

	if filename == "" {
		return "", ErrNotFound
	}

	g, err := s.groups.FindGroupContaining(ctx, u.ID, filename)
	if err != nil {
		return "", err
	}
	if g == nil {
		return "", ErrNotFound
	}
	v, ok := g.Match(filename)
	if !ok {
		return "", ErrNotFound
	}

	bucket, err := s.buckets.Resolve(ctx, u)
	if errors.Is(err, storage.ErrMissingConfiguration) {
		return "", fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if err != nil {
		return "", fmt.Errorf("%w: resolve bucket: %w", ErrObjectStore, err)
	}

	url, err = bucket.PresignDownload(ctx, g.Filename(v), UploadLinkTimeout)
	if err != nil {
		return "", fmt.Errorf("%w: presign %s download: %w", ErrObjectStore, v, err)
	}
	return url, nil
}

func (s *Service) observe(op string, start time.Time, err *error) {
	var failed error
	// Caller mistakes are not operation failures.
	if *err != nil && !errors.Is(*err, ErrBadRequest) && !errors.Is(*err, ErrNotFound) {
		failed = *err
	}
	s.obs.RecordOperation(op, time.Since(start), failed)
}
