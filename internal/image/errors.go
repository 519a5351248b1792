package image

import "errors"

var (
	// ErrBadRequest covers malformed input and a missing storage configuration
	// on upload.
	ErrBadRequest = errors.New("bad request")
	// ErrNotFound means no group of the caller contains the filename, or the
	// caller has no storage to resolve it against.
	ErrNotFound = errors.New("image not found")
	// ErrObjectStore wraps failures to resolve the bucket or presign a URL.
	ErrObjectStore = errors.New("object store error")
	// ErrPersistence wraps group store failures.
	ErrPersistence = errors.New("persistence error")
)
