package user

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ErrNotFound is returned when a user does not exist.
var ErrNotFound = errors.New("user not found")

// ErrAlreadyExists is returned when a username is already registered.
var ErrAlreadyExists = errors.New("user already exists")

// ErrInvalidStorage is returned when a storage configuration fails validation.
var ErrInvalidStorage = errors.New("invalid storage configuration")

// StorageConfig holds the connection parameters of a user's object store.
// The values are opaque to the service and must never be logged.
type StorageConfig struct {
	Endpoint  string `json:"endpoint"`
	Region    string `json:"region"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
}

// Validate checks that the configuration is complete enough to sign requests.
func (c StorageConfig) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return fmt.Errorf("%w: endpoint is required", ErrInvalidStorage)
	}
	if strings.TrimSpace(c.AccessKey) == "" || strings.TrimSpace(c.SecretKey) == "" {
		return fmt.Errorf("%w: access_key and secret_key are required", ErrInvalidStorage)
	}
	if strings.Contains(c.Endpoint, "://") {
		u, err := url.Parse(c.Endpoint)
		if err != nil || u.Host == "" {
			return fmt.Errorf("%w: endpoint is not a valid URL", ErrInvalidStorage)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("%w: endpoint scheme must be http or https", ErrInvalidStorage)
		}
	}
	return nil
}

// String hides the credentials so a config can never leak through a log line.
func (c StorageConfig) String() string {
	return fmt.Sprintf("StorageConfig{Endpoint: %s, Region: %s}", c.Endpoint, c.Region)
}

// User is a registered account. The storage configuration is optional and
// only reachable through Storage.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	storage *StorageConfig
}

// Storage returns the user's object-store configuration, if one is set.
func (u *User) Storage() (StorageConfig, bool) {
	if u == nil || u.storage == nil {
		return StorageConfig{}, false
	}
	return *u.storage, true
}

// WithStorage returns a copy of u carrying cfg.
func (u User) WithStorage(cfg StorageConfig) User {
	u.storage = &cfg
	return u
}

// Profile is the public view of a user; credentials are never included.
type Profile struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	HasStorage bool      `json:"has_storage"`
	Endpoint   string    `json:"endpoint,omitempty"`
	Region     string    `json:"region,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Profile builds the public view of u.
func (u *User) Profile() Profile {
	p := Profile{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt}
	if cfg, ok := u.Storage(); ok {
		p.HasStorage = true
		p.Endpoint = cfg.Endpoint
		p.Region = cfg.Region
	}
	return p
}

// Store is the persistence surface for users.
type Store interface {
	Create(ctx context.Context, username, passwordHash string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	// SetStorage replaces the storage configuration; nil clears it.
	SetStorage(ctx context.Context, id int64, cfg *StorageConfig) error
}

var (
	_ Store = (*Repository)(nil)
	_ Store = (*SQLiteRepository)(nil)
)

// storageFromColumns rebuilds the optional config from nullable columns.
func storageFromColumns(endpoint, region, accessKey, secretKey *string) *StorageConfig {
	if endpoint == nil || accessKey == nil || secretKey == nil {
		return nil
	}
	cfg := &StorageConfig{Endpoint: *endpoint, AccessKey: *accessKey, SecretKey: *secretKey}
	if region != nil {
		cfg.Region = *region
	}
	return cfg
}

func storageColumns(cfg *StorageConfig) (endpoint, region, accessKey, secretKey any) {
	if cfg == nil {
		return nil, nil, nil, nil
	}
	return cfg.Endpoint, cfg.Region, cfg.AccessKey, cfg.SecretKey
}
