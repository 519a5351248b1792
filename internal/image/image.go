// Package image allocates image groups and resolves them to presigned
// object-store URLs. Clients never send image bytes through the service:
// they receive short-lived URLs and talk to the object store directly.
package image

import (
	"crypto/rand"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxFilesPerRequest caps the groups allocated by one upload request.
	MaxFilesPerRequest = 32
	// UploadLinkTimeout is the validity of every presigned URL.
	UploadLinkTimeout = 600 * time.Second
)

// Variant is one size rendition inside a group.
type Variant int

const (
	VariantSmall Variant = iota
	VariantMedium
	VariantOriginal
)

// Variants lists every variant in lookup order.
var Variants = []Variant{VariantSmall, VariantMedium, VariantOriginal}

func (v Variant) String() string {
	switch v {
	case VariantSmall:
		return "small"
	case VariantMedium:
		return "medium"
	case VariantOriginal:
		return "original"
	default:
		return "unknown"
	}
}

func (v Variant) column() string {
	return "filename_" + v.String()
}

// Group is the persisted record of one logical image: three object names
// owned by one user.
type Group struct {
	ID        int64     `json:"-"`
	UserID    int64     `json:"-"`
	Small     string    `json:"small"`
	Medium    string    `json:"medium"`
	Original  string    `json:"original"`
	CreatedAt time.Time `json:"-"`
}

// Filename returns the object name stored for v.
func (g Group) Filename(v Variant) string {
	switch v {
	case VariantSmall:
		return g.Small
	case VariantMedium:
		return g.Medium
	case VariantOriginal:
		return g.Original
	default:
		return ""
	}
}

// Match reports the first variant, in lookup order, whose filename equals name.
func (g Group) Match(name string) (Variant, bool) {
	if name == "" {
		return 0, false
	}
	for _, v := range Variants {
		if g.Filename(v) == name {
			return v, true
		}
	}
	return 0, false
}

// UploadSlot carries the presigned PUT URLs for one freshly allocated group.
type UploadSlot struct {
	Small    string `json:"small"`
	Medium   string `json:"medium"`
	Original string `json:"original"`
}

func (s *UploadSlot) set(v Variant, url string) {
	switch v {
	case VariantSmall:
		s.Small = url
	case VariantMedium:
		s.Medium = url
	case VariantOriginal:
		s.Original = url
	}
}

// NewFilename returns a fresh object name: 128 random bits in UUID text
// form. Version and variant bits are left random, so names are not RFC 4122
// version 4 UUIDs.
func NewFilename() string {
	var id uuid.UUID
	_, _ = rand.Read(id[:])
	return id.String()
}

// newGroup allocates three fresh filenames for userID.
func newGroup(userID int64) Group {
	return Group{
		UserID:   userID,
		Small:    NewFilename(),
		Medium:   NewFilename(),
		Original: NewFilename(),
	}
}
