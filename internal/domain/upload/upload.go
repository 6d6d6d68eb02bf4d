package upload

import (
	"fmt"
	"strings"
	"time"

	vault_errors "imagevault/pkg/errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status tracks an upload through the processing pipeline. Logical deletion
// is signalled by DeletedAt alone; there is deliberately no "deleted" status.
type Status string

const (
	StatusUploading  Status = "uploading"
	StatusUploaded   Status = "uploaded"
	StatusProcessing Status = "processing"
	StatusProcessed  Status = "processed"
	StatusFailed     Status = "failed"
)

type Category string

const (
	CategoryProfile   Category = "profile"
	CategoryGallery   Category = "gallery"
	CategoryDocument  Category = "document"
	CategoryThumbnail Category = "thumbnail"
)

const (
	MaxNameLength        = 255
	MaxDescriptionLength = 500
	MaxTags              = 20
	MaxTagLength         = 50
)

// AllowedMimeTypes is the set of image content types accepted for ingest.
var AllowedMimeTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
	"image/bmp":  {},
	"image/tiff": {},
}

// Upload is the persisted metadata record describing one stored image asset.
// The binary itself lives in object storage under StoragePath; URLs are never
// stored and are re-signed from the path at read time.
type Upload struct {
	ID            primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	OwnerID       string                 `bson:"ownerId" json:"ownerId"`
	OriginalName  string                 `bson:"originalName" json:"originalName"`
	StoredName    string                 `bson:"storedName" json:"storedName"`
	StoragePath   string                 `bson:"storagePath" json:"storagePath"`
	MimeType      string                 `bson:"mimeType" json:"mimeType"`
	ByteSize      int64                  `bson:"byteSize" json:"byteSize"`
	Width         int                    `bson:"width,omitempty" json:"width,omitempty"`
	Height        int                    `bson:"height,omitempty" json:"height,omitempty"`
	Category      Category               `bson:"category" json:"category"`
	Status        Status                 `bson:"status" json:"status"`
	Description   string                 `bson:"description,omitempty" json:"description,omitempty"`
	Tags          []string               `bson:"tags" json:"tags"`
	IsPublic      bool                   `bson:"isPublic" json:"isPublic"`
	ThumbnailPath string                 `bson:"thumbnailPath,omitempty" json:"thumbnailPath,omitempty"`
	Metadata      map[string]interface{} `bson:"metadata,omitempty" json:"metadata,omitempty"`
	UploadedAt    time.Time              `bson:"uploadedAt" json:"uploadedAt"`
	UpdatedAt     time.Time              `bson:"updatedAt" json:"updatedAt"`
	DeletedAt     *time.Time             `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"`
}

// Update carries a partial edit. Nil pointers leave the field untouched.
type Update struct {
	Description *string                `bson:"description,omitempty"`
	Tags        []string               `bson:"tags,omitempty"`
	IsPublic    *bool                  `bson:"isPublic,omitempty"`
	Status      *Status                `bson:"status,omitempty"`
	Metadata    map[string]interface{} `bson:"metadata,omitempty"`
}

func (u *Upload) Validate() error {
	if u.OwnerID == "" {
		return fmt.Errorf("%w: ownerId is required", vault_errors.ErrInvalidInput)
	}
	if l := len(u.OriginalName); l < 1 || l > MaxNameLength {
		return fmt.Errorf("%w: originalName must be 1-%d characters", vault_errors.ErrInvalidInput, MaxNameLength)
	}
	if l := len(u.StoredName); l < 1 || l > MaxNameLength {
		return fmt.Errorf("%w: storedName must be 1-%d characters", vault_errors.ErrInvalidInput, MaxNameLength)
	}
	if u.ByteSize <= 0 {
		return fmt.Errorf("%w: byteSize must be positive", vault_errors.ErrInvalidInput)
	}
	if _, ok := AllowedMimeTypes[strings.ToLower(u.MimeType)]; !ok {
		return fmt.Errorf("%w: mime type %q is not allowed", vault_errors.ErrInvalidInput, u.MimeType)
	}
	if err := ValidateDescription(u.Description); err != nil {
		return err
	}
	return ValidateTags(u.Tags)
}

func (up *Update) Validate() error {
	if up.Description != nil {
		if err := ValidateDescription(*up.Description); err != nil {
			return err
		}
	}
	if up.Tags != nil {
		if err := ValidateTags(up.Tags); err != nil {
			return err
		}
	}
	if up.Status != nil {
		if _, err := ParseStatus(string(*up.Status)); err != nil {
			return err
		}
	}
	return nil
}

func ValidateDescription(description string) error {
	if len(description) > MaxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", vault_errors.ErrInvalidInput, MaxDescriptionLength)
	}
	return nil
}

func ValidateTags(tags []string) error {
	if len(tags) > MaxTags {
		return fmt.Errorf("%w: maximum %d tags allowed", vault_errors.ErrInvalidInput, MaxTags)
	}
	for _, tag := range tags {
		if tag == "" || len(tag) > MaxTagLength {
			return fmt.Errorf("%w: each tag must be 1-%d characters", vault_errors.ErrInvalidInput, MaxTagLength)
		}
	}
	return nil
}

func ParseCategory(raw string) (Category, error) {
	switch Category(strings.ToLower(raw)) {
	case CategoryProfile:
		return CategoryProfile, nil
	case CategoryGallery, "":
		return CategoryGallery, nil
	case CategoryDocument:
		return CategoryDocument, nil
	case CategoryThumbnail:
		return CategoryThumbnail, nil
	default:
		return "", fmt.Errorf("%w: unknown category %q", vault_errors.ErrInvalidInput, raw)
	}
}

func ParseStatus(raw string) (Status, error) {
	switch Status(strings.ToLower(raw)) {
	case StatusUploading:
		return StatusUploading, nil
	case StatusUploaded:
		return StatusUploaded, nil
	case StatusProcessing:
		return StatusProcessing, nil
	case StatusProcessed:
		return StatusProcessed, nil
	case StatusFailed:
		return StatusFailed, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", vault_errors.ErrInvalidInput, raw)
	}
}
