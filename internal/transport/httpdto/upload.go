package httpdto

import (
	"time"

	"imagevault/internal/services"
)

// UploadDTO represents an upload record in API responses. FileURL and
// ThumbnailURL are presigned per request and expire.
type UploadDTO struct {
	ID           string                 `json:"id"`
	OwnerID      string                 `json:"owner_id"`
	OriginalName string                 `json:"original_name"`
	StoredName   string                 `json:"stored_name"`
	MimeType     string                 `json:"mime_type"`
	ByteSize     int64                  `json:"byte_size"`
	Width        int                    `json:"width,omitempty"`
	Height       int                    `json:"height,omitempty"`
	Category     string                 `json:"category"`
	Status       string                 `json:"status"`
	Description  string                 `json:"description,omitempty"`
	Tags         []string               `json:"tags"`
	IsPublic     bool                   `json:"is_public"`
	FileURL      string                 `json:"file_url,omitempty"`
	ThumbnailURL string                 `json:"thumbnail_url,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	UploadedAt   string                 `json:"uploaded_at"`
	UpdatedAt    string                 `json:"updated_at"`
}

// ListUploadsResponse is returned when listing uploads
type ListUploadsResponse struct {
	Uploads []UploadDTO `json:"uploads"`
	Count   int         `json:"count"`
	Limit   int64       `json:"limit"`
	Skip    int64       `json:"skip"`
}

// UpdateUploadRequest is used for PATCH /uploads/:id
type UpdateUploadRequest struct {
	Description *string  `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	IsPublic    *bool    `json:"is_public,omitempty"`
}

// DeleteUploadResponse is returned after a successful delete
type DeleteUploadResponse struct {
	UploadID string `json:"upload_id"`
}

// ModelDTO describes one supported background-removal model
type ModelDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ModelsResponse lists the supported background-removal models
type ModelsResponse struct {
	Models []ModelDTO `json:"models"`
}

func FromRecord(rec services.Record) UploadDTO {
	return UploadDTO{
		ID:           rec.ID.Hex(),
		OwnerID:      rec.OwnerID,
		OriginalName: rec.OriginalName,
		StoredName:   rec.StoredName,
		MimeType:     rec.MimeType,
		ByteSize:     rec.ByteSize,
		Width:        rec.Width,
		Height:       rec.Height,
		Category:     string(rec.Category),
		Status:       string(rec.Status),
		Description:  rec.Description,
		Tags:         rec.Tags,
		IsPublic:     rec.IsPublic,
		FileURL:      rec.FileURL,
		ThumbnailURL: rec.ThumbnailURL,
		Metadata:     rec.Metadata,
		UploadedAt:   rec.UploadedAt.Format(time.RFC3339),
		UpdatedAt:    rec.UpdatedAt.Format(time.RFC3339),
	}
}

func FromRecords(recs []services.Record) []UploadDTO {
	out := make([]UploadDTO, len(recs))
	for i, rec := range recs {
		out[i] = FromRecord(rec)
	}
	return out
}
