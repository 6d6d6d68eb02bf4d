package repository

import (
	"context"

	"imagevault/internal/domain/upload"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UploadFilter narrows a listing. Nil pointers mean no filtering on that
// field. Limit and Skip page the result; listings are always sorted by
// uploadedAt descending.
type UploadFilter struct {
	Status   *upload.Status
	Category *upload.Category
	Limit    int64
	Skip     int64
}

// UploadRepository persists upload metadata. Soft-deleted records (DeletedAt
// set) are invisible to every query; rows are never physically removed.
type UploadRepository interface {
	Insert(ctx context.Context, u *upload.Upload) (primitive.ObjectID, error)
	FindByOwner(ctx context.Context, ownerID string, filter UploadFilter) ([]upload.Upload, error)
	FindByID(ctx context.Context, id primitive.ObjectID, ownerID string) (upload.Upload, error)
	FindPublic(ctx context.Context, limit, skip int64) ([]upload.Upload, error)
	Update(ctx context.Context, id primitive.ObjectID, ownerID string, update upload.Update) error
	SoftDelete(ctx context.Context, id primitive.ObjectID, ownerID string) error
}
