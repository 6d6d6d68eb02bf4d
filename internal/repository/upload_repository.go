package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"imagevault/internal/domain/upload"
	vault_errors "imagevault/pkg/errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoUploadRepository struct {
	coll *mongo.Collection
}

func NewUploadRepository(coll *mongo.Collection) UploadRepository {
	return &MongoUploadRepository{coll: coll}
}

func (r *MongoUploadRepository) Insert(ctx context.Context, u *upload.Upload) (primitive.ObjectID, error) {
	res, err := r.coll.InsertOne(ctx, u)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: insert upload: %v", vault_errors.ErrPersistence, err)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("%w: unexpected inserted id type", vault_errors.ErrPersistence)
	}
	u.ID = id
	return id, nil
}

func (r *MongoUploadRepository) FindByOwner(ctx context.Context, ownerID string, filter UploadFilter) ([]upload.Upload, error) {
	query := bson.M{"ownerId": ownerID, "deletedAt": nil}
	if filter.Status != nil {
		query["status"] = *filter.Status
	}
	if filter.Category != nil {
		query["category"] = *filter.Category
	}
	return r.find(ctx, query, filter.Limit, filter.Skip)
}

func (r *MongoUploadRepository) FindPublic(ctx context.Context, limit, skip int64) ([]upload.Upload, error) {
	query := bson.M{"isPublic": true, "status": upload.StatusProcessed, "deletedAt": nil}
	return r.find(ctx, query, limit, skip)
}

func (r *MongoUploadRepository) find(ctx context.Context, query bson.M, limit, skip int64) ([]upload.Upload, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "uploadedAt", Value: -1}}).
		SetSkip(skip)
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: find uploads: %v", vault_errors.ErrPersistence, err)
	}
	defer cursor.Close(ctx)

	uploads := []upload.Upload{}
	if err := cursor.All(ctx, &uploads); err != nil {
		return nil, fmt.Errorf("%w: decode uploads: %v", vault_errors.ErrPersistence, err)
	}
	return uploads, nil
}

func (r *MongoUploadRepository) FindByID(ctx context.Context, id primitive.ObjectID, ownerID string) (upload.Upload, error) {
	var u upload.Upload
	err := r.coll.FindOne(ctx, bson.M{"_id": id, "ownerId": ownerID, "deletedAt": nil}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return upload.Upload{}, vault_errors.ErrNotFound
		}
		return upload.Upload{}, fmt.Errorf("%w: find upload: %v", vault_errors.ErrPersistence, err)
	}
	return u, nil
}

func (r *MongoUploadRepository) Update(ctx context.Context, id primitive.ObjectID, ownerID string, update upload.Update) error {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.Tags != nil {
		set["tags"] = update.Tags
	}
	if update.IsPublic != nil {
		set["isPublic"] = *update.IsPublic
	}
	if update.Status != nil {
		set["status"] = *update.Status
	}
	if update.Metadata != nil {
		set["metadata"] = update.Metadata
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "ownerId": ownerID, "deletedAt": nil},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("%w: update upload: %v", vault_errors.ErrPersistence, err)
	}
	if res.MatchedCount == 0 {
		return vault_errors.ErrNotFound
	}
	return nil
}

// SoftDelete marks the record logically removed. The row is kept; the filter
// excludes already-deleted records, so a second call reports not found.
func (r *MongoUploadRepository) SoftDelete(ctx context.Context, id primitive.ObjectID, ownerID string) error {
	now := time.Now().UTC()
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "ownerId": ownerID, "deletedAt": nil},
		bson.M{"$set": bson.M{"deletedAt": now, "updatedAt": now}},
	)
	if err != nil {
		return fmt.Errorf("%w: soft delete upload: %v", vault_errors.ErrPersistence, err)
	}
	if res.MatchedCount == 0 {
		return vault_errors.ErrNotFound
	}
	return nil
}
