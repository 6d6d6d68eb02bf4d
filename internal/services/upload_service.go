package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"imagevault/internal/domain/upload"
	"imagevault/internal/engine"
	"imagevault/internal/repository"
	"imagevault/internal/storage"
	"imagevault/internal/validation"
	vault_errors "imagevault/pkg/errors"
	"imagevault/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ObjectStore is the slice of the storage gateway the orchestrator consumes.
type ObjectStore interface {
	Put(ctx context.Context, in storage.PutInput) error
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) string
}

// BackgroundRemover produces a background-stripped PNG plus processing
// metadata for a named model.
type BackgroundRemover interface {
	RemoveBackground(ctx context.Context, data []byte, model string) ([]byte, engine.Meta, error)
	RemoveBackgroundSmoothed(ctx context.Context, data []byte, model string) ([]byte, engine.Meta, error)
}

// Captioner generates an image description. Failure is signalled by the
// boolean, never by an error; captioning is always non-fatal.
type Captioner interface {
	Caption(ctx context.Context, imageData []byte) (string, bool)
}

// UploadService coordinates validation, processing, storage writes and
// metadata persistence into the ingest workflows, including the
// compensating storage delete when a metadata write fails after a
// successful storage write.
type UploadService struct {
	repo     repository.UploadRepository
	store    ObjectStore
	remover  BackgroundRemover
	captions Captioner
	log      *logger.Logger
	now      func() time.Time
}

func NewUploadService(repo repository.UploadRepository, store ObjectStore, remover BackgroundRemover, captions Captioner, log *logger.Logger) *UploadService {
	return &UploadService{
		repo:     repo,
		store:    store,
		remover:  remover,
		captions: captions,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateUploadInput carries one ingest request. Data is the full file body;
// DeclaredSize is what the client claimed, checked against the ceiling
// before the body is even decoded.
type CreateUploadInput struct {
	OwnerID      string
	FileName     string
	ContentType  string
	Data         []byte
	DeclaredSize int64
	Category     upload.Category
	Description  string
	Tags         []string
	IsPublic     bool
}

// RemovalOptions selects the processing applied in the background-removal
// workflow.
type RemovalOptions struct {
	Model           string
	EdgeSmoothing   bool
	GenerateCaption bool
}

// Record is an upload with its read-time URLs attached. URLs are never
// persisted; they are signed per request from the stored paths.
type Record struct {
	upload.Upload
	FileURL      string `json:"fileUrl,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

// Create runs the direct ingest workflow: validate, key, store, persist.
func (s *UploadService) Create(ctx context.Context, in CreateUploadInput) (upload.Upload, error) {
	if err := validateRequest(in); err != nil {
		return upload.Upload{}, err
	}

	media, err := validation.ValidateImage(in.Data, in.ContentType, in.DeclaredSize)
	if err != nil {
		return upload.Upload{}, err
	}

	now := s.now()
	key, storedName := storage.ObjectKey(in.OwnerID, in.FileName, in.Category, now)

	err = s.store.Put(ctx, storage.PutInput{
		Key:         key,
		Body:        in.Data,
		ContentType: in.ContentType,
		Metadata: map[string]string{
			"original-filename": in.FileName,
			"owner-id":          in.OwnerID,
			"upload-timestamp":  now.Format(time.RFC3339),
		},
		Public: in.IsPublic,
	})
	if err != nil {
		return upload.Upload{}, err
	}

	u := upload.Upload{
		OwnerID:      in.OwnerID,
		OriginalName: in.FileName,
		StoredName:   storedName,
		StoragePath:  key,
		MimeType:     in.ContentType,
		ByteSize:     media.ByteSize,
		Width:        media.Width,
		Height:       media.Height,
		Category:     in.Category,
		Status:       upload.StatusUploaded,
		Description:  in.Description,
		Tags:         nonNilTags(in.Tags),
		IsPublic:     in.IsPublic,
		UploadedAt:   now,
		UpdatedAt:    now,
	}

	if err := s.persist(ctx, &u, key); err != nil {
		return upload.Upload{}, err
	}
	return u, nil
}

// CreateWithBackgroundRemoval runs the processing ingest workflow. The model
// name is checked against the supported set before any decoding, inference
// or I/O happens.
func (s *UploadService) CreateWithBackgroundRemoval(ctx context.Context, in CreateUploadInput, opts RemovalOptions) (upload.Upload, error) {
	if !engine.IsSupported(opts.Model) {
		return upload.Upload{}, modelNotSupportedError(opts.Model)
	}
	if err := validateRequest(in); err != nil {
		return upload.Upload{}, err
	}

	if _, err := validation.ValidateImage(in.Data, in.ContentType, in.DeclaredSize); err != nil {
		return upload.Upload{}, err
	}

	var processed []byte
	var meta engine.Meta
	var err error
	if opts.EdgeSmoothing {
		processed, meta, err = s.remover.RemoveBackgroundSmoothed(ctx, in.Data, opts.Model)
	} else {
		processed, meta, err = s.remover.RemoveBackground(ctx, in.Data, opts.Model)
	}
	if err != nil {
		return upload.Upload{}, err
	}

	now := s.now()
	key, storedName := storage.ProcessedObjectKey(in.OwnerID, in.Category, now)

	err = s.store.Put(ctx, storage.PutInput{
		Key:         key,
		Body:        processed,
		ContentType: "image/png",
		Metadata: map[string]string{
			"original-filename":  in.FileName,
			"owner-id":           in.OwnerID,
			"upload-timestamp":   now.Format(time.RFC3339),
			"background-removed": "true",
			"model-used":         opts.Model,
			"edge-smoothing":     strconv.FormatBool(meta.EdgeSmoothing),
			"original-size":      strconv.Itoa(meta.OriginalSize),
			"processed-size":     strconv.Itoa(meta.ProcessedSize),
		},
		Public: in.IsPublic,
	})
	if err != nil {
		return upload.Upload{}, err
	}

	description := in.Description
	captionGenerated := false
	if opts.GenerateCaption && s.captions != nil {
		if caption, ok := s.captions.Caption(ctx, processed); ok {
			description = caption
			captionGenerated = true
		}
	}

	metadata := meta.Map()
	metadata["processingApplied"] = "background_removal"
	metadata["captionGenerated"] = captionGenerated

	u := upload.Upload{
		OwnerID:      in.OwnerID,
		OriginalName: in.FileName,
		StoredName:   storedName,
		StoragePath:  key,
		MimeType:     "image/png",
		ByteSize:     int64(meta.ProcessedSize),
		Width:        meta.ProcessedWidth,
		Height:       meta.ProcessedHeight,
		Category:     in.Category,
		Status:       upload.StatusProcessed,
		Description:  description,
		Tags:         nonNilTags(in.Tags),
		IsPublic:     in.IsPublic,
		Metadata:     metadata,
		UploadedAt:   now,
		UpdatedAt:    now,
	}

	if err := s.persist(ctx, &u, key); err != nil {
		return upload.Upload{}, err
	}
	return u, nil
}

// persist inserts the record and, if the insert fails after the object was
// already written, issues exactly one compensating delete before
// propagating. Best-effort: a failed compensation leaves an orphan object,
// which is logged, not escalated.
func (s *UploadService) persist(ctx context.Context, u *upload.Upload, key string) error {
	if _, err := s.repo.Insert(ctx, u); err != nil {
		s.log.WithContext(ctx).Error("metadata insert failed, compensating storage delete",
			zap.String("key", key),
			zap.String("owner_id", u.OwnerID),
			zap.Error(err))
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.log.WithContext(ctx).Warn("compensating delete failed, orphan object remains",
				zap.String("key", key),
				zap.Error(delErr))
		}
		return err
	}
	return nil
}

// List returns the owner's uploads, newest first, with URLs signed for ttl.
func (s *UploadService) List(ctx context.Context, ownerID string, filter repository.UploadFilter, ttl time.Duration) ([]Record, error) {
	uploads, err := s.repo.FindByOwner(ctx, ownerID, filter)
	if err != nil {
		return nil, err
	}
	return s.sign(ctx, uploads, ttl), nil
}

// Public returns the public processed gallery.
func (s *UploadService) Public(ctx context.Context, limit, skip int64, ttl time.Duration) ([]Record, error) {
	uploads, err := s.repo.FindPublic(ctx, limit, skip)
	if err != nil {
		return nil, err
	}
	return s.sign(ctx, uploads, ttl), nil
}

// Get returns one upload with URLs signed for ttl.
func (s *UploadService) Get(ctx context.Context, id, ownerID string, ttl time.Duration) (Record, error) {
	oid, err := parseID(id)
	if err != nil {
		return Record{}, err
	}
	u, err := s.repo.FindByID(ctx, oid, ownerID)
	if err != nil {
		return Record{}, err
	}
	return s.signOne(ctx, u, ttl), nil
}

// Edit applies a partial update and returns the updated record.
func (s *UploadService) Edit(ctx context.Context, id, ownerID string, update upload.Update) (upload.Upload, error) {
	if err := update.Validate(); err != nil {
		return upload.Upload{}, err
	}
	oid, err := parseID(id)
	if err != nil {
		return upload.Upload{}, err
	}
	if err := s.repo.Update(ctx, oid, ownerID, update); err != nil {
		return upload.Upload{}, err
	}
	return s.repo.FindByID(ctx, oid, ownerID)
}

// Delete removes the backing object best-effort and soft-deletes the record.
// A second call for the same id reports not found.
func (s *UploadService) Delete(ctx context.Context, id, ownerID string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	u, err := s.repo.FindByID(ctx, oid, ownerID)
	if err != nil {
		return err
	}

	if delErr := s.store.Delete(ctx, u.StoragePath); delErr != nil {
		s.log.WithContext(ctx).Warn("object delete failed, continuing with soft delete",
			zap.String("key", u.StoragePath),
			zap.Error(delErr))
	}
	if u.ThumbnailPath != "" {
		if delErr := s.store.Delete(ctx, u.ThumbnailPath); delErr != nil {
			s.log.WithContext(ctx).Warn("thumbnail delete failed",
				zap.String("key", u.ThumbnailPath),
				zap.Error(delErr))
		}
	}

	return s.repo.SoftDelete(ctx, oid, ownerID)
}

// SupportedModels lists the background-removal models clients may request.
func (s *UploadService) SupportedModels() []engine.ModelInfo {
	return engine.SupportedModels()
}

func (s *UploadService) sign(ctx context.Context, uploads []upload.Upload, ttl time.Duration) []Record {
	records := make([]Record, len(uploads))
	for i, u := range uploads {
		records[i] = s.signOne(ctx, u, ttl)
	}
	return records
}

func (s *UploadService) signOne(ctx context.Context, u upload.Upload, ttl time.Duration) Record {
	rec := Record{Upload: u}
	rec.FileURL = s.store.PresignGet(ctx, u.StoragePath, ttl)
	if u.ThumbnailPath != "" {
		rec.ThumbnailURL = s.store.PresignGet(ctx, u.ThumbnailPath, ttl)
	}
	return rec
}

func validateRequest(in CreateUploadInput) error {
	if in.OwnerID == "" {
		return fmt.Errorf("%w: owner id is required", vault_errors.ErrInvalidInput)
	}
	if l := len(in.FileName); l < 1 || l > upload.MaxNameLength {
		return fmt.Errorf("%w: file name must be 1-%d characters", vault_errors.ErrInvalidInput, upload.MaxNameLength)
	}
	if err := upload.ValidateDescription(in.Description); err != nil {
		return err
	}
	return upload.ValidateTags(in.Tags)
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, vault_errors.ErrNotFound
	}
	return oid, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func modelNotSupportedError(model string) error {
	names := engine.SupportedModels()
	list := make([]string, len(names))
	for i, m := range names {
		list[i] = m.Name
	}
	return fmt.Errorf("%w: invalid model %q, available models: %s",
		vault_errors.ErrModelNotSupported, model, strings.Join(list, ", "))
}
