package storage

import (
	"fmt"
	"path"
	"strings"
	"time"

	"imagevault/internal/domain/upload"

	"github.com/google/uuid"
)

// ObjectKey builds the storage key for an original upload:
//
//	uploads/{ownerId}/{category}/{year}/{month}/{timestamp}_{uuid}{ext}
//
// The timestamp prefix keeps listings in rough chronological order; the UUID
// guarantees uniqueness without any cross-request coordination. Returns the
// full key and the stored filename component.
func ObjectKey(ownerID, originalName string, category upload.Category, now time.Time) (string, string) {
	now = now.UTC()
	storedName := fmt.Sprintf("%s_%s%s", now.Format("20060102_150405"), uuid.New().String(), fileExt(originalName))
	key := fmt.Sprintf("uploads/%s/%s/%d/%02d/%s", ownerID, category, now.Year(), int(now.Month()), storedName)
	return key, storedName
}

// ProcessedObjectKey is the background-removed variant: the stored name gets
// a _nobg suffix and the extension is always .png, since the processed asset
// carries an alpha channel.
func ProcessedObjectKey(ownerID string, category upload.Category, now time.Time) (string, string) {
	now = now.UTC()
	storedName := fmt.Sprintf("%s_%s_nobg.png", now.Format("20060102_150405"), uuid.New().String())
	key := fmt.Sprintf("uploads/%s/%s/%d/%02d/%s", ownerID, category, now.Year(), int(now.Month()), storedName)
	return key, storedName
}

func fileExt(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ext == "" {
		ext = ".jpg"
	}
	return ext
}
