package validation

import (
	"bytes"
	"fmt"
	"image"
	"sort"
	"strings"

	// Register decoders for every allowed content type. jpeg/png/gif come
	// from the standard library, the rest from x/image.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"imagevault/internal/domain/upload"
	vault_errors "imagevault/pkg/errors"
)

// MaxUploadBytes is the hard ceiling for a single image upload.
const MaxUploadBytes = 10 << 20 // 10 MiB

// Result describes a successfully validated image.
type Result struct {
	Width    int
	Height   int
	ByteSize int64
	Format   string
}

// ValidateImage enforces the mime-type allow-list and the size ceiling, then
// fully decodes the payload to obtain true pixel dimensions. A full decode is
// intentional: truncated or corrupt payloads routinely carry a valid magic
// number and declared type.
func ValidateImage(data []byte, declaredType string, declaredSize int64) (Result, error) {
	mime := strings.ToLower(strings.TrimSpace(declaredType))
	if _, ok := upload.AllowedMimeTypes[mime]; !ok {
		return Result{}, fmt.Errorf("%w: invalid file type %q, allowed types: %s",
			vault_errors.ErrInvalidMedia, declaredType, allowedTypeList())
	}
	if declaredSize > MaxUploadBytes || int64(len(data)) > MaxUploadBytes {
		return Result{}, fmt.Errorf("%w: file size exceeds 10MB limit", vault_errors.ErrInvalidMedia)
	}
	if len(data) == 0 {
		return Result{}, fmt.Errorf("%w: empty file", vault_errors.ErrInvalidMedia)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("%w: invalid or corrupted image: %v", vault_errors.ErrInvalidMedia, err)
	}

	bounds := img.Bounds()
	return Result{
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		ByteSize: int64(len(data)),
		Format:   format,
	}, nil
}

func allowedTypeList() string {
	types := make([]string, 0, len(upload.AllowedMimeTypes))
	for t := range upload.AllowedMimeTypes {
		types = append(types, t)
	}
	sort.Strings(types)
	return strings.Join(types, ", ")
}
