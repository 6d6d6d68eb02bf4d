package upload

import (
	"strings"
	"testing"

	vault_errors "imagevault/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validUpload() Upload {
	return Upload{
		OwnerID:      "owner-1",
		OriginalName: "photo.png",
		StoredName:   "20260830_150405_abc.png",
		StoragePath:  "uploads/owner-1/gallery/2026/08/20260830_150405_abc.png",
		MimeType:     "image/png",
		ByteSize:     1024,
		Category:     CategoryGallery,
		Status:       StatusUploaded,
	}
}

func TestUploadValidate(t *testing.T) {
	u := validUpload()
	require.NoError(t, u.Validate())
}

func TestUploadValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Upload)
	}{
		{"missing owner", func(u *Upload) { u.OwnerID = "" }},
		{"empty original name", func(u *Upload) { u.OriginalName = "" }},
		{"original name too long", func(u *Upload) { u.OriginalName = strings.Repeat("a", MaxNameLength+1) }},
		{"zero byte size", func(u *Upload) { u.ByteSize = 0 }},
		{"negative byte size", func(u *Upload) { u.ByteSize = -1 }},
		{"disallowed mime type", func(u *Upload) { u.MimeType = "application/pdf" }},
		{"description too long", func(u *Upload) { u.Description = strings.Repeat("d", MaxDescriptionLength+1) }},
		{"too many tags", func(u *Upload) { u.Tags = make([]string, MaxTags+1) }},
		{"tag too long", func(u *Upload) { u.Tags = []string{strings.Repeat("t", MaxTagLength+1)} }},
		{"empty tag", func(u *Upload) { u.Tags = []string{""} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := validUpload()
			tt.mutate(&u)
			assert.ErrorIs(t, u.Validate(), vault_errors.ErrInvalidInput)
		})
	}
}

func TestUploadValidate_MimeCaseInsensitive(t *testing.T) {
	u := validUpload()
	u.MimeType = "IMAGE/JPEG"
	assert.NoError(t, u.Validate())
}

func TestUpdateValidate(t *testing.T) {
	desc := "new description"
	status := StatusProcessed
	up := Update{Description: &desc, Tags: []string{"a", "b"}, Status: &status}
	require.NoError(t, up.Validate())
}

func TestUpdateValidate_NilFieldsSkipped(t *testing.T) {
	assert.NoError(t, (&Update{}).Validate())
}

func TestUpdateValidate_BadStatus(t *testing.T) {
	bad := Status("deleted")
	up := Update{Status: &bad}
	assert.ErrorIs(t, up.Validate(), vault_errors.ErrInvalidInput)
}

func TestParseCategory(t *testing.T) {
	got, err := ParseCategory("PROFILE")
	require.NoError(t, err)
	assert.Equal(t, CategoryProfile, got)

	got, err = ParseCategory("")
	require.NoError(t, err)
	assert.Equal(t, CategoryGallery, got)

	_, err = ParseCategory("banner")
	assert.ErrorIs(t, err, vault_errors.ErrInvalidInput)
}

func TestParseStatus(t *testing.T) {
	got, err := ParseStatus("processed")
	require.NoError(t, err)
	assert.Equal(t, StatusProcessed, got)

	_, err = ParseStatus("deleted")
	assert.ErrorIs(t, err, vault_errors.ErrInvalidInput)
}
