package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateImageType(t *testing.T) {
	assert.True(t, ValidateImageType("image/jpeg", "room.jpg"))
	assert.True(t, ValidateImageType("", "room.png"))
	assert.True(t, ValidateImageType("image/webp", ""))
	assert.True(t, ValidateImageType("IMAGE/PNG", "ROOM.PNG"))

	assert.False(t, ValidateImageType("application/pdf", "doc.pdf"))
	assert.False(t, ValidateImageType("video/mp4", "clip.mp4"))
	assert.False(t, ValidateImageType("", ""))
}

func TestContentTypeForFilename(t *testing.T) {
	assert.Equal(t, "image/jpeg", ContentTypeForFilename("room.jpg"))
	assert.Equal(t, "image/jpeg", ContentTypeForFilename("room.JPEG"))
	assert.Equal(t, "image/webp", ContentTypeForFilename("room.webp"))
	assert.Equal(t, "application/octet-stream", ContentTypeForFilename("notes.txt"))
}

func TestImageKeys(t *testing.T) {
	assert.Equal(t, "pg/abc/room.jpg", PGHostelImageKey("abc", "room.jpg"))
	assert.Equal(t, "issues/xyz/tap.png", IssueImageKey("xyz", "tap.png"))
	// path traversal in the filename is stripped
	assert.Equal(t, "pg/abc/room.jpg", PGHostelImageKey("abc", "../../room.jpg"))
}
