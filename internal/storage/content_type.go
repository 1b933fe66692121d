package storage

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// DetectContentType picks the MIME type for an object: the provided type,
// else the key's extension, else a sniff of head, else a generic binary type.
func DetectContentType(providedType, key string, head []byte) string {
	if providedType != "" {
		return providedType
	}
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(key))); ct != "" {
		return ct
	}
	if len(head) > 0 {
		return http.DetectContentType(head)
	}
	return "application/octet-stream"
}

// galleryImageTypes are the formats the thumbnailer can decode.
var galleryImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// IsGalleryImage reports whether contentType is a decodable photo format.
func IsGalleryImage(contentType string) bool {
	base := strings.TrimSpace(strings.ToLower(strings.Split(contentType, ";")[0]))
	return galleryImageTypes[base]
}
