package services

import (
	"fmt"
	"strings"
)

// MaxImageSizeBytes is the upload ceiling for generation images.
const MaxImageSizeBytes = 10 << 20 // 10 MiB

var allowedImageTypes = []string{"image/jpeg", "image/png"}

// ValidateImage checks an upload's declared MIME type and size against the
// generation pipeline's limits. A nil return means the image is acceptable;
// otherwise the error carries the user-facing message.
func ValidateImage(mimeType string, size int64) error {
	if size > MaxImageSizeBytes {
		return validationErrorf(fmt.Sprintf("Image size must be less than %dMB", MaxImageSizeBytes>>20))
	}

	for _, allowed := range allowedImageTypes {
		if mimeType == allowed {
			return nil
		}
	}
	return validationErrorf(fmt.Sprintf("Image format must be one of: %s", strings.Join(allowedImageTypes, ", ")))
}
