package utils

import "net/http"

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// DetectImageMIME sniffs the first bytes of data and reports whether they
// look like one of the raster formats the media pipeline accepts.
func DetectImageMIME(data []byte) (string, bool) {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}

	contentType := http.DetectContentType(head)
	return contentType, allowedImageTypes[contentType]
}
