// Package mimetypes lists the media types accepted for profile pictures.
package mimetypes

import "mime"

type MIME string

const (
	Unknown   MIME = "unknown"
	ImagePNG  MIME = "image/png"
	ImageJPEG MIME = "image/jpeg"
	ImageWEBP MIME = "image/webp"
	ImageGIF  MIME = "image/gif"
)

var Pictures = []MIME{ImagePNG, ImageJPEG, ImageWEBP, ImageGIF}

// Matches compares a detected media type, parameters ignored.
func Matches(detected string, expected MIME) bool {
	mt, _, err := mime.ParseMediaType(detected)
	if err != nil {
		return false
	}
	return mt == string(expected)
}

// Picture returns the accepted picture type matching detected, if any.
func Picture(detected string) (MIME, bool) {
	for _, p := range Pictures {
		if Matches(detected, p) {
			return p, true
		}
	}
	return Unknown, false
}
