// Package mediatype maps upload file names to content types and decides which
// types each media kind accepts.
package mediatype

import (
	"path/filepath"
	"strings"
)

var byExt = map[string]string{
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".ogv":  "video/ogg",
	".mov":  "video/quicktime",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".weba": "audio/webm",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".pdf":  "application/pdf",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

func Detect(filename string) string {
	if ct, ok := byExt[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}

var allowed = map[string]map[string]bool{
	"video": {
		"video/mp4": true, "video/webm": true, "video/ogg": true, "video/quicktime": true,
	},
	"audio": {
		"audio/mpeg": true, "audio/mp3": true, "audio/wav": true, "audio/x-wav": true,
		"audio/ogg": true, "audio/webm": true,
	},
	"imagen": {
		"image/jpeg": true, "image/png": true, "image/gif": true, "image/webp": true,
	},
	"material": {
		"application/pdf":               true,
		"application/vnd.ms-powerpoint": true,
		"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
		"application/msword": true,
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	},
	"diploma": {
		"image/png": true,
	},
}

// Allowed checks the declared content type, then falls back to the extension.
func Allowed(kind, contentType, filename string) bool {
	types, ok := allowed[kind]
	if !ok {
		return false
	}
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if types[ct] {
		return true
	}
	return types[Detect(filename)]
}
