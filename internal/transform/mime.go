package transform

import (
	"path"
	"strings"
)

// DefaultMIMEType is assigned when the file extension is unknown.
const DefaultMIMEType = "application/octet-stream"

var mimeByExtension = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".bmp":  "image/bmp",
	".ico":  "image/vnd.microsoft.icon",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".webm": "video/webm",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".m4a":  "audio/mp4",
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".zip":  "application/zip",
	".gz":   "application/gzip",
	".txt":  "text/plain",
	".csv":  "text/csv",
}

// MIMEForFile maps a file name to a MIME type by extension. Exports only
// carry a URL and a relative path for attachments, so the type has to be
// derived rather than read.
func MIMEForFile(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if mt, ok := mimeByExtension[ext]; ok {
		return mt
	}
	return DefaultMIMEType
}
