package folderkit

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// extensionTypes covers extensions whose type must not depend on the
// platform mime tables.
var extensionTypes = map[string]string{
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".html": "text/html",
	".htm":  "text/html",
	".json": "application/json",
	".xml":  "application/xml",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".webp": "image/webp",
	".mp3":  "audio/mpeg",
	".mp4":  "video/mp4",
	".pdf":  "application/pdf",
	".zip":  "application/zip",
	".gz":   "application/gzip",
	".tar":  "application/x-tar",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// typeByExtension returns the content type registered for the extension
// of name, or "".
func typeByExtension(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return ""
	}
	if contentType, ok := extensionTypes[ext]; ok {
		return contentType
	}
	return mime.TypeByExtension(ext)
}

// MimeType guesses the content type from the extension, falling back to
// sniffing the first bytes of the file.
func (f *File) MimeType() (string, error) {
	if !f.Exists() {
		return "", f.ws.fail("mimetype", f.path, &PathError{Op: "mimetype", Path: f.path, Err: ErrNotExist})
	}
	if contentType := typeByExtension(f.path); contentType != "" {
		return contentType, nil
	}
	r, err := f.ws.host.Open(f.path)
	if err != nil {
		return "", f.ws.fail("mimetype", f.path, hostError("mimetype", f.path, err))
	}
	defer r.Close()
	mt, err := mimetype.DetectReader(r)
	if err != nil {
		return "", f.ws.fail("mimetype", f.path, hostError("mimetype", f.path, err))
	}
	return mt.String(), nil
}
