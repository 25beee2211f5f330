package blobstore

import (
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/claimease/claimease/internal/platform/apperr"
)

// Policy is the set of rules an uploaded document must satisfy.
type Policy struct {
	MaxBytes          int64
	AllowedExtensions []string
}

// SanitizeFilename reduces name to a safe base name: directory components
// are dropped, whitespace becomes an underscore and any character outside
// [A-Za-z0-9._-] is removed. Leading dots are stripped.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}

	var b strings.Builder
	for _, r := range strings.Join(strings.Fields(name), "_") {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	return strings.TrimLeft(b.String(), "._")
}

// Extension returns the lowercased extension of name without the dot.
func Extension(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

func (p Policy) allows(ext string) bool {
	for _, a := range p.AllowedExtensions {
		if a == ext {
			return true
		}
	}
	return false
}

// Check validates a sanitized file name and its size in bytes.
func (p Policy) Check(fileName string, size int64) error {
	if fileName == "" {
		return apperr.Validation("file", "no file selected")
	}
	if ext := Extension(fileName); ext == "" || !p.allows(ext) {
		return apperr.Validation("file", fmt.Sprintf("file type not allowed; allowed types: %s", strings.Join(p.AllowedExtensions, ", ")))
	}
	if size == 0 {
		return apperr.Validation("file", "file is empty")
	}
	if p.MaxBytes > 0 && size > p.MaxBytes {
		return apperr.Validation("file", fmt.Sprintf("file exceeds the %d byte limit", p.MaxBytes))
	}
	return nil
}

// ContentType picks a MIME type from the extension, falling back to
// sniffing the content.
func ContentType(fileName string, content []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(fileName)); ct != "" {
		return ct
	}
	return http.DetectContentType(content)
}
