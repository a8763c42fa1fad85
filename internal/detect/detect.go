// SPDX-License-Identifier: MIT

// Package detect resolves the MIME type of incoming sources. Local files are
// classified by extension first with content sniffing as the fallback, URLs
// map to text/html unless they point at YouTube, and raw content is checked
// for markup.
package detect

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/ManuGH/ccore/internal/content"
	"github.com/ManuGH/ccore/internal/exterr"
)

// extensionMIME maps lowercase file extensions to MIME types. A known
// extension takes precedence over content sniffing.
var extensionMIME = map[string]string{
	// Documents
	".pdf":      "application/pdf",
	".txt":      "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".rst":      "text/plain",
	".log":      "text/plain",
	".doc":      "application/msword",

	// Web formats
	".html":  "text/html",
	".htm":   "text/html",
	".xhtml": "text/html",
	".xml":   "text/xml",

	// Data formats
	".json": "application/json",
	".yaml": "text/yaml",
	".yml":  "text/yaml",
	".csv":  "text/csv",
	".tsv":  "text/csv",

	// Images
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".jpe":  "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".ico":  "image/x-icon",
	".svg":  "image/svg+xml",

	// Audio
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".wave": "audio/wav",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".flac": "audio/flac",
	".wma":  "audio/x-ms-wma",

	// Video
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".qt":   "video/quicktime",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".mpg":  "video/mpeg",
	".mpeg": "video/mpeg",
	".3gp":  "video/3gpp",

	// Office formats
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",

	// E-books
	".epub": "application/epub+zip",

	// Archives
	".zip": "application/zip",
	".tar": "application/x-tar",
	".gz":  "application/gzip",
	".bz2": "application/x-bzip2",
	".7z":  "application/x-7z-compressed",
	".rar": "application/x-rar-compressed",
}

// sniffAliases folds sniffed types onto the vocabulary the engine registry
// claims.
var sniffAliases = map[string]string{
	"audio/x-m4a": "audio/mp4",
	"video/x-m4v": "video/mp4",
}

// File returns the MIME type of a local file. The extension decides when it
// is known; otherwise the file header is sniffed, which also resolves
// ZIP-based office formats and EPUB. Files whose type cannot be determined
// yield an unsupported_content error.
func File(path string) (string, error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != "" {
		if mime, ok := extensionMIME[ext]; ok {
			return mime, nil
		}
	}
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return "", exterr.Wrap(exterr.KindFileNotFound, path, err)
		case errors.Is(err, fs.ErrPermission):
			return "", exterr.Wrap(exterr.KindPermission, path, err)
		}
		return "", exterr.Wrap(exterr.KindExtraction, "detect file type", err)
	}
	mime := baseMIME(mtype.String())
	if alias, ok := sniffAliases[mime]; ok {
		mime = alias
	}
	if mime == "application/octet-stream" {
		return "", exterr.Newf(exterr.KindUnsupported, "could not determine file type for %s", path)
	}
	return mime, nil
}

// URL returns the MIME type assumed for a URL without fetching it. YouTube
// links yield the synthetic youtube type; everything else is treated as a web
// page.
func URL(raw string) string {
	if IsYouTube(raw) {
		return content.MimeYouTube
	}
	return content.MimeHTML
}

// IsYouTube reports whether raw points at a YouTube page or short link.
func IsYouTube(raw string) bool {
	return strings.Contains(raw, "youtube.com") || strings.Contains(raw, "youtu.be")
}

// Content classifies raw inline content. A leading angle bracket with a
// closing bracket anywhere in the text marks markup.
func Content(raw string) string {
	if strings.HasPrefix(strings.TrimSpace(raw), "<") && strings.Contains(raw, ">") {
		return content.MimeHTML
	}
	return content.MimePlain
}

func baseMIME(s string) string {
	base, _, _ := strings.Cut(s, ";")
	return strings.TrimSpace(base)
}
