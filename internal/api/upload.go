// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ManuGH/ccore/internal/content"
	"github.com/ManuGH/ccore/internal/exterr"
	"github.com/ManuGH/ccore/internal/fsutil"
	"github.com/ManuGH/ccore/internal/log"
)

const (
	// maxUploadBytes bounds multipart uploads; media files dominate the
	// upload traffic.
	maxUploadBytes = 1 << 30
	// uploadMemory is the in-memory threshold before parts spill to disk.
	uploadMemory = 32 << 20
)

// handleExtractFile accepts a multipart upload, stages it in a request
// workspace and runs the extraction. The staged file is removed before the
// handler returns.
func (s *Server) handleExtractFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(uploadMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
				Error:     "upload exceeds limit",
				Kind:      string(exterr.KindValidation),
				RequestID: log.RequestIDFromContext(r.Context()),
			})
			return
		}
		writeBadRequest(w, r, "invalid multipart form: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	part, header, err := r.FormFile("file")
	if err != nil {
		writeBadRequest(w, r, `multipart field "file" is required`)
		return
	}
	defer func() { _ = part.Close() }()

	ws, err := fsutil.NewWorkspace("upload")
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:     "stage upload: " + err.Error(),
			Kind:      string(exterr.KindFatal),
			RequestID: log.RequestIDFromContext(r.Context()),
		})
		return
	}
	defer func() { _ = ws.Close() }()

	dst, err := ws.Path(uploadName(header.Filename))
	if err != nil {
		writeBadRequest(w, r, "invalid file name")
		return
	}
	if err := stageUpload(dst, part); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:     "stage upload: " + err.Error(),
			Kind:      string(exterr.KindFatal),
			RequestID: log.RequestIDFromContext(r.Context()),
		})
		return
	}

	src, badField := sourceFromForm(r, dst)
	if badField != "" {
		writeBadRequest(w, r, "invalid form field "+badField)
		return
	}
	s.runExtraction(w, r, src)
}

// uploadName reduces a client-supplied filename to a safe base name while
// keeping the extension for type detection.
func uploadName(raw string) string {
	name := filepath.Base(strings.ReplaceAll(raw, `\`, "/"))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "upload.bin"
	}
	return name
}

func stageUpload(dst string, part io.Reader) error {
	out, err := os.Create(dst) // #nosec G304 -- path confined to the workspace
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, part); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// sourceFromForm reads the optional request fields accompanying an upload.
// It returns the offending field name when one does not parse.
func sourceFromForm(r *http.Request, path string) (*content.Source, string) {
	src := &content.Source{
		FilePath:      path,
		MimeType:      r.FormValue("mime_type"),
		OutputFormat:  r.FormValue("output_format"),
		AudioProvider: r.FormValue("audio_provider"),
		AudioModel:    r.FormValue("audio_model"),
	}
	if v := r.FormValue("engines"); v != "" {
		for _, e := range strings.Split(v, ",") {
			if e = strings.TrimSpace(e); e != "" {
				src.Engines = append(src.Engines, e)
			}
		}
	}
	if v := r.FormValue("timeout_seconds"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, "timeout_seconds"
		}
		src.TimeoutSeconds = n
	}
	if v := r.FormValue("audio_concurrency"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, "audio_concurrency"
		}
		src.AudioConcurrency = n
	}
	if v := r.FormValue("options"); v != "" {
		if err := json.Unmarshal([]byte(v), &src.Options); err != nil {
			return nil, "options"
		}
	}
	return src, ""
}
