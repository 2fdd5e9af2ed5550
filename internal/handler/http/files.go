package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/securefms/securefms/internal/logger"
	"github.com/securefms/securefms/internal/service"
	"github.com/securefms/securefms/internal/utils"
	"github.com/securefms/securefms/models"
)

// uploadFile accepts a multipart form with a single "file" part, enforces
// the configured size cap, and hands the plaintext to the file service for
// encryption and storage.
func (h *Handler) uploadFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	principal, ok := utils.PrincipalFromContext(ctx)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			log.Err(err).Msg("upload exceeds size limit")
			http.Error(w, "file exceeds the upload size limit", http.StatusRequestEntityTooLarge)
			return
		}
		log.Err(err).Msg("missing or unreadable multipart file field")
		http.Error(w, "multipart field `file` is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			log.Err(err).Msg("upload exceeds size limit")
			http.Error(w, "file exceeds the upload size limit", http.StatusRequestEntityTooLarge)
			return
		}
		log.Err(err).Msg("reading uploaded file failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	meta, err := h.services.Files.Store(ctx, principal, service.FileUpload{
		OriginalName: header.Filename,
		MimeType:     header.Header.Get("Content-Type"),
		Content:      content,
	})
	if err != nil {
		h.writeError(w, r, err, "file upload failed")
		return
	}

	utils.WriteJSON(w, meta, http.StatusCreated)
}

func (h *Handler) listFiles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principal, ok := utils.PrincipalFromContext(ctx)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	files, err := h.services.Files.List(ctx, principal)
	if err != nil {
		h.writeError(w, r, err, "file listing failed")
		return
	}

	if files == nil {
		files = []models.FileMetadata{}
	}
	utils.WriteJSON(w, files, http.StatusOK)
}

// downloadFile streams the decrypted file content with the original name
// and MIME type restored in the response headers.
func (h *Handler) downloadFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	principal, ok := utils.PrincipalFromContext(ctx)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	fileID, err := fileIDFromURL(r)
	if err != nil {
		log.Err(err).Msg("invalid file id")
		http.Error(w, "invalid file id", http.StatusBadRequest)
		return
	}

	meta, plaintext, err := h.services.Files.Retrieve(ctx, principal, fileID)
	if err != nil {
		h.writeError(w, r, err, "file download failed")
		return
	}

	mimeType := meta.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", meta.OriginalName))
	w.Header().Set("Content-Length", strconv.Itoa(len(plaintext)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(plaintext); err != nil {
		log.Err(err).Int64("file_id", fileID).Msg("writing file content to response failed")
	}
}

func (h *Handler) deleteFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	principal, ok := utils.PrincipalFromContext(ctx)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	fileID, err := fileIDFromURL(r)
	if err != nil {
		log.Err(err).Msg("invalid file id")
		http.Error(w, "invalid file id", http.StatusBadRequest)
		return
	}

	if err := h.services.Files.Delete(ctx, principal, fileID); err != nil {
		h.writeError(w, r, err, "file deletion failed")
		return
	}

	utils.WriteJSON(w, models.MessageResponse{Message: "file deleted"}, http.StatusOK)
}

func fileIDFromURL(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
