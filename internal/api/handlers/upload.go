package handlers

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/File-Sharing-BondBridg/Photo-Service/internal/logger"
	"github.com/File-Sharing-BondBridg/Photo-Service/internal/models"
	"github.com/File-Sharing-BondBridg/Photo-Service/internal/services"
	"github.com/File-Sharing-BondBridg/Photo-Service/internal/storage"
	"github.com/File-Sharing-BondBridg/Photo-Service/internal/views"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// formOverhead is the multipart framing and text fields allowed on top of
// the file payloads.
const formOverhead = 1 << 20

var errInfected = errors.New("rejected by virus scan")

func (h *Handler) UploadForm(c *gin.Context) {
	albums, err := h.storage.ListAlbums(c.Request.Context())
	if err != nil {
		h.storageError(c, err, "/")
		return
	}
	c.HTML(http.StatusOK, views.UploadForm, views.UploadFormPage{
		Common:   common(c, "Upload"),
		Albums:   albums,
		Album:    c.Query("album"),
		MaxFiles: h.opts.MaxFiles,
		MaxSize:  h.opts.MaxFileSize,
	})
}

// Upload stores every payload of a multipart request. Payloads are written
// in order and the first failure stops the request; files stored before it
// stay and are reported.
func (h *Handler) Upload(c *gin.Context) {
	limit := int64(h.opts.MaxFiles)*h.opts.MaxFileSize + formOverhead
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			h.message(c, http.StatusRequestEntityTooLarge, "Upload is too large.", "/upload-form")
		case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
			h.message(c, http.StatusOK, "No files uploaded.", "/upload-form")
		default:
			h.message(c, http.StatusBadRequest, "Failed to parse upload: "+err.Error(), "/upload-form")
		}
		return
	}
	defer form.RemoveAll()

	// Preferred: "photos", fallback: "photo"
	files := form.File["photos"]
	if len(files) == 0 {
		files = form.File["photo"]
	}
	if len(files) == 0 {
		h.message(c, http.StatusOK, "No files uploaded.", "/upload-form")
		return
	}

	if len(files) > h.opts.MaxFiles {
		h.message(c, http.StatusBadRequest,
			fmt.Sprintf("Too many files: at most %d per upload.", h.opts.MaxFiles), "/upload-form")
		return
	}
	for _, fh := range files {
		if fh.Size > h.opts.MaxFileSize {
			h.message(c, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("File too large: %s (limit %s).", fh.Filename, views.HumanSize(h.opts.MaxFileSize)), "/upload-form")
			return
		}
	}

	var album string
	if values := form.Value["album"]; len(values) > 0 {
		album = values[0]
	}
	if album != "" {
		if err := storage.ValidateAlbumName(album); err != nil {
			h.message(c, http.StatusBadRequest, "Invalid album name.", "/upload-form")
			return
		}
	}

	page := views.UploadResultPage{
		Common: common(c, "Upload"),
		Album:  album,
		Stored: make([]models.StoredFile, 0, len(files)),
	}

	for i, fh := range files {
		stored, err := h.storeOne(c.Request.Context(), album, fh)
		if err != nil {
			h.log.Error("Upload failed",
				zap.String("request_id", c.GetString(logger.RequestIDKey)),
				zap.String("album", album),
				zap.String("file", fh.Filename),
				zap.Int("stored", len(page.Stored)),
				zap.Error(err),
			)

			page.Failed = &views.FailedUpload{Name: fh.Filename, Reason: err.Error()}
			for _, rest := range files[i+1:] {
				page.NotAttempted = append(page.NotAttempted, rest.Filename)
			}

			status := http.StatusInternalServerError
			if errors.Is(err, errInfected) {
				status = http.StatusUnprocessableEntity
			}
			c.HTML(status, views.UploadResult, page)
			return
		}
		page.Stored = append(page.Stored, stored)
	}

	h.log.Info("Upload stored",
		zap.String("album", album),
		zap.Int("files", len(page.Stored)),
	)
	c.HTML(http.StatusOK, views.UploadResult, page)
}

func (h *Handler) storeOne(ctx context.Context, album string, fh *multipart.FileHeader) (models.StoredFile, error) {
	src, err := fh.Open()
	if err != nil {
		return models.StoredFile{}, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	stored, err := h.storage.Save(ctx, album, fh.Filename, fh.Size, src)
	if err != nil {
		return models.StoredFile{}, err
	}

	if err := h.scan(ctx, stored); err != nil {
		return models.StoredFile{}, err
	}

	h.publish(services.SubjectPhotoUploaded, services.PhotoUploaded(stored))
	return stored, nil
}

// scan runs the stored bytes through the scanner. Infected files are removed;
// an unreachable scanner only logs, the file is kept.
func (h *Handler) scan(ctx context.Context, f models.StoredFile) error {
	if h.scanner == nil {
		return nil
	}

	obj, err := h.storage.Open(ctx, f.Album, f.StoredName)
	if err != nil {
		return err
	}
	result, err := h.scanner.Scan(ctx, obj)
	obj.Close()
	if err != nil {
		h.log.Warn("Scan skipped", zap.String("file", f.RelativePath()), zap.Error(err))
		return nil
	}
	if !result.Infected {
		return nil
	}

	h.log.Warn("Virus detected",
		zap.String("file", f.RelativePath()),
		zap.String("signature", result.Signature),
	)
	if err := h.storage.Delete(ctx, f.Album, f.StoredName); err != nil {
		h.log.Error("Failed to delete infected file", zap.String("file", f.RelativePath()), zap.Error(err))
	}
	return fmt.Errorf("%w: %s", errInfected, result.Signature)
}
