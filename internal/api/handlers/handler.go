package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/File-Sharing-BondBridg/Photo-Service/cmd/middleware"
	"github.com/File-Sharing-BondBridg/Photo-Service/internal/logger"
	"github.com/File-Sharing-BondBridg/Photo-Service/internal/services"
	"github.com/File-Sharing-BondBridg/Photo-Service/internal/storage"
	"github.com/File-Sharing-BondBridg/Photo-Service/internal/views"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Options struct {
	MaxFiles    int
	MaxFileSize int64
}

// Handler serves the upload, gallery and album pages on top of one storage
// backend.
type Handler struct {
	storage   storage.Storage
	publisher services.Publisher
	scanner   services.Scanner
	log       *logger.Logger
	opts      Options
}

// New wires a Handler. publisher and scanner may be nil.
func New(store storage.Storage, publisher services.Publisher, scanner services.Scanner, log *logger.Logger, opts Options) *Handler {
	if publisher == nil {
		publisher = services.NopPublisher{}
	}
	return &Handler{
		storage:   store,
		publisher: publisher,
		scanner:   scanner,
		log:       log,
		opts:      opts,
	}
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func common(c *gin.Context, title string) views.Common {
	return views.Common{Title: title, User: middleware.CurrentUser(c)}
}

func (h *Handler) message(c *gin.Context, status int, msg, back string) {
	c.HTML(status, views.Message, views.MessagePage{
		Common:  common(c, ""),
		Message: msg,
		Error:   status >= http.StatusBadRequest,
		Back:    back,
	})
}

// storageError renders err with the status matching its kind.
func (h *Handler) storageError(c *gin.Context, err error, back string) {
	switch {
	case errors.Is(err, storage.ErrInvalidName):
		h.message(c, http.StatusBadRequest, "Invalid file or album name.", back)
	case errors.Is(err, storage.ErrAlbumNotFound):
		h.message(c, http.StatusNotFound, "Album not found.", back)
	case errors.Is(err, storage.ErrNotFound):
		h.message(c, http.StatusNotFound, "File not found.", back)
	default:
		_ = c.Error(err)
		h.log.Error("Storage operation failed",
			zap.String("request_id", c.GetString(logger.RequestIDKey)),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		// the cause stays in the log; it can carry server paths
		h.message(c, http.StatusInternalServerError, "Storage error.", back)
	}
}

func (h *Handler) publish(subject string, payload interface{}) {
	if err := h.publisher.Publish(subject, payload); err != nil {
		h.log.Warn("Failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}

// galleryPath is the listing page for album.
func galleryPath(album string) string {
	if album == "" {
		return "/gallery"
	}
	return "/album/" + url.PathEscape(album)
}

// splitFilePath turns a "/[album/]storedName" wildcard into its parts.
func splitFilePath(p string) (album, name string, err error) {
	parts := strings.Split(strings.TrimPrefix(p, "/"), "/")
	switch len(parts) {
	case 1:
		name = parts[0]
	case 2:
		album, name = parts[0], parts[1]
		if album == "" {
			return "", "", storage.ErrInvalidName
		}
	default:
		return "", "", storage.ErrInvalidName
	}
	if err := storage.ValidateStoredName(name); err != nil {
		return "", "", err
	}
	return album, name, nil
}
