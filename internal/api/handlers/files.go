package handlers

import (
	"mime"
	"net/http"
	"path/filepath"

	"github.com/File-Sharing-BondBridg/Photo-Service/internal/services"
	"github.com/File-Sharing-BondBridg/Photo-Service/internal/storage"
	"github.com/gin-gonic/gin"
)

// DeleteFile removes one stored file. Deleting a missing file still
// redirects back to the gallery.
func (h *Handler) DeleteFile(c *gin.Context) {
	album := c.PostForm("album")
	name := c.PostForm("filename")

	if err := storage.ValidateStoredName(name); err != nil {
		h.storageError(c, err, galleryPath(""))
		return
	}
	if album != "" {
		if err := storage.ValidateAlbumName(album); err != nil {
			h.storageError(c, err, "/albums")
			return
		}
	}

	if err := h.storage.Delete(c.Request.Context(), album, name); err != nil {
		h.storageError(c, err, galleryPath(album))
		return
	}

	h.publish(services.SubjectPhotoDeleted, services.PhotoDeleted(album, name))
	c.Redirect(http.StatusSeeOther, galleryPath(album))
}

// Download streams a stored file as an attachment named after the
// original upload.
func (h *Handler) Download(c *gin.Context) {
	h.serve(c, true)
}

// Serve streams a stored file inline, as referenced by the gallery.
func (h *Handler) Serve(c *gin.Context) {
	h.serve(c, false)
}

func (h *Handler) serve(c *gin.Context, attachment bool) {
	album, name, err := splitFilePath(c.Param("filepath"))
	if err != nil {
		h.storageError(c, err, "/gallery")
		return
	}

	obj, err := h.storage.Open(c.Request.Context(), album, name)
	if err != nil {
		h.storageError(c, err, galleryPath(album))
		return
	}
	defer obj.Close()

	headers := map[string]string{"X-Content-Type-Options": "nosniff"}
	contentType := storage.GetContentType(filepath.Ext(name))
	if attachment {
		filename := obj.File.OriginalName
		if filename == "" {
			filename = obj.File.StoredName
		}
		headers["Content-Description"] = "File Transfer"
		headers["Content-Disposition"] = mime.FormatMediaType("attachment", map[string]string{"filename": filename})
		contentType = "application/octet-stream"
	}

	c.DataFromReader(http.StatusOK, obj.File.Size, contentType, obj, headers)
}
