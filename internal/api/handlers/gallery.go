package handlers

import (
	"errors"
	"net/http"

	"github.com/File-Sharing-BondBridg/Photo-Service/internal/storage"
	"github.com/File-Sharing-BondBridg/Photo-Service/internal/views"
	"github.com/gin-gonic/gin"
)

func (h *Handler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, views.Index, views.IndexPage{Common: common(c, "")})
}

// Gallery lists the files stored outside any album.
func (h *Handler) Gallery(c *gin.Context) {
	h.renderGallery(c, "")
}

func (h *Handler) Album(c *gin.Context) {
	name := c.Param("name")
	if err := storage.ValidateAlbumName(name); err != nil {
		h.storageError(c, err, "/albums")
		return
	}
	h.renderGallery(c, name)
}

func (h *Handler) renderGallery(c *gin.Context, album string) {
	files, err := h.storage.List(c.Request.Context(), album)
	if err != nil {
		h.storageError(c, err, "/albums")
		return
	}

	title := "Gallery"
	if album != "" {
		title = album
	}
	c.HTML(http.StatusOK, views.Gallery, views.GalleryPage{
		Common: common(c, title),
		Album:  album,
		Files:  files,
	})
}

// ListFiles returns the stored names of one album (the root by default).
func (h *Handler) ListFiles(c *gin.Context) {
	album := c.Query("album")

	files, err := h.storage.List(c.Request.Context(), album)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidName):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid album name"})
		case errors.Is(err, storage.ErrAlbumNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "album not found"})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch files"})
		}
		return
	}

	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.StoredName)
	}
	c.JSON(http.StatusOK, names)
}

func (h *Handler) ListAlbums(c *gin.Context) {
	albums, err := h.storage.ListAlbums(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch albums"})
		return
	}
	c.JSON(http.StatusOK, albums)
}
