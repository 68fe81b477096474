package handlers

import (
	"net/http"

	"github.com/File-Sharing-BondBridg/Photo-Service/internal/services"
	"github.com/File-Sharing-BondBridg/Photo-Service/internal/storage"
	"github.com/File-Sharing-BondBridg/Photo-Service/internal/views"
	"github.com/gin-gonic/gin"
)

func (h *Handler) Albums(c *gin.Context) {
	albums, err := h.storage.ListAlbums(c.Request.Context())
	if err != nil {
		h.storageError(c, err, "/")
		return
	}
	c.HTML(http.StatusOK, views.Albums, views.AlbumsPage{
		Common: common(c, "Albums"),
		Albums: albums,
	})
}

func (h *Handler) CreateAlbumForm(c *gin.Context) {
	c.HTML(http.StatusOK, views.CreateAlbum, views.CreateAlbumPage{Common: common(c, "New album")})
}

// CreateAlbum is idempotent: an existing album is a success.
func (h *Handler) CreateAlbum(c *gin.Context) {
	name := c.PostForm("albumName")
	if name == "" {
		name = c.PostForm("album")
	}

	if err := storage.ValidateAlbumName(name); err != nil {
		c.HTML(http.StatusBadRequest, views.CreateAlbum, views.CreateAlbumPage{
			Common: common(c, "New album"),
			Error:  "Album names may use letters, digits, spaces, '-', '_' and '.', and must not start with a dot.",
			Name:   name,
		})
		return
	}

	if err := h.storage.CreateAlbum(c.Request.Context(), name); err != nil {
		h.storageError(c, err, "/create-album")
		return
	}

	h.publish(services.SubjectAlbumCreated, services.AlbumChanged("created", name))
	c.Redirect(http.StatusSeeOther, galleryPath(name))
}

// DeleteAlbum removes an album with everything in it. A missing album is a no-op.
func (h *Handler) DeleteAlbum(c *gin.Context) {
	name := c.PostForm("album")
	if err := storage.ValidateAlbumName(name); err != nil {
		h.storageError(c, err, "/albums")
		return
	}

	if err := h.storage.DeleteAlbum(c.Request.Context(), name); err != nil {
		h.storageError(c, err, "/albums")
		return
	}

	h.publish(services.SubjectAlbumDeleted, services.AlbumChanged("deleted", name))
	c.Redirect(http.StatusSeeOther, "/albums")
}
