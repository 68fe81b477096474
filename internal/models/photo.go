package models

import (
	"time"
)

// DefaultAlbumName labels files stored directly under the storage root.
const DefaultAlbumName = "General"

// StoredFile is an uploaded payload as it sits in storage. Identity is
// (Album, StoredName); an empty Album means the storage root.
type StoredFile struct {
	StoredName   string    `json:"stored_name"`
	OriginalName string    `json:"original_name"`
	Album        string    `json:"album,omitempty"`
	Size         int64     `json:"size"`
	CreatedAt    time.Time `json:"created_at"`
}

// AlbumLabel is the human readable album the file belongs to.
func (f StoredFile) AlbumLabel() string {
	if f.Album == "" {
		return DefaultAlbumName
	}
	return f.Album
}

// URL is where the stored bytes are served inline.
func (f StoredFile) URL() string {
	return "/uploads/" + f.RelativePath()
}

// DownloadURL serves the same bytes as an attachment.
func (f StoredFile) DownloadURL() string {
	return "/download/" + f.RelativePath()
}

// RelativePath is "[album/]storedName".
func (f StoredFile) RelativePath() string {
	if f.Album == "" {
		return f.StoredName
	}
	return f.Album + "/" + f.StoredName
}

type Album struct {
	Name string `json:"name"`
}

// User is the identity attached to an authenticated session.
type User struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	PictureURL string `json:"picture"`
}
