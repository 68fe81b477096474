package services

import (
	"time"

	"github.com/File-Sharing-BondBridg/Photo-Service/internal/models"
)

type PhotoEvent struct {
	Action       string    `json:"action"`
	Album        string    `json:"album,omitempty"`
	StoredName   string    `json:"stored_name"`
	OriginalName string    `json:"original_name,omitempty"`
	Size         int64     `json:"size,omitempty"`
	At           time.Time `json:"at"`
}

type AlbumEvent struct {
	Action string    `json:"action"`
	Album  string    `json:"album"`
	At     time.Time `json:"at"`
}

func PhotoUploaded(f models.StoredFile) PhotoEvent {
	return PhotoEvent{
		Action:       "uploaded",
		Album:        f.Album,
		StoredName:   f.StoredName,
		OriginalName: f.OriginalName,
		Size:         f.Size,
		At:           time.Now().UTC(),
	}
}

func PhotoDeleted(album, storedName string) PhotoEvent {
	return PhotoEvent{Action: "deleted", Album: album, StoredName: storedName, At: time.Now().UTC()}
}

func AlbumChanged(action, album string) AlbumEvent {
	return AlbumEvent{Action: action, Album: album, At: time.Now().UTC()}
}
