package storage

import (
	"context"
	"errors"
	"io"

	"github.com/File-Sharing-BondBridg/Photo-Service/internal/models"
)

var (
	// ErrNotFound means the stored file does not exist (or vanished between
	// listing and access).
	ErrNotFound = errors.New("file not found")
	// ErrAlbumNotFound means the album directory or prefix does not exist.
	ErrAlbumNotFound = errors.New("album not found")
	// ErrInvalidName is returned before any filesystem access when an album or
	// stored name could escape the storage root.
	ErrInvalidName = errors.New("invalid name")
)

// Storage is the contract shared by the local and object-store backends.
// An empty album addresses the storage root.
type Storage interface {
	Save(ctx context.Context, album, originalName string, size int64, r io.Reader) (models.StoredFile, error)
	List(ctx context.Context, album string) ([]models.StoredFile, error)
	Open(ctx context.Context, album, storedName string) (*Object, error)
	Delete(ctx context.Context, album, storedName string) error

	CreateAlbum(ctx context.Context, name string) error
	ListAlbums(ctx context.Context) ([]models.Album, error)
	DeleteAlbum(ctx context.Context, name string) error
}

// Object is an open stored file. The caller must Close it.
type Object struct {
	io.ReadCloser
	File models.StoredFile
}
