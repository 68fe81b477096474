package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/File-Sharing-BondBridg/Photo-Service/internal/models"
)

const tempPrefix = ".upload-"

// LocalStorage keeps files under a root directory, one subdirectory per album.
type LocalStorage struct {
	root  string
	names *NameGenerator
}

// NewLocalStorage creates the root directory if needed.
func NewLocalStorage(root string) (*LocalStorage, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &LocalStorage{root: abs, names: NewNameGenerator()}, nil
}

func (l *LocalStorage) Root() string {
	return l.root
}

// resolve joins the segments under the root and refuses anything that lands
// outside it, whatever the validators upstream let through.
func (l *LocalStorage) resolve(segments ...string) (string, error) {
	p := filepath.Join(append([]string{l.root}, segments...)...)
	rel, err := filepath.Rel(l.root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: path escapes storage root", ErrInvalidName)
	}
	return p, nil
}

func (l *LocalStorage) albumDir(album string) (string, error) {
	if err := validateAlbum(album); err != nil {
		return "", err
	}
	if album == "" {
		return l.root, nil
	}
	return l.resolve(album)
}

func (l *LocalStorage) filePath(album, storedName string) (string, error) {
	if err := validateAlbum(album); err != nil {
		return "", err
	}
	if err := ValidateStoredName(storedName); err != nil {
		return "", err
	}
	return l.resolve(album, storedName)
}

// Save streams r into a temporary file next to its destination and renames
// it into place only once every byte is on disk.
func (l *LocalStorage) Save(_ context.Context, album, originalName string, _ int64, r io.Reader) (models.StoredFile, error) {
	dir, err := l.albumDir(album)
	if err != nil {
		return models.StoredFile{}, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return models.StoredFile{}, fmt.Errorf("create dir: %w", err)
	}

	storedName := l.names.Next(originalName)
	dest, err := l.resolve(album, storedName)
	if err != nil {
		return models.StoredFile{}, err
	}

	tmp, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return models.StoredFile{}, fmt.Errorf("create file: %w", err)
	}
	tmpName := tmp.Name()

	written, err := io.Copy(tmp, r)
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return models.StoredFile{}, fmt.Errorf("write file: %w", err)
	}

	if _, statErr := os.Lstat(dest); statErr == nil {
		_ = os.Remove(tmpName)
		return models.StoredFile{}, fmt.Errorf("write file: %s already exists", storedName)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		_ = os.Remove(tmpName)
		return models.StoredFile{}, fmt.Errorf("rename file: %w", err)
	}

	info, err := os.Stat(dest)
	if err != nil {
		return models.StoredFile{}, fmt.Errorf("stat file: %w", err)
	}
	file := describe(album, storedName, written, info.ModTime())
	return file, nil
}

// List returns the album's files sorted by stored name, which is creation
// order. Hidden entries (including in-flight uploads) and directories are
// skipped.
func (l *LocalStorage) List(_ context.Context, album string) ([]models.StoredFile, error) {
	dir, err := l.albumDir(album)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if album == "" {
				return []models.StoredFile{}, nil
			}
			return nil, ErrAlbumNotFound
		}
		return nil, fmt.Errorf("read dir: %w", err)
	}

	files := make([]models.StoredFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") || !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		files = append(files, describe(album, entry.Name(), info.Size(), info.ModTime()))
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].StoredName < files[j].StoredName
	})
	return files, nil
}

func (l *LocalStorage) Open(_ context.Context, album, storedName string) (*Object, error) {
	p, err := l.filePath(album, storedName)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, ErrNotFound
	}

	return &Object{
		ReadCloser: f,
		File:       describe(album, storedName, info.Size(), info.ModTime()),
	}, nil
}

// Delete removes one file. A missing file, or a name that is not a regular
// file, is not an error.
func (l *LocalStorage) Delete(_ context.Context, album, storedName string) error {
	p, err := l.filePath(album, storedName)
	if err != nil {
		return err
	}
	info, err := os.Lstat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat file: %w", err)
	}
	// album directories share the namespace; only regular files are photos
	if !info.Mode().IsRegular() {
		return nil
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// CreateAlbum is idempotent.
func (l *LocalStorage) CreateAlbum(_ context.Context, name string) error {
	if err := ValidateAlbumName(name); err != nil {
		return err
	}
	dir, err := l.resolve(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create album: %w", err)
	}
	return nil
}

func (l *LocalStorage) ListAlbums(_ context.Context) ([]models.Album, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	albums := make([]models.Album, 0)
	for _, entry := range entries {
		if !entry.IsDir() || ValidateAlbumName(entry.Name()) != nil {
			continue
		}
		albums = append(albums, models.Album{Name: entry.Name()})
	}

	sort.Slice(albums, func(i, j int) bool {
		return albums[i].Name < albums[j].Name
	})
	return albums, nil
}

// DeleteAlbum removes the album and everything in it. A missing album is not
// an error.
func (l *LocalStorage) DeleteAlbum(_ context.Context, name string) error {
	if err := ValidateAlbumName(name); err != nil {
		return err
	}
	dir, err := l.resolve(name)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove album: %w", err)
	}
	return nil
}
