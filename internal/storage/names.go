package storage

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/File-Sharing-BondBridg/Photo-Service/internal/models"
	"github.com/google/uuid"
)

const (
	maxNameLength  = 200
	nonceLength    = 12
	timestampWidth = 13
	fallbackName   = "file"
)

// NameGenerator hands out stored names of the form
// <timestamp>-<nonce>-<original>. Timestamps are milliseconds, zero padded and
// strictly increasing per generator, so names sort in creation order and two
// calls inside the same millisecond still differ.
type NameGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewNameGenerator() *NameGenerator {
	return &NameGenerator{now: time.Now}
}

func (g *NameGenerator) Next(originalName string) string {
	g.mu.Lock()
	ts := g.now().UnixMilli()
	if ts <= g.last {
		ts = g.last + 1
	}
	g.last = ts
	g.mu.Unlock()

	nonce := strings.ReplaceAll(uuid.New().String(), "-", "")[:nonceLength]
	return fmt.Sprintf("%0*d-%s-%s", timestampWidth, ts, nonce, SanitizeFilename(originalName))
}

// SanitizeFilename reduces an untrusted client filename to a safe single path
// segment. It never fails; unusable input becomes "file".
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	clean := strings.TrimLeft(b.String(), ".")
	if len(clean) > maxNameLength {
		clean = clean[len(clean)-maxNameLength:]
	}
	if strings.Trim(clean, "._-") == "" {
		return fallbackName
	}
	return clean
}

// ValidateAlbumName accepts names that are usable as one directory level.
// Invalid names are rejected rather than rewritten so that two different
// requests never silently target the same album.
func ValidateAlbumName(name string) error {
	if name == "" || len(name) > maxNameLength {
		return fmt.Errorf("%w: album name must be 1-%d bytes", ErrInvalidName, maxNameLength)
	}
	if strings.HasPrefix(name, ".") || strings.TrimSpace(name) != name {
		return fmt.Errorf("%w: album name %q", ErrInvalidName, name)
	}
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' || r == '.' {
			continue
		}
		return fmt.Errorf("%w: album name %q", ErrInvalidName, name)
	}
	return nil
}

// ValidateStoredName checks a stored name coming back from a client.
func ValidateStoredName(name string) error {
	if name == "" || name == "." || name == ".." || strings.HasPrefix(name, ".") ||
		strings.ContainsAny(name, "/\\\x00") || len(name) > 2*maxNameLength {
		return fmt.Errorf("%w: file name %q", ErrInvalidName, name)
	}
	return nil
}

// validateAlbum allows the empty root album in addition to named albums.
func validateAlbum(album string) error {
	if album == "" {
		return nil
	}
	return ValidateAlbumName(album)
}

// describe rebuilds the metadata encoded in a stored name. Names that do not
// follow the generator's layout (files dropped in by hand) keep their whole
// name as the original and fall back to modTime.
func describe(album, storedName string, size int64, modTime time.Time) models.StoredFile {
	file := models.StoredFile{
		StoredName:   storedName,
		OriginalName: storedName,
		Album:        album,
		Size:         size,
		CreatedAt:    modTime,
	}

	parts := strings.SplitN(storedName, "-", 3)
	if len(parts) != 3 || parts[2] == "" {
		return file
	}
	ms, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return file
	}
	file.OriginalName = parts[2]
	file.CreatedAt = time.UnixMilli(ms)
	return file
}
