package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocal(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)
	return s
}

func save(t *testing.T, s *LocalStorage, album, name, body string) string {
	t.Helper()
	file, err := s.Save(context.Background(), album, name, int64(len(body)), strings.NewReader(body))
	require.NoError(t, err)
	return file.StoredName
}

func TestNewLocalStorageCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "a", "b")
	s, err := NewLocalStorage(root)
	require.NoError(t, err)

	info, err := os.Stat(s.Root())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSaveAndOpenRoundTrip(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()
	payload := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff, 0x10}

	file, err := s.Save(ctx, "", "photo.jpg", int64(len(payload)), bytes.NewReader(payload))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(file.StoredName, "-photo.jpg"))
	assert.Equal(t, "photo.jpg", file.OriginalName)
	assert.Equal(t, int64(len(payload)), file.Size)
	assert.Equal(t, "/uploads/"+file.StoredName, file.URL())

	obj, err := s.Open(ctx, "", file.StoredName)
	require.NoError(t, err)
	defer obj.Close()

	got, err := io.ReadAll(obj)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Equal(t, "photo.jpg", obj.File.OriginalName)
}

func TestSaveNeverUsesClientPath(t *testing.T) {
	s := newLocal(t)

	name := save(t, s, "", "../../etc/passwd", "x")
	assert.True(t, strings.HasSuffix(name, "-passwd"))

	_, err := os.Stat(filepath.Join(s.Root(), name))
	assert.NoError(t, err)
}

func TestSaveFailureLeavesNoPartialFile(t *testing.T) {
	s := newLocal(t)

	_, err := s.Save(context.Background(), "", "broken.jpg", 10, io.MultiReader(
		strings.NewReader("half"),
		errReader{errors.New("disk full")},
	))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	entries, err := os.ReadDir(s.Root())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) { return 0, e.err }

func TestListSortedAndFiltered(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()

	first := save(t, s, "", "b.jpg", "1")
	second := save(t, s, "", "a.jpg", "22")
	require.NoError(t, s.CreateAlbum(ctx, "vacation"))
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), tempPrefix+"inflight"), []byte("x"), 0644))

	files, err := s.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, first, files[0].StoredName)
	assert.Equal(t, second, files[1].StoredName)
	assert.Equal(t, int64(2), files[1].Size)
}

func TestListEmptyRoot(t *testing.T) {
	s := newLocal(t)

	files, err := s.List(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, files)
	assert.Empty(t, files)
}

func TestAlbumScoping(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()

	require.NoError(t, s.CreateAlbum(ctx, "vacation"))
	name := save(t, s, "vacation", "beach.jpg", "sand")

	inAlbum, err := s.List(ctx, "vacation")
	require.NoError(t, err)
	require.Len(t, inAlbum, 1)
	assert.Equal(t, name, inAlbum[0].StoredName)
	assert.Equal(t, "/uploads/vacation/"+name, inAlbum[0].URL())

	root, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, root)
}

func TestSaveCreatesAlbumImplicitly(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()

	save(t, s, "new album", "x.png", "x")

	albums, err := s.ListAlbums(ctx)
	require.NoError(t, err)
	require.Len(t, albums, 1)
	assert.Equal(t, "new album", albums[0].Name)
}

func TestCreateAlbumIdempotent(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()

	require.NoError(t, s.CreateAlbum(ctx, "vacation"))
	save(t, s, "vacation", "a.jpg", "a")
	require.NoError(t, s.CreateAlbum(ctx, "vacation"))

	files, err := s.List(ctx, "vacation")
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestListAlbumsSorted(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()

	for _, name := range []string{"zoo", "alps", "city"} {
		require.NoError(t, s.CreateAlbum(ctx, name))
	}
	save(t, s, "", "loose.jpg", "x")

	albums, err := s.ListAlbums(ctx)
	require.NoError(t, err)
	require.Len(t, albums, 3)
	assert.Equal(t, "alps", albums[0].Name)
	assert.Equal(t, "city", albums[1].Name)
	assert.Equal(t, "zoo", albums[2].Name)
}

func TestDeleteIdempotent(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()
	name := save(t, s, "", "a.jpg", "a")

	require.NoError(t, s.Delete(ctx, "", name))

	files, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, files)

	_, err = s.Open(ctx, "", name)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, s.Delete(ctx, "", name))
}

func TestDeleteAlbumRecursiveAndIdempotent(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()

	save(t, s, "vacation", "a.jpg", "a")
	save(t, s, "vacation", "b.jpg", "b")
	kept := save(t, s, "", "root.jpg", "r")

	require.NoError(t, s.DeleteAlbum(ctx, "vacation"))

	_, err := s.List(ctx, "vacation")
	assert.ErrorIs(t, err, ErrAlbumNotFound)

	root, err := s.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, root, 1)
	assert.Equal(t, kept, root[0].StoredName)

	assert.NoError(t, s.DeleteAlbum(ctx, "vacation"))
}

func TestTraversalRejected(t *testing.T) {
	parent := t.TempDir()
	s, err := NewLocalStorage(filepath.Join(parent, "uploads"))
	require.NoError(t, err)
	ctx := context.Background()

	outside := filepath.Join(parent, "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(parent, "etc"), 0755))

	_, err = s.Save(ctx, "../../etc", "x.jpg", 1, strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = s.List(ctx, "../../etc")
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = s.Open(ctx, "", "../secret.txt")
	assert.ErrorIs(t, err, ErrInvalidName)

	assert.ErrorIs(t, s.Delete(ctx, "", "../secret.txt"), ErrInvalidName)
	assert.ErrorIs(t, s.Delete(ctx, "..", "secret.txt"), ErrInvalidName)
	assert.ErrorIs(t, s.DeleteAlbum(ctx, "../etc"), ErrInvalidName)
	assert.ErrorIs(t, s.DeleteAlbum(ctx, ".."), ErrInvalidName)
	assert.ErrorIs(t, s.CreateAlbum(ctx, "../../etc"), ErrInvalidName)

	_, err = os.Stat(outside)
	assert.NoError(t, err, "file outside the root must survive")
	_, err = os.Stat(filepath.Join(parent, "etc"))
	assert.NoError(t, err, "directory outside the root must survive")
}

func TestDeleteRootAlbumRejected(t *testing.T) {
	s := newLocal(t)
	assert.ErrorIs(t, s.DeleteAlbum(context.Background(), ""), ErrInvalidName)

	_, err := os.Stat(s.Root())
	assert.NoError(t, err)
}

func TestOpenDirectoryIsNotFound(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()
	require.NoError(t, s.CreateAlbum(ctx, "vacation"))

	_, err := s.Open(ctx, "", "vacation")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteIgnoresAlbumDirectories(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()
	require.NoError(t, s.CreateAlbum(ctx, "empty"))
	save(t, s, "vacation", "a.jpg", "a")

	assert.NoError(t, s.Delete(ctx, "", "empty"))
	assert.NoError(t, s.Delete(ctx, "", "vacation"))

	for _, album := range []string{"empty", "vacation"} {
		info, err := os.Stat(filepath.Join(s.Root(), album))
		require.NoError(t, err, album)
		assert.True(t, info.IsDir(), album)
	}
}
