package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/File-Sharing-BondBridg/Photo-Service/internal/logger"
	"github.com/File-Sharing-BondBridg/Photo-Service/internal/models"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// albumMarker keeps an otherwise empty album prefix visible.
const albumMarker = ".keep"

// MinioStorage maps albums to key prefixes inside one bucket.
type MinioStorage struct {
	Client     *minio.Client
	BucketName string
	names      *NameGenerator
	log        *logger.Logger
}

func NewMinioStorage(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool, log *logger.Logger) (*MinioStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		log.Info("created bucket", zap.String("bucket", bucket))
	}

	log.Info("connected to MinIO", zap.String("endpoint", endpoint), zap.String("bucket", bucket))
	return &MinioStorage{
		Client:     client,
		BucketName: bucket,
		names:      NewNameGenerator(),
		log:        log,
	}, nil
}

func albumPrefix(album string) string {
	if album == "" {
		return ""
	}
	return album + "/"
}

func objectKey(album, storedName string) string {
	return albumPrefix(album) + storedName
}

func isNoSuchKey(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

func (m *MinioStorage) Save(ctx context.Context, album, originalName string, size int64, r io.Reader) (models.StoredFile, error) {
	if err := validateAlbum(album); err != nil {
		return models.StoredFile{}, err
	}

	storedName := m.names.Next(originalName)
	info, err := m.Client.PutObject(ctx, m.BucketName, objectKey(album, storedName), r, size,
		minio.PutObjectOptions{ContentType: GetContentType(filepath.Ext(storedName))})
	if err != nil {
		return models.StoredFile{}, fmt.Errorf("failed to upload to storage: %w", err)
	}

	return describe(album, storedName, info.Size, info.LastModified), nil
}

func (m *MinioStorage) List(ctx context.Context, album string) ([]models.StoredFile, error) {
	if err := validateAlbum(album); err != nil {
		return nil, err
	}

	prefix := albumPrefix(album)
	objects := m.Client.ListObjects(ctx, m.BucketName, minio.ListObjectsOptions{Prefix: prefix})

	files := make([]models.StoredFile, 0)
	seen := false
	for obj := range objects {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects: %w", obj.Err)
		}
		seen = true
		name := strings.TrimPrefix(obj.Key, prefix)
		if name == "" || strings.HasSuffix(name, "/") || strings.HasPrefix(name, ".") {
			continue
		}
		files = append(files, describe(album, name, obj.Size, obj.LastModified))
	}
	if !seen && album != "" {
		return nil, ErrAlbumNotFound
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].StoredName < files[j].StoredName
	})
	return files, nil
}

func (m *MinioStorage) Open(ctx context.Context, album, storedName string) (*Object, error) {
	if err := validateAlbum(album); err != nil {
		return nil, err
	}
	if err := ValidateStoredName(storedName); err != nil {
		return nil, err
	}

	obj, err := m.Client.GetObject(ctx, m.BucketName, objectKey(album, storedName), minio.GetObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get object: %w", err)
	}

	// GetObject is lazy; Stat surfaces a missing key.
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		if isNoSuchKey(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("stat object: %w", err)
	}

	return &Object{
		ReadCloser: obj,
		File:       describe(album, storedName, info.Size, info.LastModified),
	}, nil
}

func (m *MinioStorage) Delete(ctx context.Context, album, storedName string) error {
	if err := validateAlbum(album); err != nil {
		return err
	}
	if err := ValidateStoredName(storedName); err != nil {
		return err
	}

	err := m.Client.RemoveObject(ctx, m.BucketName, objectKey(album, storedName), minio.RemoveObjectOptions{})
	if err != nil && !isNoSuchKey(err) {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

func (m *MinioStorage) CreateAlbum(ctx context.Context, name string) error {
	if err := ValidateAlbumName(name); err != nil {
		return err
	}

	_, err := m.Client.PutObject(ctx, m.BucketName, objectKey(name, albumMarker),
		strings.NewReader(""), 0, minio.PutObjectOptions{})
	if err != nil {
		return fmt.Errorf("create album: %w", err)
	}
	return nil
}

func (m *MinioStorage) ListAlbums(ctx context.Context) ([]models.Album, error) {
	albums := make([]models.Album, 0)
	for obj := range m.Client.ListObjects(ctx, m.BucketName, minio.ListObjectsOptions{}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects: %w", obj.Err)
		}
		if !strings.HasSuffix(obj.Key, "/") {
			continue
		}
		name := strings.TrimSuffix(obj.Key, "/")
		if ValidateAlbumName(name) != nil {
			continue
		}
		albums = append(albums, models.Album{Name: name})
	}

	sort.Slice(albums, func(i, j int) bool {
		return albums[i].Name < albums[j].Name
	})
	return albums, nil
}

// DeleteAlbum removes every object under the album prefix.
func (m *MinioStorage) DeleteAlbum(ctx context.Context, name string) error {
	if err := ValidateAlbumName(name); err != nil {
		return err
	}

	prefix := albumPrefix(name)
	objects := m.Client.ListObjects(ctx, m.BucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	removed := 0
	for removeErr := range m.Client.RemoveObjects(ctx, m.BucketName, countObjects(objects, &removed), minio.RemoveObjectsOptions{}) {
		if removeErr.Err != nil {
			m.log.Error("failed to delete object",
				zap.String("object", removeErr.ObjectName), zap.Error(removeErr.Err))
			return fmt.Errorf("remove album: %w", removeErr.Err)
		}
	}

	m.log.Info("deleted album", zap.String("album", name), zap.Int("objects", removed))
	return nil
}

// countObjects forwards listed objects while counting them.
func countObjects(in <-chan minio.ObjectInfo, n *int) <-chan minio.ObjectInfo {
	out := make(chan minio.ObjectInfo)
	go func() {
		defer close(out)
		for obj := range in {
			if obj.Err == nil {
				*n++
			}
			out <- obj
		}
	}()
	return out
}

// GetContentType maps an extension to the content type files are served with.
func GetContentType(extension string) string {
	switch strings.ToLower(extension) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".bmp":
		return "image/bmp"
	case ".pdf":
		return "application/pdf"
	case ".mp4":
		return "video/mp4"
	case ".mp3":
		return "audio/mpeg"
	default:
		return "application/octet-stream"
	}
}
