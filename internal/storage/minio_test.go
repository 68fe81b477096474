package storage

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/File-Sharing-BondBridg/Photo-Service/internal/logger"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMinio(t *testing.T) *MinioStorage {
	t.Helper()
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("MINIO_ENDPOINT not set")
	}
	accessKey := os.Getenv("MINIO_ACCESS_KEY")
	if accessKey == "" {
		accessKey = "minioadmin"
	}
	secretKey := os.Getenv("MINIO_SECRET_KEY")
	if secretKey == "" {
		secretKey = "minioadmin"
	}

	ctx := context.Background()
	bucket := "photo-test-" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	s, err := NewMinioStorage(ctx, endpoint, accessKey, secretKey, bucket, false, logger.Nop())
	require.NoError(t, err)

	t.Cleanup(func() {
		objects := s.Client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Recursive: true})
		for removeErr := range s.Client.RemoveObjects(ctx, bucket, objects, minio.RemoveObjectsOptions{}) {
			t.Logf("cleanup %s: %v", removeErr.ObjectName, removeErr.Err)
		}
		if err := s.Client.RemoveBucket(ctx, bucket); err != nil {
			t.Logf("cleanup bucket %s: %v", bucket, err)
		}
	})
	return s
}

func TestMinioStorageContract(t *testing.T) {
	testStorageContract(t, func(t *testing.T) Storage {
		return newMinio(t)
	})
}

func TestMinioSaveSetsContentType(t *testing.T) {
	s := newMinio(t)
	ctx := context.Background()

	file, err := s.Save(ctx, "trip", "beach.PNG", 3, strings.NewReader("png"))
	require.NoError(t, err)

	info, err := s.Client.StatObject(ctx, s.BucketName, objectKey("trip", file.StoredName), minio.StatObjectOptions{})
	require.NoError(t, err)
	assert.Equal(t, "image/png", info.ContentType)
}

func TestGetContentType(t *testing.T) {
	assert.Equal(t, "image/jpeg", GetContentType(".JPG"))
	assert.Equal(t, "image/webp", GetContentType(".webp"))
	assert.Equal(t, "application/octet-stream", GetContentType(".exe"))
	assert.Equal(t, "application/octet-stream", GetContentType(""))
}

func TestObjectKeys(t *testing.T) {
	assert.Equal(t, "a.jpg", objectKey("", "a.jpg"))
	assert.Equal(t, "trip/a.jpg", objectKey("trip", "a.jpg"))
	assert.Equal(t, "", albumPrefix(""))
	assert.Equal(t, "trip/", albumPrefix("trip"))
}
