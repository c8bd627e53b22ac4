package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/expense-tracker/backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func TestLocalStoreSaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir)
	ctx := context.Background()

	ref, err := store.Save(ctx, "avatar.png", "image/png", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/avatar.png", ref)

	data, err := os.ReadFile(filepath.Join(dir, "avatar.png"))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)

	require.NoError(t, store.Delete(ctx, ref))
	_, err = os.Stat(filepath.Join(dir, "avatar.png"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(ctx, ref), "deleting twice is a no-op")
	assert.NoError(t, store.Delete(ctx, "https://elsewhere.test/x.png"))
}

func TestLocalStoreKeepsNameInsideDir(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir)

	ref, err := store.Save(context.Background(), "../../escape.png", "image/png", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/escape.png", ref)
	_, err = os.Stat(filepath.Join(dir, "escape.png"))
	assert.NoError(t, err)
}

type fakeS3 struct {
	puts    map[string][]byte
	deletes []string
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.puts[*in.Bucket+"/"+*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, *in.Bucket+"/"+*in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3StoreSaveAndDelete(t *testing.T) {
	client := &fakeS3{puts: map[string][]byte{}}
	store := newS3Store(client, "avatars", "https://cdn.example.com/avatars/")
	ctx := context.Background()

	ref, err := store.Save(ctx, "a.png", "image/png", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/avatars/profiles/a.png", ref)
	assert.Equal(t, pngHeader, client.puts["avatars/profiles/a.png"])

	require.NoError(t, store.Delete(ctx, ref))
	require.NoError(t, store.Delete(ctx, "/uploads/legacy.png"))
	assert.Equal(t, []string{"avatars/profiles/a.png"}, client.deletes)
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	_, err := New(context.Background(), config.StorageConfig{Backend: "ftp"})
	assert.Error(t, err)

	_, err = New(context.Background(), config.StorageConfig{Backend: "s3"})
	assert.Error(t, err, "s3 without bucket must fail")
}

func TestDetectImage(t *testing.T) {
	r := bytes.NewReader(pngHeader)
	contentType, ext, err := DetectImage(r)
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, ".png", ext)

	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, rest, "reader must be rewound")

	_, _, err = DetectImage(strings.NewReader("just some text"))
	assert.ErrorIs(t, err, ErrNotImage)
}
