package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/pkg/cloudinary"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanKey(t *testing.T) {
	good := []string{"complaints/1/a.jpg", "a.pdf"}
	for _, k := range good {
		got, err := CleanKey(k)
		require.NoError(t, err, k)
		assert.Equal(t, k, got)
	}
	bad := []string{"", "../etc/passwd", "complaints/../../x", "/abs/path", "a//b"}
	for _, k := range bad {
		_, err := CleanKey(k)
		assert.Error(t, err, k)
	}
}

func TestLocalRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	obj, err := store.Put(ctx, "complaints/7/photo.jpg", "image/jpeg", strings.NewReader("jpeg-bytes"), 10)
	require.NoError(t, err)
	assert.Empty(t, obj.URL, "local files are not publicly addressable")

	rc, err := store.Open(ctx, obj.Key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	_, err = store.Put(ctx, "complaints/7/photo.jpg", "image/jpeg", strings.NewReader("x"), 1)
	assert.Error(t, err, "existing objects are not overwritten")

	require.NoError(t, store.Delete(ctx, obj.Key))
	_, err = store.Open(ctx, obj.Key)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, store.Delete(ctx, obj.Key))
}

type fakeCloudinary struct {
	deleted [2]string
}

func (f *fakeCloudinary) Upload(_ context.Context, _ io.Reader, folder, publicID string) (*cloudinary.UploadResult, error) {
	return &cloudinary.UploadResult{URL: "https://cdn/" + folder + "/" + publicID, PublicID: folder + "/" + publicID, ResourceType: "raw"}, nil
}

func (f *fakeCloudinary) Delete(_ context.Context, publicID, resourceType string) error {
	f.deleted = [2]string{publicID, resourceType}
	return nil
}

func TestCloudinaryKeys(t *testing.T) {
	fake := &fakeCloudinary{}
	store := NewCloudinary(fake, "nlc")

	obj, err := store.Put(context.Background(), "complaints/3/report.pdf", "application/pdf", strings.NewReader("%PDF"), 4)
	require.NoError(t, err)
	assert.Equal(t, "raw/nlc/complaints/3/report", obj.Key)

	_, err = store.Open(context.Background(), obj.Key)
	assert.ErrorIs(t, err, ErrRemoteOnly)

	require.NoError(t, store.Delete(context.Background(), obj.Key))
	assert.Equal(t, [2]string{"nlc/complaints/3/report", "raw"}, fake.deleted)
}
