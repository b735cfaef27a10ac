package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/domain"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachmentLifecycle(t *testing.T) {
	f := newComplaintFixture(t)
	ctx := context.Background()
	c := f.create(t)
	body := []byte("\x89PNG\r\n\x1a\nfake image")

	a, err := f.attachments.Upload(ctx, actorOf(f.citizen), c.ID, Upload{
		Name: "photo.png", ContentType: "image/png", Size: int64(len(body)), Body: bytes.NewReader(body),
	})
	require.NoError(t, err)
	assert.Equal(t, "photo.png", a.OriginalName)
	assert.Equal(t, fmt.Sprintf("/api/complaints/%d/attachments/%d", c.ID, a.ID), a.URL)

	list, err := f.attachments.List(actorOf(f.officer), c.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, rc, err := f.attachments.Open(ctx, actorOf(f.citizen), c.ID, a.ID)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, body, got)

	stranger := testutil.CreateUser(t, f.db, domain.RoleCitizen, nil)
	_, err = f.attachments.List(actorOf(stranger), c.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	assert.ErrorIs(t, f.attachments.Delete(ctx, actorOf(f.officer), c.ID, a.ID), ErrForbidden)
	require.NoError(t, f.attachments.Delete(ctx, actorOf(f.citizen), c.ID, a.ID))
	_, _, err = f.attachments.Open(ctx, actorOf(f.citizen), c.ID, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAttachmentValidation(t *testing.T) {
	f := newComplaintFixture(t)
	ctx := context.Background()
	c := f.create(t)

	_, err := f.attachments.Upload(ctx, actorOf(f.citizen), c.ID, Upload{
		Name: "notes.txt", ContentType: "text/plain", Size: 4, Body: bytes.NewReader([]byte("text")),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	script := []byte("<html><script>alert(1)</script></html>")
	_, err = f.attachments.Upload(ctx, actorOf(f.citizen), c.ID, Upload{
		Name: "photo.jpg", ContentType: "image/jpeg", Size: int64(len(script)), Body: bytes.NewReader(script),
	})
	assert.ErrorIs(t, err, ErrInvalidInput, "content must match the declared type")

	png := []byte("\x89PNG\r\n\x1a\nfake image")
	_, err = f.attachments.Upload(ctx, actorOf(f.citizen), c.ID, Upload{
		Name: "photo.pdf", ContentType: "application/pdf", Size: int64(len(png)), Body: bytes.NewReader(png),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	list, err := f.attachments.List(actorOf(f.citizen), c.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.settings.Upsert(SettingInput{Key: domain.ConfigMaxFileSizeMB, Value: "1", Type: domain.ConfigTypeNumber})
	require.NoError(t, err)
	_, err = f.attachments.Upload(ctx, actorOf(f.citizen), c.ID, Upload{
		Name: "big.jpg", ContentType: "image/jpeg", Size: 2 << 20, Body: bytes.NewReader(nil),
	})
	assert.ErrorIs(t, err, ErrFileTooLarge)
}
