package storage

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/pkg/cloudinary"
)

// Cloudinary stores objects as Cloudinary assets. Keys are returned as
// "<resource_type>/<public_id>" so they can be deleted later.
type Cloudinary struct {
	client cloudinary.Client
	folder string
}

func NewCloudinary(client cloudinary.Client, folder string) *Cloudinary {
	return &Cloudinary{client: client, folder: folder}
}

func (c *Cloudinary) Name() string { return "cloudinary" }

func (c *Cloudinary) Put(ctx context.Context, key, _ string, body io.Reader, _ int64) (*Object, error) {
	clean, err := CleanKey(key)
	if err != nil {
		return nil, err
	}
	publicID := strings.TrimSuffix(clean, path.Ext(clean))
	res, err := c.client.Upload(ctx, body, c.folder, publicID)
	if err != nil {
		return nil, err
	}
	return &Object{Key: res.ResourceType + "/" + res.PublicID, URL: res.URL}, nil
}

func (c *Cloudinary) Open(context.Context, string) (io.ReadCloser, error) {
	return nil, ErrRemoteOnly
}

func (c *Cloudinary) Delete(ctx context.Context, key string) error {
	resourceType, publicID, ok := strings.Cut(key, "/")
	if !ok {
		return c.client.Delete(ctx, key, "")
	}
	return c.client.Delete(ctx, publicID, resourceType)
}
