package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/service"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/pkg/storage"

	"github.com/gin-gonic/gin"
)

type AttachmentHandler struct {
	svc *service.AttachmentService
}

func NewAttachmentHandler(svc *service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{svc: svc}
}

// Upload stores the multipart "file" field against the complaint.
func (h *AttachmentHandler) Upload(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer f.Close()

	a, err := h.svc.Upload(c.Request.Context(), actor(c), id, service.Upload{
		Name:        file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Size:        file.Size,
		Body:        f,
	})
	if err != nil {
		respondError(c, err, "upload failed")
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *AttachmentHandler) List(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	list, err := h.svc.List(actor(c), id)
	if err != nil {
		respondError(c, err, "failed to list attachments")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

// Download streams local files and redirects to the public URL otherwise.
func (h *AttachmentHandler) Download(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	fileID, ok := paramID(c, "fileId")
	if !ok {
		return
	}
	a, rc, err := h.svc.Open(c.Request.Context(), actor(c), id, fileID)
	if errors.Is(err, storage.ErrRemoteOnly) {
		c.Redirect(http.StatusFound, a.URL)
		return
	}
	if err != nil {
		respondError(c, err, "failed to open attachment")
		return
	}
	defer rc.Close()
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", a.OriginalName))
	c.DataFromReader(http.StatusOK, a.Size, a.MimeType, rc, nil)
}

func (h *AttachmentHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	fileID, ok := paramID(c, "fileId")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), actor(c), id, fileID); err != nil {
		respondError(c, err, "failed to delete attachment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "attachment deleted"})
}
