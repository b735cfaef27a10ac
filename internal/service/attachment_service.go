package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/domain"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/models"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/repository"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/pkg/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrFileTooLarge = errors.New("file exceeds the maximum upload size")

// Upload is a file received from a client.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

type AttachmentService struct {
	repo       *repository.ComplaintRepository
	complaints *ComplaintService
	store      storage.Store
	settings   *SettingsService
	maxSize    int64
	logger     *zap.Logger
}

func NewAttachmentService(repo *repository.ComplaintRepository, complaints *ComplaintService, store storage.Store, settings *SettingsService, maxSize int64, logger *zap.Logger) *AttachmentService {
	return &AttachmentService{
		repo:       repo,
		complaints: complaints,
		store:      store,
		settings:   settings,
		maxSize:    maxSize,
		logger:     logger,
	}
}

func (s *AttachmentService) limit() int64 {
	if mb := s.settings.Int(domain.ConfigMaxFileSizeMB, 0); mb > 0 {
		return int64(mb) << 20
	}
	return s.maxSize
}

func (s *AttachmentService) Upload(ctx context.Context, actor Actor, complaintID uint, up Upload) (*models.Attachment, error) {
	if _, err := s.complaints.Get(actor, complaintID); err != nil {
		return nil, err
	}
	if up.Size <= 0 {
		return nil, invalid("file is empty")
	}
	if max := s.limit(); max > 0 && up.Size > max {
		return nil, fmt.Errorf("%w (%d MB)", ErrFileTooLarge, max>>20)
	}
	mimeType := strings.ToLower(strings.TrimSpace(strings.Split(up.ContentType, ";")[0]))
	ext, ok := domain.AllowedAttachmentTypes[mimeType]
	if !ok {
		return nil, invalid("file type %q is not allowed", mimeType)
	}
	body, err := checkContent(up.Body, mimeType)
	if err != nil {
		return nil, err
	}

	fileName := uuid.NewString() + ext
	key := fmt.Sprintf("complaints/%d/%s", complaintID, fileName)
	obj, err := s.store.Put(ctx, key, mimeType, body, up.Size)
	if err != nil {
		return nil, err
	}
	a := &models.Attachment{
		ComplaintID:  complaintID,
		UploadedByID: &actor.UserID,
		FileName:     fileName,
		OriginalName: filepath.Base(up.Name),
		MimeType:     mimeType,
		Size:         up.Size,
		StorageKey:   obj.Key,
		URL:          obj.URL,
	}
	if err := s.repo.CreateAttachment(a); err != nil {
		if derr := s.store.Delete(ctx, obj.Key); derr != nil {
			s.logger.Warn("orphaned upload", zap.String("key", obj.Key), zap.Error(derr))
		}
		return nil, err
	}
	if a.URL == "" {
		a.URL = a.DownloadPath()
	}
	return a, nil
}

// sniffLen covers the signatures of every allowed attachment type.
const sniffLen = 3072

// checkContent matches the leading bytes of the upload against the declared
// MIME type and returns a reader that still yields the whole body.
func checkContent(r io.Reader, declared string) (io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	head = head[:n]
	if detected := mimetype.Detect(head); !detected.Is(declared) {
		return nil, invalid("file content is %s, not %s", detected.String(), declared)
	}
	return io.MultiReader(bytes.NewReader(head), r), nil
}

func (s *AttachmentService) List(actor Actor, complaintID uint) ([]models.Attachment, error) {
	if _, err := s.complaints.Get(actor, complaintID); err != nil {
		return nil, err
	}
	return s.repo.ListAttachments(complaintID)
}

func (s *AttachmentService) get(actor Actor, complaintID, id uint) (*models.Attachment, error) {
	a, err := s.repo.GetAttachment(id)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && a.ComplaintID != complaintID) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if _, err := s.complaints.Get(actor, complaintID); err != nil {
		return nil, err
	}
	return a, nil
}

// Open returns the attachment and a reader for its content. The reader is
// nil with storage.ErrRemoteOnly when the file must be fetched from a.URL.
func (s *AttachmentService) Open(ctx context.Context, actor Actor, complaintID, id uint) (*models.Attachment, io.ReadCloser, error) {
	a, err := s.get(actor, complaintID, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.store.Open(ctx, a.StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, ErrNotFound
	}
	return a, rc, err
}

// Delete removes an attachment. Only the uploader or an administrator may.
func (s *AttachmentService) Delete(ctx context.Context, actor Actor, complaintID, id uint) error {
	a, err := s.get(actor, complaintID, id)
	if err != nil {
		return err
	}
	uploader := a.UploadedByID != nil && *a.UploadedByID == actor.UserID
	if !uploader && actor.Role != domain.RoleAdministrator {
		return forbidden("only the uploader or an administrator can delete this file")
	}
	if err := s.repo.DeleteAttachment(a.ID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, a.StorageKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Warn("attachment delete from storage failed", zap.String("key", a.StorageKey), zap.Error(err))
	}
	return nil
}
