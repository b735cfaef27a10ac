package service

import (
	"encoding/json"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/models"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/repository"

	"go.uber.org/zap"
)

// Audit actions
const (
	AuditLogin          = "LOGIN"
	AuditLoginFailed    = "LOGIN_FAILED"
	AuditLogout         = "LOGOUT"
	AuditRegister       = "REGISTER"
	AuditPasswordChange = "PASSWORD_CHANGE"
	AuditPasswordReset  = "PASSWORD_RESET"
	AuditCreate         = "CREATE"
	AuditUpdate         = "UPDATE"
	AuditDelete         = "DELETE"
	AuditExport         = "EXPORT"
)

// AuditEntry describes who did what, from where.
type AuditEntry struct {
	UserID     *uint
	Action     string
	Resource   string
	ResourceID string
	IP         string
	UserAgent  string
	Metadata   map[string]interface{}
}

type AuditService struct {
	repo   *repository.AuditRepository
	logger *zap.Logger
}

func NewAuditService(repo *repository.AuditRepository, logger *zap.Logger) *AuditService {
	return &AuditService{repo: repo, logger: logger}
}

// Record stores the entry. Failures are logged, not returned.
func (s *AuditService) Record(e AuditEntry) {
	if s == nil {
		return
	}
	var meta string
	if len(e.Metadata) > 0 {
		b, _ := json.Marshal(e.Metadata)
		meta = string(b)
	}
	err := s.repo.Create(&models.AuditLog{
		UserID:     e.UserID,
		Action:     e.Action,
		Resource:   e.Resource,
		ResourceID: e.ResourceID,
		IP:         e.IP,
		UserAgent:  e.UserAgent,
		Metadata:   meta,
	})
	if err != nil {
		s.logger.Warn("audit write failed", zap.String("action", e.Action), zap.Error(err))
	}
}

func (s *AuditService) List(action, resource string, page, limit int) ([]models.AuditLog, int64, error) {
	return s.repo.List(action, resource, page, limit)
}
