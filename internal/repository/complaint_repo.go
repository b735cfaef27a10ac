package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/domain"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/models"

	"gorm.io/gorm"
)

// Scope restricts complaint queries to what a caller may see.
type Scope struct {
	Role   string
	UserID uint
	WardID *uint
}

// Apply narrows q according to the caller's role.
func (s Scope) Apply(q *gorm.DB) *gorm.DB {
	switch s.Role {
	case domain.RoleAdministrator:
		return q
	case domain.RoleWardOfficer:
		if s.WardID == nil {
			return q.Where("1 = 0")
		}
		return q.Where("complaints.ward_id = ?", *s.WardID)
	case domain.RoleMaintenanceTeam:
		return q.Where("complaints.assigned_to_id = ?", s.UserID)
	case domain.RoleCitizen:
		return q.Where("complaints.submitted_by_id = ?", s.UserID)
	default:
		return q.Where("1 = 0")
	}
}

type ComplaintFilter struct {
	Statuses        []string
	Priority        string
	ComplaintTypeID uint
	WardID          uint
	SubZoneID       uint
	AssignedToID    uint
	SLAStatus       string
	From            *time.Time
	To              *time.Time
	Search          string
}

func (f ComplaintFilter) apply(q *gorm.DB) *gorm.DB {
	if len(f.Statuses) > 0 {
		q = q.Where("complaints.status IN ?", f.Statuses)
	}
	if f.Priority != "" {
		q = q.Where("complaints.priority = ?", f.Priority)
	}
	if f.ComplaintTypeID != 0 {
		q = q.Where("complaints.complaint_type_id = ?", f.ComplaintTypeID)
	}
	if f.WardID != 0 {
		q = q.Where("complaints.ward_id = ?", f.WardID)
	}
	if f.SubZoneID != 0 {
		q = q.Where("complaints.sub_zone_id = ?", f.SubZoneID)
	}
	if f.AssignedToID != 0 {
		q = q.Where("complaints.assigned_to_id = ?", f.AssignedToID)
	}
	if f.SLAStatus != "" {
		q = q.Where("complaints.sla_status = ?", f.SLAStatus)
	}
	if f.From != nil {
		q = q.Where("complaints.submitted_on >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("complaints.submitted_on < ?", *f.To)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + s + "%"
		q = q.Where("complaints.code LIKE ? OR complaints.description LIKE ? OR complaints.area LIKE ? OR complaints.contact_name LIKE ?",
			like, like, like, like)
	}
	return q
}

type ComplaintRepository struct {
	db *gorm.DB
}

func NewComplaintRepository(db *gorm.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

// Create inserts the complaint, stamps its public code and writes the first
// status log entry in one transaction.
func (r *ComplaintRepository) Create(c *models.Complaint, code func(id uint) string, log *models.StatusLog) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("ComplaintType", "Ward", "SubZone", "SubmittedBy", "WardOfficer", "AssignedTo", "Attachments", "StatusLogs").
			Create(c).Error; err != nil {
			return err
		}
		cc := code(c.ID)
		if err := tx.Model(&models.Complaint{}).Where("id = ?", c.ID).Update("code", cc).Error; err != nil {
			return err
		}
		c.Code = &cc
		if log != nil {
			log.ComplaintID = c.ID
			if err := tx.Create(log).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *ComplaintRepository) preloaded() *gorm.DB {
	return r.db.
		Preload("ComplaintType").
		Preload("Ward").
		Preload("SubZone").
		Preload("SubmittedBy").
		Preload("WardOfficer").
		Preload("AssignedTo")
}

func (r *ComplaintRepository) GetByID(id uint) (*models.Complaint, error) {
	var c models.Complaint
	err := r.preloaded().Preload("Attachments").First(&c, id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ComplaintRepository) GetByCode(code string) (*models.Complaint, error) {
	var c models.Complaint
	err := r.preloaded().Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns the scoped, filtered page of complaints, newest first.
func (r *ComplaintRepository) List(scope Scope, f ComplaintFilter, page, limit int) ([]models.Complaint, int64, error) {
	q := f.apply(scope.Apply(r.db.Model(&models.Complaint{})))
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Complaint
	err := f.apply(scope.Apply(r.preloaded())).
		Order("complaints.submitted_on DESC").Order("complaints.id DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&list).Error
	return list, total, err
}

// Export returns up to max scoped complaints for report exports.
func (r *ComplaintRepository) Export(scope Scope, f ComplaintFilter, max int) ([]models.Complaint, error) {
	var list []models.Complaint
	err := f.apply(scope.Apply(r.preloaded())).
		Order("complaints.submitted_on DESC").
		Limit(max).
		Find(&list).Error
	return list, err
}

func (r *ComplaintRepository) UpdateFields(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Complaint{}).Where("id = ?", id).Updates(updates).Error
}

// ErrStaleStatus is returned when the complaint left the expected status
// before the update landed.
var ErrStaleStatus = errors.New("complaint status changed concurrently")

// UpdateWithLog applies the column updates and appends the status log
// atomically. The row is only written while it still holds fromStatus.
func (r *ComplaintRepository) UpdateWithLog(id uint, fromStatus string, updates map[string]interface{}, log *models.StatusLog) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			res := tx.Model(&models.Complaint{}).Where("id = ? AND status = ?", id, fromStatus).Updates(updates)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected != 1 {
				return ErrStaleStatus
			}
		}
		if log == nil {
			return nil
		}
		log.ComplaintID = id
		return tx.Create(log).Error
	})
}

func (r *ComplaintRepository) ListStatusLogs(complaintID uint) ([]models.StatusLog, error) {
	var logs []models.StatusLog
	err := r.db.Preload("User").Where("complaint_id = ?", complaintID).Order("created_at ASC").Order("id ASC").Find(&logs).Error
	return logs, err
}

// ListOpen returns complaints whose SLA clock is still running.
func (r *ComplaintRepository) ListOpen(limit, offset int) ([]models.Complaint, error) {
	var list []models.Complaint
	err := r.db.
		Where("status NOT IN ?", []string{domain.StatusResolved, domain.StatusClosed}).
		Order("id ASC").Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}

// MarkOverdueNotified records the first overdue notification. It returns
// false when another worker already did so.
func (r *ComplaintRepository) MarkOverdueNotified(id uint, at time.Time) (bool, error) {
	res := r.db.Model(&models.Complaint{}).
		Where("id = ? AND overdue_notified_at IS NULL", id).
		Updates(map[string]interface{}{"overdue_notified_at": at, "sla_status": domain.SLAOverdue})
	return res.RowsAffected == 1, res.Error
}

// CountOpenAssigned counts open complaints per maintenance user in a ward.
func (r *ComplaintRepository) CountOpenAssigned(userIDs []uint) (map[uint]int64, error) {
	out := make(map[uint]int64, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		AssignedToID uint
		Count        int64
	}
	err := r.db.Model(&models.Complaint{}).
		Select("assigned_to_id, COUNT(*) as count").
		Where("assigned_to_id IN ? AND status NOT IN ?", userIDs, []string{domain.StatusResolved, domain.StatusClosed}).
		Group("assigned_to_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.AssignedToID] = row.Count
	}
	return out, nil
}

func (r *ComplaintRepository) CreateAttachment(a *models.Attachment) error {
	return r.db.Create(a).Error
}

func (r *ComplaintRepository) ListAttachments(complaintID uint) ([]models.Attachment, error) {
	var list []models.Attachment
	err := r.db.Where("complaint_id = ?", complaintID).Order("created_at ASC").Find(&list).Error
	return list, err
}

func (r *ComplaintRepository) GetAttachment(id uint) (*models.Attachment, error) {
	var a models.Attachment
	if err := r.db.First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ComplaintRepository) DeleteAttachment(id uint) error {
	return r.db.Delete(&models.Attachment{}, id).Error
}
