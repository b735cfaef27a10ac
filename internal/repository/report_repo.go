package repository

import (
	"time"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/domain"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/models"

	"gorm.io/gorm"
)

type DashboardCounts struct {
	Total      int64 `json:"total"`
	Registered int64 `json:"registered"`
	Assigned   int64 `json:"assigned"`
	InProgress int64 `json:"in_progress"`
	Resolved   int64 `json:"resolved"`
	Closed     int64 `json:"closed"`
	Reopened   int64 `json:"reopened"`
	Overdue    int64 `json:"overdue"`
	Warning    int64 `json:"warning"`
}

type TimeSeriesPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// GroupCount is one bucket of a GROUP BY; ID is set for foreign-key
// groupings and Key for string columns.
type GroupCount struct {
	ID    uint   `json:"id,omitempty"`
	Key   string `gorm:"column:group_key" json:"key"`
	Count int64  `json:"count"`
}

// ResolutionSample carries what is needed to compute resolution metrics.
type ResolutionSample struct {
	SubmittedOn time.Time
	ResolvedOn  *time.Time
	ClosedOn    *time.Time
	Deadline    time.Time
	Rating      *int
}

type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) base(scope Scope, f ComplaintFilter) *gorm.DB {
	return f.apply(scope.Apply(r.db.Model(&models.Complaint{})))
}

// Counts returns status and SLA totals for the scoped complaints.
func (r *ReportRepository) Counts(scope Scope, f ComplaintFilter) (*DashboardCounts, error) {
	byStatus, err := r.CountByColumn(scope, f, "status")
	if err != nil {
		return nil, err
	}
	var c DashboardCounts
	for _, g := range byStatus {
		c.Total += g.Count
		switch g.Key {
		case domain.StatusRegistered:
			c.Registered = g.Count
		case domain.StatusAssigned:
			c.Assigned = g.Count
		case domain.StatusInProgress:
			c.InProgress = g.Count
		case domain.StatusResolved:
			c.Resolved = g.Count
		case domain.StatusClosed:
			c.Closed = g.Count
		case domain.StatusReopened:
			c.Reopened = g.Count
		}
	}
	if err := r.base(scope, f).Where("complaints.sla_status = ?", domain.SLAOverdue).Count(&c.Overdue).Error; err != nil {
		return nil, err
	}
	if err := r.base(scope, f).Where("complaints.sla_status = ?", domain.SLAWarning).Count(&c.Warning).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// CountByColumn groups scoped complaints by a string column such as
// status, priority or sla_status.
func (r *ReportRepository) CountByColumn(scope Scope, f ComplaintFilter, column string) ([]GroupCount, error) {
	var rows []GroupCount
	err := r.base(scope, f).
		Select("complaints." + column + " as group_key, COUNT(*) as count").
		Group("complaints." + column).
		Order("count DESC").
		Scan(&rows).Error
	return rows, err
}

// CountByType groups scoped complaints by complaint type.
func (r *ReportRepository) CountByType(scope Scope, f ComplaintFilter) ([]GroupCount, error) {
	var rows []GroupCount
	err := r.base(scope, f).
		Select("complaint_types.id as id, complaint_types.name as group_key, COUNT(*) as count").
		Joins("JOIN complaint_types ON complaint_types.id = complaints.complaint_type_id").
		Group("complaint_types.id, complaint_types.name").
		Order("count DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *ReportRepository) CountByWard(scope Scope, f ComplaintFilter) ([]GroupCount, error) {
	var rows []GroupCount
	err := r.base(scope, f).
		Select("wards.id as id, wards.name as group_key, COUNT(*) as count").
		Joins("JOIN wards ON wards.id = complaints.ward_id").
		Group("wards.id, wards.name").
		Order("count DESC").
		Scan(&rows).Error
	return rows, err
}

// SubmissionsByDay returns daily submission counts since the given time,
// bucketed by UTC day as YYYY-MM-DD.
func (r *ReportRepository) SubmissionsByDay(scope Scope, f ComplaintFilter, since time.Time) ([]TimeSeriesPoint, error) {
	var stamps []time.Time
	err := r.base(scope, f).
		Where("complaints.submitted_on >= ?", since).
		Order("complaints.submitted_on ASC").
		Pluck("complaints.submitted_on", &stamps).Error
	if err != nil {
		return nil, err
	}
	var points []TimeSeriesPoint
	for _, ts := range stamps {
		day := ts.UTC().Format("2006-01-02")
		if n := len(points); n > 0 && points[n-1].Date == day {
			points[n-1].Count++
			continue
		}
		points = append(points, TimeSeriesPoint{Date: day, Count: 1})
	}
	return points, nil
}

// ResolutionSamples returns timing data for resolved or closed complaints.
func (r *ReportRepository) ResolutionSamples(scope Scope, f ComplaintFilter) ([]ResolutionSample, error) {
	var rows []ResolutionSample
	err := r.base(scope, f).
		Select("complaints.submitted_on, complaints.resolved_on, complaints.closed_on, complaints.deadline, complaints.rating").
		Where("complaints.status IN ?", []string{domain.StatusResolved, domain.StatusClosed}).
		Scan(&rows).Error
	return rows, err
}
