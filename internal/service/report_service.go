package service

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/domain"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/metrics"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/models"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/repository"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/pkg/export"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/pkg/sla"
)

const (
	DefaultExportMaxRows = 5000
	DefaultTrendDays     = 30
	maxTrendDays         = 365
)

type ReportService struct {
	repo       *repository.ReportRepository
	complaints *repository.ComplaintRepository
	users      *repository.UserRepository
	settings   *SettingsService
	now        func() time.Time
}

func NewReportService(repo *repository.ReportRepository, complaints *repository.ComplaintRepository, users *repository.UserRepository, settings *SettingsService) *ReportService {
	return &ReportService{
		repo:       repo,
		complaints: complaints,
		users:      users,
		settings:   settings,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

type Dashboard struct {
	Counts             *repository.DashboardCounts `json:"counts"`
	SLACompliance      float64                     `json:"sla_compliance"`
	AvgResolutionHours float64                     `json:"avg_resolution_hours"`
	AverageRating      float64                     `json:"average_rating"`
	RegisteredToday    int64                       `json:"registered_today"`
	UsersByRole        map[string]int64            `json:"users_by_role,omitempty"`
}

// Dashboard summarises the complaints visible to the actor.
func (s *ReportService) Dashboard(actor Actor, f repository.ComplaintFilter) (*Dashboard, error) {
	scope := actor.Scope()
	counts, err := s.repo.Counts(scope, f)
	if err != nil {
		return nil, err
	}
	samples, err := s.repo.ResolutionSamples(scope, f)
	if err != nil {
		return nil, err
	}
	d := &Dashboard{Counts: counts}
	d.SLACompliance, d.AvgResolutionHours, d.AverageRating = summarise(samples)

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	tf := f
	tf.From = &today
	todays, err := s.repo.Counts(scope, tf)
	if err != nil {
		return nil, err
	}
	d.RegisteredToday = todays.Total

	if actor.Role == domain.RoleAdministrator {
		if d.UsersByRole, err = s.users.CountByRole(); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// summarise returns SLA compliance %, mean hours to resolution and mean
// rating over resolved complaints. With no samples compliance is 100.
func summarise(samples []repository.ResolutionSample) (compliance, avgHours, avgRating float64) {
	if len(samples) == 0 {
		return 100, 0, 0
	}
	var onTime, rated int
	var hours, ratings float64
	for _, r := range samples {
		done := r.ResolvedOn
		if done == nil {
			done = r.ClosedOn
		}
		if done == nil {
			continue
		}
		if !sla.Evaluate(r.SubmittedOn, r.Deadline, done, *done, 0).Breached {
			onTime++
		}
		hours += done.Sub(r.SubmittedOn).Hours()
		if r.Rating != nil {
			rated++
			ratings += float64(*r.Rating)
		}
	}
	n := float64(len(samples))
	compliance = round2(float64(onTime) / n * 100)
	avgHours = round2(hours / n)
	if rated > 0 {
		avgRating = round2(ratings / float64(rated))
	}
	return compliance, avgHours, avgRating
}

func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}

type Analytics struct {
	ByType     []repository.GroupCount      `json:"by_type"`
	ByWard     []repository.GroupCount      `json:"by_ward"`
	ByPriority []repository.GroupCount      `json:"by_priority"`
	ByStatus   []repository.GroupCount      `json:"by_status"`
	BySLA      []repository.GroupCount      `json:"by_sla_status"`
	Trend      []repository.TimeSeriesPoint `json:"trend"`
	Days       int                          `json:"days"`
}

func (s *ReportService) Analytics(actor Actor, f repository.ComplaintFilter, days int) (*Analytics, error) {
	if days <= 0 {
		days = DefaultTrendDays
	}
	if days > maxTrendDays {
		days = maxTrendDays
	}
	scope := actor.Scope()
	a := &Analytics{Days: days}
	var err error
	if a.ByType, err = s.repo.CountByType(scope, f); err != nil {
		return nil, err
	}
	if a.ByWard, err = s.repo.CountByWard(scope, f); err != nil {
		return nil, err
	}
	if a.ByPriority, err = s.repo.CountByColumn(scope, f, "priority"); err != nil {
		return nil, err
	}
	if a.ByStatus, err = s.repo.CountByColumn(scope, f, "status"); err != nil {
		return nil, err
	}
	if a.BySLA, err = s.repo.CountByColumn(scope, f, "sla_status"); err != nil {
		return nil, err
	}
	since := s.now().AddDate(0, 0, -days+1).Truncate(24 * time.Hour)
	if a.Trend, err = s.repo.SubmissionsByDay(scope, f, since); err != nil {
		return nil, err
	}
	return a, nil
}

var exportHeaders = []string{
	"Complaint ID", "Type", "Status", "Priority", "SLA", "Ward", "Sub-zone",
	"Area", "Contact", "Assigned To", "Submitted On", "Deadline", "Resolved On", "Rating",
}

// Export writes the actor's filtered complaints to w in the given format
// and returns the number of rows written.
func (s *ReportService) Export(w io.Writer, actor Actor, f repository.ComplaintFilter, format string) (int, error) {
	if actor.Role != domain.RoleAdministrator && actor.Role != domain.RoleWardOfficer {
		return 0, forbidden("only administrators and ward officers can export reports")
	}
	if _, _, err := export.ContentType(format); err != nil {
		return 0, invalid("format must be csv, excel or pdf")
	}
	max := s.settings.Int(domain.ConfigExportMaxRows, DefaultExportMaxRows)
	list, err := s.complaints.Export(actor.Scope(), f, max)
	if err != nil {
		return 0, err
	}
	appName := s.settings.String(domain.ConfigAppName, "NLC-CMS")
	t := &export.Table{
		Title:   fmt.Sprintf("%s complaints report (%s)", appName, s.now().Format("2006-01-02 15:04")),
		Headers: exportHeaders,
		Rows:    make([][]string, 0, len(list)),
	}
	for i := range list {
		t.Rows = append(t.Rows, exportRow(&list[i]))
	}
	if err := export.Write(w, format, t); err != nil {
		return 0, err
	}
	metrics.ExportsGenerated.WithLabelValues(format).Inc()
	return len(t.Rows), nil
}

func exportRow(c *models.Complaint) []string {
	name := func(u *models.User) string {
		if u == nil {
			return ""
		}
		return u.FullName
	}
	var typ, ward, zone string
	if c.ComplaintType != nil {
		typ = c.ComplaintType.Name
	}
	if c.Ward != nil {
		ward = c.Ward.Name
	}
	if c.SubZone != nil {
		zone = c.SubZone.Name
	}
	contact := c.ContactName
	if c.IsAnonymous {
		contact = "Anonymous"
	}
	var resolved, rating string
	if c.ResolvedOn != nil {
		resolved = c.ResolvedOn.Format("2006-01-02 15:04")
	}
	if c.Rating != nil {
		rating = strconv.Itoa(*c.Rating)
	}
	return []string{
		c.CodeOrEmpty(), typ, c.Status, c.Priority, sla.Label(c.SLAStatus), ward, zone,
		c.Area, contact, name(c.AssignedTo),
		c.SubmittedOn.Format("2006-01-02 15:04"), c.Deadline.Format("2006-01-02 15:04"),
		resolved, rating,
	}
}
