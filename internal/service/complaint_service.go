package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/config"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/domain"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/metrics"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/models"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/repository"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/pkg/geo"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/pkg/mailer"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/pkg/sla"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrReopenWindowClosed = errors.New("the reopen window for this complaint has passed")
	ErrFeedbackNotAllowed = errors.New("feedback can only be given on resolved or closed complaints")
)

// DefaultCitizenReopenDays is how long after resolution a citizen may reopen.
const DefaultCitizenReopenDays = 7

// Actor is the authenticated caller of a complaint operation.
type Actor struct {
	UserID uint
	Role   string
	WardID *uint
}

func (a Actor) Scope() repository.Scope {
	return repository.Scope{Role: a.Role, UserID: a.UserID, WardID: a.WardID}
}

func (a Actor) inWard(wardID uint) bool {
	return a.WardID != nil && *a.WardID == wardID
}

type ComplaintService struct {
	cfg      *config.Config
	repo     *repository.ComplaintRepository
	typeRepo *repository.ComplaintTypeRepository
	wardRepo *repository.WardRepository
	userRepo *repository.UserRepository
	wards    *WardService
	settings *SettingsService
	notify   *NotificationService
	logger   *zap.Logger
	now      func() time.Time
}

func NewComplaintService(
	cfg *config.Config,
	repo *repository.ComplaintRepository,
	typeRepo *repository.ComplaintTypeRepository,
	wardRepo *repository.WardRepository,
	userRepo *repository.UserRepository,
	wards *WardService,
	settings *SettingsService,
	notify *NotificationService,
	logger *zap.Logger,
) *ComplaintService {
	return &ComplaintService{
		cfg:      cfg,
		repo:     repo,
		typeRepo: typeRepo,
		wardRepo: wardRepo,
		userRepo: userRepo,
		wards:    wards,
		settings: settings,
		notify:   notify,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type CreateComplaintInput struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	ComplaintTypeID uint     `json:"complaint_type_id"`
	Priority        string   `json:"priority"`
	WardID          *uint    `json:"ward_id"`
	SubZoneID       *uint    `json:"sub_zone_id"`
	Area            string   `json:"area"`
	Landmark        string   `json:"landmark"`
	Address         string   `json:"address"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	ContactName     string   `json:"contact_name"`
	ContactEmail    string   `json:"contact_email"`
	ContactPhone    string   `json:"contact_phone"`
	IsAnonymous     bool     `json:"is_anonymous"`
}

func (s *ComplaintService) slaHours(ct *models.ComplaintType) int {
	if ct.SLAHours > 0 {
		return ct.SLAHours
	}
	return s.settings.Int(domain.ConfigDefaultSLAHours, s.cfg.SLA.DefaultHours)
}

func (s *ComplaintService) codeFunc() func(uint) string {
	prefix := s.settings.String(domain.ConfigComplaintIDPrefix, "KSC")
	start := s.settings.Int(domain.ConfigComplaintIDStart, 1)
	width := s.settings.Int(domain.ConfigComplaintIDLength, 4)
	return func(id uint) string {
		return domain.FormatComplaintCode(prefix, start, width, id)
	}
}

// resolveLocation fills ward and sub-zone, detecting them from coordinates
// when the caller gave none.
func (s *ComplaintService) resolveLocation(c *models.Complaint, in CreateComplaintInput) error {
	if in.Latitude != nil && in.Longitude != nil {
		p := geo.Point{Lat: *in.Latitude, Lng: *in.Longitude}
		if !p.Valid() {
			return invalid("coordinates are out of range")
		}
		c.Latitude, c.Longitude = in.Latitude, in.Longitude
	}
	if in.WardID != nil {
		w, err := s.wardRepo.GetByID(*in.WardID)
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !w.IsActive) {
			return invalid("ward %d does not exist", *in.WardID)
		}
		if err != nil {
			return err
		}
		c.WardID = w.ID
		if in.SubZoneID != nil {
			sz, err := s.wardRepo.GetSubZone(*in.SubZoneID)
			if err != nil || sz.WardID != w.ID {
				return invalid("sub-zone %d is not part of ward %d", *in.SubZoneID, w.ID)
			}
			c.SubZoneID = &sz.ID
		}
		return nil
	}
	if c.Latitude == nil {
		return invalid("ward_id or coordinates are required")
	}
	m, err := s.wards.DetectArea(geo.Point{Lat: *c.Latitude, Lng: *c.Longitude})
	if errors.Is(err, ErrNotFound) {
		return invalid("no ward covers the given location")
	}
	if err != nil {
		return err
	}
	c.WardID = m.Ward.ID
	if m.SubZone != nil {
		c.SubZoneID = &m.SubZone.ID
	}
	return nil
}

// Create registers a complaint. actor is nil for guest submissions.
func (s *ComplaintService) Create(ctx context.Context, actor *Actor, in CreateComplaintInput) (*models.Complaint, error) {
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return nil, invalid("description is required")
	}
	ct, err := s.typeRepo.GetByID(in.ComplaintTypeID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !ct.IsActive) {
		return nil, invalid("complaint type %d does not exist", in.ComplaintTypeID)
	}
	if err != nil {
		return nil, err
	}
	priority := ct.Priority
	if in.Priority != "" {
		priority = strings.ToUpper(in.Priority)
		if !domain.IsValidPriority(priority) {
			return nil, invalid("priority must be one of LOW, MEDIUM, HIGH, CRITICAL")
		}
	}

	now := s.now()
	c := &models.Complaint{
		Title:           strings.TrimSpace(in.Title),
		Description:     desc,
		ComplaintTypeID: ct.ID,
		Status:          domain.StatusRegistered,
		Priority:        priority,
		SLAStatus:       domain.SLAOnTime,
		Area:            in.Area,
		Landmark:        in.Landmark,
		Address:         in.Address,
		ContactName:     strings.TrimSpace(in.ContactName),
		ContactEmail:    strings.ToLower(strings.TrimSpace(in.ContactEmail)),
		ContactPhone:    strings.TrimSpace(in.ContactPhone),
		IsAnonymous:     in.IsAnonymous,
		IsGuest:         actor == nil,
		SubmittedOn:     now,
		Deadline:        sla.Deadline(now, s.slaHours(ct)),
	}
	if c.Title == "" {
		c.Title = ct.Name
	}
	if err := s.resolveLocation(c, in); err != nil {
		return nil, err
	}

	if actor != nil {
		u, err := s.userRepo.GetByID(actor.UserID)
		if err != nil {
			return nil, err
		}
		c.SubmittedByID = &u.ID
		if c.ContactEmail == "" {
			c.ContactEmail = u.Email
		}
		if c.ContactName == "" {
			c.ContactName = u.FullName
		}
		if c.ContactPhone == "" {
			c.ContactPhone = u.PhoneNumber
		}
	} else if c.ContactEmail == "" {
		return nil, invalid("contact email is required")
	}

	if s.settings.Bool(domain.ConfigAutoAssign, false) {
		if officer, err := s.userRepo.FirstWardOfficer(c.WardID, domain.RoleWardOfficer); err == nil {
			c.WardOfficerID = &officer.ID
		}
	}

	log := &models.StatusLog{ToStatus: domain.StatusRegistered, Comment: "Complaint registered", CreatedAt: now}
	if actor != nil {
		log.UserID = &actor.UserID
	}
	if err := s.repo.Create(c, s.codeFunc(), log); err != nil {
		return nil, err
	}

	channel := "citizen"
	if actor == nil {
		channel = "guest"
	} else if actor.Role != domain.RoleCitizen {
		channel = "staff"
	}
	metrics.ComplaintsCreated.WithLabelValues(channel).Inc()
	s.logger.Info("complaint registered",
		zap.String("code", c.CodeOrEmpty()),
		zap.Uint("ward_id", c.WardID),
		zap.String("channel", channel))

	if c.WardOfficerID != nil {
		s.notifyUser(*c.WardOfficerID, c, domain.NotificationInfo, "New complaint",
			fmt.Sprintf("Complaint %s was registered in your ward", c.CodeOrEmpty()))
	}
	if actor != nil {
		s.notifyUser(actor.UserID, c, domain.NotificationSuccess, "Complaint registered",
			fmt.Sprintf("Your complaint %s has been registered", c.CodeOrEmpty()))
	}
	s.broadcast(c, "complaint_created")
	return s.repo.GetByID(c.ID)
}

func (s *ComplaintService) load(id uint) (*models.Complaint, error) {
	c, err := s.repo.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return c, err
}

// CanView reports whether the actor may read the complaint.
func CanView(a Actor, c *models.Complaint) bool {
	switch a.Role {
	case domain.RoleAdministrator:
		return true
	case domain.RoleWardOfficer:
		return a.inWard(c.WardID)
	case domain.RoleMaintenanceTeam:
		return c.IsAssignedTo(a.UserID)
	case domain.RoleCitizen:
		return c.IsOwnedBy(a.UserID)
	}
	return false
}

func (s *ComplaintService) refreshSLA(c *models.Complaint) {
	r := sla.Evaluate(c.SubmittedOn, c.Deadline, c.ClosedAt(), s.now(), s.cfg.SLA.WarnPercent)
	c.SLAStatus = r.Status
}

func (s *ComplaintService) Get(actor Actor, id uint) (*models.Complaint, error) {
	c, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if !CanView(actor, c) {
		return nil, forbidden("you do not have access to this complaint")
	}
	s.refreshSLA(c)
	return c, nil
}

func (s *ComplaintService) List(actor Actor, f repository.ComplaintFilter, page, limit int) ([]models.Complaint, int64, error) {
	list, total, err := s.repo.List(actor.Scope(), f, page, limit)
	if err != nil {
		return nil, 0, err
	}
	for i := range list {
		s.refreshSLA(&list[i])
	}
	return list, total, nil
}

func (s *ComplaintService) StatusLogs(actor Actor, id uint) ([]models.StatusLog, error) {
	if _, err := s.Get(actor, id); err != nil {
		return nil, err
	}
	return s.repo.ListStatusLogs(id)
}

type UpdateComplaintInput struct {
	Title           *string `json:"title"`
	Description     *string `json:"description"`
	ComplaintTypeID *uint   `json:"complaint_type_id"`
	Priority        *string `json:"priority"`
	Area            *string `json:"area"`
	Landmark        *string `json:"landmark"`
	Address         *string `json:"address"`
	ContactPhone    *string `json:"contact_phone"`
	Remarks         *string `json:"remarks"`
}

// Update edits complaint details. Citizens may edit their own complaint
// while it is still REGISTERED; staff fields need an officer or admin.
func (s *ComplaintService) Update(actor Actor, id uint, in UpdateComplaintInput) (*models.Complaint, error) {
	c, err := s.load(id)
	if err != nil {
		return nil, err
	}
	staff := actor.Role == domain.RoleAdministrator || (actor.Role == domain.RoleWardOfficer && actor.inWard(c.WardID))
	owner := actor.Role == domain.RoleCitizen && c.IsOwnedBy(actor.UserID)
	switch {
	case staff:
	case owner:
		if c.Status != domain.StatusRegistered {
			return nil, forbidden("complaints can only be edited before they are assigned")
		}
		if in.ComplaintTypeID != nil || in.Priority != nil || in.Remarks != nil {
			return nil, forbidden("only staff can change type, priority or remarks")
		}
	default:
		return nil, forbidden("you cannot edit this complaint")
	}

	updates := map[string]interface{}{}
	if in.Title != nil {
		updates["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		if d == "" {
			return nil, invalid("description cannot be empty")
		}
		updates["description"] = d
	}
	if in.Area != nil {
		updates["area"] = *in.Area
	}
	if in.Landmark != nil {
		updates["landmark"] = *in.Landmark
	}
	if in.Address != nil {
		updates["address"] = *in.Address
	}
	if in.ContactPhone != nil {
		updates["contact_phone"] = *in.ContactPhone
	}
	if in.Remarks != nil {
		updates["remarks"] = *in.Remarks
	}
	if in.Priority != nil {
		p := strings.ToUpper(*in.Priority)
		if !domain.IsValidPriority(p) {
			return nil, invalid("priority must be one of LOW, MEDIUM, HIGH, CRITICAL")
		}
		updates["priority"] = p
	}
	if in.ComplaintTypeID != nil && *in.ComplaintTypeID != c.ComplaintTypeID {
		ct, err := s.typeRepo.GetByID(*in.ComplaintTypeID)
		if err != nil || !ct.IsActive {
			return nil, invalid("complaint type %d does not exist", *in.ComplaintTypeID)
		}
		updates["complaint_type_id"] = ct.ID
		updates["deadline"] = sla.Deadline(c.SubmittedOn, s.slaHours(ct))
	}
	if len(updates) > 0 {
		if err := s.repo.UpdateFields(id, updates); err != nil {
			return nil, err
		}
	}
	return s.Get(actor, id)
}

// Assign hands the complaint to a maintenance team member.
func (s *ComplaintService) Assign(ctx context.Context, actor Actor, id, assigneeID uint, comment string) (*models.Complaint, error) {
	c, err := s.load(id)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case domain.RoleAdministrator:
	case domain.RoleWardOfficer:
		if !actor.inWard(c.WardID) {
			return nil, forbidden("complaint is outside your ward")
		}
	default:
		return nil, forbidden("only ward officers and administrators can assign complaints")
	}
	assignee, err := s.userRepo.GetByID(assigneeID)
	if err != nil || !assignee.IsActive || assignee.Role != domain.RoleMaintenanceTeam {
		return nil, invalid("assignee must be an active maintenance team member")
	}
	if assignee.WardID != nil && *assignee.WardID != c.WardID {
		return nil, invalid("assignee works in a different ward")
	}
	if c.Status != domain.StatusAssigned && !domain.CanTransition(c.Status, domain.StatusAssigned) {
		return nil, fmt.Errorf("%w: cannot assign a %s complaint", ErrInvalidTransition, c.Status)
	}

	now := s.now()
	updates := map[string]interface{}{
		"status":         domain.StatusAssigned,
		"assigned_to_id": assignee.ID,
		"assigned_on":    now,
	}
	if actor.Role == domain.RoleWardOfficer {
		updates["ward_officer_id"] = actor.UserID
	}
	if comment == "" {
		comment = "Assigned to " + assignee.FullName
	}
	log := &models.StatusLog{UserID: &actor.UserID, FromStatus: c.Status, ToStatus: domain.StatusAssigned, Comment: comment, CreatedAt: now}
	if err := s.repo.UpdateWithLog(id, c.Status, updates, log); err != nil {
		return nil, staleAsTransition(err)
	}
	metrics.StatusChanges.WithLabelValues(domain.StatusAssigned).Inc()

	c.Status = domain.StatusAssigned
	s.notifyUser(assignee.ID, c, domain.NotificationInfo, "Complaint assigned",
		fmt.Sprintf("Complaint %s has been assigned to you", c.CodeOrEmpty()))
	s.notifySubmitter(ctx, actor.UserID, c, comment)
	s.broadcast(c, "complaint_updated")
	return s.Get(actor, id)
}

// checkStatusPermission enforces role, ownership and ward scope for a
// status change.
func (s *ComplaintService) checkStatusPermission(actor Actor, c *models.Complaint, to string) error {
	if !domain.RoleCanSetStatus(actor.Role, to) {
		return forbidden(fmt.Sprintf("%s cannot set status %s", actor.Role, to))
	}
	switch actor.Role {
	case domain.RoleAdministrator:
		return nil
	case domain.RoleWardOfficer:
		if !actor.inWard(c.WardID) {
			return forbidden("complaint is outside your ward")
		}
	case domain.RoleMaintenanceTeam:
		if !c.IsAssignedTo(actor.UserID) {
			return forbidden("complaint is not assigned to you")
		}
	case domain.RoleCitizen:
		if !c.IsOwnedBy(actor.UserID) {
			return forbidden("you can only update your own complaints")
		}
		if to == domain.StatusClosed && c.Status != domain.StatusResolved {
			return forbidden("you can only close a resolved complaint")
		}
		if to == domain.StatusReopened {
			closed := c.ClosedAt()
			days := s.settings.Int(domain.ConfigCitizenReopenDays, DefaultCitizenReopenDays)
			if closed != nil && s.now().Sub(*closed) > time.Duration(days)*24*time.Hour {
				return ErrReopenWindowClosed
			}
		}
	}
	return nil
}

// UpdateStatus moves the complaint along the status table, logging the
// change and notifying everyone involved.
func (s *ComplaintService) UpdateStatus(ctx context.Context, actor Actor, id uint, to, comment string) (*models.Complaint, error) {
	to = strings.ToUpper(strings.TrimSpace(to))
	if !domain.IsValidStatus(to) {
		return nil, invalid("unknown status %q", to)
	}
	c, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if err := s.checkStatusPermission(actor, c, to); err != nil {
		return nil, err
	}
	if !domain.CanTransition(c.Status, to) {
		return nil, fmt.Errorf("%w: %s → %s", ErrInvalidTransition, c.Status, to)
	}
	if to == domain.StatusAssigned && c.AssignedToID == nil {
		return nil, invalid("assign a maintenance team member to move the complaint to ASSIGNED")
	}

	now := s.now()
	updates := map[string]interface{}{"status": to}
	switch to {
	case domain.StatusResolved:
		updates["resolved_on"] = now
		updates["resolved_by_id"] = actor.UserID
		updates["sla_status"] = domain.SLACompleted
	case domain.StatusClosed:
		updates["closed_on"] = now
		updates["sla_status"] = domain.SLACompleted
	case domain.StatusReopened:
		ct, err := s.typeRepo.GetByID(c.ComplaintTypeID)
		if err != nil {
			return nil, err
		}
		updates["resolved_on"] = nil
		updates["resolved_by_id"] = nil
		updates["closed_on"] = nil
		updates["overdue_notified_at"] = nil
		updates["deadline"] = sla.Deadline(now, s.slaHours(ct))
		updates["sla_status"] = domain.SLAOnTime
	case domain.StatusRegistered:
		updates["assigned_to_id"] = nil
		updates["assigned_on"] = nil
	}
	log := &models.StatusLog{UserID: &actor.UserID, FromStatus: c.Status, ToStatus: to, Comment: strings.TrimSpace(comment), CreatedAt: now}
	if err := s.repo.UpdateWithLog(id, c.Status, updates, log); err != nil {
		return nil, staleAsTransition(err)
	}
	metrics.StatusChanges.WithLabelValues(to).Inc()
	s.logger.Info("complaint status changed",
		zap.String("code", c.CodeOrEmpty()),
		zap.String("from", c.Status),
		zap.String("to", to),
		zap.Uint("by", actor.UserID))

	c.Status = to
	msg := comment
	if msg == "" {
		msg = "Status changed to " + to
	}
	s.notifySubmitter(ctx, actor.UserID, c, msg)
	if c.AssignedToID != nil && *c.AssignedToID != actor.UserID && to != domain.StatusRegistered {
		s.notifyUser(*c.AssignedToID, c, domain.NotificationInfo, "Complaint updated",
			fmt.Sprintf("Complaint %s is now %s", c.CodeOrEmpty(), to))
	}
	if c.WardOfficerID != nil && *c.WardOfficerID != actor.UserID {
		s.notifyUser(*c.WardOfficerID, c, domain.NotificationInfo, "Complaint updated",
			fmt.Sprintf("Complaint %s is now %s", c.CodeOrEmpty(), to))
	}
	s.broadcast(c, "complaint_updated")
	return s.Get(actor, id)
}

// Feedback records the citizen's rating of a resolved complaint.
func (s *ComplaintService) Feedback(actor Actor, id uint, rating int, feedback string) (*models.Complaint, error) {
	c, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if !c.IsOwnedBy(actor.UserID) {
		return nil, forbidden("only the complainant can leave feedback")
	}
	if c.Status != domain.StatusResolved && c.Status != domain.StatusClosed {
		return nil, ErrFeedbackNotAllowed
	}
	if rating < 1 || rating > 5 {
		return nil, invalid("rating must be between 1 and 5")
	}
	err = s.repo.UpdateFields(id, map[string]interface{}{
		"rating":           rating,
		"citizen_feedback": strings.TrimSpace(feedback),
	})
	if err != nil {
		return nil, err
	}
	return s.Get(actor, id)
}

func (s *ComplaintService) notifyUser(userID uint, c *models.Complaint, typ, title, message string) {
	if s.notify == nil {
		return
	}
	if err := s.notify.Notify(userID, &c.ID, typ, title, message); err != nil {
		s.logger.Warn("notification failed", zap.Uint("user_id", userID), zap.Error(err))
	}
}

// notifySubmitter tells the complainant about a change they did not make,
// in-app when they have an account and by email to the contact address.
func (s *ComplaintService) notifySubmitter(ctx context.Context, actorID uint, c *models.Complaint, comment string) {
	if c.SubmittedByID != nil && *c.SubmittedByID != actorID {
		typ := domain.NotificationInfo
		if c.Status == domain.StatusResolved {
			typ = domain.NotificationSuccess
		}
		s.notifyUser(*c.SubmittedByID, c, typ, "Complaint "+strings.ToLower(strings.ReplaceAll(c.Status, "_", " ")),
			fmt.Sprintf("Your complaint %s is now %s", c.CodeOrEmpty(), c.Status))
	}
	if s.notify != nil && c.ContactEmail != "" && (c.SubmittedByID == nil || *c.SubmittedByID != actorID) {
		appName := s.settings.String(domain.ConfigAppName, "NLC-CMS")
		subject, body := mailer.StatusMessage(appName, c.CodeOrEmpty(), c.Status, comment)
		s.notify.Email(ctx, c.ContactEmail, subject, body)
	}
}

func (s *ComplaintService) broadcast(c *models.Complaint, event string) {
	if s.notify == nil {
		return
	}
	s.notify.Broadcast(c.WardID, event, map[string]interface{}{
		"id":           c.ID,
		"complaint_id": c.CodeOrEmpty(),
		"status":       c.Status,
		"ward_id":      c.WardID,
	})
}
