package service

import (
	"context"
	"fmt"
	"time"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/domain"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/metrics"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/models"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/repository"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/pkg/sla"

	"go.uber.org/zap"
)

const slaBatchSize = 500

// SLAMonitor periodically re-evaluates open complaints against their
// deadlines and reports new breaches to the ward officer.
type SLAMonitor struct {
	repo        *repository.ComplaintRepository
	userRepo    *repository.UserRepository
	notify      *NotificationService
	otp         *OTPService
	interval    time.Duration
	warnPercent float64
	logger      *zap.Logger
	now         func() time.Time
}

func NewSLAMonitor(
	repo *repository.ComplaintRepository,
	userRepo *repository.UserRepository,
	notify *NotificationService,
	otp *OTPService,
	interval time.Duration,
	warnPercent float64,
	logger *zap.Logger,
) *SLAMonitor {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &SLAMonitor{
		repo:        repo,
		userRepo:    userRepo,
		notify:      notify,
		otp:         otp,
		interval:    interval,
		warnPercent: warnPercent,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (m *SLAMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	m.sweep()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *SLAMonitor) sweep() {
	start := time.Now()
	res, err := m.Sweep()
	if err != nil {
		m.logger.Error("sla sweep failed", zap.Error(err))
		return
	}
	if m.otp != nil {
		if n, err := m.otp.Purge(); err != nil {
			m.logger.Warn("otp purge failed", zap.Error(err))
		} else if n > 0 {
			m.logger.Debug("purged otp sessions", zap.Int64("count", n))
		}
	}
	m.logger.Info("sla sweep",
		zap.Int("checked", res.Checked),
		zap.Int("updated", res.Updated),
		zap.Int("breached", res.Breached),
		zap.Duration("took", time.Since(start)))
}

// SweepResult counts what one pass changed.
type SweepResult struct {
	Checked  int
	Updated  int
	Breached int
	ByStatus map[string]int
}

// Sweep evaluates every open complaint once.
func (m *SLAMonitor) Sweep() (*SweepResult, error) {
	res := &SweepResult{ByStatus: map[string]int{
		domain.SLAOnTime:  0,
		domain.SLAWarning: 0,
		domain.SLAOverdue: 0,
	}}
	now := m.now()
	for offset := 0; ; offset += slaBatchSize {
		batch, err := m.repo.ListOpen(slaBatchSize, offset)
		if err != nil {
			return nil, err
		}
		for i := range batch {
			if err := m.evaluate(&batch[i], now, res); err != nil {
				return nil, err
			}
		}
		if len(batch) < slaBatchSize {
			break
		}
	}
	for status, n := range res.ByStatus {
		metrics.OpenComplaints.WithLabelValues(status).Set(float64(n))
	}
	return res, nil
}

func (m *SLAMonitor) evaluate(c *models.Complaint, now time.Time, res *SweepResult) error {
	res.Checked++
	r := sla.Evaluate(c.SubmittedOn, c.Deadline, nil, now, m.warnPercent)
	res.ByStatus[r.Status]++

	if r.Status == domain.SLAOverdue {
		first, err := m.repo.MarkOverdueNotified(c.ID, now)
		if err != nil {
			return err
		}
		if first {
			res.Updated++
			res.Breached++
			metrics.SLABreaches.Inc()
			m.reportBreach(c)
		}
		return nil
	}
	if r.Status != c.SLAStatus {
		if err := m.repo.UpdateFields(c.ID, map[string]interface{}{"sla_status": r.Status}); err != nil {
			return err
		}
		res.Updated++
	}
	return nil
}

func (m *SLAMonitor) reportBreach(c *models.Complaint) {
	m.logger.Warn("complaint overdue", zap.String("code", c.CodeOrEmpty()), zap.Uint("ward_id", c.WardID))
	if m.notify == nil {
		return
	}
	officerID := c.WardOfficerID
	if officerID == nil {
		if officer, err := m.userRepo.FirstWardOfficer(c.WardID, domain.RoleWardOfficer); err == nil {
			officerID = &officer.ID
		}
	}
	msg := fmt.Sprintf("Complaint %s has passed its SLA deadline", c.CodeOrEmpty())
	if officerID != nil {
		if err := m.notify.Notify(*officerID, &c.ID, domain.NotificationWarning, "SLA breached", msg); err != nil {
			m.logger.Warn("overdue notification failed", zap.Error(err))
		}
	}
	m.notify.Broadcast(c.WardID, "complaint_overdue", map[string]interface{}{
		"id":           c.ID,
		"complaint_id": c.CodeOrEmpty(),
		"deadline":     c.Deadline,
	})
}
