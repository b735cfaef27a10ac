package database

import (
	"strings"
	"time"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/domain"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/models"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/pkg/sla"

	"gorm.io/gorm"
)

// RepairReport counts rows touched by Repair.
type RepairReport struct {
	StatusesNormalized int64 `json:"statuses_normalized"`
	CodesBackfilled    int64 `json:"codes_backfilled"`
	DeadlinesFixed     int64 `json:"deadlines_fixed"`
}

// legacyStatuses maps status strings written by older releases.
var legacyStatuses = map[string]string{
	"PENDING":     domain.StatusRegistered,
	"OPEN":        domain.StatusRegistered,
	"INPROGRESS":  domain.StatusInProgress,
	"IN-PROGRESS": domain.StatusInProgress,
	"COMPLETED":   domain.StatusResolved,
	"REOPEN":      domain.StatusReopened,
}

// Repair brings rows written by older releases in line with the current
// schema. It is safe to run repeatedly.
func Repair(db *gorm.DB, codePrefix string, codeStart, codeWidth, defaultSLAHours int) (*RepairReport, error) {
	report := &RepairReport{}
	err := db.Transaction(func(tx *gorm.DB) error {
		var raw []string
		if err := tx.Model(&models.Complaint{}).Distinct("status").Pluck("status", &raw).Error; err != nil {
			return err
		}
		for _, s := range raw {
			target := strings.ToUpper(strings.TrimSpace(s))
			if mapped, ok := legacyStatuses[target]; ok {
				target = mapped
			}
			if target == s || !domain.IsValidStatus(target) {
				continue
			}
			res := tx.Model(&models.Complaint{}).Where("status = ?", s).Update("status", target)
			if res.Error != nil {
				return res.Error
			}
			report.StatusesNormalized += res.RowsAffected
		}

		var missing []models.Complaint
		if err := tx.Where("code IS NULL OR code = ''").Find(&missing).Error; err != nil {
			return err
		}
		for _, c := range missing {
			code := domain.FormatComplaintCode(codePrefix, codeStart, codeWidth, c.ID)
			if err := tx.Model(&models.Complaint{}).Where("id = ?", c.ID).Update("code", code).Error; err != nil {
				return err
			}
			report.CodesBackfilled++
		}

		var undated []models.Complaint
		if err := tx.Preload("ComplaintType").Where("deadline IS NULL OR deadline < ?", time.Date(1971, 1, 1, 0, 0, 0, 0, time.UTC)).Find(&undated).Error; err != nil {
			return err
		}
		for _, c := range undated {
			hours := defaultSLAHours
			if c.ComplaintType != nil && c.ComplaintType.SLAHours > 0 {
				hours = c.ComplaintType.SLAHours
			}
			submitted := c.SubmittedOn
			if submitted.IsZero() {
				submitted = c.CreatedAt
			}
			updates := map[string]interface{}{
				"deadline":     sla.Deadline(submitted, hours),
				"submitted_on": submitted,
			}
			if err := tx.Model(&models.Complaint{}).Where("id = ?", c.ID).Updates(updates).Error; err != nil {
				return err
			}
			report.DeadlinesFixed++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}
