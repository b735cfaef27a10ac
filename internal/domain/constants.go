package domain

import (
	"fmt"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/pkg/sla"
)

const (
	RoleCitizen         = "CITIZEN"
	RoleWardOfficer     = "WARD_OFFICER"
	RoleMaintenanceTeam = "MAINTENANCE_TEAM"
	RoleAdministrator   = "ADMINISTRATOR"
	RoleGuest           = "GUEST"
)

func IsValidRole(role string) bool {
	switch role {
	case RoleCitizen, RoleWardOfficer, RoleMaintenanceTeam, RoleAdministrator:
		return true
	}
	return false
}

const (
	PriorityLow      = "LOW"
	PriorityMedium   = "MEDIUM"
	PriorityHigh     = "HIGH"
	PriorityCritical = "CRITICAL"
)

func IsValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

const (
	SLAOnTime    = sla.OnTime
	SLAWarning   = sla.Warning
	SLAOverdue   = sla.Overdue
	SLACompleted = sla.Completed
)

const (
	OTPPurposeGuestVerification = "GUEST_VERIFICATION"
	OTPPurposeComplaintTracking = "COMPLAINT_TRACKING"
	OTPPurposeLogin             = "LOGIN"
	OTPPurposePasswordReset     = "PASSWORD_RESET"
)

const (
	NotificationInfo    = "INFO"
	NotificationSuccess = "SUCCESS"
	NotificationWarning = "WARNING"
	NotificationError   = "ERROR"
)

const (
	ConfigTypeString  = "string"
	ConfigTypeNumber  = "number"
	ConfigTypeBoolean = "boolean"
	ConfigTypeJSON    = "json"
)

// System config keys read by services.
const (
	ConfigAppName               = "APP_NAME"
	ConfigComplaintIDPrefix     = "COMPLAINT_ID_PREFIX"
	ConfigComplaintIDStart      = "COMPLAINT_ID_START_NUMBER"
	ConfigComplaintIDLength     = "COMPLAINT_ID_LENGTH"
	ConfigAutoAssign            = "AUTO_ASSIGN_COMPLAINTS"
	ConfigDefaultSLAHours       = "DEFAULT_SLA_HOURS"
	ConfigOTPExpiryMinutes      = "OTP_EXPIRY_MINUTES"
	ConfigMaxFileSizeMB         = "MAX_FILE_SIZE_MB"
	ConfigWardDetectionMaxKm    = "WARD_DETECTION_MAX_KM"
	ConfigCitizenReopenDays     = "CITIZEN_REOPEN_DAYS"
	ConfigNotificationsEmail    = "EMAIL_NOTIFICATIONS_ENABLED"
	ConfigExportMaxRows         = "EXPORT_MAX_ROWS"
	ConfigContactHelpline       = "CONTACT_HELPLINE"
	ConfigMapDefaultLat         = "MAP_DEFAULT_LAT"
	ConfigMapDefaultLng         = "MAP_DEFAULT_LNG"
	ConfigGuestSubmissionActive = "GUEST_SUBMISSION_ENABLED"
)

// PublicConfigKeys may be read without authentication.
var PublicConfigKeys = []string{
	ConfigAppName,
	ConfigComplaintIDPrefix,
	ConfigOTPExpiryMinutes,
	ConfigMaxFileSizeMB,
	ConfigContactHelpline,
	ConfigMapDefaultLat,
	ConfigMapDefaultLng,
	ConfigGuestSubmissionActive,
}

// AllowedAttachmentTypes maps accepted MIME types to file extensions.
var AllowedAttachmentTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// FormatComplaintCode renders the public complaint code for a row id,
// e.g. prefix "KSC", start 1, width 4, id 7 → "KSC0007".
func FormatComplaintCode(prefix string, start, width int, id uint) string {
	if start < 0 {
		start = 0
	}
	if width < 1 {
		width = 1
	}
	return fmt.Sprintf("%s%0*d", prefix, width, start+int(id)-1)
}
