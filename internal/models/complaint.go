package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type ComplaintType struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"uniqueIndex;size:120;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Priority    string         `gorm:"size:16;not null;default:'MEDIUM'" json:"priority"`
	SLAHours    int            `gorm:"not null;default:48" json:"sla_hours"`
	IsActive    bool           `gorm:"not null;index" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

type Complaint struct {
	ID              uint    `gorm:"primaryKey" json:"id"`
	Code            *string `gorm:"uniqueIndex;size:32" json:"complaint_id"`
	Title           string  `gorm:"size:255" json:"title"`
	Description     string  `gorm:"type:text;not null" json:"description"`
	ComplaintTypeID uint    `gorm:"not null;index" json:"complaint_type_id"`
	Status          string  `gorm:"size:20;not null;index" json:"status"`
	Priority        string  `gorm:"size:16;not null;index" json:"priority"`
	SLAStatus       string  `gorm:"size:16;not null;index" json:"sla_status"`

	WardID    uint     `gorm:"not null;index" json:"ward_id"`
	SubZoneID *uint    `gorm:"index" json:"sub_zone_id"`
	Area      string   `gorm:"size:255" json:"area"`
	Landmark  string   `gorm:"size:255" json:"landmark"`
	Address   string   `gorm:"type:text" json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`

	ContactName  string `gorm:"size:255" json:"contact_name"`
	ContactEmail string `gorm:"size:255;index" json:"contact_email"`
	ContactPhone string `gorm:"size:32" json:"contact_phone"`
	IsAnonymous  bool   `json:"is_anonymous"`
	IsGuest      bool   `gorm:"index" json:"is_guest"`

	SubmittedByID *uint `gorm:"index" json:"submitted_by_id"`
	WardOfficerID *uint `gorm:"index" json:"ward_officer_id"`
	AssignedToID  *uint `gorm:"index" json:"assigned_to_id"`
	ResolvedByID  *uint `json:"resolved_by_id"`

	SubmittedOn time.Time  `gorm:"not null;index" json:"submitted_on"`
	AssignedOn  *time.Time `json:"assigned_on"`
	ResolvedOn  *time.Time `json:"resolved_on"`
	ClosedOn    *time.Time `json:"closed_on"`
	Deadline    time.Time  `gorm:"index" json:"deadline"`
	// OverdueNotifiedAt is set the first time the SLA monitor reports the breach.
	OverdueNotifiedAt *time.Time `json:"-"`

	Remarks         string `gorm:"type:text" json:"remarks"`
	CitizenFeedback string `gorm:"type:text" json:"citizen_feedback"`
	Rating          *int   `json:"rating"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ComplaintType *ComplaintType `gorm:"foreignKey:ComplaintTypeID" json:"complaint_type,omitempty"`
	Ward          *Ward          `gorm:"foreignKey:WardID" json:"ward,omitempty"`
	SubZone       *SubZone       `gorm:"foreignKey:SubZoneID" json:"sub_zone,omitempty"`
	SubmittedBy   *User          `gorm:"foreignKey:SubmittedByID" json:"submitted_by,omitempty"`
	WardOfficer   *User          `gorm:"foreignKey:WardOfficerID" json:"ward_officer,omitempty"`
	AssignedTo    *User          `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`
	Attachments   []Attachment   `gorm:"foreignKey:ComplaintID" json:"attachments,omitempty"`
	StatusLogs    []StatusLog    `gorm:"foreignKey:ComplaintID" json:"status_logs,omitempty"`
}

// CodeOrEmpty returns the human-facing complaint code.
func (c *Complaint) CodeOrEmpty() string {
	if c.Code == nil {
		return ""
	}
	return *c.Code
}

// ClosedAt is the moment the complaint stopped counting against its SLA.
func (c *Complaint) ClosedAt() *time.Time {
	if c.ResolvedOn != nil {
		return c.ResolvedOn
	}
	return c.ClosedOn
}

// IsOwnedBy reports whether userID submitted the complaint.
func (c *Complaint) IsOwnedBy(userID uint) bool {
	return c.SubmittedByID != nil && *c.SubmittedByID == userID
}

func (c *Complaint) IsAssignedTo(userID uint) bool {
	return c.AssignedToID != nil && *c.AssignedToID == userID
}

type StatusLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ComplaintID uint      `gorm:"not null;index" json:"complaint_id"`
	UserID      *uint     `gorm:"index" json:"user_id"`
	FromStatus  string    `gorm:"size:20" json:"from_status"`
	ToStatus    string    `gorm:"size:20;not null" json:"to_status"`
	Comment     string    `gorm:"type:text" json:"comment"`
	CreatedAt   time.Time `gorm:"index" json:"timestamp"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

type Attachment struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	ComplaintID  uint           `gorm:"not null;index" json:"complaint_id"`
	UploadedByID *uint          `gorm:"index" json:"uploaded_by_id"`
	FileName     string         `gorm:"size:255;not null" json:"file_name"`
	OriginalName string         `gorm:"size:255" json:"original_name"`
	MimeType     string         `gorm:"size:100" json:"mime_type"`
	Size         int64          `json:"size"`
	StorageKey   string         `gorm:"size:512;not null" json:"-"`
	URL          string         `gorm:"size:1024" json:"url"`
	CreatedAt    time.Time      `json:"uploaded_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// DownloadPath is the authorised API route that streams the file.
func (a *Attachment) DownloadPath() string {
	return fmt.Sprintf("/api/complaints/%d/attachments/%d", a.ComplaintID, a.ID)
}

// AfterFind fills URL for files kept on local disk, which have no public URL.
func (a *Attachment) AfterFind(*gorm.DB) error {
	if a.URL == "" {
		a.URL = a.DownloadPath()
	}
	return nil
}
