package model

import "time"

// ReportKind distinguishes the two secondary reporting flows.
type ReportKind string

const (
	ReportLostProperty ReportKind = "lost_property"
	ReportMaintenance  ReportKind = "maintenance"
)

// Valid reports whether k is a known kind.
func (k ReportKind) Valid() bool {
	return k == ReportLostProperty || k == ReportMaintenance
}

// Report is a lost property or maintenance issue raised by a cleaner.
type Report struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	Kind        ReportKind `gorm:"size:32;not null;index" json:"kind"`
	PropertyID  string     `gorm:"size:64;not null;index" json:"propertyId"`
	CleanerID   string     `gorm:"size:64;not null" json:"cleanerId"`
	Description string     `gorm:"type:text;not null" json:"description"`
	SyncStatus  SyncStatus `gorm:"size:16;not null" json:"syncStatus"`
	SyncError   string     `gorm:"type:text" json:"syncError,omitempty"`
	CreatedAt   time.Time  `gorm:"not null" json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	// Associations
	Photos []ReportPhoto `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE" json:"photos"`
}

// ReportPhoto is a photo attachment stored on disk.
type ReportPhoto struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	ReportID    string    `gorm:"size:36;not null;index" json:"reportId"`
	Path        string    `gorm:"size:512;not null" json:"-"`
	FileName    string    `gorm:"size:256" json:"fileName"`
	ContentType string    `gorm:"size:64" json:"contentType"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
}
