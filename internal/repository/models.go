package repository

import (
	"time"

	"gorm.io/gorm"
)

type licenseModel struct {
	ID              string     `gorm:"column:id;primaryKey;size:36"`
	Folio           string     `gorm:"column:folio;size:32;not null;uniqueIndex:idx_licenses_folio"`
	OwnerID         int64      `gorm:"column:owner_id;not null;index:idx_licenses_owner"`
	IssuedDate      *time.Time `gorm:"column:issued_date"`
	StartDate       time.Time  `gorm:"column:start_date;not null"`
	EndDate         time.Time  `gorm:"column:end_date;not null"`
	Status          string     `gorm:"column:status;size:16;not null;index:idx_licenses_status"`
	RejectionReason *string    `gorm:"column:rejection_reason;type:text"`
	ReviewerID      *int64     `gorm:"column:reviewer_id"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime:false"`
	ResolvedAt      *time.Time `gorm:"column:resolved_at"`

	Attachments []attachmentModel `gorm:"foreignKey:LicenseID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (licenseModel) TableName() string { return "licenses" }

type attachmentModel struct {
	ID          string    `gorm:"column:id;primaryKey;size:36"`
	LicenseID   string    `gorm:"column:license_id;size:36;not null;index:idx_attachments_license"`
	ContentHash string    `gorm:"column:content_hash;size:64;not null;uniqueIndex:idx_attachments_content_hash"`
	MimeType    string    `gorm:"column:mime_type;size:128;not null"`
	SizeBytes   int64     `gorm:"column:size_bytes;not null"`
	StorageKey  string    `gorm:"column:storage_key;size:255"`
	UploadedAt  time.Time `gorm:"column:uploaded_at;not null"`
}

func (attachmentModel) TableName() string { return "attachments" }

// folioCounterModel holds the last sequence handed out per year.
type folioCounterModel struct {
	Year      int       `gorm:"column:year;primaryKey;autoIncrement:false"`
	LastSeq   int       `gorm:"column:last_seq;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime:false"`
}

func (folioCounterModel) TableName() string { return "folio_counters" }

// AutoMigrate creates or updates the lifecycle tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&licenseModel{}, &attachmentModel{}, &folioCounterModel{})
}
