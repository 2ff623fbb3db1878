package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medleave/internal/database"
	"medleave/internal/domain/attachment"
	"medleave/internal/domain/folio"
	"medleave/internal/domain/license"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var nonTerminal = []string{string(license.StatusPending), string(license.StatusInReview)}

type LicenseRepository struct {
	db *gorm.DB
}

func NewLicenseRepository(db *gorm.DB) *LicenseRepository {
	return &LicenseRepository{db: db}
}

// WithTx returns a repository bound to an open transaction.
func (r *LicenseRepository) WithTx(tx *gorm.DB) *LicenseRepository {
	return &LicenseRepository{db: tx}
}

func toDomainLicense(m licenseModel) *license.License {
	l := &license.License{
		ID:              m.ID,
		Folio:           m.Folio,
		OwnerID:         m.OwnerID,
		IssuedDate:      utcPtr(m.IssuedDate),
		StartDate:       m.StartDate.UTC(),
		EndDate:         m.EndDate.UTC(),
		Status:          license.Status(m.Status),
		RejectionReason: m.RejectionReason,
		ReviewerID:      m.ReviewerID,
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
		ResolvedAt:      utcPtr(m.ResolvedAt),
	}
	for _, a := range m.Attachments {
		l.Attachments = append(l.Attachments, toDomainAttachment(a))
	}
	return l
}

func toLicenseModel(l *license.License) licenseModel {
	return licenseModel{
		ID:              l.ID,
		Folio:           l.Folio,
		OwnerID:         l.OwnerID,
		IssuedDate:      l.IssuedDate,
		StartDate:       l.StartDate,
		EndDate:         l.EndDate,
		Status:          string(l.Status),
		RejectionReason: l.RejectionReason,
		ReviewerID:      l.ReviewerID,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
		ResolvedAt:      l.ResolvedAt,
	}
}

func toDomainAttachment(m attachmentModel) license.Attachment {
	return license.Attachment{
		ID:          m.ID,
		LicenseID:   m.LicenseID,
		ContentHash: m.ContentHash,
		MimeType:    m.MimeType,
		SizeBytes:   m.SizeBytes,
		StorageKey:  m.StorageKey,
		UploadedAt:  m.UploadedAt.UTC(),
	}
}

func toAttachmentModel(a license.Attachment) attachmentModel {
	return attachmentModel{
		ID:          a.ID,
		LicenseID:   a.LicenseID,
		ContentHash: a.ContentHash,
		MimeType:    a.MimeType,
		SizeBytes:   a.SizeBytes,
		StorageKey:  a.StorageKey,
		UploadedAt:  a.UploadedAt,
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

// Create inserts the license and its attachments. It should run inside a
// transaction so a failed attachment insert also drops the license row.
// A unique violation on the license maps to folio.ErrConflict and one on an
// attachment to attachment.ErrDuplicateContent.
func (r *LicenseRepository) Create(ctx context.Context, l *license.License) error {
	m := toLicenseModel(l)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&m).Error; err != nil {
		if _, dup := database.UniqueViolation(err); dup {
			return fmt.Errorf("%w: %s", folio.ErrConflict, l.Folio)
		}
		return err
	}

	for _, a := range l.Attachments {
		am := toAttachmentModel(a)
		am.LicenseID = m.ID
		if err := r.db.WithContext(ctx).Create(&am).Error; err != nil {
			if _, dup := database.UniqueViolation(err); dup {
				return attachment.ErrDuplicateContent
			}
			return err
		}
	}
	return nil
}

func (r *LicenseRepository) GetByID(ctx context.Context, id string) (*license.License, error) {
	var m licenseModel
	err := r.db.WithContext(ctx).
		Preload("Attachments", func(db *gorm.DB) *gorm.DB { return db.Order("uploaded_at ASC") }).
		Where("id = ?", id).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, license.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toDomainLicense(m), nil
}

func (r *LicenseRepository) ListByOwner(ctx context.Context, ownerID int64) ([]license.License, error) {
	var rows []licenseModel
	err := r.db.WithContext(ctx).
		Preload("Attachments").
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]license.License, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainLicense(m))
	}
	return out, nil
}

// SaveTransition writes the lifecycle fields of l, but only while the stored
// row is still non-terminal. If another reviewer resolved it first the
// update matches nothing and ErrTerminalState is returned.
func (r *LicenseRepository) SaveTransition(ctx context.Context, l *license.License) error {
	res := r.db.WithContext(ctx).
		Model(&licenseModel{}).
		Where("id = ? AND status IN ?", l.ID, nonTerminal).
		Updates(map[string]any{
			"status":           string(l.Status),
			"rejection_reason": l.RejectionReason,
			"reviewer_id":      l.ReviewerID,
			"updated_at":       l.UpdatedAt,
			"resolved_at":      l.ResolvedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var current licenseModel
	err := r.db.WithContext(ctx).Select("id", "status").Where("id = ?", l.ID).First(&current).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return license.ErrNotFound
	}
	if err != nil {
		return err
	}
	if license.Status(current.Status).Terminal() {
		return license.ErrTerminalState
	}
	return nil
}

func (r *LicenseRepository) ContentHashExists(ctx context.Context, hash string) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&attachmentModel{}).Where("content_hash = ?", hash).Count(&cnt).Error
	if err != nil {
		return false, err
	}
	return cnt > 0, nil
}

// HighestFolioSequence scans the folios issued for year. Sequences are
// compared numerically because they outgrow their padding after 999.
func (r *LicenseRepository) HighestFolioSequence(ctx context.Context, year int) (int, error) {
	var folios []string
	err := r.db.WithContext(ctx).
		Model(&licenseModel{}).
		Where("folio LIKE ?", folio.Prefix(year)+"%").
		Pluck("folio", &folios).Error
	if err != nil {
		return 0, err
	}
	return folio.HighestSequence(year, folios), nil
}
