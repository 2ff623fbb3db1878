package repository

import (
	"context"
	"errors"
	"time"

	"medleave/internal/database"
	"medleave/internal/domain/folio"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FolioCounterRepository struct {
	db *gorm.DB
}

func NewFolioCounterRepository(db *gorm.DB) *FolioCounterRepository {
	return &FolioCounterRepository{db: db}
}

func (r *FolioCounterRepository) WithTx(tx *gorm.DB) *FolioCounterRepository {
	return &FolioCounterRepository{db: tx}
}

// Next bumps the counter for year and returns the new sequence, never going
// below floor+1. The row is locked FOR UPDATE where the database supports it
// and the write is a compare-and-swap on last_seq, so a concurrent bump that
// slips through surfaces as folio.ErrConflict instead of a duplicate.
func (r *FolioCounterRepository) Next(ctx context.Context, year, floor int, now time.Time) (int, error) {
	db := r.db.WithContext(ctx)

	var m folioCounterModel
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("year = ?", year).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		m = folioCounterModel{Year: year, LastSeq: floor + 1, UpdatedAt: now}
		if err := db.Create(&m).Error; err != nil {
			if _, dup := database.UniqueViolation(err); dup {
				return 0, folio.ErrConflict
			}
			return 0, err
		}
		return m.LastSeq, nil
	}
	if err != nil {
		return 0, err
	}

	next := max(m.LastSeq, floor) + 1
	res := db.Model(&folioCounterModel{}).
		Where("year = ? AND last_seq = ?", year, m.LastSeq).
		Updates(map[string]any{"last_seq": next, "updated_at": now})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, folio.ErrConflict
	}
	return next, nil
}

// Current returns the last sequence handed out for year, 0 if none.
func (r *FolioCounterRepository) Current(ctx context.Context, year int) (int, error) {
	var m folioCounterModel
	err := r.db.WithContext(ctx).Where("year = ?", year).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return m.LastSeq, nil
}

// Set overwrites the counter for year.
func (r *FolioCounterRepository) Set(ctx context.Context, year, seq int, now time.Time) error {
	m := folioCounterModel{Year: year, LastSeq: seq, UpdatedAt: now}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "year"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_seq", "updated_at"}),
	}).Create(&m).Error
}
