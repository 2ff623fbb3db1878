// Package intake submits and resolves medical-leave licenses, composing the
// window check, the role gate, the attachment checker, the folio allocator
// and the lifecycle engine into atomic operations.
package intake

import (
	"context"
	"errors"
	"time"

	"medleave/internal/domain/access"
	"medleave/internal/domain/attachment"
	"medleave/internal/domain/folio"
	"medleave/internal/domain/license"
	"medleave/internal/metrics"
	folioalloc "medleave/internal/modules/folio"
	"medleave/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type Service struct {
	licenses  *repository.LicenseRepository
	allocator *folioalloc.Allocator
	checker   *attachment.Checker
	now       func() time.Time
	logger    zerolog.Logger
	metrics   *metrics.Metrics
}

func NewService(db *gorm.DB, allocator *folioalloc.Allocator, logger zerolog.Logger, m *metrics.Metrics) *Service {
	licenses := repository.NewLicenseRepository(db)
	return &Service{
		licenses:  licenses,
		allocator: allocator,
		checker:   attachment.NewChecker(licenses),
		now:       time.Now,
		logger:    logger.With().Str("component", "intake").Logger(),
		metrics:   m,
	}
}

// WithClock replaces the time source. Tests use it to pin the folio year.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// SubmitRequest carries everything needed to open a license. OwnerID may be
// zero, meaning the actor submits for themselves.
type SubmitRequest struct {
	Actor      access.Actor
	OwnerID    int64
	StartDate  time.Time
	EndDate    time.Time
	IssuedDate *time.Time
	Attachment attachment.Meta
	StorageKey string
}

// Precheck runs the checks that need no folio: window, gate, attachment.
// The upload path calls it before writing evidence bytes anywhere.
func (s *Service) Precheck(ctx context.Context, req SubmitRequest) (attachment.Validated, error) {
	if err := license.ValidateWindow(req.StartDate, req.EndDate); err != nil {
		return attachment.Validated{}, err
	}
	if err := access.Authorize(req.Actor, access.ActionCreate); err != nil {
		return attachment.Validated{}, err
	}
	if req.OwnerID != 0 && req.OwnerID != req.Actor.ID {
		return attachment.Validated{}, access.ErrForbidden
	}
	v, err := s.checker.Check(ctx, req.Attachment)
	if err != nil {
		return attachment.Validated{}, persistence(err)
	}
	return v, nil
}

// Submit creates a pending license with its primary evidence. The folio,
// the license row and the attachment row commit together or not at all.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*license.License, error) {
	rec, err := s.submit(ctx, req)
	s.metrics.Submission(outcome(err))
	if err != nil {
		ev := s.logger.Info()
		if errors.Is(err, ErrPersistence) || errors.Is(err, folio.ErrAllocationFailed) {
			ev = s.logger.Error()
		}
		ev.Err(err).Int64("actor_id", req.Actor.ID).Msg("license submission refused")
		return nil, err
	}

	s.logger.Info().
		Str("license_id", rec.ID).
		Str("folio", rec.Folio).
		Int64("owner_id", rec.OwnerID).
		Msg("license submitted")
	return rec, nil
}

func (s *Service) submit(ctx context.Context, req SubmitRequest) (*license.License, error) {
	validated, err := s.Precheck(ctx, req)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	rec := &license.License{
		ID:        uuid.NewString(),
		OwnerID:   req.Actor.ID,
		StartDate: license.DateOnly(req.StartDate),
		EndDate:   license.DateOnly(req.EndDate),
		Status:    license.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.IssuedDate != nil {
		issued := license.DateOnly(*req.IssuedDate)
		rec.IssuedDate = &issued
	}
	rec.Attachments = []license.Attachment{{
		ID:          uuid.NewString(),
		LicenseID:   rec.ID,
		ContentHash: validated.ContentHash,
		MimeType:    validated.MimeType,
		SizeBytes:   validated.SizeBytes,
		StorageKey:  req.StorageKey,
		UploadedAt:  now,
	}}

	f, err := s.allocator.Allocate(ctx, now, func(tx *gorm.DB, f folio.Folio) error {
		repo := s.licenses.WithTx(tx)
		// a concurrent submit may have stored the same bytes since Check
		exists, err := repo.ContentHashExists(ctx, validated.ContentHash)
		if err != nil {
			return err
		}
		if exists {
			return attachment.ErrDuplicateContent
		}
		rec.Folio = f.String()
		return repo.Create(ctx, rec)
	})
	if err != nil {
		return nil, persistence(err)
	}
	rec.Folio = f.String()
	return rec, nil
}

// Resolve moves a license to target on behalf of actor. On any failure the
// stored record is unchanged and no transitioned value is returned.
func (s *Service) Resolve(ctx context.Context, id string, target license.Status, actor access.Actor, reason *string) (*license.License, error) {
	next, err := s.resolve(ctx, id, target, actor, reason)
	s.metrics.Transition(targetLabel(target), outcome(err))
	if err != nil {
		ev := s.logger.Info()
		if errors.Is(err, ErrPersistence) {
			ev = s.logger.Error()
		}
		ev.Err(err).Str("license_id", id).Str("target", string(target)).Int64("actor_id", actor.ID).Msg("license transition refused")
		return nil, err
	}

	s.logger.Info().
		Str("license_id", next.ID).
		Str("folio", next.Folio).
		Str("status", string(next.Status)).
		Int64("reviewer_id", actor.ID).
		Msg("license transitioned")
	return next, nil
}

// targetLabel keeps caller-supplied statuses out of metric label values.
func targetLabel(target license.Status) string {
	if !target.Valid() {
		return "invalid"
	}
	return string(target)
}

func (s *Service) resolve(ctx context.Context, id string, target license.Status, actor access.Actor, reason *string) (*license.License, error) {
	rec, err := s.licenses.GetByID(ctx, id)
	if err != nil {
		return nil, persistence(err)
	}
	if err := access.Authorize(actor, access.ActionTransition); err != nil {
		return nil, err
	}
	next, err := license.Transition(rec, target, actor.ID, reason, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.licenses.SaveTransition(ctx, next); err != nil {
		return nil, persistence(err)
	}
	return next, nil
}

// EvidenceInUse reports whether a stored attachment references hash.
func (s *Service) EvidenceInUse(ctx context.Context, hash string) (bool, error) {
	exists, err := s.licenses.ContentHashExists(ctx, hash)
	if err != nil {
		return false, persistence(err)
	}
	return exists, nil
}

// Get returns a license the actor may see: their own, or any for staff.
func (s *Service) Get(ctx context.Context, id string, actor access.Actor) (*license.License, error) {
	rec, err := s.licenses.GetByID(ctx, id)
	if err != nil {
		return nil, persistence(err)
	}
	if !access.CanView(actor, rec.OwnerID) {
		return nil, access.ErrForbidden
	}
	return rec, nil
}

func (s *Service) ListMine(ctx context.Context, actor access.Actor) ([]license.License, error) {
	list, err := s.licenses.ListByOwner(ctx, actor.ID)
	if err != nil {
		return nil, persistence(err)
	}
	return list, nil
}

// ValidateAttachment runs the integrity checker without creating anything.
func (s *Service) ValidateAttachment(ctx context.Context, m attachment.Meta) (attachment.Validated, error) {
	v, err := s.checker.Check(ctx, m)
	if err != nil {
		return attachment.Validated{}, persistence(err)
	}
	return v, nil
}

// AllocateFolio reserves the next folio of year without a license, for
// back-fill of paper records.
func (s *Service) AllocateFolio(ctx context.Context, year int) (folio.Folio, error) {
	if year < 1000 || year > 9999 {
		return "", folio.ErrMalformed
	}
	f, err := s.allocator.Allocate(ctx, time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), nil)
	if err != nil {
		return "", persistence(err)
	}
	s.logger.Info().Str("folio", f.String()).Msg("folio reserved")
	return f, nil
}

func (s *Service) PeekFolio(ctx context.Context, year int) (folio.Folio, error) {
	if year < 1000 || year > 9999 {
		return "", folio.ErrMalformed
	}
	f, err := s.allocator.Peek(ctx, year)
	if err != nil {
		return "", persistence(err)
	}
	return f, nil
}
