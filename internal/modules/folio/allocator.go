package folio

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"medleave/internal/domain/folio"
	"medleave/internal/metrics"
	"medleave/internal/repository"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const DefaultMaxAttempts = 3

// InsertFunc persists whatever owns the freshly computed folio, using tx so
// that the counter bump and the insert commit together. Returning an error
// wrapping folio.ErrConflict restarts the whole cycle.
type InsertFunc func(tx *gorm.DB, f folio.Folio) error

// Allocator hands out F-<year>-<seq> folios. Allocation is serialized per
// year in-process and guarded in the database by the counter row and the
// unique index on licenses.folio.
type Allocator struct {
	db          *gorm.DB
	licenses    *repository.LicenseRepository
	counters    *repository.FolioCounterRepository
	maxAttempts int
	logger      zerolog.Logger
	metrics     *metrics.Metrics

	mu    sync.Mutex
	years map[int]chan struct{}
}

func NewAllocator(db *gorm.DB, maxAttempts int, logger zerolog.Logger, m *metrics.Metrics) *Allocator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Allocator{
		db:          db,
		licenses:    repository.NewLicenseRepository(db),
		counters:    repository.NewFolioCounterRepository(db),
		maxAttempts: maxAttempts,
		logger:      logger.With().Str("component", "folio_allocator").Logger(),
		metrics:     m,
		years:       make(map[int]chan struct{}),
	}
}

// lockYear waits for the year's slot or for ctx to end, whichever is first.
func (a *Allocator) lockYear(ctx context.Context, year int) (func(), error) {
	a.mu.Lock()
	sem, ok := a.years[year]
	if !ok {
		sem = make(chan struct{}, 1)
		a.years[year] = sem
	}
	a.mu.Unlock()

	select {
	case sem <- struct{}{}:
		return func() { <-sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Allocate runs the read-max, compute-next, insert cycle for now's year.
// insert may be nil, in which case the folio is only reserved.
func (a *Allocator) Allocate(ctx context.Context, now time.Time, insert InsertFunc) (folio.Folio, error) {
	now = now.UTC()
	year := now.Year()

	unlock, err := a.lockYear(ctx, year)
	if err != nil {
		return "", err
	}
	defer unlock()

	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		var f folio.Folio
		err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			floor, err := a.licenses.WithTx(tx).HighestFolioSequence(ctx, year)
			if err != nil {
				return fmt.Errorf("read highest folio: %w", err)
			}
			seq, err := a.counters.WithTx(tx).Next(ctx, year, floor, now)
			if err != nil {
				return err
			}
			f = folio.New(year, seq)
			if insert == nil {
				return nil
			}
			return insert(tx, f)
		})
		if err == nil {
			a.metrics.FolioAllocated(strconv.Itoa(year))
			return f, nil
		}
		if !errors.Is(err, folio.ErrConflict) {
			return "", err
		}

		a.metrics.FolioConflict()
		a.logger.Warn().Err(err).Int("year", year).Int("attempt", attempt).Msg("folio conflict, retrying")
	}

	a.metrics.FolioFailure()
	a.logger.Error().Int("year", year).Int("attempts", a.maxAttempts).Msg("folio allocation failed")
	return "", folio.ErrAllocationFailed
}

// Peek returns the folio the next allocation for year would receive without
// consuming it.
func (a *Allocator) Peek(ctx context.Context, year int) (folio.Folio, error) {
	cur, err := a.counters.Current(ctx, year)
	if err != nil {
		return "", err
	}
	high, err := a.licenses.HighestFolioSequence(ctx, year)
	if err != nil {
		return "", err
	}
	return folio.New(year, max(cur, high)+1), nil
}

// Reseed raises the counter for year to the highest folio already stored,
// for use after importing historic records. It never lowers the counter, so
// reserved folios stay retired. It returns the new counter value.
func (a *Allocator) Reseed(ctx context.Context, year int) (int, error) {
	unlock, err := a.lockYear(ctx, year)
	if err != nil {
		return 0, err
	}
	defer unlock()

	high, err := a.licenses.HighestFolioSequence(ctx, year)
	if err != nil {
		return 0, err
	}
	cur, err := a.counters.Current(ctx, year)
	if err != nil {
		return 0, err
	}
	seq := max(cur, high)
	if err := a.counters.Set(ctx, year, seq, time.Now().UTC()); err != nil {
		return 0, err
	}
	a.logger.Info().Int("year", year).Int("last_seq", seq).Msg("folio counter reseeded")
	return seq, nil
}
