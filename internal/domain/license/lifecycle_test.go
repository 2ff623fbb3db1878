package license

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func pendingLicense() *License {
	created := time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)
	return &License{
		ID:        "lic-1",
		Folio:     "F-2025-001",
		OwnerID:   42,
		StartDate: time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 10, 7, 0, 0, 0, 0, time.UTC),
		Status:    StatusPending,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestTransition_AllowedPaths(t *testing.T) {
	now := time.Date(2025, 10, 2, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		from   Status
		to     Status
		reason *string
	}{
		{"pending to in_review", StatusPending, StatusInReview, nil},
		{"pending to accepted", StatusPending, StatusAccepted, nil},
		{"pending to rejected", StatusPending, StatusRejected, strPtr("not legible")},
		{"in_review to accepted", StatusInReview, StatusAccepted, nil},
		{"in_review to rejected", StatusInReview, StatusRejected, strPtr("expired document")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := pendingLicense()
			rec.Status = tc.from

			next, err := Transition(rec, tc.to, 7, tc.reason, now)
			require.NoError(t, err)
			assert.Equal(t, tc.to, next.Status)
			assert.Equal(t, tc.from, rec.Status, "input record must not be mutated")
			require.NotNil(t, next.ReviewerID)
			assert.Equal(t, int64(7), *next.ReviewerID)
			assert.Equal(t, now, next.UpdatedAt)

			if tc.to.Terminal() {
				require.NotNil(t, next.ResolvedAt)
				assert.Equal(t, now, *next.ResolvedAt)
			} else {
				assert.Nil(t, next.ResolvedAt)
			}
			if tc.to == StatusRejected {
				require.NotNil(t, next.RejectionReason)
				assert.Equal(t, *tc.reason, *next.RejectionReason)
			} else {
				assert.Nil(t, next.RejectionReason)
			}
		})
	}
}

func TestTransition_IllegalTargets(t *testing.T) {
	cases := []struct {
		from Status
		to   Status
	}{
		{StatusPending, StatusPending},
		{StatusInReview, StatusInReview},
		{StatusInReview, StatusPending},
		{StatusPending, Status("archived")},
	}
	for _, tc := range cases {
		rec := pendingLicense()
		rec.Status = tc.from
		_, err := Transition(rec, tc.to, 7, nil, time.Now())
		assert.ErrorIs(t, err, ErrIllegalTransition, "%s -> %s", tc.from, tc.to)
	}
}

func TestTransition_TerminalIsImmutable(t *testing.T) {
	for _, terminal := range []Status{StatusAccepted, StatusRejected} {
		for _, target := range []Status{StatusPending, StatusInReview, StatusAccepted, StatusRejected} {
			rec := pendingLicense()
			rec.Status = terminal
			rec.RejectionReason = strPtr("x")

			_, err := Transition(rec, target, 7, strPtr("x"), time.Now())
			assert.ErrorIs(t, err, ErrTerminalState, "%s -> %s", terminal, target)
		}
	}
}

func TestTransition_ReasonCoupling(t *testing.T) {
	now := time.Now()

	_, err := Transition(pendingLicense(), StatusRejected, 7, nil, now)
	assert.ErrorIs(t, err, ErrMissingReason)

	_, err = Transition(pendingLicense(), StatusRejected, 7, strPtr("   \t"), now)
	assert.ErrorIs(t, err, ErrMissingReason)

	_, err = Transition(pendingLicense(), StatusAccepted, 7, strPtr("x"), now)
	assert.ErrorIs(t, err, ErrUnexpectedReason)

	_, err = Transition(pendingLicense(), StatusInReview, 7, strPtr("looking at it"), now)
	assert.ErrorIs(t, err, ErrUnexpectedReason)

	next, err := Transition(pendingLicense(), StatusAccepted, 7, strPtr("  "), now)
	require.NoError(t, err)
	assert.Nil(t, next.RejectionReason)

	next, err = Transition(pendingLicense(), StatusRejected, 7, strPtr("  missing stamp  "), now)
	require.NoError(t, err)
	assert.Equal(t, "missing stamp", *next.RejectionReason)
}

func TestTransition_ReasonLength(t *testing.T) {
	long := strings.Repeat("ñ", MaxReasonLength)
	_, err := Transition(pendingLicense(), StatusRejected, 7, &long, time.Now())
	assert.NoError(t, err)

	tooLong := long + "x"
	_, err = Transition(pendingLicense(), StatusRejected, 7, &tooLong, time.Now())
	assert.ErrorIs(t, err, ErrReasonTooLong)
}

func TestTransition_ReviewThenResolve(t *testing.T) {
	rec := pendingLicense()
	t1 := time.Date(2025, 10, 2, 8, 0, 0, 0, time.UTC)
	t2 := t1.Add(3 * time.Hour)

	reviewing, err := Transition(rec, StatusInReview, 7, nil, t1)
	require.NoError(t, err)
	assert.Nil(t, reviewing.ResolvedAt)

	done, err := Transition(reviewing, StatusRejected, 8, strPtr("illegible"), t2)
	require.NoError(t, err)
	assert.Equal(t, t2, *done.ResolvedAt)
	assert.Equal(t, int64(8), *done.ReviewerID)
	assert.Equal(t, int64(7), *reviewing.ReviewerID)
}
