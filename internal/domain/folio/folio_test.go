package folio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	assert.Equal(t, Folio("F-2025-001"), New(2025, 1))
	assert.Equal(t, Folio("F-2025-004"), New(2025, 4))
	assert.Equal(t, Folio("F-2025-999"), New(2025, 999))
	assert.Equal(t, Folio("F-2025-1000"), New(2025, 1000))
}

func TestParse(t *testing.T) {
	y, s, err := Parse("F-2025-004")
	require.NoError(t, err)
	assert.Equal(t, 2025, y)
	assert.Equal(t, 4, s)

	y, s, err = Parse("F-2026-1234")
	require.NoError(t, err)
	assert.Equal(t, 2026, y)
	assert.Equal(t, 1234, s)

	for _, bad := range []string{"", "F-2025", "X-2025-001", "F-25-001", "F-2025-01", "F-2025-abc", "F-2025-000", "F-2025-001-2"} {
		_, _, err := Parse(bad)
		assert.ErrorIs(t, err, ErrMalformed, bad)
	}
}

func TestHighestSequence(t *testing.T) {
	folios := []string{"F-2025-002", "F-2025-999", "F-2025-1000", "F-2024-5000", "garbage"}
	assert.Equal(t, 1000, HighestSequence(2025, folios))
	assert.Equal(t, 5000, HighestSequence(2024, folios))
	assert.Equal(t, 0, HighestSequence(2026, folios))
}
