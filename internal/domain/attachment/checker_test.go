package attachment

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockHashIndex struct {
	mock.Mock
}

func (m *MockHashIndex) ContentHashExists(ctx context.Context, hash string) (bool, error) {
	args := m.Called(ctx, hash)
	return args.Bool(0), args.Error(1)
}

func validMeta() Meta {
	return Meta{Hash: strings.Repeat("a", 64), MimeType: "application/pdf", SizeBytes: 1024}
}

func TestValidate_Success(t *testing.T) {
	m := validMeta()
	m.Hash = strings.Repeat("AbCdEf01", 8)
	m.MimeType = "Application/PDF; version=1.7"

	v, err := Validate(m)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("abcdef01", 8), v.ContentHash)
	assert.Equal(t, int64(1024), v.SizeBytes)
	assert.Equal(t, "Application/PDF; version=1.7", v.MimeType)
}

func TestValidate_Mime(t *testing.T) {
	for _, mime := range []string{"", "image/png", "text/plain", "application/octet-stream", "x-application/pdf"} {
		m := validMeta()
		m.MimeType = mime
		_, err := Validate(m)
		assert.ErrorIs(t, err, ErrInvalidMime, mime)
	}
}

func TestValidate_SizeBounds(t *testing.T) {
	cases := map[int64]error{
		-1:               ErrInvalidSize,
		0:                ErrInvalidSize,
		1:                nil,
		MaxSizeBytes:     nil,
		MaxSizeBytes + 1: ErrInvalidSize,
	}
	for size, want := range cases {
		m := validMeta()
		m.SizeBytes = size
		_, err := Validate(m)
		if want == nil {
			assert.NoError(t, err, "size %d", size)
		} else {
			assert.ErrorIs(t, err, want, "size %d", size)
		}
	}
}

func TestValidate_Hash(t *testing.T) {
	for _, h := range []string{"", strings.Repeat("a", 63), strings.Repeat("a", 65), strings.Repeat("g", 64), strings.Repeat("a", 62) + " a"} {
		m := validMeta()
		m.Hash = h
		_, err := Validate(m)
		assert.ErrorIs(t, err, ErrInvalidHash, h)
	}
}

func TestChecker_DuplicateContent(t *testing.T) {
	idx := new(MockHashIndex)
	idx.On("ContentHashExists", mock.Anything, strings.Repeat("a", 64)).Return(true, nil)

	_, err := NewChecker(idx).Check(context.Background(), validMeta())
	assert.ErrorIs(t, err, ErrDuplicateContent)
	idx.AssertExpectations(t)
}

func TestChecker_LooksUpNormalizedHash(t *testing.T) {
	idx := new(MockHashIndex)
	idx.On("ContentHashExists", mock.Anything, strings.Repeat("b", 64)).Return(false, nil)

	m := validMeta()
	m.Hash = strings.Repeat("B", 64)
	v, err := NewChecker(idx).Check(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("b", 64), v.ContentHash)
}

func TestChecker_SkipsLookupOnInvalidMeta(t *testing.T) {
	idx := new(MockHashIndex)

	m := validMeta()
	m.MimeType = "image/jpeg"
	_, err := NewChecker(idx).Check(context.Background(), m)
	assert.ErrorIs(t, err, ErrInvalidMime)
	idx.AssertNotCalled(t, "ContentHashExists", mock.Anything, mock.Anything)
}

func TestChecker_IndexFailure(t *testing.T) {
	idx := new(MockHashIndex)
	boom := errors.New("db down")
	idx.On("ContentHashExists", mock.Anything, mock.Anything).Return(false, boom)

	_, err := NewChecker(idx).Check(context.Background(), validMeta())
	assert.ErrorIs(t, err, boom)
}
