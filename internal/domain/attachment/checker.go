// Package attachment validates evidence file metadata before it is linked to a license.
package attachment

import (
	"context"
	"fmt"
	"strings"
)

const (
	MaxSizeBytes = 10 * 1024 * 1024 // 10 MiB
	PrimaryMime  = "application/pdf"
	HashLength   = 64
)

// Meta is what a caller declares about an uploaded file. The hash must have
// been computed from the real bytes by the caller.
type Meta struct {
	Hash      string `json:"hash"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
}

// Validated is metadata that passed every check, ready for persistence.
type Validated struct {
	ContentHash string
	MimeType    string
	SizeBytes   int64
}

// Validate checks mime type, size and hash shape. It does no I/O.
func Validate(m Meta) (Validated, error) {
	mime := strings.TrimSpace(m.MimeType)
	if !strings.HasPrefix(strings.ToLower(mime), PrimaryMime) {
		return Validated{}, ErrInvalidMime
	}
	if m.SizeBytes <= 0 || m.SizeBytes > MaxSizeBytes {
		return Validated{}, ErrInvalidSize
	}
	hash, err := NormalizeHash(m.Hash)
	if err != nil {
		return Validated{}, err
	}
	return Validated{ContentHash: hash, MimeType: mime, SizeBytes: m.SizeBytes}, nil
}

// NormalizeHash lowercases a hex SHA-256 digest, rejecting anything that is
// not exactly 64 hex characters.
func NormalizeHash(h string) (string, error) {
	if len(h) != HashLength {
		return "", ErrInvalidHash
	}
	h = strings.ToLower(h)
	for i := 0; i < len(h); i++ {
		c := h[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", ErrInvalidHash
		}
	}
	return h, nil
}

// HashIndex answers whether a content hash is already stored on any license.
type HashIndex interface {
	ContentHashExists(ctx context.Context, hash string) (bool, error)
}

// Checker adds the duplicate-content rule on top of Validate.
type Checker struct {
	index HashIndex
}

func NewChecker(index HashIndex) *Checker {
	return &Checker{index: index}
}

func (c *Checker) Check(ctx context.Context, m Meta) (Validated, error) {
	v, err := Validate(m)
	if err != nil {
		return Validated{}, err
	}
	if c.index == nil {
		return v, nil
	}
	exists, err := c.index.ContentHashExists(ctx, v.ContentHash)
	if err != nil {
		return Validated{}, fmt.Errorf("lookup content hash: %w", err)
	}
	if exists {
		return Validated{}, ErrDuplicateContent
	}
	return v, nil
}
