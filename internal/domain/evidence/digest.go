// Package evidence digests uploaded documents and keeps their bytes in a
// content-addressed blob store.
package evidence

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"medleave/internal/domain/attachment"
)

const sniffLen = 512

// Digest describes real file bytes: their SHA-256, length and sniffed type.
type Digest struct {
	Hash        string
	Size        int64
	ContentType string
}

// Meta converts the digest into checker input.
func (d Digest) Meta() attachment.Meta {
	return attachment.Meta{Hash: d.Hash, MimeType: d.ContentType, SizeBytes: d.Size}
}

// Staged is an upload copied to a temporary file while it was hashed.
type Staged struct {
	Digest
	path string
}

type prefixBuffer struct {
	buf []byte
}

func (p *prefixBuffer) Write(b []byte) (int, error) {
	if room := sniffLen - len(p.buf); room > 0 {
		if len(b) < room {
			room = len(b)
		}
		p.buf = append(p.buf, b[:room]...)
	}
	return len(b), nil
}

// Stage copies at most limit bytes of r into dir, hashing them on the way.
// Anything longer fails with attachment.ErrInvalidSize and leaves no file.
func Stage(r io.Reader, dir string, limit int64) (*Staged, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "evidence-*.part")
	if err != nil {
		return nil, fmt.Errorf("create staging file: %w", err)
	}

	h := sha256.New()
	prefix := &prefixBuffer{}
	n, err := io.Copy(io.MultiWriter(tmp, h, prefix), io.LimitReader(r, limit+1))
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && n > limit {
		err = attachment.ErrInvalidSize
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		if errors.Is(err, attachment.ErrInvalidSize) {
			return nil, err
		}
		return nil, fmt.Errorf("stage upload: %w", err)
	}

	ct := http.DetectContentType(prefix.buf)
	ct = strings.TrimSpace(strings.Split(ct, ";")[0])

	return &Staged{
		Digest: Digest{Hash: hex.EncodeToString(h.Sum(nil)), Size: n, ContentType: ct},
		path:   tmp.Name(),
	}, nil
}

func (s *Staged) Open() (*os.File, error) {
	return os.Open(s.path)
}

// Remove deletes the staging file. It is safe to call more than once.
func (s *Staged) Remove() error {
	if s == nil || s.path == "" {
		return nil
	}
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Key is the content-addressed location of a blob with the given hash.
func Key(hash string) string {
	hash = strings.ToLower(hash)
	if len(hash) < 4 {
		return hash + ".pdf"
	}
	return hash[:2] + "/" + hash[2:4] + "/" + hash + ".pdf"
}
