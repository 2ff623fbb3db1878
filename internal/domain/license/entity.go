package license

import "time"

type Status string

const (
	StatusPending  Status = "pending"
	StatusInReview Status = "in_review"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Terminal reports whether no further transition is permitted from s.
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInReview, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// License is a submitted medical-leave document and its review state.
type License struct {
	ID              string     `json:"id"`
	Folio           string     `json:"folio"`
	OwnerID         int64      `json:"owner_id"`
	IssuedDate      *time.Time `json:"issued_date,omitempty"`
	StartDate       time.Time  `json:"start_date"`
	EndDate         time.Time  `json:"end_date"`
	Status          Status     `json:"status"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	ReviewerID      *int64     `json:"reviewer_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`

	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment is an immutable evidence file reference. It is never updated,
// only superseded by a newer row.
type Attachment struct {
	ID          string    `json:"id"`
	LicenseID   string    `json:"license_id"`
	ContentHash string    `json:"content_hash"`
	MimeType    string    `json:"mime_type"`
	SizeBytes   int64     `json:"size_bytes"`
	StorageKey  string    `json:"-"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// Primary returns the earliest attachment, which is the license's evidence document.
func (l *License) Primary() *Attachment {
	if len(l.Attachments) == 0 {
		return nil
	}
	p := &l.Attachments[0]
	for i := range l.Attachments[1:] {
		a := &l.Attachments[i+1]
		if a.UploadedAt.Before(p.UploadedAt) {
			p = a
		}
	}
	return p
}

// Clone returns a deep copy so transitions never alias the caller's record.
func (l *License) Clone() *License {
	c := *l
	if l.IssuedDate != nil {
		v := *l.IssuedDate
		c.IssuedDate = &v
	}
	if l.RejectionReason != nil {
		v := *l.RejectionReason
		c.RejectionReason = &v
	}
	if l.ReviewerID != nil {
		v := *l.ReviewerID
		c.ReviewerID = &v
	}
	if l.ResolvedAt != nil {
		v := *l.ResolvedAt
		c.ResolvedAt = &v
	}
	if l.Attachments != nil {
		c.Attachments = append([]Attachment(nil), l.Attachments...)
	}
	return &c
}
