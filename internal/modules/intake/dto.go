package intake

import (
	"strings"
	"time"

	"medleave/internal/domain/attachment"
	"medleave/internal/domain/license"
)

const dateLayout = "2006-01-02"

type AttachmentMetaRequest struct {
	Hash      string `json:"hash"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
}

func (r AttachmentMetaRequest) Meta() attachment.Meta {
	return attachment.Meta{Hash: r.Hash, MimeType: r.MimeType, SizeBytes: r.SizeBytes}
}

type LeaveWindowRequest struct {
	StartDate  string `json:"start_date" form:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string `json:"end_date" form:"end_date" validate:"required,datetime=2006-01-02"`
	IssuedDate string `json:"issued_date,omitempty" form:"issued_date" validate:"omitempty,datetime=2006-01-02"`
}

type SubmitLicenseRequest struct {
	LeaveWindowRequest
	Attachment AttachmentMetaRequest `json:"attachment"`
}

// UploadLicenseRequest is the non-file part of the multipart upload.
type UploadLicenseRequest struct {
	LeaveWindowRequest
}

type ResolveLicenseRequest struct {
	Status string  `json:"status" validate:"required"`
	Reason *string `json:"reason,omitempty"`
}

type dates struct {
	start, end time.Time
	issued     *time.Time
}

// parse assumes the layout was already validated.
func (r LeaveWindowRequest) parse() (dates, error) {
	var d dates
	var err error
	if d.start, err = time.Parse(dateLayout, r.StartDate); err != nil {
		return d, err
	}
	if d.end, err = time.Parse(dateLayout, r.EndDate); err != nil {
		return d, err
	}
	if r.IssuedDate != "" {
		issued, err := time.Parse(dateLayout, r.IssuedDate)
		if err != nil {
			return d, err
		}
		d.issued = &issued
	}
	return d, nil
}

var statusAliases = map[string]license.Status{
	"inreview":  license.StatusInReview,
	"in-review": license.StatusInReview,
	"review":    license.StatusInReview,
	"approved":  license.StatusAccepted,
	"aceptada":  license.StatusAccepted,
	"rechazada": license.StatusRejected,
}

// parseStatus maps a client status onto license.Status. Unrecognized values
// are passed through so the lifecycle reports them as illegal targets.
func parseStatus(raw string) license.Status {
	s := strings.ToLower(strings.TrimSpace(raw))
	if alias, ok := statusAliases[s]; ok {
		return alias
	}
	return license.Status(s)
}

type FolioResponse struct {
	Folio string `json:"folio"`
}

type ValidatedAttachmentResponse struct {
	ContentHash string `json:"content_hash"`
	MimeType    string `json:"mime_type"`
	SizeBytes   int64  `json:"size_bytes"`
}
