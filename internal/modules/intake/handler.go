package intake

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"medleave/internal/domain/access"
	"medleave/internal/domain/attachment"
	"medleave/internal/domain/evidence"
	"medleave/internal/middleware"
	"medleave/internal/pkg/response"
	"medleave/internal/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const cleanupTimeout = 10 * time.Second

type Handler struct {
	service    *Service
	store      evidence.Store
	stagingDir string
	maxUpload  int64
	logger     zerolog.Logger
}

func NewHandler(service *Service, store evidence.Store, stagingDir string, maxUpload int64, logger zerolog.Logger) *Handler {
	if maxUpload <= 0 || maxUpload > attachment.MaxSizeBytes {
		maxUpload = attachment.MaxSizeBytes
	}
	return &Handler{
		service:    service,
		store:      store,
		stagingDir: stagingDir,
		maxUpload:  maxUpload,
		logger:     logger.With().Str("component", "intake_http").Logger(),
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	status, code, message := Classify(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	response.Error(c, status, code, message)
}

func actor(c *gin.Context) (access.Actor, bool) {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	}
	return a, ok
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Malformed request body")
		return false
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request", errs)
		return false
	}
	return true
}

// Submit handles POST /licenses with caller-declared attachment metadata.
func (h *Handler) Submit(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req SubmitLicenseRequest
	if !bindJSON(c, &req) {
		return
	}
	d, err := req.parse()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Dates must be YYYY-MM-DD")
		return
	}

	rec, err := h.service.Submit(c.Request.Context(), SubmitRequest{
		Actor:      a,
		StartDate:  d.start,
		EndDate:    d.end,
		IssuedDate: d.issued,
		Attachment: req.Attachment.Meta(),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, rec)
}

// Upload handles POST /licenses/upload. The digest is computed here from
// the received bytes, so the caller cannot assert a hash.
func (h *Handler) Upload(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+1<<20)

	var req UploadLicenseRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Malformed multipart form")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request", errs)
		return
	}
	d, err := req.parse()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Dates must be YYYY-MM-DD")
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "file is required")
		return
	}
	if fh.Size > h.maxUpload {
		h.fail(c, attachment.ErrInvalidSize)
		return
	}
	src, err := fh.Open()
	if err != nil {
		h.fail(c, fmt.Errorf("%w: open upload: %w", ErrPersistence, err))
		return
	}
	staged, err := evidence.Stage(src, h.stagingDir, h.maxUpload)
	src.Close()
	if err != nil {
		if !errors.Is(err, attachment.ErrInvalidSize) {
			err = fmt.Errorf("%w: %w", ErrPersistence, err)
		}
		h.fail(c, err)
		return
	}
	defer staged.Remove()

	ctx := c.Request.Context()
	sreq := SubmitRequest{
		Actor:      a,
		StartDate:  d.start,
		EndDate:    d.end,
		IssuedDate: d.issued,
		Attachment: staged.Meta(),
		StorageKey: evidence.Key(staged.Hash),
	}
	if _, err := h.service.Precheck(ctx, sreq); err != nil {
		h.fail(c, err)
		return
	}

	if err := h.putBlob(c, staged, sreq.StorageKey); err != nil {
		h.fail(c, fmt.Errorf("%w: %w", ErrPersistence, err))
		return
	}

	rec, err := h.service.Submit(ctx, sreq)
	if err != nil {
		h.discardBlob(ctx, staged.Hash, sreq.StorageKey)
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, rec)
}

// discardBlob removes the evidence written for a failed submit unless a
// committed attachment already points at the same content key. Both steps run
// detached from the request's cancellation.
func (h *Handler) discardBlob(ctx context.Context, hash, key string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	inUse, err := h.service.EvidenceInUse(ctx, hash)
	if err != nil {
		h.logger.Warn().Err(err).Str("key", key).Msg("evidence blob kept, reference check failed")
		return
	}
	if inUse {
		return
	}
	if err := h.store.Delete(ctx, key); err != nil {
		h.logger.Warn().Err(err).Str("key", key).Msg("orphan evidence blob left behind")
	}
}

func (h *Handler) putBlob(c *gin.Context, staged *evidence.Staged, key string) error {
	f, err := staged.Open()
	if err != nil {
		return err
	}
	defer f.Close()
	return h.store.Put(c.Request.Context(), key, f, staged.Size, staged.ContentType)
}

func (h *Handler) ListMine(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	list, err := h.service.ListMine(c.Request.Context(), a)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"licenses": list})
}

func (h *Handler) Get(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	rec, err := h.service.Get(c.Request.Context(), c.Param("id"), a)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, rec)
}

// Evidence streams the primary document of a license.
func (h *Handler) Evidence(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	rec, err := h.service.Get(ctx, c.Param("id"), a)
	if err != nil {
		h.fail(c, err)
		return
	}
	primary := rec.Primary()
	if primary == nil || primary.StorageKey == "" || h.store == nil {
		response.Error(c, http.StatusNotFound, "EVIDENCE_NOT_STORED", "No stored document for this license")
		return
	}

	rc, err := h.store.Open(ctx, primary.StorageKey)
	if errors.Is(err, evidence.ErrBlobNotFound) {
		response.Error(c, http.StatusNotFound, "EVIDENCE_NOT_STORED", "No stored document for this license")
		return
	}
	if err != nil {
		h.fail(c, fmt.Errorf("%w: %w", ErrPersistence, err))
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, primary.SizeBytes, primary.MimeType, rc, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s.pdf"`, rec.Folio),
	})
}

func (h *Handler) Resolve(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req ResolveLicenseRequest
	if !bindJSON(c, &req) {
		return
	}

	rec, err := h.service.Resolve(c.Request.Context(), c.Param("id"), parseStatus(req.Status), a, req.Reason)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, rec)
}

func (h *Handler) ValidateAttachment(c *gin.Context) {
	var req AttachmentMetaRequest
	if !bindJSON(c, &req) {
		return
	}
	v, err := h.service.ValidateAttachment(c.Request.Context(), req.Meta())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, ValidatedAttachmentResponse{
		ContentHash: v.ContentHash,
		MimeType:    v.MimeType,
		SizeBytes:   v.SizeBytes,
	})
}

func yearParam(c *gin.Context) (int, bool) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_YEAR", "Year must have four digits")
		return 0, false
	}
	return year, true
}

func (h *Handler) PeekFolio(c *gin.Context) {
	year, ok := yearParam(c)
	if !ok {
		return
	}
	f, err := h.service.PeekFolio(c.Request.Context(), year)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, FolioResponse{Folio: f.String()})
}

func (h *Handler) AllocateFolio(c *gin.Context) {
	year, ok := yearParam(c)
	if !ok {
		return
	}
	f, err := h.service.AllocateFolio(c.Request.Context(), year)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, FolioResponse{Folio: f.String()})
}
