package handlers

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"time"

	"github.com/attestation/backend/internal/logging"
	"github.com/attestation/backend/internal/models"
	"github.com/attestation/backend/internal/services"
	"github.com/gin-gonic/gin"
)

type CertificateHandler struct {
	certificateService *services.CertificateService
	profileStore       *services.ProfileStore
	auditService       *services.AuditService
	sessions           *SessionManager
	now                func() time.Time
}

func NewCertificateHandler(certificateService *services.CertificateService, profileStore *services.ProfileStore, auditService *services.AuditService, sessions *SessionManager, now func() time.Time) *CertificateHandler {
	if now == nil {
		now = time.Now
	}
	return &CertificateHandler{
		certificateService: certificateService,
		profileStore:       profileStore,
		auditService:       auditService,
		sessions:           sessions,
		now:                now,
	}
}

// Generate validates the submitted form and streams back the certificate.
// When persist is set the form snapshot is stored encrypted first.
func (h *CertificateHandler) Generate(c *gin.Context) {
	log := logging.WithComponent("certificate_handler")

	var req models.FormInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	reason, err := services.ValidateForm(req)
	if err != nil {
		var validationErr *services.ValidationError
		switch {
		case errors.Is(err, services.ErrReasonMissing):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "reason_missing",
				"message": "Veuillez choisir un motif",
			})
		case errors.As(err, &validationErr):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":          "validation_failed",
				"invalid_fields": validationErr.Fields,
			})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	profile := req.Profile()
	now := h.now()

	if req.Persist {
		if err := h.persist(c, models.StoredProfile{Profile: profile, Reason: reason}); err != nil {
			log.WithError(err).Warn("Failed to store profile")
		}
	}

	cert, err := h.certificateService.Generate(c.Request.Context(), profile, reason, now)
	if err != nil {
		var renderErr *services.RenderError
		if errors.As(err, &renderErr) {
			log.WithError(err).WithField("stage", renderErr.Stage).Error("Certificate rendering failed")
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "render_failed",
				"stage": renderErr.Stage,
			})
			return
		}
		log.WithError(err).Error("Certificate generation aborted")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "generation_failed"})
		return
	}

	if err := h.auditService.LogGeneration(reason, len(cert.PDF), len(cert.Warnings) > 0, req.Persist); err != nil {
		log.WithError(err).Warn("Failed to record generation")
	}

	for _, w := range cert.Warnings {
		c.Writer.Header().Add("X-Certificate-Warning", fmt.Sprintf("font_fit; field=%s; size=%g", w.Field, w.Size))
		c.Writer.Header().Add("X-Certificate-Warning-Message", mime.QEncoding.Encode("utf-8", w.Message()))
	}
	c.Header("Content-Disposition", "attachment; filename=\""+cert.Filename+"\"")
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/pdf", cert.PDF)
}

func (h *CertificateHandler) persist(c *gin.Context, snapshot models.StoredProfile) error {
	handle, ok := h.sessions.Handle(c)
	if !ok {
		var err error
		if handle, err = services.NewStoreHandle(); err != nil {
			return err
		}
	}
	if err := h.profileStore.Set(c.Request.Context(), handle, snapshot); err != nil {
		return err
	}
	return h.sessions.Issue(c, handle)
}
