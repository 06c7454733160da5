package services

import (
	"context"
	"time"

	"github.com/attestation/backend/internal/logging"
	"github.com/attestation/backend/internal/models"
	"github.com/attestation/backend/pkg/validation"
)

// QRRenderer turns a payload into PNG bytes
type QRRenderer interface {
	Render(text string) ([]byte, error)
}

// Certificate is a generated document ready for download
type Certificate struct {
	PDF       []byte
	Filename  string
	CreatedAt time.Time
	Warnings  []FontFitWarning
}

// CertificateService runs the generation pipeline: template, payload, QR
// code, stamping.
type CertificateService struct {
	templates TemplateSource
	qr        QRRenderer
	stamper   *Stamper
	loc       *time.Location
}

func NewCertificateService(templates TemplateSource, qr QRRenderer, stamper *Stamper, loc *time.Location) *CertificateService {
	if loc == nil {
		loc = time.UTC
	}
	return &CertificateService{
		templates: templates,
		qr:        qr,
		stamper:   stamper,
		loc:       loc,
	}
}

// ValidateForm checks a submitted form the way the browser form did: the
// reason first, then every field rule.
func ValidateForm(in models.FormInput) (models.Reason, error) {
	reason, ok := models.ParseReason(in.Reason)
	if !ok {
		return "", ErrReasonMissing
	}
	if invalid := validation.InvalidFields(in.Fields()); len(invalid) > 0 {
		return "", &ValidationError{Fields: invalid}
	}
	return reason, nil
}

// Generate builds the certificate for profile and reason, stamped as created
// at createdAt. Output only depends on its arguments and the template.
func (s *CertificateService) Generate(ctx context.Context, profile models.Profile, reason models.Reason, createdAt time.Time) (*Certificate, error) {
	createdAt = createdAt.In(s.loc)
	log := logging.WithComponent("certificate")

	template, err := s.templates.Fetch(ctx)
	if err != nil {
		return nil, renderError(StageTemplate, err)
	}

	payload := EncodePayload(profile, reason, createdAt)
	qrPNG, err := s.qr.Render(payload)
	if err != nil {
		return nil, renderError(StageQR, err)
	}

	// Stamping starts by reading the template, so a cancelled request is
	// reported against that stage
	if err := ctx.Err(); err != nil {
		return nil, renderError(StageTemplate, err)
	}

	result, err := s.stamper.Stamp(template, profile, reason, qrPNG, createdAt)
	if err != nil {
		return nil, err
	}

	for _, w := range result.Warnings {
		log.WithField("field", w.Field).WithField("size", w.Size).Warn("Text drawn at minimum size")
	}
	log.WithField("reason", reason).WithField("bytes", len(result.PDF)).Debug("Certificate generated")

	return &Certificate{
		PDF:       result.PDF,
		Filename:  CertificateFilename(createdAt),
		CreatedAt: createdAt,
		Warnings:  result.Warnings,
	}, nil
}
