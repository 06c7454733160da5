package services

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/attestation/backend/internal/config"
)

// TemplateSource supplies the certificate template. Fetch is called once per
// generation.
type TemplateSource interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// FileTemplateSource reads the template from disk on every call, so a
// redeployed file is picked up without a restart.
type FileTemplateSource struct {
	Path string
}

func (s *FileTemplateSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", s.Path, err)
	}
	return data, nil
}

// BlankTemplateSource serves the generated label-only form
type BlankTemplateSource struct {
	layout *Layout

	once sync.Once
	data []byte
	err  error
}

func NewBlankTemplateSource(layout *Layout) *BlankTemplateSource {
	return &BlankTemplateSource{layout: layout}
}

func (s *BlankTemplateSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.once.Do(func() {
		s.data, s.err = BlankTemplate(s.layout)
	})
	return s.data, s.err
}

// NewTemplateSource picks the source configured by TEMPLATE_SOURCE
func NewTemplateSource(cfg *config.Config, layout *Layout) (TemplateSource, error) {
	switch cfg.TemplateSource {
	case config.TemplateSourceFile:
		return &FileTemplateSource{Path: cfg.TemplatePath}, nil
	case config.TemplateSourceS3:
		s3Service, err := NewS3Service(cfg)
		if err != nil {
			return nil, err
		}
		return &S3TemplateSource{s3: s3Service, bucket: cfg.TemplateS3Bucket, key: cfg.TemplateS3Key}, nil
	case config.TemplateSourceBlank:
		return NewBlankTemplateSource(layout), nil
	default:
		return nil, fmt.Errorf("unknown template source %q", cfg.TemplateSource)
	}
}
