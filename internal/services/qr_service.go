package services

import (
	"fmt"

	"github.com/attestation/backend/internal/config"
	qrcode "github.com/skip2/go-qrcode"
)

// QRService renders certificate payloads as PNG QR codes
type QRService struct {
	size  int
	level qrcode.RecoveryLevel
}

func NewQRService(cfg *config.Config) *QRService {
	size := cfg.QRSize
	if size <= 0 {
		size = 512
	}
	return &QRService{size: size, level: qrcode.Medium}
}

// Render encodes text into a square PNG
func (s *QRService) Render(text string) ([]byte, error) {
	png, err := qrcode.Encode(text, s.level, s.size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
