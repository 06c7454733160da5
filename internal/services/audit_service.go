package services

import (
	"github.com/attestation/backend/internal/models"
	"gorm.io/gorm"
)

// AuditService counts generated certificates. A nil database turns every
// call into a no-op.
type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Enabled reports whether generations are recorded
func (s *AuditService) Enabled() bool {
	return s != nil && s.db != nil
}

// LogGeneration records one generated certificate
func (s *AuditService) LogGeneration(reason models.Reason, size int, fontFitWarning, persisted bool) error {
	if !s.Enabled() {
		return nil
	}
	entry := &models.GenerationLog{
		Reason:         string(reason),
		Size:           size,
		FontFitWarning: fontFitWarning,
		Persisted:      persisted,
	}
	return s.db.Create(entry).Error
}

// ReasonCount is one row of the per-reason statistics
type ReasonCount struct {
	Reason string `json:"reason"`
	Total  int64  `json:"total"`
}

// CountByReason returns the number of certificates per reason, including
// reasons that were never used.
func (s *AuditService) CountByReason() ([]ReasonCount, error) {
	totals := make(map[string]int64, len(models.Reasons))
	if s.Enabled() {
		var rows []ReasonCount
		err := s.db.Model(&models.GenerationLog{}).
			Select("reason, count(*) as total").
			Group("reason").
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			totals[row.Reason] = row.Total
		}
	}

	counts := make([]ReasonCount, 0, len(models.Reasons))
	for _, r := range models.Reasons {
		counts = append(counts, ReasonCount{Reason: string(r), Total: totals[string(r)]})
	}
	return counts, nil
}
