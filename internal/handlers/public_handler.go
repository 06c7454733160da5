package handlers

import (
	"net/http"

	"github.com/attestation/backend/internal/logging"
	"github.com/attestation/backend/internal/services"
	"github.com/gin-gonic/gin"
)

type PublicHandler struct {
	auditService *services.AuditService
}

func NewPublicHandler(auditService *services.AuditService) *PublicHandler {
	return &PublicHandler{auditService: auditService}
}

// Health reports that the service is up
func (h *PublicHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// GetReasonStats returns how many certificates were generated per reason
func (h *PublicHandler) GetReasonStats(c *gin.Context) {
	counts, err := h.auditService.CountByReason()
	if err != nil {
		logging.WithComponent("public_handler").WithError(err).Error("Failed to count generations")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve statistics"})
		return
	}

	var total int64
	for _, rc := range counts {
		total += rc.Total
	}

	c.JSON(http.StatusOK, gin.H{
		"reasons": counts,
		"total":   total,
		"enabled": h.auditService.Enabled(),
	})
}
