package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/attestation/backend/internal/logging"
	"github.com/attestation/backend/internal/models"
	"github.com/attestation/backend/internal/services"
	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	profileStore *services.ProfileStore
	sessions     *SessionManager
	loc          *time.Location
	now          func() time.Time
}

func NewProfileHandler(profileStore *services.ProfileStore, sessions *SessionManager, loc *time.Location, now func() time.Time) *ProfileHandler {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ProfileHandler{
		profileStore: profileStore,
		sessions:     sessions,
		loc:          loc,
		now:          now,
	}
}

// GetForm returns the values the form starts with: the stored profile and
// reason of the session, with the departure set to the current date and time.
func (h *ProfileHandler) GetForm(c *gin.Context) {
	log := logging.WithComponent("profile_handler")

	var stored models.StoredProfile
	hasStored := false
	if handle, ok := h.sessions.Handle(c); ok {
		snapshot, err := h.profileStore.Get(c.Request.Context(), handle)
		switch {
		case err == nil:
			stored = *snapshot
			hasStored = true
		case errors.Is(err, services.ErrProfileNotFound), errors.Is(err, services.ErrProfileCorrupt):
			h.sessions.Clear(c)
		default:
			log.WithError(err).Warn("Failed to load stored profile")
		}
	}

	now := h.now().In(h.loc)
	form := models.FormInput{
		LastName:      stored.Profile.LastName,
		FirstName:     stored.Profile.FirstName,
		Birthday:      stored.Profile.Birthday,
		LieuNaissance: stored.Profile.LieuNaissance,
		Address:       stored.Profile.Address,
		ZipCode:       stored.Profile.ZipCode,
		Town:          stored.Profile.Town,
		DateSortie:    now.Format("2006-01-02"),
		HeureSortie:   now.Format("15:04"),
		Reason:        string(stored.Reason),
		Persist:       hasStored,
	}

	c.JSON(http.StatusOK, gin.H{
		"form":    form,
		"stored":  hasStored,
		"reasons": models.Reasons,
	})
}

// DeleteProfile forgets the stored profile and the session
func (h *ProfileHandler) DeleteProfile(c *gin.Context) {
	if handle, ok := h.sessions.Handle(c); ok {
		if err := h.profileStore.Clear(c.Request.Context(), handle.ID); err != nil {
			logging.WithComponent("profile_handler").WithError(err).Error("Failed to clear stored profile")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear profile"})
			return
		}
	}
	h.sessions.Clear(c)

	c.JSON(http.StatusOK, gin.H{"message": "Profile cleared"})
}
