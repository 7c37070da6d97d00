package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/partnex-scoring/internal/auth"
	"github.com/ajharbinger/partnex-scoring/internal/models"
	"github.com/ajharbinger/partnex-scoring/internal/services"
)

// SMEHandler serves the caller's SME profile
type SMEHandler struct {
	smeService services.SMEService
}

// NewSMEHandler creates a new SME handler
func NewSMEHandler(smeService services.SMEService) *SMEHandler {
	return &SMEHandler{smeService: smeService}
}

// CreateProfile registers the caller's SME profile
func (h *SMEHandler) CreateProfile(c *gin.Context) {
	userID, ok := auth.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req models.CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	profile, err := h.smeService.CreateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"sme": profile})
}

// GetMyProfile returns the caller's SME profile
func (h *SMEHandler) GetMyProfile(c *gin.Context) {
	userID, ok := auth.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	profile, err := h.smeService.GetMyProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sme": profile})
}
