package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/partnex-scoring/internal/auth"
	"github.com/ajharbinger/partnex-scoring/internal/services"
)

// ScoringHandler runs and reads credit scores
type ScoringHandler struct {
	scoringService services.ScoringService
}

// NewScoringHandler creates a new scoring handler
func NewScoringHandler(scoringService services.ScoringService) *ScoringHandler {
	return &ScoringHandler{scoringService: scoringService}
}

// RunMyScore scores the caller's SME and stores the result
func (h *ScoringHandler) RunMyScore(c *gin.Context) {
	userID, ok := auth.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	result, err := h.scoringService.Run(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// GetLatest returns the caller's most recent score
func (h *ScoringHandler) GetLatest(c *gin.Context) {
	userID, ok := auth.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	record, err := h.scoringService.Latest(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"score": record})
}

// GetHistory returns the caller's scores, newest first. ?limit= caps the count.
func (h *ScoringHandler) GetHistory(c *gin.Context) {
	userID, ok := auth.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	records, err := h.scoringService.History(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"scores": records})
}

// GetExternalHealth reports the external scoring service health (admin only)
func (h *ScoringHandler) GetExternalHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"scoring":   h.scoringService.ExternalHealth(),
		"timestamp": time.Now(),
	})
}
