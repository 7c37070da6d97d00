package api

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/partnex-scoring/internal/models"
	"github.com/ajharbinger/partnex-scoring/internal/services"
)

// InvestorHandler serves the investor-facing SME listing
type InvestorHandler struct {
	investorService services.InvestorService
}

// NewInvestorHandler creates a new investor handler
func NewInvestorHandler(investorService services.InvestorService) *InvestorHandler {
	return &InvestorHandler{investorService: investorService}
}

// ListSMEs returns SMEs with their latest scores. Query parameters minScore
// and risk filter the list.
func (h *InvestorHandler) ListSMEs(c *gin.Context) {
	var filters models.ListingFilters

	if raw := strings.TrimSpace(c.Query("minScore")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "minScore must be a number"})
			return
		}
		filters.MinScore = &v
	}
	filters.RiskLevel = c.Query("risk")

	rows, err := h.investorService.ListSMEs(c.Request.Context(), filters)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"smes": rows})
}
