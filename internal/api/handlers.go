package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/genorisk-server/internal/domain"
	"github.com/genorisk-server/internal/service"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
		"entries":   s.lookup.Table().Len(),
	})
}

// lookupResponse is the payload for a successful inverse lookup.
type lookupResponse struct {
	Prevalence    float64 `json:"prevalence"`
	AlleleFreqA   float64 `json:"allele_freq_a"`
	OddsRatio     float64 `json:"odds_ratio"`
	RelativeRiskA float64 `json:"relative_risk_a"`
	RelativeRiskB float64 `json:"relative_risk_b"`
}

// handleLookup resolves an observed odds ratio to per-allele relative
// risks for an on-grid (prevalence, allele frequency) pair.
func (s *Server) handleLookup(c *gin.Context) {
	prevalence, ok := queryFloat(c, "prevalence")
	if !ok {
		return
	}
	alleleFreq, ok := queryFloat(c, "allele_freq")
	if !ok {
		return
	}
	oddsRatio, ok := queryFloat(c, "odds_ratio")
	if !ok {
		return
	}

	result, err := s.lookup.Lookup(prevalence, alleleFreq, oddsRatio)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, lookupResponse{
		Prevalence:    prevalence,
		AlleleFreqA:   alleleFreq,
		OddsRatio:     oddsRatio,
		RelativeRiskA: result.RelativeRiskA,
		RelativeRiskB: result.RelativeRiskB,
	})
}

// oddsRatioRequest is the payload for a forward model evaluation.
type oddsRatioRequest struct {
	Prevalence    float64 `json:"prevalence" binding:"required"`
	AlleleFreqA   float64 `json:"allele_freq_a" binding:"required"`
	RelativeRiskA float64 `json:"relative_risk_a" binding:"required"`
}

// handleOddsRatio evaluates the forward model for one parameter triple.
func (s *Server) handleOddsRatio(c *gin.Context) {
	var req oddsRatioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	params := domain.RiskParameters{
		Prevalence:    req.Prevalence,
		AlleleFreqA:   req.AlleleFreqA,
		RelativeRiskA: req.RelativeRiskA,
	}
	stats, err := s.model.GenotypeStats(params)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"odds_ratio":      stats.OddsRatio(),
		"relative_risk_b": params.RelativeRiskB(),
		"genotype_stats":  stats,
	})
}

// combineRequest is the payload for multiplicative risk combination.
type combineRequest struct {
	RelativeRisks []float64 `json:"relative_risks"`
}

// handleCombine folds per-allele or per-locus relative risks into one
// combined relative risk.
func (s *Server) handleCombine(c *gin.Context) {
	var req combineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	combined, err := service.CombineRisks(req.RelativeRisks...)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"combined_relative_risk": combined,
		"count":                  len(req.RelativeRisks),
	})
}

// handleTableStats reports the table size and the grid it was built from.
func (s *Server) handleTableStats(c *gin.Context) {
	table := s.lookup.Table()
	c.JSON(http.StatusOK, gin.H{
		"entries": table.Len(),
		"grid":    table.Grid(),
	})
}

func queryFloat(c *gin.Context, name string) (float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter: " + name})
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameter: " + name})
		return 0, false
	}
	return v, true
}

// writeError maps domain errors onto HTTP status codes. Errors surface
// unchanged; nothing is defaulted or interpolated on a miss.
func (s *Server) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case domain.IsInvalidInput(err):
		status = http.StatusBadRequest
	case domain.IsNotFound(err):
		status = http.StatusNotFound
	case domain.IsImpossibleParameters(err):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		s.logger.WithFields(logrus.Fields{
			"correlation_id": c.GetString("correlation_id"),
		}).WithError(err).Error("Request failed")
	}

	c.JSON(status, gin.H{
		"error":          err.Error(),
		"correlation_id": c.GetString("correlation_id"),
	})
}
