package controllers

import (
	"net/http"

	"glowfit/services"

	"github.com/gin-gonic/gin"
)

type AnalysisController struct {
	Analyses *services.AnalysisService
}

func NewAnalysisController(analyses *services.AnalysisService) *AnalysisController {
	return &AnalysisController{Analyses: analyses}
}

// Analyze handles POST /api/analyze/:kind. AI outages degrade to a heuristic
// result rather than an error.
func (ac *AnalysisController) Analyze(c *gin.Context) {
	kind := c.Param("kind")
	if !services.ValidKind(kind) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown analysis kind"})
		return
	}
	var req services.AnalyzeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := ac.Analyses.Analyze(c.Request.Context(), c.GetUint("userID"), kind, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (ac *AnalysisController) History(c *gin.Context) {
	rows, err := ac.Analyses.History(c.Request.Context(), c.GetUint("userID"), services.HistoryQuery{
		Kind:  c.Query("kind"),
		Limit: intQuery(c, "limit", 20),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"analyses": rows})
}

func (ac *AnalysisController) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	row, err := ac.Analyses.Get(c.Request.Context(), c.GetUint("userID"), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

func (ac *AnalysisController) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := ac.Analyses.Delete(c.Request.Context(), c.GetUint("userID"), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
