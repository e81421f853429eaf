// handlers_analysis.go - Fault tracing, comment search and device reasoning handlers
package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/plc-assistant/backend/internal/analysis"
	"github.com/plc-assistant/backend/internal/metrics"
	"github.com/plc-assistant/backend/internal/models"
	"github.com/plc-assistant/backend/internal/search"
)

// AnalysisHandlerImpl implements the AnalysisHandler interface
type AnalysisHandlerImpl struct {
	tracer     *analysis.FaultTracer
	search     *search.CommentSearchService
	reasoner   analysis.Reasoner
	maxResults int
}

// NewAnalysisHandler creates a new analysis handler. maxResults is the
// search result count used when ?max= is absent.
func NewAnalysisHandler(tracer *analysis.FaultTracer, svc *search.CommentSearchService, maxResults int) AnalysisHandler {
	if maxResults <= 0 {
		maxResults = search.DefaultMaxResults
	}
	return &AnalysisHandlerImpl{
		tracer:     tracer,
		search:     svc,
		maxResults: maxResults,
	}
}

type searchResponse struct {
	Query   string                       `json:"query"`
	Results []models.CommentSearchResult `json:"results"`
}

// HandleTraceFaults lists the error coils found in the imported programs
func (h *AnalysisHandlerImpl) HandleTraceFaults(c echo.Context) error {
	metrics.ToolCalled("trace_faults")
	return c.JSON(http.StatusOK, h.tracer.TraceErrorCoils())
}

// HandleSearchComments ranks device comments against ?q=
func (h *AnalysisHandlerImpl) HandleSearchComments(c echo.Context) error {
	metrics.ToolCalled("search_comments")
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return NewValidationError("q")
	}

	limit := h.maxResults
	if raw := c.QueryParam("max"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return NewValidationError("max")
		}
		limit = n
	}

	return c.JSON(http.StatusOK, searchResponse{
		Query:   q,
		Results: h.search.Search(q, limit),
	})
}

// HandleReason picks the devices mentioned in ?q=
func (h *AnalysisHandlerImpl) HandleReason(c echo.Context) error {
	metrics.ToolCalled("reason")
	q := c.QueryParam("q")
	if strings.TrimSpace(q) == "" {
		return NewValidationError("q")
	}
	return c.JSON(http.StatusOK, h.reasoner.Infer(q))
}
