// Package handler exposes the HTTP endpoints.
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadops/defense-scheduler-api/internal/dto"
	"github.com/acadops/defense-scheduler-api/internal/middleware"
	"github.com/acadops/defense-scheduler-api/internal/models"
	"github.com/acadops/defense-scheduler-api/internal/service"
	appErrors "github.com/acadops/defense-scheduler-api/pkg/errors"
	"github.com/acadops/defense-scheduler-api/pkg/response"
)

type defenseSolver interface {
	Solve(ctx context.Context, req dto.SolveRequest, requestedBy string) (*dto.SolveResponse, error)
	GetRun(ctx context.Context, id string) (*dto.RunDetail, error)
	ListRuns(ctx context.Context, query dto.RunQuery) ([]models.SolverRun, *models.Pagination, error)
}

type scheduleExporter interface {
	Export(ctx context.Context, runID, format string) (*service.ExportArtifact, error)
}

// SchedulerHandler exposes the defense scheduling endpoints.
type SchedulerHandler struct {
	solver   defenseSolver
	exporter scheduleExporter
}

// NewSchedulerHandler constructs the handler.
func NewSchedulerHandler(solver *service.SolverService, exporter *service.ExportService) *SchedulerHandler {
	return &SchedulerHandler{solver: solver, exporter: exporter}
}

// Solve godoc
// @Summary Run the defense scheduling pipeline
// @Description Assigns panels, schedules defenses into slots and allocates rooms. Infeasible and unsolved models return 422 with diagnostics findings.
// @Tags Defense
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.SolveRequest true "Problem input tables"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /defense/solve [post]
func (h *SchedulerHandler) Solve(c *gin.Context) {
	var req dto.SolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid solve payload"))
		return
	}

	resp, err := h.solver.Solve(c.Request.Context(), req, requester(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	if !resp.Result.Success {
		// The run is stored and the bundle carries the diagnostics, but the
		// outcome is still a failure from the caller's point of view.
		failure := appErrors.ErrInfeasible
		if resp.Status == models.RunStatusNotSolved {
			failure = appErrors.ErrSolverTimeout
		}
		c.Header("Cache-Control", "no-store")
		c.JSON(failure.Status, response.Envelope{Data: resp, Error: failure})
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// ListRuns godoc
// @Summary List stored pipeline runs
// @Tags Defense
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by run status (SUCCEEDED, INFEASIBLE, NOT_SOLVED)"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /defense/runs [get]
func (h *SchedulerHandler) ListRuns(c *gin.Context) {
	var query dto.RunQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid run query"))
		return
	}

	runs, pagination, err := h.solver.ListRuns(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, runs, pagination)
}

// GetRun godoc
// @Summary Get one stored run with its schedule
// @Tags Defense
// @Produce json
// @Security BearerAuth
// @Param id path string true "Run identifier"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /defense/runs/{id} [get]
func (h *SchedulerHandler) GetRun(c *gin.Context) {
	detail, err := h.solver.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// ExportRun godoc
// @Summary Export a run's schedule as CSV or PDF
// @Tags Defense
// @Produce octet-stream
// @Security BearerAuth
// @Param id path string true "Run identifier"
// @Param format query string false "Export format (csv or pdf, default csv)"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /defense/runs/{id}/export [get]
func (h *SchedulerHandler) ExportRun(c *gin.Context) {
	artifact, err := h.exporter.Export(c.Request.Context(), c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+artifact.Filename+`"`)
	c.Data(http.StatusOK, artifact.ContentType, artifact.Content)
}

// RegisterRoutes mounts the defense endpoints behind the auth middleware.
func (h *SchedulerHandler) RegisterRoutes(group *gin.RouterGroup, auth gin.HandlerFunc) {
	defense := group.Group("/defense")
	if auth != nil {
		defense.Use(auth)
	}
	defense.POST("/solve", h.Solve)
	defense.GET("/runs", h.ListRuns)
	defense.GET("/runs/:id", h.GetRun)
	defense.GET("/runs/:id/export", h.ExportRun)
}

func requester(c *gin.Context) string {
	value, ok := c.Get(middleware.ContextUserKey)
	if !ok {
		return ""
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return ""
	}
	return claims.Email
}
