package handlers

import (
	"context"

	"finelytics/internal/dto"
	"finelytics/internal/jobs"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type JobScheduler interface {
	Definitions() []jobs.Definition
	Trigger(name string) (*jobs.Run, error)
}

type JobRunLister interface {
	ListRuns(ctx context.Context, filter jobs.RunFilter) ([]*jobs.Run, error)
}

type JobHandler struct {
	scheduler JobScheduler
	runs      JobRunLister
	logger    *zap.Logger
}

func NewJobHandler(scheduler JobScheduler, runs JobRunLister, logger *zap.Logger) *JobHandler {
	return &JobHandler{
		scheduler: scheduler,
		runs:      runs,
		logger:    logger,
	}
}

// ListJobs godoc
// @Summary List scheduled jobs and their recent runs
// @Tags jobs
// @Produce json
// @Param job query string false "Filter runs by job name"
// @Param limit query int false "Limit" default(20)
// @Security Bearer
// @Success 200 {object} dto.JobsResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /api/v1/jobs [get]
func (h *JobHandler) ListJobs(c *fiber.Ctx) error {
	defs := h.scheduler.Definitions()
	resp := dto.JobsResponse{Jobs: make([]dto.JobResponse, 0, len(defs))}
	for _, def := range defs {
		resp.Jobs = append(resp.Jobs, dto.NewJobResponse(def))
	}

	runs, err := h.runs.ListRuns(c.Context(), jobs.RunFilter{
		Job:   c.Query("job"),
		Limit: c.QueryInt("limit", 20),
	})
	if err != nil {
		return respondError(c, h.logger, err, "Failed to list runs")
	}
	resp.Runs = runs
	if resp.Runs == nil {
		resp.Runs = []*jobs.Run{}
	}
	return c.JSON(resp)
}

// RunJob godoc
// @Summary Trigger a scheduled job now
// @Tags jobs
// @Produce json
// @Param name path string true "Job name"
// @Security Bearer
// @Success 202 {object} jobs.Run
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/jobs/{name}/run [post]
func (h *JobHandler) RunJob(c *fiber.Ctx) error {
	run, err := h.scheduler.Trigger(c.Params("name"))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to trigger job")
	}
	h.logger.Info("Job triggered manually", zap.String("job", run.Job), zap.String("run_id", run.ID))
	return c.Status(fiber.StatusAccepted).JSON(run)
}
