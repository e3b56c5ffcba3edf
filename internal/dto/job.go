package dto

import (
	"fmt"

	"finelytics/internal/jobs"
)

type JobResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Cron        string `json:"cron,omitempty"`
	Event       string `json:"event,omitempty"`
	Concurrency int    `json:"concurrency"`
	Throttle    string `json:"throttle,omitempty"`
	MaxAttempts int    `json:"max_attempts"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
	Runs []*jobs.Run   `json:"runs"`
}

func NewJobResponse(def jobs.Definition) JobResponse {
	resp := JobResponse{
		Name:        def.Name,
		Description: def.Description,
		Cron:        def.Trigger.Cron,
		Event:       def.Trigger.Event,
		Concurrency: def.Concurrency,
		MaxAttempts: def.Retry.MaxAttempts,
	}
	if def.Throttle != nil {
		resp.Throttle = fmt.Sprintf("%d per %s", def.Throttle.Limit, def.Throttle.Period)
	}
	return resp
}
