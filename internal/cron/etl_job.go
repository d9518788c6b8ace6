package cron

import (
	"context"
	"fmt"

	"github.com/dlemaitre/sales-analytics-backend/internal/etl"
	"github.com/dlemaitre/sales-analytics-backend/pkg/logger"
	"github.com/dlemaitre/sales-analytics-backend/pkg/metrics"
)

// ETLJobName labels the sync job in logs and metrics.
const ETLJobName = "etl_sync"

type pipelineRunner interface {
	Run(ctx context.Context) (*etl.Summary, error)
}

// ETLJobParams configure the scheduled ETL sync.
type ETLJobParams struct {
	Logger   *logger.Logger
	Pipeline pipelineRunner
	Metrics  *metrics.JobMetrics
}

// NewETLJob builds the cron job that refreshes the seed sales from the
// source store.
func NewETLJob(params ETLJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Pipeline == nil {
		return nil, fmt.Errorf("pipeline required")
	}
	return &etlJob{
		logg:     params.Logger,
		pipeline: params.Pipeline,
		metrics:  params.Metrics,
	}, nil
}

type etlJob struct {
	logg     *logger.Logger
	pipeline pipelineRunner
	metrics  *metrics.JobMetrics
}

func (j *etlJob) Name() string { return ETLJobName }

func (j *etlJob) Run(ctx context.Context) error {
	summary, err := j.pipeline.Run(ctx)
	if err != nil {
		return fmt.Errorf("etl pipeline: %w", err)
	}
	j.metrics.AddRows(ETLJobName, summary.Loaded)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"loaded":  summary.Loaded,
		"deleted": summary.Deleted,
		"skipped": summary.Skipped,
	})
	j.logg.Info(logCtx, "etl sync finished")
	return nil
}
