package job

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	itemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "variants_job_items_total",
		Help: "Entities processed or skipped by the recomputation jobs",
	}, []string{"job", "outcome"})

	flushesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "variants_job_flushes_total",
		Help: "Bulk saves performed by the recomputation jobs",
	}, []string{"job"})

	executionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "variants_job_executions_total",
		Help: "Job executions by final status",
	}, []string{"job", "status"})
)
