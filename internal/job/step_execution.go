package job

import (
	"sync"

	"variants-service/internal/models"
)

// StepExecution collects the summary counters of a running job
type StepExecution struct {
	mu      sync.Mutex
	jobName string
	summary map[string]int
}

func NewStepExecution(jobName string) *StepExecution {
	return &StepExecution{
		jobName: jobName,
		summary: map[string]int{
			models.SummaryProcess: 0,
			models.SummarySkip:    0,
		},
	}
}

// IncrementSummaryInfo adds n to a summary counter
func (s *StepExecution) IncrementSummaryInfo(key string, n int) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	s.summary[key] += n
	s.mu.Unlock()
	itemsTotal.WithLabelValues(s.jobName, key).Add(float64(n))
}

// SummaryCount returns the current value of a counter
func (s *StepExecution) SummaryCount(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary[key]
}

// Summary returns a copy of every counter
func (s *StepExecution) Summary() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	summary := make(map[string]interface{}, len(s.summary))
	for key, n := range s.summary {
		summary[key] = n
	}
	return summary
}
