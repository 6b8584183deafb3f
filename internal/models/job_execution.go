package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// JobStatus represents the lifecycle status of a job execution
type JobStatus string

const (
	JobStatusStarting  JobStatus = "STARTING"
	JobStatusCompleted JobStatus = "COMPLETED"
	JobStatusFailed    JobStatus = "FAILED"
)

// Summary keys incremented by the recomputation jobs
const (
	SummaryProcess = "process"
	SummarySkip    = "skip"
)

// JobExecution records one run of a batch job and its summary counters
type JobExecution struct {
	ID         uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	JobName    string            `json:"jobName" gorm:"not null;index"`
	Status     JobStatus         `json:"status" gorm:"not null;default:'STARTING'"`
	Parameters datatypes.JSONMap `json:"parameters,omitempty" gorm:"type:jsonb"`
	Summary    datatypes.JSONMap `json:"summary,omitempty" gorm:"type:jsonb"`
	Failure    *string           `json:"failure,omitempty"`
	StartedAt  time.Time         `json:"startedAt"`
	EndedAt    *time.Time        `json:"endedAt,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

func (e *JobExecution) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// SummaryCount returns a summary counter as an int
func (e *JobExecution) SummaryCount(key string) int {
	switch v := e.Summary[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// ComputeFamilyVariantsRequest starts a recomputation for a list of family codes
type ComputeFamilyVariantsRequest struct {
	FamilyCodes []string `json:"familyCodes" binding:"required,min=1"`
}

// FamilyVariantStructureRequest starts a recomputation for a list of family variant codes
type FamilyVariantStructureRequest struct {
	FamilyVariantCodes []string `json:"familyVariantCodes" binding:"required,min=1"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success bool  `json:"success"`
	Error   Error `json:"error"`
}

// Error represents an error
type Error struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// JobExecutionResponse wraps a job execution
type JobExecutionResponse struct {
	Success bool          `json:"success"`
	Data    *JobExecution `json:"data"`
}

// CompletenessResponse wraps a product completeness set
type CompletenessResponse struct {
	Success bool                 `json:"success"`
	Data    *ProductCompleteness `json:"data"`
}
