package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"variants-service/internal/models"
)

type JobExecutionRepository struct {
	db *gorm.DB
}

func NewJobExecutionRepository(db *gorm.DB) *JobExecutionRepository {
	return &JobExecutionRepository{db: db}
}

func (r *JobExecutionRepository) Create(ctx context.Context, execution *models.JobExecution) error {
	return r.db.WithContext(ctx).Create(execution).Error
}

func (r *JobExecutionRepository) Update(ctx context.Context, execution *models.JobExecution) error {
	return r.db.WithContext(ctx).Save(execution).Error
}

func (r *JobExecutionRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.JobExecution, error) {
	var execution models.JobExecution
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&execution).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &execution, nil
}

// List returns the most recent executions of a job, newest first
func (r *JobExecutionRepository) List(ctx context.Context, jobName string, limit int) ([]models.JobExecution, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var executions []models.JobExecution
	q := r.db.WithContext(ctx).Order("started_at DESC").Limit(limit)
	if jobName != "" {
		q = q.Where("job_name = ?", jobName)
	}
	if err := q.Find(&executions).Error; err != nil {
		return nil, err
	}
	return executions, nil
}
