package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"variants-service/internal/middleware"
	"variants-service/internal/models"
	"variants-service/internal/reader"
	"variants-service/internal/repository"
)

// MaxUploadSize bounds family list uploads
const MaxUploadSize = 10 << 20

// JobLauncher starts recomputation jobs
type JobLauncher interface {
	LaunchComputeFamilyVariants(ctx context.Context, r reader.Reader, params map[string]interface{}) (*models.JobExecution, error)
	LaunchFamilyVariantStructure(ctx context.Context, familyVariantCodes []string) (*models.JobExecution, error)
}

// ExecutionFinder reads recorded job executions
type ExecutionFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.JobExecution, error)
}

type JobsHandler struct {
	launcher   JobLauncher
	executions ExecutionFinder
}

func NewJobsHandler(launcher JobLauncher, executions ExecutionFinder) *JobsHandler {
	return &JobsHandler{launcher: launcher, executions: executions}
}

// ComputeFamilyVariants godoc
// @Summary Recompute the variant trees of families
// @Description Accepts a JSON list of family codes or a CSV/XLSX upload with a "code" column
// @Tags Jobs
// @Accept json,mpfd
// @Produce json
// @Param request body models.ComputeFamilyVariantsRequest false "Family codes"
// @Param file formData file false "CSV or XLSX file"
// @Success 202 {object} models.JobExecutionResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /jobs/compute-family-variants [post]
func (h *JobsHandler) ComputeFamilyVariants(c *gin.Context) {
	params := map[string]interface{}{}
	if user := middleware.UserID(c); user != "" {
		params["launchedBy"] = user
	}
	if tenant := middleware.GetTenantID(c); tenant != "" {
		params["tenantId"] = tenant
	}

	var r reader.Reader
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		fileReader, filename, err := readUpload(c)
		if err != nil {
			badRequest(c, "INVALID_FILE", err.Error())
			return
		}
		params["file"] = filename
		r = fileReader
	} else {
		var req models.ComputeFamilyVariantsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "VALIDATION_ERROR", err.Error())
			return
		}
		params["familyCodes"] = req.FamilyCodes
		r = reader.NewSliceReader(req.FamilyCodes)
	}

	execution, err := h.launcher.LaunchComputeFamilyVariants(c.Request.Context(), r, params)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, models.JobExecutionResponse{Success: true, Data: execution})
}

// FamilyVariantStructure godoc
// @Summary Recompute the trees of family variants whose structure changed
// @Tags Jobs
// @Accept json
// @Produce json
// @Param request body models.FamilyVariantStructureRequest true "Family variant codes"
// @Success 202 {object} models.JobExecutionResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /jobs/family-variant-structure [post]
func (h *JobsHandler) FamilyVariantStructure(c *gin.Context) {
	var req models.FamilyVariantStructureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "VALIDATION_ERROR", err.Error())
		return
	}

	execution, err := h.launcher.LaunchFamilyVariantStructure(c.Request.Context(), req.FamilyVariantCodes)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, models.JobExecutionResponse{Success: true, Data: execution})
}

// GetExecution godoc
// @Summary Get a job execution with its summary
// @Tags Jobs
// @Produce json
// @Param id path string true "Job execution ID"
// @Success 200 {object} models.JobExecutionResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /jobs/{id} [get]
func (h *JobsHandler) GetExecution(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "INVALID_ID", "Invalid job execution ID")
		return
	}

	execution, err := h.executions.FindByID(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "NOT_FOUND", Message: "Job execution not found"},
		})
		return
	}
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.JobExecutionResponse{Success: true, Data: execution})
}

// readUpload buffers the uploaded file so the job can read it after the request ends
func readUpload(c *gin.Context) (reader.Reader, string, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("no file uploaded: %w", err)
	}
	if header.Size > MaxUploadSize {
		return nil, "", fmt.Errorf("file exceeds %d bytes", MaxUploadSize)
	}
	file, err := header.Open()
	if err != nil {
		return nil, "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read uploaded file: %w", err)
	}
	r, err := reader.ForFile(header.Filename, bytes.NewReader(content))
	if err != nil {
		return nil, "", err
	}
	return r, header.Filename, nil
}

func badRequest(c *gin.Context, code, message string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Success: false,
		Error:   models.Error{Code: code, Message: message},
	})
}

func internalError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Success: false,
		Error:   models.Error{Code: "INTERNAL_ERROR", Message: err.Error()},
	})
}
