package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"variants-service/internal/models"
	"variants-service/internal/repository"
)

// CompletenessFinder reads the completeness set of a product
type CompletenessFinder interface {
	GetByIdentifier(ctx context.Context, identifier string) (*models.ProductCompleteness, error)
}

type CompletenessHandler struct {
	finder CompletenessFinder
}

func NewCompletenessHandler(finder CompletenessFinder) *CompletenessHandler {
	return &CompletenessHandler{finder: finder}
}

// GetProductCompleteness godoc
// @Summary Get the completeness of a product per channel and locale
// @Tags Completeness
// @Produce json
// @Param identifier path string true "Product identifier"
// @Success 200 {object} models.CompletenessResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /products/{identifier}/completeness [get]
func (h *CompletenessHandler) GetProductCompleteness(c *gin.Context) {
	view, err := h.finder.GetByIdentifier(c.Request.Context(), c.Param("identifier"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "NOT_FOUND", Message: "Product not found"},
		})
		return
	}
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.CompletenessResponse{Success: true, Data: view})
}
