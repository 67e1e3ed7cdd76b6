package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cybersafe-edu/assessment-service/internal/models"
	"github.com/cybersafe-edu/assessment-service/internal/repositories"
	"github.com/cybersafe-edu/assessment-service/internal/services"
	"github.com/cybersafe-edu/assessment-service/internal/utils"
)

type ModuleHandler struct {
	BaseHandler
	moduleService services.ModuleService
}

func NewModuleHandler(moduleService services.ModuleService, logger utils.Logger) *ModuleHandler {
	return &ModuleHandler{
		BaseHandler:   NewBaseHandler(logger),
		moduleService: moduleService,
	}
}

// ListModules returns the published learning modules, optionally filtered
// by difficulty.
func (h *ModuleHandler) ListModules(c *gin.Context) {
	filters := repositories.ModuleFilters{}
	if v := c.Query("difficulty"); v != "" {
		difficulty := models.DifficultyLevel(v)
		filters.Difficulty = &difficulty
	}
	filters.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	filters.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	modules, err := h.moduleService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, modules)
}

// GetModule returns a single module by ID.
func (h *ModuleHandler) GetModule(c *gin.Context) {
	moduleID := h.parseIDParam(c, "id")
	if moduleID == 0 {
		return
	}

	module, err := h.moduleService.GetByID(c.Request.Context(), moduleID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, module)
}
