package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/smartfarmer/internal/logic"
	"github.com/gin-gonic/gin"
)

const maxImageSize = 5 << 20

type ProjectHandler struct {
	projectLogic *logic.ProjectLogic
}

func NewProjectHandler(projectLogic *logic.ProjectLogic) *ProjectHandler {
	return &ProjectHandler{projectLogic: projectLogic}
}

// CreateProject 创建项目
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	project, err := h.projectLogic.CreateProject(c.Request.Context(), logic.ProjectInput{
		Name:             req.Name,
		Description:      req.Description,
		PricePerUnit:     req.PricePerUnit,
		AvailableUnits:   req.AvailableUnits,
		ReturnPercentage: req.ReturnPercentage,
		DurationDays:     req.DurationDays,
		RiskLevel:        req.RiskLevel,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "Project created", ToProjectResponse(project))
}

// GetProjects 获取项目列表
func (h *ProjectHandler) GetProjects(c *gin.Context) {
	search := c.Query("search")
	page, pageSize := parsePage(c)

	projects, total, err := h.projectLogic.GetProjects(c.Request.Context(), search, page, pageSize)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "OK", GetProjectsResponse{
		Projects:   ToProjectResponseList(projects),
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetProject 获取单个项目详情
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	project, err := h.projectLogic.GetProject(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "OK", ToProjectResponse(project))
}

// GetProjectStats 获取项目募集统计
func (h *ProjectHandler) GetProjectStats(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	stats, err := h.projectLogic.GetProjectStats(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "OK", ToProjectStatsResponse(stats))
}

// CalculateROI 收益测算
func (h *ProjectHandler) CalculateROI(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	units, err := strconv.ParseInt(c.Query("units"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "units must be a positive integer")
		return
	}

	roi, err := h.projectLogic.CalculateROI(c.Request.Context(), id, units)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "OK", ToROIResponse(roi))
}

// UpdateProject 更新项目
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	project, err := h.projectLogic.UpdateProject(c.Request.Context(), id, logic.ProjectUpdate{
		Name:             req.Name,
		Description:      req.Description,
		PricePerUnit:     req.PricePerUnit,
		AvailableUnits:   req.AvailableUnits,
		ReturnPercentage: req.ReturnPercentage,
		DurationDays:     req.DurationDays,
		RiskLevel:        req.RiskLevel,
		Status:           req.Status,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Project updated", ToProjectResponse(project))
}

// DeleteProject 删除项目
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.projectLogic.DeleteProject(c.Request.Context(), id); err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Project deleted", nil)
}

// UploadProjectImage 上传项目图片，表单字段 image
func (h *ProjectHandler) UploadProjectImage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "image file is required")
		return
	}
	if file.Size > maxImageSize {
		ErrorResponse(c, http.StatusBadRequest, "image must be 5MB or smaller")
		return
	}

	body, err := file.Open()
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "unable to read image")
		return
	}
	defer body.Close()

	project, err := h.projectLogic.SetProjectImage(c.Request.Context(), id, file.Filename, body)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Image uploaded", ToProjectResponse(project))
}
