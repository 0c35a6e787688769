package handler

import (
	"errors"
	"fmt"

	"github.com/bitfantasy/fenceyard/internal/fence/repository"
	"github.com/bitfantasy/fenceyard/internal/fence/service"
	"github.com/gin-gonic/gin"
)

// ProjectHandler 项目接口：报价落库、状态机、行项覆盖、导出
type ProjectHandler struct {
	svc       *service.ProjectService
	exportSvc *service.ExportService
}

func NewProjectHandler(svc *service.ProjectService, exportSvc *service.ExportService) *ProjectHandler {
	return &ProjectHandler{svc: svc, exportSvc: exportSvc}
}

// Create 报价落库为项目
// POST /api/v1/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req service.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	project, err := h.svc.CreateFromQuote(c.Request.Context(), &req, GetUserID(c))
	if err != nil {
		InternalError(c, "创建项目失败: "+err.Error())
		return
	}
	Created(c, project)
}

// List 项目列表
// GET /api/v1/projects?status=&yard_id=&is_bundle=&include_archived=
func (h *ProjectHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]interface{}{
		"status":           c.Query("status"),
		"yard_id":          c.Query("yard_id"),
		"include_archived": c.Query("include_archived") == "true",
	}
	if v := c.Query("is_bundle"); v != "" {
		filters["is_bundle"] = v == "true"
	}
	result, err := h.svc.ListProjects(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, "获取项目列表失败: "+err.Error())
		return
	}
	Success(c, result)
}

// Get 项目详情
// GET /api/v1/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	project, err := h.svc.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "项目不存在")
			return
		}
		InternalError(c, "获取项目失败: "+err.Error())
		return
	}
	Success(c, project)
}

// Advance 状态正向推进一步
// POST /api/v1/projects/:id/advance
func (h *ProjectHandler) Advance(c *gin.Context) {
	project, err := h.svc.Advance(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		Conflict(c, "状态推进失败: "+err.Error())
		return
	}
	Success(c, project)
}

type setStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetStatus 管理跳转到指定状态
// PUT /api/v1/projects/:id/status
func (h *ProjectHandler) SetStatus(c *gin.Context) {
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	project, err := h.svc.SetStatus(c.Request.Context(), c.Param("id"), req.Status, GetUserID(c))
	if err != nil {
		Conflict(c, "设置状态失败: "+err.Error())
		return
	}
	Success(c, project)
}

type partialPickupRequest struct {
	Notes string `json:"notes" binding:"required"`
}

// CompletePartialPickup 部分提货完成
// POST /api/v1/projects/:id/partial-pickup
func (h *ProjectHandler) CompletePartialPickup(c *gin.Context) {
	var req partialPickupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "部分提货必须填写说明")
		return
	}
	project, err := h.svc.CompletePartialPickup(c.Request.Context(), c.Param("id"), req.Notes, GetUserID(c))
	if err != nil {
		Conflict(c, "部分提货完成失败: "+err.Error())
		return
	}
	Success(c, project)
}

// ClearPartialPickup 清除部分提货标志
// DELETE /api/v1/projects/:id/partial-pickup
func (h *ProjectHandler) ClearPartialPickup(c *gin.Context) {
	project, err := h.svc.ClearPartialPickup(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		Conflict(c, "清除部分提货失败: "+err.Error())
		return
	}
	Success(c, project)
}

// RevertToLoaded 完成回退到已装车
// POST /api/v1/projects/:id/revert-to-loaded
func (h *ProjectHandler) RevertToLoaded(c *gin.Context) {
	project, err := h.svc.RevertToLoaded(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		Conflict(c, "回退失败: "+err.Error())
		return
	}
	Success(c, project)
}

// Cancel 取消项目
// POST /api/v1/projects/:id/cancel
func (h *ProjectHandler) Cancel(c *gin.Context) {
	project, err := h.svc.Cancel(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		Conflict(c, "取消项目失败: "+err.Error())
		return
	}
	Success(c, project)
}

// Archive 归档
// POST /api/v1/projects/:id/archive
func (h *ProjectHandler) Archive(c *gin.Context) {
	project, err := h.svc.Archive(c.Request.Context(), c.Param("id"), GetUserID(c), true)
	if err != nil {
		InternalError(c, "归档失败: "+err.Error())
		return
	}
	Success(c, project)
}

// Restore 取消归档
// POST /api/v1/projects/:id/restore
func (h *ProjectHandler) Restore(c *gin.Context) {
	project, err := h.svc.Archive(c.Request.Context(), c.Param("id"), GetUserID(c), false)
	if err != nil {
		InternalError(c, "恢复失败: "+err.Error())
		return
	}
	Success(c, project)
}

type manualQuantityRequest struct {
	Quantity *float64 `json:"quantity"`
}

// SetMaterialQuantity 物料行手工数量覆盖（quantity 为 null 时清除）
// PUT /api/v1/project-material-lines/:lineId/quantity
func (h *ProjectHandler) SetMaterialQuantity(c *gin.Context) {
	var req manualQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	line, err := h.svc.SetMaterialManualQuantity(c.Request.Context(), c.Param("lineId"), req.Quantity)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "物料行不存在")
			return
		}
		InternalError(c, "更新物料行失败: "+err.Error())
		return
	}
	Success(c, line)
}

// SetLaborQuantity 人工行手工数量覆盖
// PUT /api/v1/project-labor-lines/:lineId/quantity
func (h *ProjectHandler) SetLaborQuantity(c *gin.Context) {
	var req manualQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	line, err := h.svc.SetLaborManualQuantity(c.Request.Context(), c.Param("lineId"), req.Quantity)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "人工行不存在")
			return
		}
		InternalError(c, "更新人工行失败: "+err.Error())
		return
	}
	Success(c, line)
}

type manualAdjustmentRequest struct {
	Amount float64 `json:"amount"`
}

// SetManualAdjustment 项目级手工调整额
// PUT /api/v1/projects/:id/manual-adjustment
func (h *ProjectHandler) SetManualAdjustment(c *gin.Context) {
	var req manualAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	project, err := h.svc.SetManualAdjustment(c.Request.Context(), c.Param("id"), req.Amount)
	if err != nil {
		InternalError(c, "设置调整额失败: "+err.Error())
		return
	}
	Success(c, project)
}

// ListLogs 项目操作日志
// GET /api/v1/projects/:id/logs
func (h *ProjectHandler) ListLogs(c *gin.Context) {
	logs, err := h.svc.ListOperationLogs(c.Request.Context(), c.Param("id"))
	if err != nil {
		InternalError(c, "获取操作日志失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": logs})
}

// ExportBOM 导出项目BOM为Excel
// GET /api/v1/projects/:id/export
func (h *ProjectHandler) ExportBOM(c *gin.Context) {
	result, err := h.exportSvc.ExportProjectBOM(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "项目不存在")
			return
		}
		InternalError(c, "导出失败: "+err.Error())
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", result.FileName))
	if result.ArchivePath != "" {
		c.Header("X-Archive-Path", result.ArchivePath)
	}
	c.Data(200, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", result.Content)
}
