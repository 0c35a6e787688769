package handler

import (
	"errors"

	"github.com/bitfantasy/fenceyard/internal/fence/entity"
	"github.com/bitfantasy/fenceyard/internal/fence/repository"
	"github.com/bitfantasy/fenceyard/internal/fence/service"
	"github.com/gin-gonic/gin"
)

// MaterialHandler 物料目录接口
type MaterialHandler struct {
	svc *service.MaterialService
}

func NewMaterialHandler(svc *service.MaterialService) *MaterialHandler {
	return &MaterialHandler{svc: svc}
}

// List 物料列表
// GET /api/v1/materials?category=picket
func (h *MaterialHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		InternalError(c, "获取物料列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": items})
}

// Get 物料详情
// GET /api/v1/materials/:sku
func (h *MaterialHandler) Get(c *gin.Context) {
	m, err := h.svc.GetBySKU(c.Request.Context(), c.Param("sku"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "物料不存在")
			return
		}
		InternalError(c, "获取物料失败: "+err.Error())
		return
	}
	Success(c, m)
}

// Create 新增物料
// POST /api/v1/materials
func (h *MaterialHandler) Create(c *gin.Context) {
	var m entity.Material
	if err := c.ShouldBindJSON(&m); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	created, err := h.svc.Create(c.Request.Context(), &m)
	if err != nil {
		InternalError(c, "创建物料失败: "+err.Error())
		return
	}
	Created(c, created)
}

// Update 更新物料
// PUT /api/v1/materials/:sku
func (h *MaterialHandler) Update(c *gin.Context) {
	var m entity.Material
	if err := c.ShouldBindJSON(&m); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	updated, err := h.svc.Update(c.Request.Context(), c.Param("sku"), &m)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "物料不存在")
			return
		}
		InternalError(c, "更新物料失败: "+err.Error())
		return
	}
	Success(c, updated)
}
