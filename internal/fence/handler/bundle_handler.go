package handler

import (
	"errors"

	"github.com/bitfantasy/fenceyard/internal/fence/repository"
	"github.com/bitfantasy/fenceyard/internal/fence/service"
	"github.com/gin-gonic/gin"
)

// BundleHandler 捆组接口
type BundleHandler struct {
	svc *service.BundleService
}

func NewBundleHandler(svc *service.BundleService) *BundleHandler {
	return &BundleHandler{svc: svc}
}

// Create 建捆
// POST /api/v1/bundles
func (h *BundleHandler) Create(c *gin.Context) {
	var req service.CreateBundleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	bundle, err := h.svc.CreateBundle(c.Request.Context(), &req, GetUserID(c))
	if err != nil {
		Conflict(c, "建捆失败: "+err.Error())
		return
	}
	Created(c, bundle)
}

// Get 捆组详情（带子项目）
// GET /api/v1/bundles/:id
func (h *BundleHandler) Get(c *gin.Context) {
	bundle, children, err := h.svc.GetBundle(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "捆组不存在")
			return
		}
		InternalError(c, "获取捆组失败: "+err.Error())
		return
	}
	Success(c, gin.H{"bundle": bundle, "children": children})
}

// Advance 整捆推进一步
// POST /api/v1/bundles/:id/advance
func (h *BundleHandler) Advance(c *gin.Context) {
	bundle, err := h.svc.AdvanceBundle(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		Conflict(c, "捆组状态推进失败: "+err.Error())
		return
	}
	Success(c, bundle)
}

// DetachProject 摘除单个子项目
// POST /api/v1/bundle-detach/:projectId
func (h *BundleHandler) DetachProject(c *gin.Context) {
	project, err := h.svc.DetachProject(c.Request.Context(), c.Param("projectId"), GetUserID(c))
	if err != nil {
		Conflict(c, "摘除项目失败: "+err.Error())
		return
	}
	Success(c, project)
}

// Unbundle 解散捆组
// DELETE /api/v1/bundles/:id
func (h *BundleHandler) Unbundle(c *gin.Context) {
	if err := h.svc.Unbundle(c.Request.Context(), c.Param("id"), GetUserID(c)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "捆组不存在")
			return
		}
		Conflict(c, "解散捆组失败: "+err.Error())
		return
	}
	Success(c, gin.H{"message": "bundle dissolved"})
}
