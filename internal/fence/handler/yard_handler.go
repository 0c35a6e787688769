package handler

import (
	"time"

	"github.com/bitfantasy/fenceyard/internal/fence/entity"
	"github.com/bitfantasy/fenceyard/internal/fence/repository"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// YardHandler 库场与货位接口
type YardHandler struct {
	repo *repository.YardRepository
}

func NewYardHandler(repo *repository.YardRepository) *YardHandler {
	return &YardHandler{repo: repo}
}

// List 库场列表
// GET /api/v1/yards
func (h *YardHandler) List(c *gin.Context) {
	yards, err := h.repo.ListYards(c.Request.Context())
	if err != nil {
		InternalError(c, "获取库场列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": yards})
}

// Create 新增库场
// POST /api/v1/yards
func (h *YardHandler) Create(c *gin.Context) {
	var yard entity.Yard
	if err := c.ShouldBindJSON(&yard); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	yard.ID = uuid.New().String()[:32]
	now := time.Now()
	yard.CreatedAt = now
	yard.UpdatedAt = now
	if err := h.repo.CreateYard(c.Request.Context(), &yard); err != nil {
		InternalError(c, "创建库场失败: "+err.Error())
		return
	}
	Created(c, yard)
}

// ListSpots 某库场的货位
// GET /api/v1/yards/:id/spots
func (h *YardHandler) ListSpots(c *gin.Context) {
	spots, err := h.repo.ListSpots(c.Request.Context(), c.Param("id"))
	if err != nil {
		InternalError(c, "获取货位失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": spots})
}

// CreateSpot 新增货位
// POST /api/v1/yards/:id/spots
func (h *YardHandler) CreateSpot(c *gin.Context) {
	var spot entity.YardSpot
	if err := c.ShouldBindJSON(&spot); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	spot.ID = uuid.New().String()[:32]
	spot.YardID = c.Param("id")
	now := time.Now()
	spot.CreatedAt = now
	spot.UpdatedAt = now
	if err := h.repo.CreateSpot(c.Request.Context(), &spot); err != nil {
		InternalError(c, "创建货位失败: "+err.Error())
		return
	}
	Created(c, spot)
}
