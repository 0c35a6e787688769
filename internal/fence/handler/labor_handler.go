package handler

import (
	"errors"

	"github.com/bitfantasy/fenceyard/internal/fence/entity"
	"github.com/bitfantasy/fenceyard/internal/fence/repository"
	"github.com/bitfantasy/fenceyard/internal/fence/service"
	"github.com/gin-gonic/gin"
)

// LaborHandler 工种与费率接口
type LaborHandler struct {
	svc *service.LaborService
}

func NewLaborHandler(svc *service.LaborService) *LaborHandler {
	return &LaborHandler{svc: svc}
}

// ListCodes 工种列表
// GET /api/v1/labor/codes
func (h *LaborHandler) ListCodes(c *gin.Context) {
	codes, err := h.svc.ListCodes(c.Request.Context())
	if err != nil {
		InternalError(c, "获取工种列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": codes, "known_codes": h.svc.KnownCodes()})
}

// CreateCode 新增工种
// POST /api/v1/labor/codes
func (h *LaborHandler) CreateCode(c *gin.Context) {
	var code entity.LaborCode
	if err := c.ShouldBindJSON(&code); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	created, err := h.svc.CreateCode(c.Request.Context(), &code)
	if err != nil {
		InternalError(c, "创建工种失败: "+err.Error())
		return
	}
	Created(c, created)
}

// ListBusinessUnits 业务单元列表
// GET /api/v1/labor/business-units
func (h *LaborHandler) ListBusinessUnits(c *gin.Context) {
	units, err := h.svc.ListBusinessUnits(c.Request.Context())
	if err != nil {
		InternalError(c, "获取业务单元失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": units})
}

// CreateBusinessUnit 新增业务单元
// POST /api/v1/labor/business-units
func (h *LaborHandler) CreateBusinessUnit(c *gin.Context) {
	var unit entity.BusinessUnit
	if err := c.ShouldBindJSON(&unit); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	created, err := h.svc.CreateBusinessUnit(c.Request.Context(), &unit)
	if err != nil {
		InternalError(c, "创建业务单元失败: "+err.Error())
		return
	}
	Created(c, created)
}

type setRateRequest struct {
	LaborSKU       string  `json:"labor_sku" binding:"required"`
	BusinessUnitID string  `json:"business_unit_id" binding:"required"`
	Rate           float64 `json:"rate"`
}

// SetRate 设置费率
// PUT /api/v1/labor/rates
func (h *LaborHandler) SetRate(c *gin.Context) {
	var req setRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	if err := h.svc.SetRate(c.Request.Context(), req.LaborSKU, req.BusinessUnitID, req.Rate); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "工种不存在")
			return
		}
		InternalError(c, "设置费率失败: "+err.Error())
		return
	}
	Success(c, gin.H{"message": "rate saved"})
}

// GetRateMap 业务单元费率映射
// GET /api/v1/labor/rates/:unitId
func (h *LaborHandler) GetRateMap(c *gin.Context) {
	rates, err := h.svc.RateMap(c.Request.Context(), c.Param("unitId"))
	if err != nil {
		InternalError(c, "获取费率失败: "+err.Error())
		return
	}
	Success(c, gin.H{"rates": rates})
}
