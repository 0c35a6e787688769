package handler

import (
	"github.com/bitfantasy/fenceyard/internal/fence/service"
	"github.com/gin-gonic/gin"
)

// CalculatorHandler 报价预览接口
type CalculatorHandler struct {
	svc *service.CalculatorService
}

func NewCalculatorHandler(svc *service.CalculatorService) *CalculatorHandler {
	return &CalculatorHandler{svc: svc}
}

// Preview 实时报价预览。缺料不报错，体现在 result.missing。
// POST /api/v1/calculator/preview
func (h *CalculatorHandler) Preview(c *gin.Context) {
	var req service.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	result, err := h.svc.Preview(c.Request.Context(), &req)
	if err != nil {
		BadRequest(c, "计算失败: "+err.Error())
		return
	}
	Success(c, result)
}
