package handler

import (
	"github.com/bitfantasy/fenceyard/internal/fence/service"
	"github.com/bitfantasy/fenceyard/internal/fence/sse"
	"github.com/gin-gonic/gin"
)

// RecalcHandler 标准成本批量重算接口
type RecalcHandler struct {
	svc *service.RecalcService
}

func NewRecalcHandler(svc *service.RecalcService) *RecalcHandler {
	return &RecalcHandler{svc: svc}
}

// RecalculateAll 同步执行全量重算并返回汇总。
// 单个SKU失败不中断，失败明细在 errors 里。进度通过SSE广播。
// POST /api/v1/recalc
func (h *RecalcHandler) RecalculateAll(c *gin.Context) {
	summary, err := h.svc.RecalculateAll(c.Request.Context(), sse.PublishRecalcProgress)
	if err != nil {
		InternalError(c, "重算失败: "+err.Error())
		return
	}
	Success(c, summary)
}
