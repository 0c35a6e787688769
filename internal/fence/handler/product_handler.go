package handler

import (
	"errors"
	"strconv"

	"github.com/bitfantasy/fenceyard/internal/fence/entity"
	"github.com/bitfantasy/fenceyard/internal/fence/repository"
	"github.com/bitfantasy/fenceyard/internal/fence/service"
	"github.com/gin-gonic/gin"
)

// ProductHandler 围栏SKU目录接口
type ProductHandler struct {
	svc *service.ProductService
}

func NewProductHandler(svc *service.ProductService) *ProductHandler {
	return &ProductHandler{svc: svc}
}

// ListWoodVertical 木质竖板SKU列表
// GET /api/v1/products/wood-vertical
func (h *ProductHandler) ListWoodVertical(c *gin.Context) {
	items, err := h.svc.ListWoodVertical(c.Request.Context())
	if err != nil {
		InternalError(c, "获取产品列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": items})
}

// CreateWoodVertical 新增木质竖板SKU
// POST /api/v1/products/wood-vertical
func (h *ProductHandler) CreateWoodVertical(c *gin.Context) {
	var p entity.WoodVerticalProduct
	if err := c.ShouldBindJSON(&p); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	created, err := h.svc.CreateWoodVertical(c.Request.Context(), &p)
	if err != nil {
		InternalError(c, "创建产品失败: "+err.Error())
		return
	}
	Created(c, created)
}

// ListWoodHorizontal 木质横板SKU列表
// GET /api/v1/products/wood-horizontal
func (h *ProductHandler) ListWoodHorizontal(c *gin.Context) {
	items, err := h.svc.ListWoodHorizontal(c.Request.Context())
	if err != nil {
		InternalError(c, "获取产品列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": items})
}

// CreateWoodHorizontal 新增木质横板SKU
// POST /api/v1/products/wood-horizontal
func (h *ProductHandler) CreateWoodHorizontal(c *gin.Context) {
	var p entity.WoodHorizontalProduct
	if err := c.ShouldBindJSON(&p); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	created, err := h.svc.CreateWoodHorizontal(c.Request.Context(), &p)
	if err != nil {
		InternalError(c, "创建产品失败: "+err.Error())
		return
	}
	Created(c, created)
}

// ListIron 铁艺SKU列表
// GET /api/v1/products/iron
func (h *ProductHandler) ListIron(c *gin.Context) {
	items, err := h.svc.ListIron(c.Request.Context())
	if err != nil {
		InternalError(c, "获取产品列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": items})
}

// CreateIron 新增铁艺SKU
// POST /api/v1/products/iron
func (h *ProductHandler) CreateIron(c *gin.Context) {
	var p entity.IronProduct
	if err := c.ShouldBindJSON(&p); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	created, err := h.svc.CreateIron(c.Request.Context(), &p)
	if err != nil {
		InternalError(c, "创建产品失败: "+err.Error())
		return
	}
	Created(c, created)
}

// EligiblePosts 某高度可用的立柱物料
// GET /api/v1/products/eligible-posts?height_ft=6
func (h *ProductHandler) EligiblePosts(c *gin.Context) {
	heightFt, err := strconv.ParseFloat(c.Query("height_ft"), 64)
	if err != nil || heightFt <= 0 {
		BadRequest(c, "height_ft 必须为正数")
		return
	}
	items, err := h.svc.EligiblePosts(c.Request.Context(), heightFt)
	if err != nil {
		InternalError(c, "获取立柱物料失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": items})
}

// StandardCost 某SKU的单英尺标准成本
// GET /api/v1/product-costs/:fenceType/:sku
func (h *ProductHandler) StandardCost(c *gin.Context) {
	costPerFoot, err := h.svc.StandardCostPerFoot(c.Request.Context(), c.Param("fenceType"), c.Param("sku"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "产品不存在")
			return
		}
		InternalError(c, "获取标准成本失败: "+err.Error())
		return
	}
	Success(c, gin.H{"sku_code": c.Param("sku"), "cost_per_foot": costPerFoot})
}

// LaborCosts 某SKU各业务单元的标准人工成本
// GET /api/v1/product-labor-costs/:sku
func (h *ProductHandler) LaborCosts(c *gin.Context) {
	rows, err := h.svc.LaborCosts(c.Request.Context(), c.Param("sku"))
	if err != nil {
		InternalError(c, "获取人工成本失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": rows})
}
