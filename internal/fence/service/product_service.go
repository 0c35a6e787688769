package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bitfantasy/fenceyard/internal/fence/entity"
	"github.com/bitfantasy/fenceyard/internal/fence/repository"
)

// 立柱埋深：立柱可用长度须覆盖围栏高度加埋深
const postBuryDepthFt = 2.0

// ProductService 围栏SKU目录维护与标准成本查询
type ProductService struct {
	productRepo  *repository.ProductRepository
	materialRepo *repository.MaterialRepository
	cache        *CostCache
}

func NewProductService(productRepo *repository.ProductRepository, materialRepo *repository.MaterialRepository, cache *CostCache) *ProductService {
	return &ProductService{productRepo: productRepo, materialRepo: materialRepo, cache: cache}
}

// ListWoodVertical 木质竖板SKU列表
func (s *ProductService) ListWoodVertical(ctx context.Context) ([]entity.WoodVerticalProduct, error) {
	return s.productRepo.ListWoodVertical(ctx)
}

// ListWoodHorizontal 木质横板SKU列表
func (s *ProductService) ListWoodHorizontal(ctx context.Context) ([]entity.WoodHorizontalProduct, error) {
	return s.productRepo.ListWoodHorizontal(ctx)
}

// ListIron 铁艺SKU列表
func (s *ProductService) ListIron(ctx context.Context) ([]entity.IronProduct, error) {
	return s.productRepo.ListIron(ctx)
}

// CreateWoodVertical 新增木质竖板SKU
func (s *ProductService) CreateWoodVertical(ctx context.Context, p *entity.WoodVerticalProduct) (*entity.WoodVerticalProduct, error) {
	if p.SKUCode == "" {
		return nil, fmt.Errorf("sku_code is required")
	}
	if p.HeightFt <= 0 {
		return nil, fmt.Errorf("height_ft must be positive")
	}
	p.ID = newID()
	if p.Status == "" {
		p.Status = "active"
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.productRepo.CreateWoodVertical(ctx, p); err != nil {
		return nil, fmt.Errorf("create wood vertical product: %w", err)
	}
	return s.productRepo.FindWoodVerticalBySKU(ctx, p.SKUCode)
}

// CreateWoodHorizontal 新增木质横板SKU
func (s *ProductService) CreateWoodHorizontal(ctx context.Context, p *entity.WoodHorizontalProduct) (*entity.WoodHorizontalProduct, error) {
	if p.SKUCode == "" {
		return nil, fmt.Errorf("sku_code is required")
	}
	if p.HeightFt <= 0 {
		return nil, fmt.Errorf("height_ft must be positive")
	}
	p.ID = newID()
	if p.Status == "" {
		p.Status = "active"
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.productRepo.CreateWoodHorizontal(ctx, p); err != nil {
		return nil, fmt.Errorf("create wood horizontal product: %w", err)
	}
	return s.productRepo.FindWoodHorizontalBySKU(ctx, p.SKUCode)
}

// CreateIron 新增铁艺SKU
func (s *ProductService) CreateIron(ctx context.Context, p *entity.IronProduct) (*entity.IronProduct, error) {
	if p.SKUCode == "" {
		return nil, fmt.Errorf("sku_code is required")
	}
	if p.HeightFt <= 0 {
		return nil, fmt.Errorf("height_ft must be positive")
	}
	p.ID = newID()
	if p.Status == "" {
		p.Status = "active"
	}
	if p.RailsPerPanel <= 0 {
		p.RailsPerPanel = 2
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.productRepo.CreateIron(ctx, p); err != nil {
		return nil, fmt.Errorf("create iron product: %w", err)
	}
	return s.productRepo.FindIronBySKU(ctx, p.SKUCode)
}

// EligiblePosts 某围栏高度可用的立柱物料（长度覆盖高度+埋深）
func (s *ProductService) EligiblePosts(ctx context.Context, heightFt float64) ([]entity.Material, error) {
	if heightFt <= 0 {
		return nil, fmt.Errorf("height_ft must be positive")
	}
	return s.materialRepo.ListPosts(ctx, heightFt+postBuryDepthFt)
}

// StandardCostPerFoot 某SKU的单英尺标准成本。先查缓存，未命中
// 则回源目录表并回填。
func (s *ProductService) StandardCostPerFoot(ctx context.Context, fenceType, skuCode string) (float64, error) {
	if v, ok := s.cache.Get(ctx, skuCode); ok {
		return v, nil
	}

	var costPerFoot float64
	switch fenceType {
	case "wood_vertical":
		p, err := s.productRepo.FindWoodVerticalBySKU(ctx, skuCode)
		if err != nil {
			return 0, fmt.Errorf("product %s not found: %w", skuCode, err)
		}
		costPerFoot = p.StandardCostPerFoot
	case "wood_horizontal":
		p, err := s.productRepo.FindWoodHorizontalBySKU(ctx, skuCode)
		if err != nil {
			return 0, fmt.Errorf("product %s not found: %w", skuCode, err)
		}
		costPerFoot = p.StandardCostPerFoot
	case "iron":
		p, err := s.productRepo.FindIronBySKU(ctx, skuCode)
		if err != nil {
			return 0, fmt.Errorf("product %s not found: %w", skuCode, err)
		}
		costPerFoot = p.StandardCostPerFoot
	default:
		return 0, fmt.Errorf("unknown fence type: %s", fenceType)
	}

	s.cache.Set(ctx, skuCode, costPerFoot)
	return costPerFoot, nil
}

// LaborCosts 某SKU各业务单元的标准人工成本
func (s *ProductService) LaborCosts(ctx context.Context, skuCode string) ([]entity.ProductLaborCost, error) {
	return s.productRepo.ListLaborCosts(ctx, skuCode)
}
