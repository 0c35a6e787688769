package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bitfantasy/fenceyard/internal/fence/calc"
	"github.com/bitfantasy/fenceyard/internal/fence/entity"
	"github.com/bitfantasy/fenceyard/internal/fence/repository"
)

// MaterialService 物料目录维护
type MaterialService struct {
	materialRepo *repository.MaterialRepository
}

func NewMaterialService(materialRepo *repository.MaterialRepository) *MaterialService {
	return &MaterialService{materialRepo: materialRepo}
}

// List 按大类列出在用物料
func (s *MaterialService) List(ctx context.Context, category string) ([]entity.Material, error) {
	return s.materialRepo.List(ctx, category)
}

// GetBySKU 按SKU查找物料
func (s *MaterialService) GetBySKU(ctx context.Context, sku string) (*entity.Material, error) {
	return s.materialRepo.FindBySKU(ctx, sku)
}

// Create 新增物料
func (s *MaterialService) Create(ctx context.Context, m *entity.Material) (*entity.Material, error) {
	if m.SKU == "" {
		return nil, fmt.Errorf("sku is required")
	}
	if m.Category == "" {
		return nil, fmt.Errorf("category is required")
	}
	m.ID = newID()
	if m.Status == "" {
		m.Status = entity.MaterialStatusActive
	}
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
	if err := s.materialRepo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create material: %w", err)
	}
	return m, nil
}

// Update 更新物料
func (s *MaterialService) Update(ctx context.Context, sku string, update *entity.Material) (*entity.Material, error) {
	m, err := s.materialRepo.FindBySKU(ctx, sku)
	if err != nil {
		return nil, fmt.Errorf("material %s not found: %w", sku, err)
	}
	m.Name = update.Name
	m.SubCategory = update.SubCategory
	m.UnitCost = update.UnitCost
	m.LengthFt = update.LengthFt
	m.WidthNominal = update.WidthNominal
	m.ActualWidthIn = update.ActualWidthIn
	m.ThicknessIn = update.ThicknessIn
	if update.Status != "" {
		m.Status = update.Status
	}
	m.UpdatedAt = time.Now()
	if err := s.materialRepo.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("update material: %w", err)
	}
	return m, nil
}

// LaborService 工种与费率维护
type LaborService struct {
	laborRepo *repository.LaborRepository
}

func NewLaborService(laborRepo *repository.LaborRepository) *LaborService {
	return &LaborService{laborRepo: laborRepo}
}

// ListCodes 在用工种
func (s *LaborService) ListCodes(ctx context.Context) ([]entity.LaborCode, error) {
	return s.laborRepo.ListCodes(ctx)
}

// CreateCode 新增工种
func (s *LaborService) CreateCode(ctx context.Context, code *entity.LaborCode) (*entity.LaborCode, error) {
	if code.SKU == "" {
		return nil, fmt.Errorf("sku is required")
	}
	if code.UnitType != entity.LaborUnitPerFoot && code.UnitType != entity.LaborUnitPerGate {
		return nil, fmt.Errorf("unit_type must be %s or %s", entity.LaborUnitPerFoot, entity.LaborUnitPerGate)
	}
	code.ID = newID()
	code.IsActive = true
	now := time.Now()
	code.CreatedAt = now
	code.UpdatedAt = now
	if err := s.laborRepo.CreateCode(ctx, code); err != nil {
		return nil, fmt.Errorf("create labor code: %w", err)
	}
	return code, nil
}

// ListBusinessUnits 在用业务单元
func (s *LaborService) ListBusinessUnits(ctx context.Context) ([]entity.BusinessUnit, error) {
	return s.laborRepo.ListBusinessUnits(ctx)
}

// CreateBusinessUnit 新增业务单元
func (s *LaborService) CreateBusinessUnit(ctx context.Context, unit *entity.BusinessUnit) (*entity.BusinessUnit, error) {
	if unit.Code == "" {
		return nil, fmt.Errorf("code is required")
	}
	unit.ID = newID()
	if unit.Status == "" {
		unit.Status = "active"
	}
	now := time.Now()
	unit.CreatedAt = now
	unit.UpdatedAt = now
	if err := s.laborRepo.CreateBusinessUnit(ctx, unit); err != nil {
		return nil, fmt.Errorf("create business unit: %w", err)
	}
	return unit, nil
}

// SetRate 设置工种 × 业务单元费率
func (s *LaborService) SetRate(ctx context.Context, laborSKU, businessUnitID string, rate float64) error {
	if rate < 0 {
		return fmt.Errorf("rate must not be negative")
	}
	code, err := s.laborRepo.FindCodeBySKU(ctx, laborSKU)
	if err != nil {
		return fmt.Errorf("labor code %s not found: %w", laborSKU, err)
	}
	now := time.Now()
	return s.laborRepo.UpsertRate(ctx, &entity.LaborRate{
		ID:             newID(),
		LaborCodeID:    code.ID,
		BusinessUnitID: businessUnitID,
		Rate:           rate,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
}

// RateMap 某业务单元的费率映射
func (s *LaborService) RateMap(ctx context.Context, businessUnitID string) (map[string]float64, error) {
	return s.laborRepo.RateMap(ctx, businessUnitID)
}

// KnownCodes 计算器会产出的全部工种编码（费率表种子用）
func (s *LaborService) KnownCodes() []string {
	return calc.LaborCodes()
}
